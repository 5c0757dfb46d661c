package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/urbansearch/internal/db"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestSetGet(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v")))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestGet_NotFound(t *testing.T) {
	s := openMemory(t)

	_, err := s.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, db.ErrKeyNotFound))
}

func TestSetWithTTL_Overwrites(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.SetWithTTL(ctx, "k", []byte("one"), time.Hour))
	require.NoError(t, s.SetWithTTL(ctx, "k", []byte("two"), time.Hour))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "two", string(got))
}

func TestOpen_OnDisk(t *testing.T) {
	s, err := Open(t.TempDir(), nil)
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Ping(context.Background()))
}

func TestPing_Closed(t *testing.T) {
	s, err := Open("", nil)
	require.NoError(t, err)
	s.Close()

	var dbErr *db.Error
	assert.True(t, errors.As(s.Ping(context.Background()), &dbErr))
}
