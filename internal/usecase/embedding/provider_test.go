package embedding

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/urbansearch/internal/domain"
)

func TestProvider_Available(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0}}}
	p := NewProvider(inner, 0, 0, time.Second, nil)

	got := p.Embed(context.Background(), "jazz")
	require.True(t, got.Available)
	assert.Equal(t, []float32{1, 0}, got.Vector)
	assert.Empty(t, got.Reason)
}

func TestProvider_NotConfigured(t *testing.T) {
	p := NewProvider(nil, 0, 0, time.Second, nil)

	got := p.Embed(context.Background(), "jazz")
	assert.False(t, got.Available)
	assert.Equal(t, ReasonNotConfigured, got.Reason)
	assert.False(t, p.Enabled())
	assert.ErrorIs(t, p.HealthCheck(context.Background()), domain.ErrEmbeddingUnavailable)
}

func TestProvider_ProviderError(t *testing.T) {
	p := NewProvider(&mockEmbedder{err: domain.ErrEmbeddingProviderError}, 0, 0, time.Second, nil)

	got := p.Embed(context.Background(), "jazz")
	assert.False(t, got.Available)
	assert.Equal(t, ReasonProviderError, got.Reason)
}

func TestProvider_Timeout(t *testing.T) {
	p := NewProvider(&mockEmbedder{block: true}, 0, 0, 20*time.Millisecond, nil)

	got := p.Embed(context.Background(), "jazz")
	assert.False(t, got.Available)
	assert.Equal(t, ReasonTimeout, got.Reason)
}

func TestProvider_RateLimited(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	p := NewProvider(inner, 0.001, 1, time.Second, nil)

	first := p.Embed(context.Background(), "a")
	second := p.Embed(context.Background(), "b")

	assert.True(t, first.Available)
	assert.False(t, second.Available)
	assert.Equal(t, ReasonRateLimited, second.Reason)
	assert.Equal(t, 1, inner.calls)
}

func TestProvider_InvalidVectors(t *testing.T) {
	tests := []struct {
		name   string
		vec    []float32
		reason string
	}{
		{"empty", nil, ReasonEmptyVector},
		{"nan", []float32{1, float32(math.NaN())}, ReasonInvalidVector},
		{"inf", []float32{float32(math.Inf(1))}, ReasonInvalidVector},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewProvider(&mockEmbedder{result: domain.EmbeddingResult{Embedding: tc.vec}}, 0, 0, time.Second, nil)

			got := p.Embed(context.Background(), "q")
			assert.False(t, got.Available)
			assert.Equal(t, tc.reason, got.Reason)
		})
	}
}

func TestProvider_HealthCheck(t *testing.T) {
	hcErr := errors.New("down")
	p := NewProvider(&mockEmbedder{healthErr: hcErr}, 0, 0, time.Second, nil)

	assert.ErrorIs(t, p.HealthCheck(context.Background()), hcErr)
	assert.True(t, p.Enabled())
}
