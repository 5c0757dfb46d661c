package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/urbansearch/internal/domain"
)

func TestBuildListQuery_NoFilter(t *testing.T) {
	query, args := buildListQuery(nil)

	assert.Contains(t, query, "FROM destinations")
	assert.Contains(t, query, "WHERE 1 = 1")
	assert.Contains(t, query, "ORDER BY slug")
	assert.Empty(t, args)
}

func TestBuildListQuery_CityAndCategory(t *testing.T) {
	query, args := buildListQuery(&domain.ListFilter{City: "tokyo", Category: "bar"})

	assert.Contains(t, query, "city ILIKE $1")
	assert.Contains(t, query, "category ILIKE $2")
	require.Len(t, args, 2)
	assert.Equal(t, "%tokyo%", args[0])
	assert.Equal(t, "%bar%", args[1])
}

func TestBuildListQuery_CategoryOnlyUsesFirstPlaceholder(t *testing.T) {
	query, args := buildListQuery(&domain.ListFilter{Category: "cafe"})

	assert.Contains(t, query, "category ILIKE $1")
	assert.False(t, strings.Contains(query, "$2"))
	assert.Equal(t, []any{"%cafe%"}, args)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\x`, escapeLike(`c:\x`))
}
