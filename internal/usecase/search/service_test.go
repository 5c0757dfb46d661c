package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/tier"
)

func blueNote() domain.Destination {
	return domain.Destination{Slug: "a", Name: "Blue Note", City: "tokyo", Category: "bar", Rating: 4.6, SaveCount: 5}
}

func TestSearch_KeywordTierFindsExactName(t *testing.T) {
	snap := newSnapshot(t, blueNote())
	svc := newService(snap, fallbackAnalyzer{}, unavailable(), defaultRetrievers())

	resp, err := svc.Search(context.Background(), newRequest(t, "Blue Note", 0))
	require.NoError(t, err)

	assert.Equal(t, tier.Keyword, resp.Tier)
	assert.Contains(t, slugs(resp.Results), "a")
}

func TestSearch_EmbeddingUnavailableGoesToFullText(t *testing.T) {
	snap := newSnapshot(t,
		domain.Destination{Slug: "jazz", Name: "Blue Note", Description: "Legendary jazz club"},
		domain.Destination{Slug: "tea", Name: "Ippodo", Description: "Tea house"},
	)
	emb := unavailable()
	svc := newService(snap, fallbackAnalyzer{}, emb, defaultRetrievers())

	resp, err := svc.Search(context.Background(), newRequest(t, "jazz club", 0))
	require.NoError(t, err)

	assert.Equal(t, 1, emb.calls)
	assert.Equal(t, tier.FullText, resp.Tier)
	assert.Equal(t, []string{"jazz"}, slugs(resp.Results))
}

func TestSearch_VectorTierFirst(t *testing.T) {
	snap := newSnapshot(t,
		domain.Destination{Slug: "near", Name: "Near", Description: "jazz", Embedding: []float32{1, 0}},
		domain.Destination{Slug: "far", Name: "Far", Description: "jazz", Embedding: []float32{0, 1}},
	)
	emb := &stubEmbedder{emb: domain.QueryEmbedding{Vector: []float32{1, 0}, Available: true}}
	svc := newService(snap, fallbackAnalyzer{}, emb, defaultRetrievers())

	resp, err := svc.Search(context.Background(), newRequest(t, "jazz", 0))
	require.NoError(t, err)

	assert.Equal(t, tier.VectorSemantic, resp.Tier)
	assert.Equal(t, []string{"near"}, slugs(resp.Results))
}

func TestSearch_NoCorpusEmbeddingsFallsThroughToFullText(t *testing.T) {
	snap := newSnapshot(t, domain.Destination{Slug: "jazz", Name: "Blue Note", Description: "jazz"})
	emb := &stubEmbedder{emb: domain.QueryEmbedding{Vector: []float32{1, 0}, Available: true}}

	vector := &countingRetriever{Retriever: NewVectorRetriever(DefaultSimilarityThreshold, nil, 0)}
	fulltext := &countingRetriever{Retriever: NewFullTextRetriever()}
	keyword := &countingRetriever{Retriever: NewKeywordRetriever()}
	svc := newService(snap, fallbackAnalyzer{}, emb, []Retriever{vector, fulltext, keyword})

	resp, err := svc.Search(context.Background(), newRequest(t, "jazz", 0))
	require.NoError(t, err)

	assert.Equal(t, tier.FullText, resp.Tier)
	assert.Equal(t, 1, vector.calls)
	assert.Equal(t, 1, fulltext.calls)
	assert.Zero(t, keyword.calls)
}

func TestSearch_Deterministic(t *testing.T) {
	snap := newSnapshot(t,
		domain.Destination{Slug: "c", Name: "Cafe Kitsune", Category: "cafe", City: "paris"},
		domain.Destination{Slug: "a", Name: "Cafe de Flore", Category: "cafe", City: "paris"},
		domain.Destination{Slug: "b", Name: "Cafe Verlet", Category: "cafe", City: "paris", SaveCount: 12},
	)
	svc := newService(snap, fallbackAnalyzer{}, unavailable(), defaultRetrievers())

	first, err := svc.Search(context.Background(), newRequest(t, "cafe", 0))
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), newRequest(t, "cafe", 0))
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results)
	assert.Equal(t, first.Tier, second.Tier)
	assert.Equal(t, []string{"b", "a", "c"}, slugs(first.Results))
}

func TestSearch_PageSize(t *testing.T) {
	var records []domain.Destination
	for _, slug := range []string{"a", "b", "c", "d", "e"} {
		records = append(records, domain.Destination{Slug: slug, Name: "Ramen " + slug})
	}
	snap := newSnapshot(t, records...)
	svc := newService(snap, fallbackAnalyzer{}, unavailable(), defaultRetrievers())

	resp, err := svc.Search(context.Background(), newRequest(t, "ramen", 3))
	require.NoError(t, err)
	assert.Len(t, resp.Results, 3)
}

func TestSearch_NoMatchIsKeywordAndEmpty(t *testing.T) {
	snap := newSnapshot(t, blueNote())
	svc := newService(snap, fallbackAnalyzer{}, unavailable(), defaultRetrievers())

	resp, err := svc.Search(context.Background(), newRequest(t, "zzzz", 0))
	require.NoError(t, err)
	assert.Equal(t, tier.Keyword, resp.Tier)
	assert.Empty(t, resp.Results)
}

func TestSearch_PanickingTierTreatedAsEmpty(t *testing.T) {
	snap := newSnapshot(t, blueNote())
	svc := newService(snap, fallbackAnalyzer{}, unavailable(), []Retriever{
		panicRetriever{t: tier.FullText},
		NewKeywordRetriever(),
	})

	resp, err := svc.Search(context.Background(), newRequest(t, "Blue Note", 0))
	require.NoError(t, err)
	assert.Equal(t, tier.Keyword, resp.Tier)
	assert.Equal(t, []string{"a"}, slugs(resp.Results))
}

func TestSearch_AllTiersFailed(t *testing.T) {
	snap := newSnapshot(t, blueNote())
	svc := newService(snap, fallbackAnalyzer{}, unavailable(), []Retriever{
		NewVectorRetriever(DefaultSimilarityThreshold, nil, 0), // skipped, no embedding
		errRetriever{t: tier.FullText},
		panicRetriever{t: tier.Keyword},
	})

	_, err := svc.Search(context.Background(), newRequest(t, "Blue Note", 0))
	assert.ErrorIs(t, err, domain.ErrAllTiersFailed)
}

func TestSearch_CorpusUnavailable(t *testing.T) {
	svc := New(&stubSnapshots{err: errors.New("dial tcp: refused")}, fallbackAnalyzer{}, unavailable(),
		defaultRetrievers(), Config{Popularity: DefaultPopularity()}, nil)

	_, err := svc.Search(context.Background(), newRequest(t, "Blue Note", 0))
	assert.ErrorIs(t, err, domain.ErrCorpusUnavailable)
}

func TestSearch_ReleasesSnapshot(t *testing.T) {
	src := &stubSnapshots{snap: newSnapshot(t, blueNote())}
	svc := New(src, fallbackAnalyzer{}, unavailable(), defaultRetrievers(), Config{Popularity: DefaultPopularity()}, nil)

	_, err := svc.Search(context.Background(), newRequest(t, "Blue Note", 0))
	require.NoError(t, err)
	_, err = svc.Search(context.Background(), newRequest(t, "zzzz", 0))
	require.NoError(t, err)

	assert.Equal(t, 2, src.acquired)
	assert.Equal(t, 2, src.released)
}

func TestSearch_IntentAndSuggestions(t *testing.T) {
	snap := newSnapshot(t, domain.Destination{Slug: "a", Name: "Tsukiji", City: "Tokyo", Category: "market"})
	svc := newService(snap, fallbackAnalyzer{}, unavailable(), defaultRetrievers())

	resp, err := svc.Search(context.Background(), newRequest(t, "tokyo", 0))
	require.NoError(t, err)

	assert.Equal(t, "tokyo", resp.Intent.City())
	assert.Equal(t, []string{"a"}, slugs(resp.Results))
	assert.NotEmpty(t, resp.Suggestions)
}
