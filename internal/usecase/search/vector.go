package search

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/kailas-cloud/urbansearch/internal/corpus"
	"github.com/kailas-cloud/urbansearch/internal/domain"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/result"
	"github.com/kailas-cloud/urbansearch/internal/domain/search/tier"
)

// DefaultSimilarityThreshold is the minimum cosine similarity for a vector hit.
const DefaultSimilarityThreshold = 0.7

// VectorRetriever scores every embedded record by cosine similarity to the
// query vector. Corpora above parallelThreshold are scored in chunks on the
// worker pool.
type VectorRetriever struct {
	threshold         float64
	pool              *ants.Pool
	parallelThreshold int
}

// NewVectorRetriever creates the vector tier. pool may be nil for sequential scoring.
func NewVectorRetriever(threshold float64, pool *ants.Pool, parallelThreshold int) *VectorRetriever {
	return &VectorRetriever{threshold: threshold, pool: pool, parallelThreshold: parallelThreshold}
}

// Tier implements Retriever.
func (r *VectorRetriever) Tier() tier.Tier { return tier.VectorSemantic }

// Applicable reports whether a query vector is available.
func (r *VectorRetriever) Applicable(in *Input) bool {
	return in.Embedding.Available && len(in.Embedding.Vector) > 0
}

type vectorHit struct {
	idx int
	sim float64
}

// Retrieve implements Retriever.
func (r *VectorRetriever) Retrieve(
	ctx context.Context, in *Input, snap *corpus.Snapshot, limit int,
) ([]result.Candidate, error) {
	if !r.Applicable(in) {
		return nil, nil
	}

	records := snap.Records()
	var (
		hits []vectorHit
		err  error
	)
	if r.pool != nil && r.parallelThreshold > 0 && len(records) > r.parallelThreshold {
		hits, err = r.scoreParallel(ctx, in, records)
	} else {
		hits = r.scoreRange(in, records, 0, len(records))
	}
	if err != nil {
		return nil, err
	}

	// snapshot order breaks ties
	slices.SortStableFunc(hits, func(a, b vectorHit) int { return cmp.Compare(b.sim, a.sim) })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]result.Candidate, len(hits))
	for i, h := range hits {
		out[i] = result.NewCandidate(&records[h.idx], tier.VectorSemantic, h.sim)
	}
	return out, nil
}

func (r *VectorRetriever) scoreRange(in *Input, records []domain.Destination, from, to int) []vectorHit {
	var hits []vectorHit
	for i := from; i < to; i++ {
		d := &records[i]
		if !d.HasEmbedding() || !in.Strict.Matches(d) {
			continue
		}
		sim, ok := CosineSimilarity(in.Embedding.Vector, d.Embedding)
		if !ok || sim < r.threshold {
			continue
		}
		hits = append(hits, vectorHit{idx: i, sim: sim})
	}
	return hits
}

func (r *VectorRetriever) scoreParallel(ctx context.Context, in *Input, records []domain.Destination) ([]vectorHit, error) {
	workers := max(r.pool.Cap(), 1)
	chunk := (len(records) + workers - 1) / workers
	chunks := make([][]vectorHit, (len(records)+chunk-1)/chunk)

	var wg sync.WaitGroup
	var submitErr error
	for c := range chunks {
		if err := ctx.Err(); err != nil {
			submitErr = err
			break
		}
		from := c * chunk
		to := min(from+chunk, len(records))

		wg.Add(1)
		err := r.pool.Submit(func() {
			defer wg.Done()
			chunks[c] = r.scoreRange(in, records, from, to)
		})
		if err != nil {
			wg.Done()
			submitErr = fmt.Errorf("submit vector chunk: %w", err)
			break
		}
	}
	wg.Wait()

	if submitErr != nil {
		return nil, submitErr
	}

	var hits []vectorHit
	for _, h := range chunks {
		hits = append(hits, h...)
	}
	return hits, nil
}
