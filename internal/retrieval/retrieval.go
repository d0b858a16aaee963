// Package retrieval ranks knowledge-base chunks against a brief. Scoring is
// a pluggable strategy; filtering, ordering and truncation are shared.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/wncfund/proposalkit/internal/kb"
)

// Filter restricts retrieval to chunks dated inside the inclusive window.
// A nil bound is unbounded on that side.
type Filter struct {
	DateFrom *time.Time
	DateTo   *time.Time
}

func (f Filter) active() bool { return f.DateFrom != nil || f.DateTo != nil }

func (f Filter) matches(c kb.Chunk) bool {
	if f.DateFrom != nil && c.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && c.Date.After(*f.DateTo) {
		return false
	}
	return true
}

// Query is one retrieval request.
type Query struct {
	Brief  string
	Filter Filter
	K      int
}

// Scored pairs a chunk with its relevance score.
type Scored struct {
	Chunk kb.Chunk
	Score float64
}

// Scorer computes relevance scores for the whole store against a brief,
// keyed by store position. Positions absent from the map score zero.
// Implementations must be deterministic for identical inputs.
type Scorer interface {
	Score(ctx context.Context, brief string) (map[int]float64, error)
}

// Retriever filters, scores, orders and truncates chunks for a query.
// It never mutates the store.
type Retriever struct {
	store  *kb.Store
	scorer Scorer
}

func New(store *kb.Store, scorer Scorer) *Retriever {
	return &Retriever{store: store, scorer: scorer}
}

// Retrieve returns up to q.K chunks ordered by descending relevance, with
// ingestion order as the tie-break so identical queries reproduce identical
// rankings. Zero qualifying chunks is a valid empty result, not an error;
// the scorer is not consulted in that case.
func (r *Retriever) Retrieve(ctx context.Context, q Query) ([]Scored, error) {
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", q.K)
	}

	var candidates []int
	for i := 0; i < r.store.Len(); i++ {
		if q.Filter.active() && !q.Filter.matches(r.store.At(i)) {
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	scores, err := r.scorer.Score(ctx, q.Brief)
	if err != nil {
		return nil, fmt.Errorf("scoring brief: %w", err)
	}

	out := make([]Scored, 0, len(candidates))
	for _, i := range candidates {
		out = append(out, Scored{Chunk: r.store.At(i), Score: scores[i]})
	}
	// Stable sort keeps ingestion order for equal scores.
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })

	if len(out) > q.K {
		out = out[:q.K]
	}
	return out, nil
}
