package retrieval

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/wncfund/proposalkit/internal/kb"
	"github.com/wncfund/proposalkit/provider"
)

// EmbeddingScorer ranks chunks by cosine similarity between the brief's
// embedding and each chunk's embedding. Chunk vectors are fetched once on
// first use; per request only the brief is embedded, bounded by the
// configured timeout so a slow provider cannot hold a request open.
type EmbeddingScorer struct {
	provider provider.Provider
	store    *kb.Store
	timeout  time.Duration

	mu   sync.RWMutex
	vecs [][]float32
}

func NewEmbeddingScorer(p provider.Provider, store *kb.Store, timeout time.Duration) *EmbeddingScorer {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &EmbeddingScorer{provider: p, store: store, timeout: timeout}
}

func (s *EmbeddingScorer) Score(ctx context.Context, brief string) (map[int]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	vecs, err := s.chunkVectors(ctx)
	if err != nil {
		return nil, err
	}

	qv, err := s.provider.CreateEmbedding(ctx, []string{brief})
	if err != nil {
		return nil, fmt.Errorf("embedding brief: %w", err)
	}
	if len(qv) != 1 {
		return nil, fmt.Errorf("expected 1 query embedding, got %d", len(qv))
	}

	scores := make(map[int]float64, len(vecs))
	for i, v := range vecs {
		scores[i] = cosine(qv[0], v)
	}
	return scores, nil
}

// chunkVectors embeds the corpus on first use and caches the result. A
// failed fill is not cached, so the next request retries.
func (s *EmbeddingScorer) chunkVectors(ctx context.Context) ([][]float32, error) {
	s.mu.RLock()
	vecs := s.vecs
	s.mu.RUnlock()
	if vecs != nil {
		return vecs, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vecs != nil {
		return s.vecs, nil
	}
	texts := make([]string, s.store.Len())
	for i := range texts {
		texts[i] = s.store.At(i).Text
	}
	vecs, err := s.provider.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding corpus: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("expected %d corpus embeddings, got %d", len(texts), len(vecs))
	}
	s.vecs = vecs
	return s.vecs, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
