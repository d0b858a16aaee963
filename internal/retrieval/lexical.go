package retrieval

import (
	"context"
	"strconv"

	"github.com/blevesearch/bleve"
	"github.com/wncfund/proposalkit/internal/kb"
)

// LexicalScorer ranks chunks with an in-memory bleve full-text index built
// once over the store. Queries against a fixed index are deterministic and
// involve no external call, so this is the default strategy.
type LexicalScorer struct {
	index bleve.Index
	size  int
}

// NewLexicalScorer indexes every chunk of the store under its position.
func NewLexicalScorer(store *kb.Store) (*LexicalScorer, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	for i := 0; i < store.Len(); i++ {
		c := store.At(i)
		doc := map[string]interface{}{
			"title":  c.Title,
			"text":   c.Text,
			"county": c.County,
			"topics": c.Topics,
		}
		if err := index.Index(strconv.Itoa(i), doc); err != nil {
			return nil, err
		}
	}
	return &LexicalScorer{index: index, size: store.Len()}, nil
}

func (s *LexicalScorer) Score(ctx context.Context, brief string) (map[int]float64, error) {
	scores := make(map[int]float64, s.size)
	if s.size == 0 || brief == "" {
		return scores, nil
	}
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(brief))
	req.Size = s.size
	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, hit := range res.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil {
			continue
		}
		scores[i] = hit.Score
	}
	return scores, nil
}
