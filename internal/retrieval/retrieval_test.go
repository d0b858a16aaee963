package retrieval

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wncfund/proposalkit/internal/kb"
)

// stubScorer returns fixed scores keyed by store position.
type stubScorer struct {
	scores map[int]float64
	calls  int
}

func (s *stubScorer) Score(ctx context.Context, brief string) (map[int]float64, error) {
	s.calls++
	return s.scores, nil
}

func testStore(t *testing.T) *kb.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "context.jsonl")
	lines := `{"doc_id":"doc-a","title":"Flood recovery microgrants","date":"2024-09-15","text":"Microgrants for flood-impacted businesses in Haywood County."}
{"doc_id":"doc-b","title":"Org boilerplate","date":"2025-01-01","text":"Community fund supporting small business recovery."}
{"doc_id":"doc-c","title":"Outcome report","date":"2025-03-20","text":"Forty businesses restarted operations after equipment grants."}
`
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("writing kb: %v", err)
	}
	store, err := kb.Load(path, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("loading kb: %v", err)
	}
	return store
}

func date(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return &d
}

func TestRetrieveOrdersByScoreThenIngestion(t *testing.T) {
	store := testStore(t)
	scorer := &stubScorer{scores: map[int]float64{0: 0.5, 1: 0.9, 2: 0.5}}
	r := New(store, scorer)

	got, err := r.Retrieve(context.Background(), Query{Brief: "recovery", K: 3})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	ids := []string{got[0].Chunk.DocID, got[1].Chunk.DocID, got[2].Chunk.DocID}
	// doc-b wins on score; doc-a and doc-c tie and keep ingestion order.
	if ids[0] != "doc-b" || ids[1] != "doc-a" || ids[2] != "doc-c" {
		t.Fatalf("unexpected order: %v", ids)
	}
}

func TestRetrieveIsDeterministic(t *testing.T) {
	store := testStore(t)
	scorer := &stubScorer{scores: map[int]float64{0: 0.3, 1: 0.3, 2: 0.3}}
	r := New(store, scorer)

	q := Query{Brief: "recovery", K: 2}
	first, err := r.Retrieve(context.Background(), q)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	second, err := r.Retrieve(context.Background(), q)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("rankings differ in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Chunk.DocID != second[i].Chunk.DocID {
			t.Fatalf("rankings differ at %d: %s vs %s", i, first[i].Chunk.DocID, second[i].Chunk.DocID)
		}
	}
}

func TestRetrieveTruncatesToK(t *testing.T) {
	store := testStore(t)
	r := New(store, &stubScorer{scores: map[int]float64{0: 1, 1: 2, 2: 3}})

	got, err := r.Retrieve(context.Background(), Query{Brief: "x", K: 2})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected k=2 results, got %d", len(got))
	}

	// Fewer qualifying chunks than k is not an error.
	got, err = r.Retrieve(context.Background(), Query{Brief: "x", K: 12})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected all 3 chunks, got %d", len(got))
	}
}

func TestRetrieveRejectsNonPositiveK(t *testing.T) {
	store := testStore(t)
	r := New(store, &stubScorer{})
	if _, err := r.Retrieve(context.Background(), Query{Brief: "x", K: 0}); err == nil {
		t.Fatal("expected error for k=0")
	}
}

func TestDateFilterInclusiveBounds(t *testing.T) {
	store := testStore(t)
	r := New(store, &stubScorer{scores: map[int]float64{}})

	// Bounds exactly on doc-a's date keep it.
	got, err := r.Retrieve(context.Background(), Query{
		Brief:  "x",
		K:      6,
		Filter: Filter{DateFrom: date(t, "2024-09-15"), DateTo: date(t, "2024-09-15")},
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 1 || got[0].Chunk.DocID != "doc-a" {
		t.Fatalf("inclusive bounds should keep doc-a, got %+v", got)
	}

	// Half-open window from 2025 on.
	got, err = r.Retrieve(context.Background(), Query{
		Brief:  "x",
		K:      6,
		Filter: Filter{DateFrom: date(t, "2025-01-01")},
	})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected doc-b and doc-c, got %d results", len(got))
	}
}

func TestNoMatchFilterSkipsScorer(t *testing.T) {
	store := testStore(t)
	scorer := &stubScorer{scores: map[int]float64{0: 1}}
	r := New(store, scorer)

	got, err := r.Retrieve(context.Background(), Query{
		Brief:  "x",
		K:      6,
		Filter: Filter{DateFrom: date(t, "2015-01-01"), DateTo: date(t, "2015-12-31")},
	})
	if err != nil {
		t.Fatalf("no-match retrieval must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %d", len(got))
	}
	if scorer.calls != 0 {
		t.Fatalf("scorer should not run for an empty candidate set, ran %d times", scorer.calls)
	}
}

func TestLexicalScorerRanksMatchingChunk(t *testing.T) {
	store := testStore(t)
	scorer, err := NewLexicalScorer(store)
	if err != nil {
		t.Fatalf("NewLexicalScorer: %v", err)
	}
	r := New(store, scorer)

	got, err := r.Retrieve(context.Background(), Query{Brief: "microgrants for flood-impacted businesses", K: 3})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected results")
	}
	if got[0].Chunk.DocID != "doc-a" {
		t.Fatalf("expected the microgrants chunk first, got %s", got[0].Chunk.DocID)
	}
}
