// Package kb holds the knowledge base: chunks of source documents loaded
// once at startup and served read-only for the life of the process.
package kb

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"
)

const dateLayout = "2006-01-02"

// Chunk is one retrievable knowledge-base unit with its source metadata.
type Chunk struct {
	ID     string
	DocID  string
	Title  string
	URL    string
	Date   time.Time
	County string
	Topics []string
	Text   string
}

// DateString renders the chunk date back in the ingestion format.
func (c Chunk) DateString() string { return c.Date.Format(dateLayout) }

// record is the wire shape of one line in the chunk file.
type record struct {
	ID     string   `json:"id"`
	DocID  string   `json:"doc_id"`
	Title  string   `json:"title"`
	URL    string   `json:"url"`
	Date   string   `json:"date"`
	County string   `json:"county"`
	Topics []string `json:"topics"`
	Text   string   `json:"text"`
}

// Store is an ordered, immutable view over the loaded chunks. It is never
// mutated after Load returns, so concurrent readers need no locking.
type Store struct {
	chunks []Chunk
}

// Load reads the newline-delimited chunk file once. A missing or unreadable
// file is an error the caller must treat as fatal. A single malformed record
// (missing doc_id, unparsable date, bad JSON) is skipped and logged without
// failing the load. A missing url is tolerated.
func Load(path string, logger *log.Logger) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening knowledge base: %w", err)
	}
	defer f.Close()

	var chunks []Chunk
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			logger.Printf("skipping line %d: invalid json: %v", line, err)
			continue
		}
		if rec.DocID == "" {
			logger.Printf("skipping line %d: missing doc_id", line)
			continue
		}
		date, err := time.Parse(dateLayout, rec.Date)
		if err != nil {
			logger.Printf("skipping line %d (doc %s): bad date %q", line, rec.DocID, rec.Date)
			continue
		}
		chunks = append(chunks, Chunk{
			ID:     rec.ID,
			DocID:  rec.DocID,
			Title:  rec.Title,
			URL:    rec.URL,
			Date:   date,
			County: rec.County,
			Topics: rec.Topics,
			Text:   rec.Text,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading knowledge base: %w", err)
	}
	logger.Printf("loaded %d chunks from %s", len(chunks), path)
	return &Store{chunks: chunks}, nil
}

// Len reports the number of loaded chunks.
func (s *Store) Len() int { return len(s.chunks) }

// At returns the chunk at position i in ingestion order.
func (s *Store) At(i int) Chunk { return s.chunks[i] }

// Chunks returns a copy of the loaded chunks in ingestion order.
func (s *Store) Chunks() []Chunk {
	out := make([]Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}
