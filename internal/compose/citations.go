// Package compose reconciles generator output with the chunks that were
// actually supplied to it. The generator is trusted for prose, never for
// structure: markers, postscripts and subject lines are all repaired here.
package compose

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wncfund/proposalkit/internal/kb"
)

// Source is one cited knowledge-base entry, in the order first referenced.
type Source struct {
	DocID  string   `json:"doc_id"`
	Title  string   `json:"title"`
	URL    string   `json:"url,omitempty"`
	Date   string   `json:"date"`
	County string   `json:"county,omitempty"`
	Topics []string `json:"topics,omitempty"`
}

var (
	markerRe = regexp.MustCompile(`\[(\d+)\]`)
	// marker plus any whitespace glued to its left, for clean removal
	markerWithSpaceRe = regexp.MustCompile(`\s*\[(\d+)\]`)

	sourcesHeadingRe = regexp.MustCompile(`(?is)\n+#+\s*(sources|references)\b.*$`)
	sourcesLineRe    = regexp.MustCompile(`(?im)^\s*(sources|references)\s*:\s*$`)
)

// Reconcile aligns the draft's [n] markers with the supplied chunks.
// Distinct in-range markers are renumbered sequentially from 1 in
// first-encountered order and every occurrence rewritten; out-of-range
// markers — and all markers when chunks is empty — are dropped with the
// surrounding whitespace collapsed. The returned sources list the referenced
// chunks in the same first-encountered order, so the count of distinct
// markers in the result always equals len(sources).
func Reconcile(draft string, chunks []kb.Chunk) (string, []Source) {
	md := stripModelSources(draft)

	if len(chunks) == 0 {
		md = markerWithSpaceRe.ReplaceAllString(md, "")
		return strings.TrimSpace(md), nil
	}

	// First-encountered order of distinct, in-range markers.
	renumber := make(map[int]int)
	var order []int
	for _, m := range markerRe.FindAllStringSubmatch(md, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > len(chunks) {
			continue
		}
		if _, seen := renumber[n]; !seen {
			renumber[n] = len(order) + 1
			order = append(order, n)
		}
	}

	md = markerWithSpaceRe.ReplaceAllStringFunc(md, func(tok string) string {
		sub := markerWithSpaceRe.FindStringSubmatch(tok)
		n, _ := strconv.Atoi(sub[1])
		next, ok := renumber[n]
		if !ok {
			return ""
		}
		space := tok[:strings.Index(tok, "[")]
		return space + "[" + strconv.Itoa(next) + "]"
	})

	sources := make([]Source, 0, len(order))
	for _, n := range order {
		sources = append(sources, renderSource(chunks[n-1]))
	}
	return strings.TrimSpace(md), sources
}

// Finalize runs the full repair chain on a draft: strip any model-written
// sources section, enforce the single postscript, then reconcile markers.
// The postscript is merged in before reconciliation so a marker the
// generator put inside ps is renumbered or dropped like any other.
func Finalize(body, ps string, chunks []kb.Chunk) (string, []Source) {
	md := EnsurePostscript(stripModelSources(body), ps)
	return Reconcile(md, chunks)
}

func renderSource(c kb.Chunk) Source {
	title := c.Title
	if title == "" {
		title = c.DocID
	}
	return Source{
		DocID:  c.DocID,
		Title:  title,
		URL:    c.URL,
		Date:   c.DateString(),
		County: c.County,
		Topics: c.Topics,
	}
}

// stripModelSources drops any model-written trailing Sources or References
// section; the reconciled source list is the only one that ships.
func stripModelSources(md string) string {
	md = sourcesHeadingRe.ReplaceAllString(md, "")
	md = sourcesLineRe.ReplaceAllString(md, "")
	return md
}
