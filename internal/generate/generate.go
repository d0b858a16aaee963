// Package generate turns a brief plus retrieved chunks into a draft through
// the configured LLM provider. Draft structure is untrusted; callers repair
// markers, postscripts and subject lines downstream.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wncfund/proposalkit/internal/kb"
	"github.com/wncfund/proposalkit/provider"
)

// Route selects the generation template. Retrieval and reconciliation do not
// depend on it.
type Route string

const (
	RouteEmail     Route = "email"
	RouteNarrative Route = "narrative"
)

// Noun is the legacy response field prefix for the route.
func (r Route) Noun() string { return string(r) }

// Request carries the brief and prompt knobs for one generation.
type Request struct {
	OrgBrief      string
	CampaignBrief string
	Audience      string
	Tone          string
	Ask           string
	Deadline      string
}

// BriefText is the combined text used both as prompt seed and retrieval query.
func (r Request) BriefText() string {
	parts := make([]string, 0, 2)
	if strings.TrimSpace(r.CampaignBrief) != "" {
		parts = append(parts, strings.TrimSpace(r.CampaignBrief))
	}
	if strings.TrimSpace(r.OrgBrief) != "" {
		parts = append(parts, strings.TrimSpace(r.OrgBrief))
	}
	return strings.Join(parts, "\n")
}

// Draft is raw generator output. Markers, subject count and postscript
// presence carry no guarantees.
type Draft struct {
	BodyMD     string
	Subjects   []string
	PS         string
	Structured bool
}

// Generator adapts the provider into route-specific drafting.
type Generator struct {
	provider provider.Provider
}

func New(p provider.Provider) *Generator {
	return &Generator{provider: p}
}

// Generate drafts text for the route, numbering the supplied chunks so the
// model can cite position i as [i+1]. It is still invoked with zero chunks
// to produce ungrounded copy. Provider failures propagate unchanged.
func (g *Generator) Generate(ctx context.Context, route Route, req Request, chunks []kb.Chunk) (Draft, error) {
	switch route {
	case RouteEmail:
		return g.generateEmail(ctx, req, chunks)
	case RouteNarrative:
		return g.generateNarrative(ctx, req, chunks)
	default:
		return Draft{}, fmt.Errorf("unknown route %q", route)
	}
}

const systemPromptBase = `You are a nonprofit fundraising writer serving Western North Carolina disaster recovery.
Ground every factual claim in the provided context; if the context lacks a fact, be transparent rather than inventing numbers.
Write clearly, respectfully, and avoid making promises. Use a community-first tone.
When you cite facts, use bracketed numeric markers like [1], [2] referring to the numbered context blocks.
Do not insert hard line breaks inside a sentence or a number.`

const emailSystemPrompt = systemPromptBase + `
Return ONLY valid JSON with keys:
- subjects (array of exactly 3 short strings)
- body_md (string; 150-220 words, includes [n] markers; do not include a P.S. here)
- ps (string; one sentence; do not prefix with 'P.S.')
No extra prose, no markdown fences.`

const narrativeSystemPrompt = systemPromptBase + `
Output ONLY plain Markdown (no JSON). Do not use headings (#, ##, ###).
Write six paragraphs in this exact order, each starting with a bold label followed by a period:

**Need/Problem.** ...
**Program/Intervention.** ...
**Budget Summary & Unit Economics.** ...
**Outcomes & Reporting Plan.** ...
**Equity & Community Context.** ...
**Organizational Capacity.** ...

Do not add a sources section. Keep normal paragraph wrapping.`

func (g *Generator) generateEmail(ctx context.Context, req Request, chunks []kb.Chunk) (Draft, error) {
	userPrompt := fmt.Sprintf(`Return ONLY valid JSON with these keys:
- subjects: list of exactly 3 concise subject lines
- body_md: the email body (150-220 words)
- ps: a one-sentence P.S. with a concrete next step

Audience: %s
Tone: %s
Ask amount or range: %s
Deadline/urgency note: %s

ORG BRIEF
---
%s

CAMPAIGN BRIEF
---
%s

RETRIEVED CONTEXT
---
%s`, req.Audience, req.Tone, req.Ask, req.Deadline, req.OrgBrief, req.CampaignBrief, contextBlocks(chunks))

	raw, err := g.provider.CreateCompletion(ctx, []provider.Message{
		{Role: "system", Content: emailSystemPrompt},
		{Role: "user", Content: userPrompt},
	}, true)
	if err != nil {
		return Draft{}, err
	}
	return parseEmailDraft(raw), nil
}

func (g *Generator) generateNarrative(ctx context.Context, req Request, chunks []kb.Chunk) (Draft, error) {
	userPrompt := fmt.Sprintf(`Write a grant-style narrative (350-650 words) with the exact section labels specified in the system prompt.
Ground your writing in the retrieved context. Do not add a sources section.

ORG BRIEF
---
%s

CAMPAIGN BRIEF
---
%s

RETRIEVED CONTEXT
---
%s`, req.OrgBrief, req.CampaignBrief, contextBlocks(chunks))

	raw, err := g.provider.CreateCompletion(ctx, []provider.Message{
		{Role: "system", Content: narrativeSystemPrompt},
		{Role: "user", Content: userPrompt},
	}, false)
	if err != nil {
		return Draft{}, err
	}

	body := strings.TrimSpace(raw)
	// Some models return JSON anyway; salvage the body if so.
	if strings.HasPrefix(body, "{") {
		var obj struct {
			BodyMD string `json:"body_md"`
		}
		if err := json.Unmarshal([]byte(body), &obj); err == nil && obj.BodyMD != "" {
			body = obj.BodyMD
		}
	}
	return Draft{BodyMD: body, Structured: true}, nil
}

// contextBlocks numbers the chunks the way markers reference them.
func contextBlocks(chunks []kb.Chunk) string {
	if len(chunks) == 0 {
		return "No context available."
	}
	blocks := make([]string, 0, len(chunks))
	for i, c := range chunks {
		title := c.Title
		if title == "" {
			title = fmt.Sprintf("Source %d", i+1)
		}
		snippet := c.Text
		// Truncate on a rune boundary so multibyte text never splits.
		if r := []rune(snippet); len(r) > 600 {
			snippet = string(r[:600])
		}
		blocks = append(blocks, fmt.Sprintf("[%d] %s (%s)\n%s\nURL: %s", i+1, title, c.DateString(), snippet, c.URL))
	}
	return strings.Join(blocks, "\n\n")
}

type emailPayload struct {
	Subjects []string `json:"subjects"`
	BodyMD   string   `json:"body_md"`
	PS       string   `json:"ps"`
}

// parseEmailDraft decodes the JSON-mode email draft, salvaging a brace-
// delimited object when the model wrapped it in prose, then falling back to
// a line-split heuristic. Only a real structured parse marks the draft
// structured; heuristic output yields a legacy-only response downstream.
func parseEmailDraft(raw string) Draft {
	trimmed := strings.TrimSpace(raw)

	var obj emailPayload
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		if start, end := strings.Index(trimmed, "{"), strings.LastIndex(trimmed, "}"); start >= 0 && end > start {
			_ = json.Unmarshal([]byte(trimmed[start:end+1]), &obj)
		}
	}
	if obj.BodyMD != "" {
		return Draft{
			BodyMD:     obj.BodyMD,
			Subjects:   obj.Subjects,
			PS:         strings.TrimSpace(obj.PS),
			Structured: len(obj.Subjects) > 0,
		}
	}

	// Last resort: first three non-empty lines as subjects, rest as body.
	var lines []string
	for _, ln := range strings.Split(trimmed, "\n") {
		ln = strings.TrimSpace(strings.TrimLeft(ln, "-* "))
		if ln != "" {
			lines = append(lines, ln)
		}
	}
	if len(lines) > 3 {
		return Draft{BodyMD: strings.Join(lines[3:], "\n"), Subjects: lines[:3]}
	}
	return Draft{BodyMD: trimmed}
}
