package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/wncfund/proposalkit/internal/compose"
	"github.com/wncfund/proposalkit/internal/generate"
	"github.com/wncfund/proposalkit/internal/kb"
	"github.com/wncfund/proposalkit/internal/retrieval"
)

// GenerateHandler runs the full pipeline for both generate routes: retrieve,
// draft, reconcile, compose. Every request is an independent invocation; the
// only shared state (the chunk store behind the retriever) is immutable.
type GenerateHandler struct {
	Retriever *retrieval.Retriever
	Generator *generate.Generator
	Cache     *responseCache
	Metrics   *metrics
	Logger    *log.Logger

	DefaultK int
	MaxK     int
}

func (h *GenerateHandler) Register(g *echo.Group) {
	g.POST("/email", func(c echo.Context) error { return h.handle(c, generate.RouteEmail) })
	g.POST("/narrative", func(c echo.Context) error { return h.handle(c, generate.RouteNarrative) })
}

func (h *GenerateHandler) handle(c echo.Context, route generate.Route) error {
	noun := route.Noun()

	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(noun, http.StatusBadRequest, "invalid request body")
	}

	// Boundary validation happens before any retrieval or generation work.
	genReq := generate.Request{
		OrgBrief:      req.OrgBrief,
		CampaignBrief: req.CampaignBrief,
		Audience:      req.Audience,
		Tone:          req.Tone,
		Ask:           req.Ask,
		Deadline:      req.Deadline,
	}
	brief := genReq.BriefText()
	if brief == "" {
		return h.fail(noun, http.StatusBadRequest, "campaign_brief or org_brief is required")
	}
	if req.K < 0 {
		return h.fail(noun, http.StatusBadRequest, "k must be a positive integer")
	}
	k := req.K
	if k == 0 {
		k = h.DefaultK
	}
	if k > h.MaxK {
		k = h.MaxK
	}
	filter, err := req.filter()
	if err != nil {
		return h.fail(noun, http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()

	key := cacheKey(noun, req)
	if payload, ok := h.Cache.Get(ctx, key); ok {
		h.Metrics.requests.WithLabelValues(noun, "200").Inc()
		return c.JSONBlob(http.StatusOK, payload)
	}

	scored, err := h.Retriever.Retrieve(ctx, retrieval.Query{Brief: brief, Filter: filter, K: k})
	if err != nil {
		return h.fail(noun, http.StatusBadGateway, "retrieval scoring failed")
	}
	chunks := make([]kb.Chunk, len(scored))
	for i, s := range scored {
		chunks[i] = s.Chunk
	}
	if len(chunks) == 0 {
		h.Metrics.emptyRetrievals.WithLabelValues(noun).Inc()
	}

	// The provider call is the cancellation point: it runs on the request
	// context and carries its own timeout and retry budget.
	started := time.Now()
	draft, err := h.Generator.Generate(ctx, route, genReq, chunks)
	h.Metrics.generationSeconds.WithLabelValues(noun).Observe(time.Since(started).Seconds())
	if err != nil {
		h.Metrics.generationFailures.WithLabelValues(noun).Inc()
		h.Logger.Printf("generation failed (%s): %v", noun, err)
		return h.fail(noun, http.StatusBadGateway, "generation provider failed")
	}

	// The postscript joins the body before reconciliation so a marker the
	// generator slipped into ps cannot bypass renumbering or removal.
	md, sources := compose.Finalize(draft.BodyMD, draft.PS, chunks)
	if sources == nil {
		sources = []compose.Source{}
	}

	// Legacy flat fields always; the typed view only when the generator
	// produced structured data.
	resp := map[string]interface{}{
		noun + "_md":      md,
		noun + "_sources": sources,
	}
	switch route {
	case generate.RouteEmail:
		if subjects := compose.NormalizeSubjects(draft.Subjects); draft.Structured && subjects != nil {
			resp[noun] = emailView{SubjectLines: subjects, BodyMD: md, Sources: sources}
		}
	case generate.RouteNarrative:
		if draft.Structured {
			resp[noun] = narrativeView{BodyMD: md, Sources: sources}
		}
	}

	if payload, err := json.Marshal(resp); err == nil {
		h.Cache.Set(ctx, key, payload)
	}
	h.Metrics.requests.WithLabelValues(noun, "200").Inc()
	return c.JSON(http.StatusOK, resp)
}

// fail counts the terminal status before surfacing the error, so rejected
// requests appear in the requests metric alongside successes.
func (h *GenerateHandler) fail(noun string, code int, msg string) error {
	h.Metrics.requests.WithLabelValues(noun, strconv.Itoa(code)).Inc()
	return echo.NewHTTPError(code, msg)
}
