package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	appconfig "github.com/wncfund/proposalkit/config"
	"github.com/wncfund/proposalkit/internal/generate"
	"github.com/wncfund/proposalkit/internal/kb"
	"github.com/wncfund/proposalkit/internal/retrieval"
	"github.com/wncfund/proposalkit/provider"
)

// Run wires the pipeline and serves HTTP until the listener fails. A
// knowledge-base load failure is fatal: the process must not serve traffic
// without its store.
func Run(cfg *appconfig.Config, addr string) error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))
	e.Use(requestID)

	registerDocs(e)
	registerExport(e)

	store, err := kb.Load(cfg.Knowledge.Path, log.New(log.Writer(), "[KB] ", log.LstdFlags))
	if err != nil {
		return err
	}

	llm, err := provider.NewProvider(provider.OpenAI, cfg.Providers.OpenAI)
	if err != nil {
		return err
	}

	var scorer retrieval.Scorer
	switch cfg.Retrieval.Strategy {
	case "embedding":
		scorer = retrieval.NewEmbeddingScorer(llm, store, cfg.Retrieval.EmbedTimeout)
	default:
		scorer, err = retrieval.NewLexicalScorer(store)
		if err != nil {
			return fmt.Errorf("building lexical index: %w", err)
		}
	}

	var cache *responseCache
	if cfg.Cache.Enabled() {
		cache, err = newResponseCache(cfg.Cache, log.New(log.Writer(), "[CACHE] ", log.LstdFlags))
		if err != nil {
			return err
		}
	}

	m := newMetrics()
	if cfg.Telemetry.MetricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})))
	}

	h := &GenerateHandler{
		Retriever: retrieval.New(store, scorer),
		Generator: generate.New(llm),
		Cache:     cache,
		Metrics:   m,
		Logger:    log.New(log.Writer(), "[GEN] ", log.LstdFlags),
		DefaultK:  cfg.Retrieval.DefaultK,
		MaxK:      cfg.Retrieval.MaxK,
	}
	h.Register(e.Group("/generate"))

	if addr == "" {
		addr = cfg.General.Listen
		if addr != "" && addr[0] != ':' {
			addr = ":" + addr
		}
		if addr == "" {
			addr = ":8080"
		}
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// requestID tags every request so pipeline logs can be correlated.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(echo.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}
