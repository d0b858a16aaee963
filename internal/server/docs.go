package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// registerDocs registers liveness and the machine-readable API description.
func registerDocs(e *echo.Echo) {
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"ok": true, "service": "proposalkit"})
	})
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/openapi.json", func(c echo.Context) error {
		return c.JSON(http.StatusOK, openapiSpec)
	})
}

var openapiSpec = map[string]interface{}{
	"openapi": "3.0.3",
	"info": map[string]interface{}{
		"title":   "WNC Proposal Assistant API",
		"version": "0.1.0",
	},
	"paths": map[string]interface{}{
		"/generate/email": map[string]interface{}{
			"post": map[string]interface{}{
				"summary": "Generate a donor email grounded in the knowledge base",
				"requestBody": map[string]interface{}{
					"content": map[string]interface{}{"application/json": map[string]interface{}{
						"schema": map[string]interface{}{"$ref": "#/components/schemas/GenerateRequest"},
					}},
				},
				"responses": map[string]interface{}{"200": map[string]interface{}{"description": "email_md, email_sources, optional typed email"}},
			},
		},
		"/generate/narrative": map[string]interface{}{
			"post": map[string]interface{}{
				"summary": "Generate a grant-style narrative grounded in the knowledge base",
				"requestBody": map[string]interface{}{
					"content": map[string]interface{}{"application/json": map[string]interface{}{
						"schema": map[string]interface{}{"$ref": "#/components/schemas/GenerateRequest"},
					}},
				},
				"responses": map[string]interface{}{"200": map[string]interface{}{"description": "narrative_md, narrative_sources, optional typed narrative"}},
			},
		},
		"/export/markdown": map[string]interface{}{
			"post": map[string]interface{}{
				"summary":   "Download composed content as a markdown attachment",
				"responses": map[string]interface{}{"200": map[string]interface{}{"description": "markdown file"}},
			},
		},
	},
	"components": map[string]interface{}{
		"schemas": map[string]interface{}{
			"GenerateRequest": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"campaign_brief": map[string]interface{}{"type": "string"},
					"org_brief":      map[string]interface{}{"type": "string"},
					"audience":       map[string]interface{}{"type": "string"},
					"tone":           map[string]interface{}{"type": "string"},
					"ask":            map[string]interface{}{"type": "string"},
					"deadline":       map[string]interface{}{"type": "string"},
					"k":              map[string]interface{}{"type": "integer", "default": 6},
					"retrieve_filters": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"date_from": map[string]interface{}{"type": "string", "format": "date"},
							"date_to":   map[string]interface{}{"type": "string", "format": "date"},
						},
					},
				},
			},
		},
	},
}
