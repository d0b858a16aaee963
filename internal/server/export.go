package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type exportRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// registerExport serves composed markdown back as a downloadable attachment.
func registerExport(e *echo.Echo) {
	e.POST("/export/markdown", func(c echo.Context) error {
		var req exportRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if strings.TrimSpace(req.Content) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "no content to export")
		}
		name := strings.ReplaceAll(strings.TrimSpace(req.Title), " ", "_")
		if name == "" {
			name = "export"
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.md"`, name))
		return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", []byte(req.Content))
	})
}
