package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestLiveness(t *testing.T) {
	e := echo.New()
	registerDocs(e)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) == 0 {
		t.Fatal("liveness payload must be non-null")
	}
}

func TestOpenAPITitle(t *testing.T) {
	e := echo.New()
	registerDocs(e)

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var spec struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if spec.Info.Title == "" {
		t.Fatal("info.title missing from openapi document")
	}
}

func TestExportMarkdown(t *testing.T) {
	e := echo.New()
	registerExport(e)

	req := httptest.NewRequest(http.MethodPost, "/export/markdown", strings.NewReader(`{"title":"Grant Draft","content":"# Draft\nBody."}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, "Grant_Draft.md") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	if rec.Body.String() != "# Draft\nBody." {
		t.Fatalf("content altered: %q", rec.Body.String())
	}
}

func TestExportRejectsEmptyContent(t *testing.T) {
	e := echo.New()
	registerExport(e)

	req := httptest.NewRequest(http.MethodPost, "/export/markdown", strings.NewReader(`{"title":"x","content":"  "}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
