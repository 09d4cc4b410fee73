package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestSwaggerSpecRecoversAfterReadFailure(t *testing.T) {
	t.Chdir(t.TempDir())

	e := echo.New()
	RegisterSwagger(e)

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	if rec := get(); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 while the document is missing, got %d", rec.Code)
	}

	if err := os.Mkdir("docs", 0o755); err != nil {
		t.Fatalf("mkdir docs: %v", err)
	}
	spec := []byte("openapi: 3.0.3\ninfo:\n  title: t\n  version: \"1\"\npaths: {}\n")
	if err := os.WriteFile(filepath.Join("docs", "swagger.yaml"), spec, 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	rec := get()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 once the document exists, got %d (%s)", rec.Code, rec.Body.String())
	}
	var doc map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if doc["openapi"] != "3.0.3" {
		t.Fatalf("expected converted document, got %v", doc)
	}
}
