package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func mediaEngine(api *API) *gin.Engine {
	r := gin.New()
	r.GET("/api/media/*filepath", api.ServeMedia)
	return r
}

func TestServeMediaReturnsFileWithContentType(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	dir := filepath.Join(api.media.Root(), "media", "news")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cover.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/media/media/news/cover.png", nil)
	w := httptest.NewRecorder()
	mediaEngine(api).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "image/png") {
		t.Fatalf("expected image/png content type, got %s", ct)
	}
	if w.Body.String() != "png-bytes" {
		t.Fatalf("unexpected body: %q", w.Body.String())
	}
}

func TestServeMediaRejectsTraversal(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/media/media/..%2F..%2Fetc%2Fpasswd", nil)
	w := httptest.NewRecorder()
	mediaEngine(api).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "Invalid path" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestServeMediaMissingFile(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/media/media/news/nope.jpg", nil)
	w := httptest.NewRecorder()
	mediaEngine(api).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "File not found" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}
