package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func protectedEngine(key string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secret", APIKeyRequired(key), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})
	return r
}

func TestAPIKeyRequiredRejectsMissingKey(t *testing.T) {
	r := protectedEngine("valid-key")

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "error" {
		t.Fatalf("expected error envelope, got %v", body)
	}
	if body["message"] != "Unauthorized access: invalid API key" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestAPIKeyRequiredRejectsWrongKey(t *testing.T) {
	r := protectedEngine("valid-key")

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("X-Api-Key", "wrong")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestAPIKeyRequiredAcceptsValidKey(t *testing.T) {
	r := protectedEngine("valid-key")

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("X-Api-Key", "valid-key")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestAPIKeyRequiredRejectsAllWhenUnconfigured(t *testing.T) {
	// 服务端密钥为空时不接受任何请求，包括空密钥
	r := protectedEngine("")

	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.Header.Set("X-Api-Key", "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestMediaKeyRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/media", MediaKeyRequired("media-key"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic media-key", http.StatusUnauthorized},
		{"wrong key", "Bearer nope", http.StatusUnauthorized},
		{"valid key", "Bearer media-key", http.StatusOK},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/media", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tc.want {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.want, w.Code)
		}
		if tc.want == http.StatusUnauthorized {
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("%s: decode body: %v", tc.name, err)
			}
			if body["message"] != "Unauthorized: Invalid API Key" {
				t.Fatalf("%s: unexpected message: %v", tc.name, body["message"])
			}
		}
	}
}
