package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/newsdesk/internal/db"
)

func newsEngine(api *API) *gin.Engine {
	r := gin.New()
	r.GET("/api/news/published", api.ListPublishedNews)
	r.GET("/api/news/:id", api.GetNews)
	r.PATCH("/api/news/:id/publish", api.PublishNews)
	r.PATCH("/api/news/:id/views", api.AddNewsViews)
	return r
}

func seedHandlerNews(t *testing.T, api *API, title, status string) db.News {
	t.Helper()

	author := db.User{Name: "Ed", Email: fmt.Sprintf("%s-ed@example.com", title), Password: "x", Role: db.RoleEditor}
	if err := api.db.Create(&author).Error; err != nil {
		t.Fatalf("seed author: %v", err)
	}
	news := db.News{Title: title, Contents: "plain", AuthorID: author.ID, Status: status, Views: 1}
	if err := api.db.Create(&news).Error; err != nil {
		t.Fatalf("seed news: %v", err)
	}
	return news
}

func TestGetNewsRendersSanitizedMarkdown(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	news := seedHandlerNews(t, api, "markdown", db.StatusPublished)
	contents := "**bold** move\n\n<script>alert(1)</script>"
	if err := api.db.Model(&db.News{}).Where("id = ?", news.ID).Update("contents", contents).Error; err != nil {
		t.Fatalf("update contents: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/news/%d", news.ID), nil)
	w := httptest.NewRecorder()
	newsEngine(api).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Data struct {
			Contents     string `json:"contents"`
			ContentsHTML string `json:"contents_html"`
			Views        uint   `json:"views"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body.Data.Contents != contents {
		t.Fatalf("expected raw markdown preserved, got %q", body.Data.Contents)
	}
	if !strings.Contains(body.Data.ContentsHTML, "<strong>bold</strong>") {
		t.Fatalf("expected rendered markdown, got %q", body.Data.ContentsHTML)
	}
	if strings.Contains(body.Data.ContentsHTML, "<script>") {
		t.Fatalf("expected script stripped, got %q", body.Data.ContentsHTML)
	}
	if body.Data.Views != 2 {
		t.Fatalf("expected views incremented to 2, got %d", body.Data.Views)
	}
}

func TestGetNewsMissing(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/api/news/999", nil)
	w := httptest.NewRecorder()
	newsEngine(api).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "News not found" {
		t.Fatalf("unexpected message: %v", body["message"])
	}
}

func TestPublishNewsResponseShape(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	news := seedHandlerNews(t, api, "to-publish", db.StatusDraft)

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/news/%d/publish", news.ID), nil)
	w := httptest.NewRecorder()
	newsEngine(api).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Status    string `json:"status"`
		Message   string `json:"message"`
		NewsID    uint   `json:"newsId"`
		NewStatus string `json:"newStatus"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "success" || body.Message != "News successfully published." {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if body.NewsID != news.ID || body.NewStatus != db.StatusPublished {
		t.Fatalf("unexpected transition payload: %+v", body)
	}
}

func TestAddNewsViewsResponseShape(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	news := seedHandlerNews(t, api, "views", db.StatusPublished)

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/news/%d/views", news.ID), nil)
	w := httptest.NewRecorder()
	newsEngine(api).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		NewsID   uint `json:"newsId"`
		NewViews uint `json:"newViews"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.NewsID != news.ID || body.NewViews != 2 {
		t.Fatalf("unexpected payload: %+v", body)
	}
}

func TestListPublishedNewsEnvelope(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	seedHandlerNews(t, api, "pub", db.StatusPublished)
	seedHandlerNews(t, api, "draft", db.StatusDraft)

	req := httptest.NewRequest(http.MethodGet, "/api/news/published", nil)
	w := httptest.NewRecorder()
	newsEngine(api).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body struct {
		Status string  `json:"status"`
		Count  int     `json:"count"`
		Data   struct {
			Items []map[string]any `json:"items"`
			Meta  struct {
				Page       int   `json:"page"`
				PerPage    int   `json:"per_page"`
				Total      int64 `json:"total"`
				TotalPages int   `json:"total_pages"`
			} `json:"meta"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body.Count != 1 || len(body.Data.Items) != 1 {
		t.Fatalf("expected exactly the published item, got %+v", body)
	}
	if body.Data.Items[0]["title"] != "pub" {
		t.Fatalf("unexpected item: %v", body.Data.Items[0])
	}
	if body.Data.Meta.PerPage != 5 || body.Data.Meta.Total != 1 || body.Data.Meta.TotalPages != 1 {
		t.Fatalf("unexpected meta: %+v", body.Data.Meta)
	}
}
