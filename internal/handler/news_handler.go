package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/newsdesk/internal/db"
	"github.com/newsdesk/internal/service"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// renderContents 将稿件正文从 Markdown 渲染为净化后的 HTML。
func renderContents(contents string) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(contents), &buf); err != nil {
		return ""
	}
	return sanitizer.Sanitize(buf.String())
}

type newsDetail struct {
	db.News
	ContentsHTML string `json:"contents_html"`
}

func (a *API) listNews(c *gin.Context, filter service.NewsFilter) {
	filter.Page = pageQuery(c)
	result, err := a.news.List(filter)
	if err != nil {
		respondServiceError(c, "list news", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Successfully fetched news list",
		"count":   len(result.Items),
		"data": gin.H{
			"items": result.Items,
			"meta": gin.H{
				"page":        result.Page,
				"per_page":    result.PerPage,
				"total":       result.Total,
				"total_pages": result.TotalPages,
			},
		},
	})
}

// ListNews 返回全部稿件，按创建时间倒序分页。
func (a *API) ListNews(c *gin.Context) {
	a.listNews(c, service.NewsFilter{})
}

// ListPublishedNews 只返回已发布稿件。
func (a *API) ListPublishedNews(c *gin.Context) {
	a.listNews(c, service.NewsFilter{Status: db.StatusPublished})
}

// ListDraftNews 只返回草稿。
func (a *API) ListDraftNews(c *gin.Context) {
	a.listNews(c, service.NewsFilter{Status: db.StatusDraft})
}

// ListReviewNews 只返回待审稿件。
func (a *API) ListReviewNews(c *gin.Context) {
	a.listNews(c, service.NewsFilter{Status: db.StatusPendingReview})
}

// ListMostViewedNews 按浏览量倒序返回已发布稿件。
func (a *API) ListMostViewedNews(c *gin.Context) {
	a.listNews(c, service.NewsFilter{Status: db.StatusPublished, Sort: service.SortMostViews})
}

// ListMostRatedNews 按评分均值倒序返回稿件，每行附带 average_rating。
func (a *API) ListMostRatedNews(c *gin.Context) {
	a.listNews(c, service.NewsFilter{Status: db.StatusPublished, Sort: service.SortMostRated})
}

func (a *API) firstNews(c *gin.Context, sort string) {
	item, err := a.news.First(sort)
	if err != nil {
		respondServiceError(c, "fetch first news", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Successfully fetched news detail", item)
}

// RecentNewsFirst 返回最新一条已发布稿件。
func (a *API) RecentNewsFirst(c *gin.Context) {
	a.firstNews(c, service.SortRecent)
}

// MostViewedNewsFirst 返回浏览量最高的一条已发布稿件。
func (a *API) MostViewedNewsFirst(c *gin.Context) {
	a.firstNews(c, service.SortMostViews)
}

// MostRatedNewsFirst 返回评分最高的一条已发布稿件。
func (a *API) MostRatedNewsFirst(c *gin.Context) {
	a.firstNews(c, service.SortMostRated)
}

// Dashboard 返回管理面板的统计数字。
func (a *API) Dashboard(c *gin.Context) {
	counts, err := a.news.DashboardCounts()
	if err != nil {
		respondServiceError(c, "dashboard counts", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Successfully fetched dashboard counts", counts)
}

// GetNews 返回单条稿件详情。每次成功读取都会原子递增 views，
// 响应中的 views 即递增后的持久化值。
func (a *API) GetNews(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	news, err := a.news.Get(id)
	if err != nil {
		respondServiceError(c, "fetch news", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Successfully fetched news detail", newsDetail{
		News:         *news,
		ContentsHTML: renderContents(news.Contents),
	})
}

// newsInput 从 multipart 表单收集稿件字段。
func (a *API) newsInput(c *gin.Context) (*service.NewsInput, func(), bool) {
	cleanup := func() {}

	categoryID, err := formUint(c, "categoryId")
	if err != nil {
		respondValidation(c, map[string]string{"categoryId": "The categoryId must be an integer."})
		return nil, cleanup, false
	}
	authorID, err := formUint(c, "authorId")
	if err != nil {
		respondValidation(c, map[string]string{"authorId": "The authorId must be an integer."})
		return nil, cleanup, false
	}

	image, closeImage, err := formImage(c, "gambar")
	if err != nil {
		respondServiceError(c, "read news image", err)
		return nil, cleanup, false
	}
	thumbnail, closeThumb, err := formImage(c, "thumbnail")
	if err != nil {
		closeImage()
		respondServiceError(c, "read news thumbnail", err)
		return nil, cleanup, false
	}
	cleanup = func() {
		closeImage()
		closeThumb()
	}

	input := &service.NewsInput{
		Title:      c.PostForm("title"),
		Contents:   c.PostForm("contents"),
		CategoryID: categoryID,
		VideoLink:  formString(c, "linkYoutube"),
		Status:     c.PostForm("status"),
		Image:      image,
		Thumbnail:  thumbnail,
	}
	if authorID != nil {
		input.AuthorID = *authorID
	}
	return input, cleanup, true
}

func (a *API) createNews(c *gin.Context, defaultStatus string) {
	input, cleanup, ok := a.newsInput(c)
	defer cleanup()
	if !ok {
		return
	}

	news, err := a.news.Create(*input, defaultStatus)
	if err != nil {
		respondServiceError(c, "create news", err)
		return
	}

	respondSuccess(c, http.StatusCreated, "News created successfully", news)
}

// CreateNews 新建稿件，缺省状态 DRAFT。
func (a *API) CreateNews(c *gin.Context) {
	a.createNews(c, db.StatusDraft)
}

// CreateNewsAdmin 管理入口的新建稿件，缺省状态 PUBLISHED。
func (a *API) CreateNewsAdmin(c *gin.Context) {
	a.createNews(c, db.StatusPublished)
}

// UpdateNews 更新稿件；换图时旧文件 best-effort 删除。
func (a *API) UpdateNews(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	input, cleanup, ok := a.newsInput(c)
	defer cleanup()
	if !ok {
		return
	}

	news, err := a.news.Update(id, *input)
	if err != nil {
		respondServiceError(c, "update news", err)
		return
	}

	respondSuccess(c, http.StatusOK, "News updated successfully", news)
}

func (a *API) setNewsStatus(c *gin.Context, status, message string) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.news.SetStatus(id, status); err != nil {
		respondServiceError(c, "set news status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   message,
		"newsId":    id,
		"newStatus": status,
	})
}

// PublishNews 将稿件状态切换为 PUBLISHED。
func (a *API) PublishNews(c *gin.Context) {
	a.setNewsStatus(c, db.StatusPublished, "News successfully published.")
}

// DraftNews 将稿件状态切换为 DRAFT。
func (a *API) DraftNews(c *gin.Context) {
	a.setNewsStatus(c, db.StatusDraft, "News successfully draft.")
}

// ReviewNews 将稿件状态切换为 PENDING_REVIEW。
func (a *API) ReviewNews(c *gin.Context) {
	a.setNewsStatus(c, db.StatusPendingReview, "News successfully Pending Review.")
}

// AddNewsViews 执行单独的浏览量原子递增。
func (a *API) AddNewsViews(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	views, err := a.news.AddViews(id)
	if err != nil {
		respondServiceError(c, "increment news views", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  "Views incremented successfully.",
		"newsId":   id,
		"newViews": views,
	})
}

// DeleteNews 删除稿件及其评分与通知，图片文件 best-effort 清理。
func (a *API) DeleteNews(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.news.Delete(id); err != nil {
		respondServiceError(c, "delete news", err)
		return
	}

	respondSuccess(c, http.StatusOK, "News deleted successfully", nil)
}
