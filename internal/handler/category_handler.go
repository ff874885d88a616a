package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListCategories 返回全部栏目，按创建时间倒序。
func (a *API) ListCategories(c *gin.Context) {
	categories, err := a.categories.List()
	if err != nil {
		respondServiceError(c, "list categories", err)
		return
	}
	respondCount(c, "Successfully fetched all categories", len(categories), categories)
}

// CategoryNews 返回栏目下稿件的分页浅投影。
func (a *API) CategoryNews(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.categories.NewsInCategory(id, pageQuery(c))
	if err != nil {
		respondServiceError(c, "list news in category", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"message":       fmt.Sprintf("Successfully fetched news for category: %s (ID: %d)", result.CategoryName, id),
		"category_name": result.CategoryName,
		"count":         len(result.Items),
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

// CreateCategory 新建栏目（multipart）。先落库拿 id，再存图回写路径。
func (a *API) CreateCategory(c *gin.Context) {
	image, closeImage, err := formImage(c, "gambar")
	if err != nil {
		respondServiceError(c, "read category image", err)
		return
	}
	defer closeImage()

	category, err := a.categories.Create(c.PostForm("name"), image)
	if err != nil {
		respondServiceError(c, "create category", err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Category created successfully", category)
}

// UpdateCategory 更新名称与图片；换图时旧文件 best-effort 删除。
func (a *API) UpdateCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	image, closeImage, err := formImage(c, "gambar")
	if err != nil {
		respondServiceError(c, "read category image", err)
		return
	}
	defer closeImage()

	category, err := a.categories.Update(id, formString(c, "name"), image)
	if err != nil {
		respondServiceError(c, "update category", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Category updated successfully", category)
}

// DeleteCategory 级联删除栏目及其稿件，响应里带被删稿件数。
func (a *API) DeleteCategory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.categories.Delete(id)
	if err != nil {
		respondServiceError(c, "delete category", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Category and associated news deleted successfully", result)
}
