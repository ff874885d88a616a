package handler

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/newsdesk/internal/service"
)

func respondSuccess(c *gin.Context, status int, message string, data any) {
	payload := gin.H{"status": "success", "message": message}
	if data != nil {
		payload["data"] = data
	}
	c.JSON(status, payload)
}

// respondCount 用于列表响应，附带 count 字段。
func respondCount(c *gin.Context, message string, count int, data any) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": message,
		"count":   count,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"status": "error", "message": message})
}

func respondValidation(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"status":  "error",
		"message": "Validation failed",
		"errors":  fields,
	})
}

// respondServiceError 将服务层错误分类映射到响应。
// 校验/缺失/冲突原样暴露；其余只记录日志并返回通用 500。
func respondServiceError(c *gin.Context, op string, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondValidation(c, vErr.Fields)
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, http.StatusNotFound, "Category not found")
	case errors.Is(err, service.ErrNewsNotFound):
		respondError(c, http.StatusNotFound, "News not found")
	case errors.Is(err, service.ErrRatingNotFound):
		respondError(c, http.StatusNotFound, "Rating by this user for this news not found. Use POST to create a new one.")
	case errors.Is(err, service.ErrRatingExists):
		respondError(c, http.StatusConflict, "User has already rated this news")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "name or password is incorrect")
	default:
		log.Printf("%s: %v", op, err)
		respondError(c, http.StatusInternalServerError, "Internal server error.")
	}
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

func pageQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		return 1
	}
	return page
}

// formImage 将 multipart 文件转换为服务层的上传描述。
// 字段缺失不算错误，返回 nil。
func formImage(c *gin.Context, field string) (*service.ImageUpload, func(), error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}

	up := &service.ImageUpload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Reader:   f,
	}
	return up, func() { _ = f.Close() }, nil
}

// formUint 读取可选的数字表单字段；空缺返回 nil。
func formUint(c *gin.Context, field string) (*uint, error) {
	raw, ok := c.GetPostForm(field)
	if !ok || raw == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", field)
	}
	value := uint(parsed)
	return &value, nil
}

// formString 读取可选的字符串表单字段；空缺返回 nil。
func formString(c *gin.Context, field string) *string {
	raw, ok := c.GetPostForm(field)
	if !ok {
		return nil
	}
	return &raw
}
