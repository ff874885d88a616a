package handler

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// ServeMedia 从媒体根目录读出文件返回。路径来自通配路由参数，
// 任何包含 ".." 的请求直接拒绝，根目录之外的文件不可达。
func (a *API) ServeMedia(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("filepath"), "/")
	rel = strings.ReplaceAll(rel, "\\", "/")
	if rel == "" || strings.Contains(rel, "..") {
		respondError(c, http.StatusBadRequest, "Invalid path")
		return
	}

	full := filepath.Join(a.media.Root(), filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		respondError(c, http.StatusNotFound, "File not found")
		return
	}

	data, err := os.ReadFile(full)
	if err != nil {
		respondServiceError(c, "read media file", err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(full))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	c.Data(http.StatusOK, contentType, data)
}
