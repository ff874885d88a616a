package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateNotification 新建通知；关联稿件时图片取稿件当前图的快照。
func (a *API) CreateNotification(c *gin.Context) {
	var payload struct {
		Title  string  `json:"title"`
		NewsID *uint   `json:"newsId"`
		Image  *string `json:"gambar"`
	}
	if !bindJSON(c, &payload, "invalid notification payload") {
		return
	}

	notification, err := a.notifications.Create(payload.Title, payload.NewsID, payload.Image)
	if err != nil {
		respondServiceError(c, "create notification", err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Notification created successfully", notification)
}

// ListNotifications 返回全部通知的浅投影。
func (a *API) ListNotifications(c *gin.Context) {
	items, err := a.notifications.ListAll()
	if err != nil {
		respondServiceError(c, "list notifications", err)
		return
	}
	respondCount(c, "Successfully fetched all notifications", len(items), items)
}

// ListGeneralNotifications 返回与稿件无关的通知。
func (a *API) ListGeneralNotifications(c *gin.Context) {
	items, err := a.notifications.ListGeneral()
	if err != nil {
		respondServiceError(c, "list general notifications", err)
		return
	}
	respondCount(c, "Successfully fetched general notifications", len(items), items)
}

// ListNewsNotifications 返回关联稿件的通知。
func (a *API) ListNewsNotifications(c *gin.Context) {
	items, err := a.notifications.ListNewsRelated()
	if err != nil {
		respondServiceError(c, "list news notifications", err)
		return
	}
	respondCount(c, "Successfully fetched news notifications", len(items), items)
}
