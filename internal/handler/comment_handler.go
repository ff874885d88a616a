package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ratingPayload struct {
	UserID uint `json:"userId"`
	Rating int  `json:"rating"`
}

// CreateComment 为稿件新增一条评分；同一用户重复评分返回 409。
func (a *API) CreateComment(c *gin.Context) {
	newsID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload ratingPayload
	if !bindJSON(c, &payload, "invalid rating payload") {
		return
	}

	comment, err := a.comments.Create(newsID, payload.UserID, payload.Rating)
	if err != nil {
		respondServiceError(c, "create rating", err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Rating submitted successfully", comment)
}

// UpdateComment 更新已有评分；不存在时返回 404 并提示改用 POST。
func (a *API) UpdateComment(c *gin.Context) {
	newsID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload ratingPayload
	if !bindJSON(c, &payload, "invalid rating payload") {
		return
	}

	comment, err := a.comments.Update(newsID, payload.UserID, payload.Rating)
	if err != nil {
		respondServiceError(c, "update rating", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Rating updated successfully", comment)
}

// ListComments 返回稿件的全部评分与聚合信息。
func (a *API) ListComments(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.comments.ListForNews(id)
	if err != nil {
		respondServiceError(c, "list ratings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Successfully fetched ratings",
		"count":   result.TotalRatings,
		"data": gin.H{
			"items":          result.Items,
			"total_ratings":  result.TotalRatings,
			"average_rating": result.AverageRating,
		},
	})
}
