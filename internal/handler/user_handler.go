package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/newsdesk/internal/service"
)

// Register 处理用户注册，成功后以 USER 角色落库并返回脱敏记录。
func (a *API) Register(c *gin.Context) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &payload, "invalid registration payload") {
		return
	}

	user, err := a.users.Register(service.RegisterInput{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		respondServiceError(c, "register user", err)
		return
	}

	// 注册响应沿用旧契约的 user 键
	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "User created successfully",
		"user":    user,
	})
}

// Login 按邮箱+密码认证；旧客户端把邮箱放在 name 字段里。
// 成功后写入 cookie 会话并返回用户记录。
func (a *API) Login(c *gin.Context) {
	var payload struct {
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &payload, "invalid login payload") {
		return
	}

	user, err := a.users.Login(payload.Name, payload.Password)
	if err != nil {
		respondServiceError(c, "login user", err)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		respondServiceError(c, "save session", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Login successful", user)
}

// Logout 清空会话。
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		respondServiceError(c, "clear session", err)
		return
	}
	respondSuccess(c, http.StatusOK, "Logged out successfully", nil)
}

// Profile 返回当前会话对应的用户。
func (a *API) Profile(c *gin.Context) {
	session := sessions.Default(c)
	userID, ok := session.Get(sessionUserKey).(uint)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Unauthorized access: login required")
		return
	}

	user, err := a.users.Get(userID)
	if err != nil {
		respondServiceError(c, "fetch profile", err)
		return
	}

	respondSuccess(c, http.StatusOK, "Successfully fetched profile", user)
}

// ListUsers 返回全部用户的安全投影。
func (a *API) ListUsers(c *gin.Context) {
	users, err := a.users.List()
	if err != nil {
		respondServiceError(c, "list users", err)
		return
	}
	respondCount(c, "Successfully fetched all users", len(users), users)
}

// PromoteEditor 将用户角色固定提升为 EDITOR。
func (a *API) PromoteEditor(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.users.PromoteToEditor(id)
	if err != nil {
		respondServiceError(c, "promote user to editor", err)
		return
	}

	respondSuccess(c, http.StatusOK, fmt.Sprintf("Successfully updated user ID %d role to EDITOR", id), user)
}

// UpdateUser 处理部分更新；降级为 USER 时稿件转草稿的副作用
// 在服务层的同一事务内完成。
func (a *API) UpdateUser(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
	}
	if !bindJSON(c, &payload, "invalid user payload") {
		return
	}

	result, err := a.users.Update(id, service.UserUpdateInput{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		Role:     payload.Role,
	})
	if err != nil {
		respondServiceError(c, "update user", err)
		return
	}

	respondSuccess(c, http.StatusOK, "User updated successfully", result.User)
}
