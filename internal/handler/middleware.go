package handler

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const sessionUserKey = "user_id"

// APIKeyRequired 校验 X-Api-Key 头部携带的共享密钥。
// 服务端密钥未配置时拒绝所有请求。
func APIKeyRequired(privateKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		headerKey := c.GetHeader("X-Api-Key")
		if headerKey == "" || headerKey != privateKey {
			log.Printf("api key mismatch: unauthorized access attempt on %s", c.FullPath())
			respondError(c, http.StatusUnauthorized, "Unauthorized access: invalid API key")
			c.Abort()
			return
		}
		c.Next()
	}
}

// MediaKeyRequired 校验媒体网关的 Bearer 密钥，使用常数时间比较。
func MediaKeyRequired(mediaKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := bearerToken(c)
		if clientKey == "" || mediaKey == "" ||
			subtle.ConstantTimeCompare([]byte(clientKey), []byte(mediaKey)) != 1 {
			respondError(c, http.StatusUnauthorized, "Unauthorized: Invalid API Key")
			c.Abort()
			return
		}
		c.Next()
	}
}

// SessionRequired 是一个简单的会话认证中间件。
func SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get(sessionUserKey) == nil {
			respondError(c, http.StatusUnauthorized, "Unauthorized access: login required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
