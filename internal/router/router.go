package router

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/newsdesk/internal/config"
	"github.com/newsdesk/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(cfg config.AppConfig, api *handler.API) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("newsdesk_session", store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	root := r.Group("/api")
	{
		// 无需密钥的公开入口
		root.POST("/register", api.Register)
		root.POST("/login", api.Login)
		root.POST("/logout", api.Logout)

		// 会话保护的个人信息
		root.GET("/profile", handler.SessionRequired(), api.Profile)

		// 媒体网关走独立的 Bearer 密钥
		root.GET("/media/*filepath", handler.MediaKeyRequired(cfg.MediaAPIKey), api.ServeMedia)

		// 其余端点统一由 X-Api-Key 保护
		private := root.Group("")
		private.Use(handler.APIKeyRequired(cfg.PrivateAPIKey))
		{
			private.GET("/users", api.ListUsers)
			private.PUT("/users/:id", api.UpdateUser)
			private.PATCH("/users/:id/editor", api.PromoteEditor)

			private.GET("/categories", api.ListCategories)
			private.POST("/categories", api.CreateCategory)
			private.PUT("/categories/:id", api.UpdateCategory)
			private.DELETE("/categories/:id", api.DeleteCategory)
			private.GET("/categories/:id/news", api.CategoryNews)

			private.GET("/news", api.ListNews)
			private.GET("/news/published", api.ListPublishedNews)
			private.GET("/news/draft", api.ListDraftNews)
			private.GET("/news/review", api.ListReviewNews)
			private.GET("/news/most-viewed", api.ListMostViewedNews)
			private.GET("/news/most-rated", api.ListMostRatedNews)
			private.GET("/news/recent/first", api.RecentNewsFirst)
			private.GET("/news/most-viewed/first", api.MostViewedNewsFirst)
			private.GET("/news/most-rated/first", api.MostRatedNewsFirst)
			private.GET("/news/dashboard", api.Dashboard)
			private.GET("/news/:id", api.GetNews)
			private.POST("/news", api.CreateNews)
			private.POST("/news/admin", api.CreateNewsAdmin)
			private.PUT("/news/:id", api.UpdateNews)
			private.DELETE("/news/:id", api.DeleteNews)
			private.PATCH("/news/:id/publish", api.PublishNews)
			private.PATCH("/news/:id/draft", api.DraftNews)
			private.PATCH("/news/:id/review", api.ReviewNews)
			private.PATCH("/news/:id/views", api.AddNewsViews)

			private.POST("/news/:id/comments", api.CreateComment)
			private.PUT("/news/:id/comments", api.UpdateComment)
			private.GET("/news/:id/comments", api.ListComments)

			private.GET("/notifications", api.ListNotifications)
			private.GET("/notifications/general", api.ListGeneralNotifications)
			private.GET("/notifications/news", api.ListNewsNotifications)
			private.POST("/notifications", api.CreateNotification)
		}
	}

	return r
}
