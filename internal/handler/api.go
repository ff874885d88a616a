package handler

import (
	"github.com/newsdesk/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db            *gorm.DB
	users         *service.UserService
	categories    *service.CategoryService
	news          *service.NewsService
	comments      *service.CommentService
	notifications *service.NotificationService
	media         *service.MediaStore
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, mediaRoot string) *API {
	media := service.NewMediaStore(mediaRoot)

	return &API{
		db:            gdb,
		users:         service.NewUserService(gdb),
		categories:    service.NewCategoryService(gdb, media),
		news:          service.NewNewsService(gdb, media),
		comments:      service.NewCommentService(gdb),
		notifications: service.NewNotificationService(gdb),
		media:         media,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}
