package service

import (
	"errors"
	"strings"
	"time"

	"github.com/newsdesk/internal/db"
	"gorm.io/gorm"
)

// NotificationService wraps notification related database operations.
type NotificationService struct {
	db *gorm.DB
}

// NotificationOverview 是全量通知列表的浅投影，附带稿件摘要。
type NotificationOverview struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	NewsID    *uint     `json:"news_id"`
	NewsTitle *string   `json:"news_title"`
	NewsImage *string   `json:"news_image"`
}

// GeneralNotification 表示与稿件无关的通知。
type GeneralNotification struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
}

// NewsNotification 表示关联稿件的通知，标题与图片取自稿件本身。
type NewsNotification struct {
	ID         uint      `json:"id"`
	Type       string    `json:"type"`
	NewsID     *uint     `json:"news_id"`
	Title      string    `json:"title"`
	Image      *string   `json:"image"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewNotificationService creates a NotificationService instance.
func NewNotificationService(gdb *gorm.DB) *NotificationService {
	return &NotificationService{db: gdb}
}

// Create 新建通知。给了 newsId 时图片从稿件当前的图片拷贝成快照，
// 之后稿件换图不会回写到这里。
func (s *NotificationService) Create(title string, newsID *uint, image *string) (*db.Notification, error) {
	title = strings.TrimSpace(title)

	fields := fieldErrors{}
	if title == "" {
		fields.add("title", "The title field is required.")
	}

	snapshot := image
	if newsID != nil {
		var news db.News
		if err := s.db.Select("id", "image").First(&news, *newsID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				fields.add("newsId", "The selected news does not exist.")
			} else {
				return nil, err
			}
		} else {
			snapshot = news.Image
		}
	}

	if err := fields.toError(); err != nil {
		return nil, err
	}

	notification := db.Notification{
		Title:  title,
		NewsID: newsID,
		Image:  snapshot,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		return nil, err
	}

	return &notification, nil
}

// ListAll returns every notification newest-first with a shallow news projection.
func (s *NotificationService) ListAll() ([]NotificationOverview, error) {
	var notifications []db.Notification
	if err := s.db.
		Preload("News", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "image")
		}).
		Order("created_at desc").
		Find(&notifications).Error; err != nil {
		return nil, err
	}

	overviews := make([]NotificationOverview, 0, len(notifications))
	for _, n := range notifications {
		overview := NotificationOverview{
			ID:        n.ID,
			Title:     n.Title,
			CreatedAt: n.CreatedAt,
			NewsID:    n.NewsID,
		}
		if n.News != nil {
			overview.NewsTitle = &n.News.Title
			overview.NewsImage = n.News.Image
		}
		overviews = append(overviews, overview)
	}

	return overviews, nil
}

// ListGeneral returns notifications without an associated news item.
func (s *NotificationService) ListGeneral() ([]GeneralNotification, error) {
	var notifications []db.Notification
	if err := s.db.
		Where("news_id IS NULL").
		Order("created_at desc").
		Find(&notifications).Error; err != nil {
		return nil, err
	}

	items := make([]GeneralNotification, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, GeneralNotification{
			ID:        n.ID,
			Type:      "general_alert",
			Title:     n.Title,
			Image:     n.Image,
			CreatedAt: n.CreatedAt,
		})
	}

	return items, nil
}

// ListNewsRelated returns notifications tied to a news item, with the
// news fields and author name joined in.
func (s *NotificationService) ListNewsRelated() ([]NewsNotification, error) {
	var notifications []db.Notification
	if err := s.db.
		Where("news_id IS NOT NULL").
		Preload("News", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "image", "author_id")
		}).
		Preload("News.Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		}).
		Order("created_at desc").
		Find(&notifications).Error; err != nil {
		return nil, err
	}

	items := make([]NewsNotification, 0, len(notifications))
	for _, n := range notifications {
		if n.News == nil {
			// 稿件已不存在时退回通知自身的快照数据
			items = append(items, NewsNotification{
				ID:         n.ID,
				Type:       "news_related_missing",
				NewsID:     n.NewsID,
				Title:      n.Title,
				Image:      n.Image,
				CreatedAt:  n.CreatedAt,
				AuthorName: "Unknown Author",
			})
			continue
		}

		item := NewsNotification{
			ID:         n.ID,
			Type:       "news_related",
			NewsID:     n.NewsID,
			Title:      n.News.Title,
			Image:      n.News.Image,
			CreatedAt:  n.CreatedAt,
			AuthorName: "Unknown Author",
		}
		if n.News.Author != nil {
			item.AuthorName = n.News.Author.Name
		}
		items = append(items, item)
	}

	return items, nil
}
