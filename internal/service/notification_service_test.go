package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/newsdesk/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupNotificationServiceTestDB(t *testing.T) (*gorm.DB, func()) {
	t.Helper()

	dsn := fmt.Sprintf("file:notification-service-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.News{}, &db.Notification{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return gdb, func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	}
}

func TestNotificationServiceCreateSnapshotsNewsImage(t *testing.T) {
	gdb, cleanup := setupNotificationServiceTestDB(t)
	defer cleanup()

	author := db.User{Name: "Ed", Email: "ed@example.com", Password: "x"}
	if err := gdb.Create(&author).Error; err != nil {
		t.Fatalf("seed author: %v", err)
	}
	newsImage := "media/news/cover.jpg"
	news := db.News{Title: "Breaking", Contents: "c", AuthorID: author.ID, Image: &newsImage}
	if err := gdb.Create(&news).Error; err != nil {
		t.Fatalf("seed news: %v", err)
	}

	svc := NewNotificationService(gdb)
	provided := "media/other.jpg"
	notification, err := svc.Create("Read this", &news.ID, &provided)
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}

	// 关联稿件时快照取稿件当前图，忽略调用方提供的图
	if notification.Image == nil || *notification.Image != newsImage {
		t.Fatalf("expected image snapshot %s, got %v", newsImage, notification.Image)
	}

	// 稿件随后换图不影响已有通知
	updatedImage := "media/news/new.jpg"
	if err := gdb.Model(&db.News{}).Where("id = ?", news.ID).Update("image", updatedImage).Error; err != nil {
		t.Fatalf("update news image: %v", err)
	}
	var stored db.Notification
	if err := gdb.First(&stored, notification.ID).Error; err != nil {
		t.Fatalf("reload notification: %v", err)
	}
	if stored.Image == nil || *stored.Image != newsImage {
		t.Fatalf("expected snapshot unchanged, got %v", stored.Image)
	}
}

func TestNotificationServiceCreateValidation(t *testing.T) {
	gdb, cleanup := setupNotificationServiceTestDB(t)
	defer cleanup()

	svc := NewNotificationService(gdb)

	_, err := svc.Create("  ", nil, nil)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := vErr.Fields["title"]; !ok {
		t.Fatalf("expected title field error, got %v", vErr.Fields)
	}

	missing := uint(999)
	_, err = svc.Create("Hello", &missing, nil)
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := vErr.Fields["newsId"]; !ok {
		t.Fatalf("expected newsId field error, got %v", vErr.Fields)
	}
}

func TestNotificationServiceScopes(t *testing.T) {
	gdb, cleanup := setupNotificationServiceTestDB(t)
	defer cleanup()

	author := db.User{Name: "Ed", Email: "ed@example.com", Password: "x"}
	if err := gdb.Create(&author).Error; err != nil {
		t.Fatalf("seed author: %v", err)
	}
	news := db.News{Title: "Breaking", Contents: "c", AuthorID: author.ID}
	if err := gdb.Create(&news).Error; err != nil {
		t.Fatalf("seed news: %v", err)
	}

	svc := NewNotificationService(gdb)
	if _, err := svc.Create("general", nil, nil); err != nil {
		t.Fatalf("create general notification: %v", err)
	}
	if _, err := svc.Create("related", &news.ID, nil); err != nil {
		t.Fatalf("create news notification: %v", err)
	}

	all, err := svc.ListAll()
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(all))
	}

	general, err := svc.ListGeneral()
	if err != nil {
		t.Fatalf("list general: %v", err)
	}
	if len(general) != 1 || general[0].Type != "general_alert" {
		t.Fatalf("unexpected general list: %+v", general)
	}

	related, err := svc.ListNewsRelated()
	if err != nil {
		t.Fatalf("list news related: %v", err)
	}
	if len(related) != 1 {
		t.Fatalf("expected 1 news notification, got %d", len(related))
	}
	if related[0].Type != "news_related" {
		t.Fatalf("expected type news_related, got %s", related[0].Type)
	}
	if related[0].Title != "Breaking" {
		t.Fatalf("expected news title, got %s", related[0].Title)
	}
	if related[0].AuthorName != "Ed" {
		t.Fatalf("expected author name Ed, got %s", related[0].AuthorName)
	}
}

func TestNotificationServiceNewsRelatedFallsBackWhenNewsMissing(t *testing.T) {
	gdb, cleanup := setupNotificationServiceTestDB(t)
	defer cleanup()

	author := db.User{Name: "Ed", Email: "ed@example.com", Password: "x"}
	if err := gdb.Create(&author).Error; err != nil {
		t.Fatalf("seed author: %v", err)
	}
	news := db.News{Title: "Gone soon", Contents: "c", AuthorID: author.ID}
	if err := gdb.Create(&news).Error; err != nil {
		t.Fatalf("seed news: %v", err)
	}

	svc := NewNotificationService(gdb)
	if _, err := svc.Create("related", &news.ID, nil); err != nil {
		t.Fatalf("create notification: %v", err)
	}

	if err := gdb.Delete(&db.News{}, news.ID).Error; err != nil {
		t.Fatalf("delete news: %v", err)
	}

	related, err := svc.ListNewsRelated()
	if err != nil {
		t.Fatalf("list news related: %v", err)
	}
	if len(related) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(related))
	}
	if related[0].Type != "news_related_missing" {
		t.Fatalf("expected fallback type, got %s", related[0].Type)
	}
	if related[0].AuthorName != "Unknown Author" {
		t.Fatalf("expected Unknown Author, got %s", related[0].AuthorName)
	}
	if related[0].Title != "related" {
		t.Fatalf("expected notification title fallback, got %s", related[0].Title)
	}
}
