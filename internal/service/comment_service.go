package service

import (
	"errors"
	"math"
	"strings"

	"github.com/newsdesk/internal/db"
	"gorm.io/gorm"
)

var (
	ErrRatingExists   = errors.New("user has already rated this news")
	ErrRatingNotFound = errors.New("rating by this user for this news not found")
)

// CommentService wraps rating related database operations.
type CommentService struct {
	db *gorm.DB
}

// CommentListResult aggregates the ratings of one news item.
type CommentListResult struct {
	Items         []db.Comment
	TotalRatings  int
	AverageRating float64
}

// NewCommentService creates a CommentService instance.
func NewCommentService(gdb *gorm.DB) *CommentService {
	return &CommentService{db: gdb}
}

// Create 为稿件新增一条评分。唯一性由 (user_id, news_id) 的存储层
// 唯一索引兜底：并发下先检查后插入的竞态同样会收敛为 409。
func (s *CommentService) Create(newsID, userID uint, rating int) (*db.Comment, error) {
	if err := s.newsExists(newsID); err != nil {
		return nil, err
	}
	if err := s.validate(userID, rating); err != nil {
		return nil, err
	}

	var existing db.Comment
	err := s.db.Where("user_id = ? AND news_id = ?", userID, newsID).First(&existing).Error
	if err == nil {
		return nil, ErrRatingExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	comment := db.Comment{UserID: userID, NewsID: newsID, Rating: rating}
	if err := s.db.Create(&comment).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrRatingExists
		}
		return nil, err
	}

	return &comment, nil
}

// Update 只更新已有评分，不做 upsert。
func (s *CommentService) Update(newsID, userID uint, rating int) (*db.Comment, error) {
	if err := s.newsExists(newsID); err != nil {
		return nil, err
	}
	if err := s.validate(userID, rating); err != nil {
		return nil, err
	}

	var comment db.Comment
	if err := s.db.Where("user_id = ? AND news_id = ?", userID, newsID).First(&comment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}

	comment.Rating = rating
	if err := s.db.Save(&comment).Error; err != nil {
		return nil, err
	}

	return &comment, nil
}

// ListForNews 返回稿件的全部评分（带评分人名字）与聚合信息，
// 均值四舍五入到一位小数。
func (s *CommentService) ListForNews(newsID uint) (*CommentListResult, error) {
	if err := s.newsExists(newsID); err != nil {
		return nil, err
	}

	var comments []db.Comment
	if err := s.db.
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		}).
		Where("news_id = ?", newsID).
		Order("created_at desc").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	result := &CommentListResult{
		Items:        comments,
		TotalRatings: len(comments),
	}
	if len(comments) > 0 {
		sum := 0
		for _, c := range comments {
			sum += c.Rating
		}
		avg := float64(sum) / float64(len(comments))
		result.AverageRating = math.Round(avg*10) / 10
	}

	return result, nil
}

func (s *CommentService) newsExists(newsID uint) error {
	var count int64
	if err := s.db.Model(&db.News{}).Where("id = ?", newsID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNewsNotFound
	}
	return nil
}

func (s *CommentService) validate(userID uint, rating int) error {
	fields := fieldErrors{}
	if rating < 1 || rating > 5 {
		fields.add("rating", "The rating must be between 1 and 5.")
	}

	var count int64
	if err := s.db.Model(&db.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		fields.add("userId", "The selected user does not exist.")
	}

	return fields.toError()
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
