package db

import "time"

// 稿件状态常量。状态图是全连通的：任何状态都可以直接切换到其它状态。
const (
	StatusDraft         = "DRAFT"
	StatusPendingReview = "PENDING_REVIEW"
	StatusPublished     = "PUBLISHED"
	StatusRejected      = "REJECTED"
)

// News 定义了稿件模型。Views 只增不减，且只通过原子 UPDATE 递增。
type News struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	CategoryID *uint     `gorm:"index" json:"categoryId"`
	AuthorID   uint      `gorm:"index;not null" json:"authorId"`
	Contents   string    `json:"contents"`
	Image      *string   `json:"gambar"`
	Thumbnail  *string   `json:"thumbnail"`
	VideoLink  *string   `json:"linkYoutube"`
	Views      uint      `gorm:"not null;default:0" json:"views"`
	Status     string    `gorm:"size:32;index;not null;default:DRAFT" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Category *Category `json:"category,omitempty"`
	Author   *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// TableName 指定自定义表名，避免自动复数化导致的歧义。
func (News) TableName() string {
	return "news"
}

// ValidStatus 校验稿件状态白名单。
func ValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusPendingReview, StatusPublished, StatusRejected:
		return true
	}
	return false
}
