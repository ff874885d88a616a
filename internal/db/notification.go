package db

import "time"

// Notification 定义了通知模型。Image 是创建时从关联稿件拷贝的快照，
// 稿件之后换图不会回写到这里。
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	NewsID    *uint     `gorm:"index" json:"newsId"`
	Image     *string   `json:"gambar"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	News *News `json:"news,omitempty"`
}
