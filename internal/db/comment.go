package db

import "time"

// Comment 定义了评分模型。(UserID, NewsID) 的唯一索引在存储层
// 保证同一用户对同一稿件最多只有一条评分。
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_comments_user_news" json:"userId"`
	NewsID    uint      `gorm:"not null;uniqueIndex:idx_comments_user_news" json:"newsId"`
	Rating    int       `gorm:"not null" json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User `json:"user,omitempty"`
}
