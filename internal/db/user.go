package db

import "time"

// 用户角色常量。DEMOTE 到 RoleUser 会触发作者稿件转为草稿的副作用。
const (
	RoleUser   = "USER"
	RoleEditor = "EDITOR"
	RoleAdmin  = "ADMIN"
)

// User 定义了用户模型。Password 永远不会被序列化；
// Email/Role 标记 omitempty 以便关联查询只投影 id 与 name。
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email,omitempty"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      string    `gorm:"size:16;not null;default:USER" json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// ValidRole 校验角色白名单。
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleEditor, RoleAdmin:
		return true
	}
	return false
}
