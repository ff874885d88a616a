package service

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/newsdesk/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("name or password is incorrect")
)

const minPasswordLength = 6

// UserService wraps user related database operations.
type UserService struct {
	db *gorm.DB
}

// RegisterInput represents fields accepted at registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// UserUpdateInput represents the partial update payload; nil 表示不修改。
type UserUpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *string
}

// UserUpdateResult carries the updated user plus the demotion side effect.
type UserUpdateResult struct {
	User        *db.User
	DraftedNews int64
}

// NewUserService creates a UserService instance.
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Register 校验输入、哈希密码并以 USER 角色持久化新用户。
func (s *UserService) Register(input RegisterInput) (*db.User, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	fields := fieldErrors{}
	if name == "" {
		fields.add("name", "The name field is required.")
	}
	if email == "" {
		fields.add("email", "The email field is required.")
	} else if !validEmail(email) {
		fields.add("email", "The email must be a valid email address.")
	}
	if len(input.Password) < minPasswordLength {
		fields.add("password", "The password must be at least 6 characters.")
	}

	if email != "" && validEmail(email) {
		taken, err := s.emailTaken(email, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			fields.add("email", "The email has already been taken.")
		}
	}

	if err := fields.toError(); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := db.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     db.RoleUser,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// Login 按邮箱查找用户并校验 bcrypt 哈希。
// 兼容旧客户端：标识字段名为 name，内容是邮箱地址。
func (s *UserService) Login(identifier, password string) (*db.User, error) {
	var user db.User
	if err := s.db.Where("email = ?", strings.TrimSpace(identifier)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// Get fetches a user by id.
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// List returns all users with a safe column projection.
func (s *UserService) List() ([]db.User, error) {
	var users []db.User
	if err := s.db.
		Select("id", "name", "email", "role", "created_at", "updated_at").
		Order("id asc").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// PromoteToEditor 将指定用户的角色固定提升为 EDITOR。
func (s *UserService) PromoteToEditor(id uint) (*db.User, error) {
	role := db.RoleEditor
	result, err := s.Update(id, UserUpdateInput{Role: &role})
	if err != nil {
		return nil, err
	}
	return result.User, nil
}

// Update 应用部分更新。降级为 USER 时，该作者的全部稿件在同一事务内
// 转为 DRAFT，避免出现角色已降但稿件仍发布的中间状态。
func (s *UserService) Update(id uint, input UserUpdateInput) (*UserUpdateResult, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	fields := fieldErrors{}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if !validEmail(email) {
			fields.add("email", "The email must be a valid email address.")
		} else {
			taken, err := s.emailTaken(email, id)
			if err != nil {
				return nil, err
			}
			if taken {
				fields.add("email", "The email has already been taken.")
			}
		}
	}
	if input.Password != nil && len(*input.Password) < minPasswordLength {
		fields.add("password", "The password must be at least 6 characters.")
	}
	if input.Role != nil && !db.ValidRole(*input.Role) {
		fields.add("role", "The selected role is invalid.")
	}
	if err := fields.toError(); err != nil {
		return nil, err
	}

	result := &UserUpdateResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		demoted := input.Role != nil && *input.Role != user.Role && *input.Role == db.RoleUser
		if demoted {
			res := tx.Model(&db.News{}).
				Where("author_id = ? AND status <> ?", user.ID, db.StatusDraft).
				Update("status", db.StatusDraft)
			if res.Error != nil {
				return res.Error
			}
			result.DraftedNews = res.RowsAffected
		}

		if input.Name != nil {
			user.Name = strings.TrimSpace(*input.Name)
		}
		if input.Email != nil {
			user.Email = strings.TrimSpace(*input.Email)
		}
		if input.Role != nil {
			user.Role = *input.Role
		}
		if input.Password != nil {
			hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user.Password = string(hashed)
		}

		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}

	result.User = &user
	return result, nil
}

func (s *UserService) emailTaken(email string, excludeID uint) (bool, error) {
	var count int64
	query := s.db.Model(&db.User{}).Where("email = ?", email)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
