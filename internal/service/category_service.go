package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/newsdesk/internal/db"
	"gorm.io/gorm"
)

var ErrCategoryNotFound = errors.New("category not found")

// CategoryService wraps category related operations including image side effects.
type CategoryService struct {
	db    *gorm.DB
	media *MediaStore
}

// CategoryDeleteResult 汇总级联删除的结果。
type CategoryDeleteResult struct {
	ID          uint   `json:"deleted_category_id"`
	Name        string `json:"deleted_category_name"`
	DeletedNews int64  `json:"associated_news_deleted"`
}

// NewsSummary 是栏目下稿件列表的浅投影。
type NewsSummary struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	Contents string `json:"contents"`
}

// CategoryNewsResult aggregates paginated news under one category.
type CategoryNewsResult struct {
	CategoryName string
	Items        []NewsSummary
	Total        int64
	TotalPages   int
	Page         int
	PerPage      int
}

// NewCategoryService creates a CategoryService instance.
func NewCategoryService(gdb *gorm.DB, media *MediaStore) *CategoryService {
	return &CategoryService{db: gdb, media: media}
}

// List returns all categories ordered newest-first.
func (s *CategoryService) List() ([]db.Category, error) {
	var categories []db.Category
	if err := s.db.Order("created_at desc").Order("id desc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Get fetches a category by id.
func (s *CategoryService) Get(id uint) (*db.Category, error) {
	var category db.Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// Create 先落库拿到 id，再把图片存到以 id 命名的目录并回写路径。
// 两阶段写入是因为存储路径里嵌着生成的 id；阶段之间失败会留下
// 一个没有图片的栏目，可通过重新上传恢复。
func (s *CategoryService) Create(name string, image *ImageUpload) (*db.Category, error) {
	name = strings.TrimSpace(name)

	fields := fieldErrors{}
	if name == "" {
		fields.add("name", "The name field is required.")
	} else {
		taken, err := s.nameTaken(name, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			fields.add("name", "The name has already been taken.")
		}
	}
	if image != nil {
		addImageFieldError(fields, "gambar", s.media.Validate(image))
	}
	if err := fields.toError(); err != nil {
		return nil, err
	}

	category := db.Category{Name: name}
	var savedPath string
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&category).Error; err != nil {
			return err
		}

		if image == nil {
			return nil
		}

		rel, err := s.media.Save(fmt.Sprintf("media/category/%d", category.ID), image)
		if err != nil {
			return err
		}
		savedPath = rel

		category.Image = &rel
		return tx.Model(&db.Category{}).Where("id = ?", category.ID).Update("image", rel).Error
	})
	if err != nil {
		// 数据库部分已回滚；清掉可能已经写入的文件
		if savedPath != "" {
			s.media.Remove(savedPath)
		}
		return nil, err
	}

	return &category, nil
}

// Update 更新名称与图片。换图时旧文件先做 best-effort 删除。
func (s *CategoryService) Update(id uint, name *string, image *ImageUpload) (*db.Category, error) {
	category, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	fields := fieldErrors{}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			fields.add("name", "The name field is required.")
		} else {
			taken, err := s.nameTaken(trimmed, id)
			if err != nil {
				return nil, err
			}
			if taken {
				fields.add("name", "The name has already been taken.")
			}
		}
	}
	if image != nil {
		addImageFieldError(fields, "gambar", s.media.Validate(image))
	}
	if err := fields.toError(); err != nil {
		return nil, err
	}

	if name != nil {
		category.Name = strings.TrimSpace(*name)
	}

	if image != nil {
		if category.Image != nil {
			s.media.Remove(*category.Image)
		}
		rel, err := s.media.Save(fmt.Sprintf("media/category/%d", id), image)
		if err != nil {
			return nil, err
		}
		category.Image = &rel
	}

	if err := s.db.Save(category).Error; err != nil {
		return nil, err
	}

	return category, nil
}

// Delete 在一个事务里删除栏目及其全部稿件（含稿件的评分与通知），
// 提交后再 best-effort 清理图片文件，避免回滚后文件已丢。
func (s *CategoryService) Delete(id uint) (*CategoryDeleteResult, error) {
	category, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	var related []db.News
	if err := s.db.Select("id", "image", "thumbnail").Where("category_id = ?", id).Find(&related).Error; err != nil {
		return nil, err
	}

	newsIDs := make([]uint, 0, len(related))
	for _, n := range related {
		newsIDs = append(newsIDs, n.ID)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(newsIDs) > 0 {
			if err := tx.Where("news_id IN ?", newsIDs).Delete(&db.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("news_id IN ?", newsIDs).Delete(&db.Notification{}).Error; err != nil {
				return err
			}
			if err := tx.Where("category_id = ?", id).Delete(&db.News{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&db.Category{}, id).Error
	})
	if err != nil {
		return nil, err
	}

	for _, n := range related {
		if n.Image != nil {
			s.media.Remove(*n.Image)
		}
		if n.Thumbnail != nil {
			s.media.Remove(*n.Thumbnail)
		}
	}
	if category.Image != nil {
		s.media.Remove(*category.Image)
	}

	return &CategoryDeleteResult{
		ID:          id,
		Name:        category.Name,
		DeletedNews: int64(len(newsIDs)),
	}, nil
}

// NewsInCategory returns a paginated shallow projection of the category's news.
func (s *CategoryService) NewsInCategory(id uint, page int) (*CategoryNewsResult, error) {
	category, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	result := &CategoryNewsResult{
		CategoryName: category.Name,
		Page:         normalizePage(page),
		PerPage:      defaultPageSize,
	}

	query := s.db.Model(&db.News{}).Where("category_id = ?", id)
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}
	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)

	if err := query.
		Select("id", "title", "contents").
		Order("created_at desc").
		Limit(result.PerPage).
		Offset((result.Page - 1) * result.PerPage).
		Scan(&result.Items).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (s *CategoryService) nameTaken(name string, excludeID uint) (bool, error) {
	var count int64
	query := s.db.Model(&db.Category{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func addImageFieldError(fields fieldErrors, field string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrImageType):
		fields.add(field, "The image must be a file of type: jpeg, png, jpg, gif.")
	case errors.Is(err, ErrImageTooLarge):
		fields.add(field, "The image may not be greater than 2048 kilobytes.")
	default:
		fields.add(field, "The image could not be processed.")
	}
}
