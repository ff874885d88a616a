package service

import (
	"errors"
	"log"
	"strings"

	"github.com/newsdesk/internal/db"
	"gorm.io/gorm"
)

var ErrNewsNotFound = errors.New("news not found")

// 列表排序键。
const (
	SortRecent    = "recent"
	SortMostViews = "views"
	SortMostRated = "rating"
)

const (
	defaultPageSize = 5
	newsMediaDir    = "media/news"
)

// NewsService wraps news related database operations and media side effects.
type NewsService struct {
	db    *gorm.DB
	media *MediaStore
}

// NewsFilter describes filters for listing news.
type NewsFilter struct {
	Status string
	Sort   string
	Page   int
}

// NewsItem 在稿件之上附带评分均值（仅按评分排序的列表填充）。
type NewsItem struct {
	db.News
	AverageRating *float64 `json:"average_rating,omitempty"`
}

// NewsListResult aggregates paginated list data.
type NewsListResult struct {
	Items      []NewsItem
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// NewsInput represents fields accepted when creating or updating news.
type NewsInput struct {
	Title      string
	Contents   string
	CategoryID *uint
	AuthorID   uint
	VideoLink  *string
	Status     string
	Image      *ImageUpload
	Thumbnail  *ImageUpload
}

// DashboardCounts 汇总管理面板需要的统计数字。
type DashboardCounts struct {
	TotalPendingReview int64 `json:"total_pending_review"`
	TotalPublished     int64 `json:"total_published"`
	TotalRejected      int64 `json:"total_rejected"`
	TotalViews         int64 `json:"total_views"`
	TotalReaders       int64 `json:"total_readers"`
	TotalCategories    int64 `json:"total_categories"`
}

// NewNewsService creates a NewsService instance.
func NewNewsService(gdb *gorm.DB, media *MediaStore) *NewsService {
	return &NewsService{db: gdb, media: media}
}

// List provides paginated news with author/category references.
// 默认按创建时间倒序；views 按浏览量倒序；rating 按评分均值倒序。
func (s *NewsService) List(filter NewsFilter) (*NewsListResult, error) {
	result := &NewsListResult{
		Page:    normalizePage(filter.Page),
		PerPage: defaultPageSize,
	}

	countQuery := s.db.Model(&db.News{})
	if filter.Status != "" {
		countQuery = countQuery.Where("status = ?", filter.Status)
	}
	if err := countQuery.Count(&result.Total).Error; err != nil {
		return nil, err
	}
	result.TotalPages = calculateTotalPages(result.Total, result.PerPage)

	query := s.withRefs(s.db.Model(&db.News{}))
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	query = s.applySort(query, filter.Sort)

	var rows []db.News
	if err := query.
		Limit(result.PerPage).
		Offset((result.Page - 1) * result.PerPage).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	items, err := s.decorate(rows, filter.Sort == SortMostRated)
	if err != nil {
		return nil, err
	}
	result.Items = items

	return result, nil
}

// First 返回排序后的第一条已发布稿件，集合为空时报 ErrNewsNotFound。
func (s *NewsService) First(sort string) (*NewsItem, error) {
	query := s.withRefs(s.db.Model(&db.News{})).Where("status = ?", db.StatusPublished)
	query = s.applySort(query, sort)

	var rows []db.News
	if err := query.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNewsNotFound
	}

	items, err := s.decorate(rows, sort == SortMostRated)
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

// Get 返回单条稿件。每次成功读取都会先原子递增 views，
// 响应里携带的即是递增后的持久化计数。
func (s *NewsService) Get(id uint) (*db.News, error) {
	res := s.db.Model(&db.News{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNewsNotFound
	}

	var news db.News
	if err := s.withRefs(s.db).First(&news, id).Error; err != nil {
		return nil, err
	}
	return &news, nil
}

// AddViews 执行单独的原子浏览量递增并返回新值。
func (s *NewsService) AddViews(id uint) (uint, error) {
	res := s.db.Model(&db.News{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrNewsNotFound
	}

	var views uint
	if err := s.db.Model(&db.News{}).Select("views").Where("id = ?", id).Scan(&views).Error; err != nil {
		return 0, err
	}
	return views, nil
}

// Create 持久化一条新稿件。views 播种为 1；缺省状态由调用方指定
// （普通入口 DRAFT，管理入口 PUBLISHED）。
func (s *NewsService) Create(input NewsInput, defaultStatus string) (*db.News, error) {
	if err := s.validateInput(&input, true); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = defaultStatus
	}

	imageRel, thumbRel, err := s.storeUploads(input.Image, input.Thumbnail)
	if err != nil {
		return nil, err
	}

	news := db.News{
		Title:      strings.TrimSpace(input.Title),
		Contents:   input.Contents,
		CategoryID: input.CategoryID,
		AuthorID:   input.AuthorID,
		VideoLink:  input.VideoLink,
		Views:      1,
		Status:     status,
		Image:      imageRel,
		Thumbnail:  thumbRel,
	}
	if err := s.db.Create(&news).Error; err != nil {
		if imageRel != nil {
			s.media.Remove(*imageRel)
		}
		if thumbRel != nil {
			s.media.Remove(*thumbRel)
		}
		return nil, err
	}

	return &news, nil
}

// Update 更新稿件字段。换图/换缩略图时旧文件先做 best-effort 删除。
func (s *NewsService) Update(id uint, input NewsInput) (*db.News, error) {
	var news db.News
	if err := s.db.First(&news, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNewsNotFound
		}
		return nil, err
	}

	if err := s.validateInput(&input, input.AuthorID != 0); err != nil {
		return nil, err
	}

	news.Title = strings.TrimSpace(input.Title)
	news.Contents = input.Contents
	news.CategoryID = input.CategoryID
	news.VideoLink = input.VideoLink
	if input.AuthorID != 0 {
		news.AuthorID = input.AuthorID
	}
	if input.Status != "" {
		news.Status = input.Status
	}

	if input.Image != nil {
		if news.Image != nil {
			s.media.Remove(*news.Image)
		}
		rel, err := s.media.Save(newsMediaDir, input.Image)
		if err != nil {
			return nil, err
		}
		news.Image = &rel
	}
	if input.Thumbnail != nil {
		if news.Thumbnail != nil {
			s.media.Remove(*news.Thumbnail)
		}
		rel, err := s.media.Save(newsMediaDir, input.Thumbnail)
		if err != nil {
			return nil, err
		}
		news.Thumbnail = &rel
	}

	if err := s.db.Save(&news).Error; err != nil {
		return nil, err
	}

	return &news, nil
}

// SetStatus 无条件切换稿件状态（状态图全连通）。
func (s *NewsService) SetStatus(id uint, status string) error {
	res := s.db.Model(&db.News{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNewsNotFound
	}
	return nil
}

// Delete 在一个事务里删除稿件及其评分与通知，提交后清理图片文件。
func (s *NewsService) Delete(id uint) error {
	var news db.News
	if err := s.db.First(&news, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNewsNotFound
		}
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("news_id = ?", id).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("news_id = ?", id).Delete(&db.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&db.News{}, id).Error
	})
	if err != nil {
		return err
	}

	if news.Image != nil {
		s.media.Remove(*news.Image)
	}
	if news.Thumbnail != nil {
		s.media.Remove(*news.Thumbnail)
	}

	return nil
}

// DashboardCounts returns the aggregate counters for the admin dashboard.
func (s *NewsService) DashboardCounts() (*DashboardCounts, error) {
	counts := &DashboardCounts{}

	statusCounts := []struct {
		status string
		dest   *int64
	}{
		{db.StatusPublished, &counts.TotalPublished},
		{db.StatusRejected, &counts.TotalRejected},
		{db.StatusPendingReview, &counts.TotalPendingReview},
	}
	for _, sc := range statusCounts {
		if err := s.db.Model(&db.News{}).Where("status = ?", sc.status).Count(sc.dest).Error; err != nil {
			return nil, err
		}
	}

	if err := s.db.Model(&db.News{}).Select("COALESCE(SUM(views), 0)").Scan(&counts.TotalViews).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&db.User{}).Where("role = ?", db.RoleUser).Count(&counts.TotalReaders).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&db.Category{}).Count(&counts.TotalCategories).Error; err != nil {
		return nil, err
	}

	return counts, nil
}

func (s *NewsService) withRefs(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		}).
		Preload("Category", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		})
}

func (s *NewsService) applySort(query *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortMostViews:
		return query.Order("views desc").Order("created_at desc")
	case SortMostRated:
		return query.
			Joins("LEFT JOIN (SELECT news_id, AVG(rating) AS average_rating FROM comments GROUP BY news_id) AS ratings ON ratings.news_id = news.id").
			Order("ratings.average_rating desc").
			Order("news.created_at desc")
	default:
		return query.Order("created_at desc")
	}
}

// decorate 将评分均值贴到按评分排序的结果上。
func (s *NewsService) decorate(rows []db.News, withRating bool) ([]NewsItem, error) {
	items := make([]NewsItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, NewsItem{News: row})
	}
	if !withRating || len(items) == 0 {
		return items, nil
	}

	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}

	var averages []struct {
		NewsID        uint
		AverageRating float64
	}
	if err := s.db.Model(&db.Comment{}).
		Select("news_id, AVG(rating) AS average_rating").
		Where("news_id IN ?", ids).
		Group("news_id").
		Scan(&averages).Error; err != nil {
		return nil, err
	}

	byID := make(map[uint]float64, len(averages))
	for _, avg := range averages {
		byID[avg.NewsID] = avg.AverageRating
	}
	for i := range items {
		if avg, ok := byID[items[i].ID]; ok {
			value := avg
			items[i].AverageRating = &value
		}
	}

	return items, nil
}

func (s *NewsService) validateInput(input *NewsInput, requireAuthor bool) error {
	fields := fieldErrors{}
	if strings.TrimSpace(input.Title) == "" {
		fields.add("title", "The title field is required.")
	}
	if strings.TrimSpace(input.Contents) == "" {
		fields.add("contents", "The contents field is required.")
	}
	if input.Status != "" && !db.ValidStatus(input.Status) {
		fields.add("status", "The selected status is invalid.")
	}

	if input.CategoryID != nil {
		var count int64
		if err := s.db.Model(&db.Category{}).Where("id = ?", *input.CategoryID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			fields.add("categoryId", "The selected category does not exist.")
		}
	}
	if requireAuthor {
		var count int64
		if err := s.db.Model(&db.User{}).Where("id = ?", input.AuthorID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			fields.add("authorId", "The selected author does not exist.")
		}
	}

	if input.Image != nil {
		addImageFieldError(fields, "gambar", s.media.Validate(input.Image))
	}
	if input.Thumbnail != nil {
		addImageFieldError(fields, "thumbnail", s.media.Validate(input.Thumbnail))
	}

	return fields.toError()
}

// storeUploads 保存主图与缩略图；只有主图时自动生成缩略图，
// 生成失败不阻塞创建。
func (s *NewsService) storeUploads(image, thumbnail *ImageUpload) (*string, *string, error) {
	var imageRel, thumbRel *string

	if image != nil {
		rel, err := s.media.Save(newsMediaDir, image)
		if err != nil {
			return nil, nil, err
		}
		imageRel = &rel
	}

	if thumbnail != nil {
		rel, err := s.media.Save(newsMediaDir, thumbnail)
		if err != nil {
			if imageRel != nil {
				s.media.Remove(*imageRel)
			}
			return nil, nil, err
		}
		thumbRel = &rel
	} else if imageRel != nil {
		rel, err := s.media.GenerateThumbnail(*imageRel)
		if err != nil {
			log.Printf("news service: thumbnail generation failed for %s: %v", *imageRel, err)
		} else {
			thumbRel = &rel
		}
	}

	return imageRel, thumbRel, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func calculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 {
		return 1
	}
	if total == 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
