package repository

import (
	"context"
	"strings"

	"vidnest/internal/models"

	"gorm.io/gorm"
)

// VideoFilter narrows a video listing. ViewerID is used for visibility only:
// unpublished videos are listed to their owner and nobody else.
type VideoFilter struct {
	OwnerID  uint
	Query    string
	ViewerID uint
}

// VideoSort is a whitelisted ORDER BY term.
type VideoSort struct {
	Column string
	Desc   bool
}

// Term renders the sort as an ORDER BY term on the videos table.
func (s VideoSort) Term() string {
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return "videos." + s.Column + " " + dir
}

// VideoRepository defines persistence operations for videos.
type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id uint) (*models.Video, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Update(ctx context.Context, video *models.Video) error
	Delete(ctx context.Context, id uint) error
	IncrementViews(ctx context.Context, id uint) (int64, error)
	List(ctx context.Context, filter VideoFilter, sort VideoSort, req PageRequest) (models.Page[*models.Video], error)
	ListLikedBy(ctx context.Context, userID uint, req PageRequest) (models.Page[*models.Video], error)
}

type videoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(ctx context.Context, video *models.Video) error {
	if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *videoRepository) GetByID(ctx context.Context, id uint) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).Preload("Owner").First(&video, id).Error; err != nil {
		return nil, lookupError(err, "Video", id)
	}
	return &video, nil
}

func (r *videoRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Video{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *videoRepository) Update(ctx context.Context, video *models.Video) error {
	err := r.db.WithContext(ctx).Model(video).Select(
		"title", "description", "thumbnail_url", "thumbnail_public_id", "is_published",
	).Updates(video).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *videoRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Video{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Video", id)
	}
	return nil
}

// IncrementViews bumps the counter in place and returns the new value.
func (r *videoRepository) IncrementViews(ctx context.Context, id uint) (int64, error) {
	var views int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Video{}).Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Video{}).Where("id = ?", id).Pluck("views", &views).Error
	})
	if err != nil {
		return 0, lookupError(err, "Video", id)
	}
	return views, nil
}

func (r *videoRepository) List(ctx context.Context, filter VideoFilter, sort VideoSort, req PageRequest) (models.Page[*models.Video], error) {
	return Paginate[models.Video](ctx, readDB(r.db), PageQuery{
		Filter: func(db *gorm.DB) *gorm.DB {
			db = visibleTo(db, filter.ViewerID)
			if filter.OwnerID != 0 {
				db = db.Where("videos.owner_id = ?", filter.OwnerID)
			}
			if q := strings.TrimSpace(filter.Query); q != "" {
				like := "%" + escapeLike(strings.ToLower(q)) + "%"
				db = db.Where("(LOWER(videos.title) LIKE ? ESCAPE '\\' OR LOWER(videos.description) LIKE ? ESCAPE '\\')", like, like)
			}
			return db
		},
		Order:   []string{sort.Term()},
		Preload: []string{"Owner"},
	}, req)
}

// ListLikedBy pages the videos userID liked, most recent like first.
func (r *videoRepository) ListLikedBy(ctx context.Context, userID uint, req PageRequest) (models.Page[*models.Video], error) {
	return Paginate[models.Video](ctx, readDB(r.db), PageQuery{
		Filter: func(db *gorm.DB) *gorm.DB {
			db = db.Joins("JOIN likes ON likes.target_id = videos.id AND likes.target_type = ?", models.TargetVideo).
				Where("likes.liked_by_id = ?", userID)
			return visibleTo(db, userID)
		},
		Order:   []string{"likes.created_at DESC", "likes.id DESC"},
		Preload: []string{"Owner"},
	}, req)
}

func visibleTo(db *gorm.DB, viewerID uint) *gorm.DB {
	if viewerID == 0 {
		return db.Where("videos.is_published = ?", true)
	}
	return db.Where("(videos.is_published = ? OR videos.owner_id = ?)", true, viewerID)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
