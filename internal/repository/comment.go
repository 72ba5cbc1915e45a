package repository

import (
	"context"
	"fmt"

	"vidnest/internal/models"

	"gorm.io/gorm"
)

// rootPopularity orders root comments by their live like count.
var rootPopularity = fmt.Sprintf(
	"(SELECT COUNT(*) FROM likes WHERE likes.target_type = '%s' AND likes.target_id = comments.id) DESC",
	models.TargetComment,
)

// CommentRepository defines persistence operations for comments and their reply edges.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	ListRoots(ctx context.Context, kind models.TargetKind, targetID uint, req PageRequest) (models.Page[*models.Comment], error)
	ListChildren(ctx context.Context, parentIDs []uint) ([]*models.Comment, error)
	CountChildren(ctx context.Context, parentIDs []uint) (map[uint]int64, error)
	CountByTargets(ctx context.Context, kind models.TargetKind, targetIDs []uint) (map[uint]int64, error)
	IDsByTarget(ctx context.Context, kind models.TargetKind, targetID uint) ([]uint, error)
	SubtreeIDs(ctx context.Context, rootID uint) ([]uint, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Owner").First(&comment, id).Error; err != nil {
		return nil, lookupError(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

// ListRoots pages the top-level comments of a target, most liked first, then newest.
func (r *commentRepository) ListRoots(ctx context.Context, kind models.TargetKind, targetID uint, req PageRequest) (models.Page[*models.Comment], error) {
	return Paginate[models.Comment](ctx, readDB(r.db), PageQuery{
		Filter: func(db *gorm.DB) *gorm.DB {
			return db.Where("target_type = ? AND target_id = ? AND parent_id IS NULL", kind, targetID)
		},
		Order:   []string{rootPopularity, "comments.created_at DESC"},
		Preload: []string{"Owner"},
	}, req)
}

// ListChildren returns the direct replies of every parent, oldest first.
func (r *commentRepository) ListChildren(ctx context.Context, parentIDs []uint) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	if len(parentIDs) == 0 {
		return comments, nil
	}
	err := readDB(r.db).WithContext(ctx).
		Preload("Owner").
		Where("parent_id IN ?", parentIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) CountChildren(ctx context.Context, parentIDs []uint) (map[uint]int64, error) {
	if len(parentIDs) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []countRow
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Comment{}).
		Select("parent_id AS ref_id, COUNT(*) AS total").
		Where("parent_id IN ?", parentIDs).
		Group("parent_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return countMap(rows, parentIDs), nil
}

// CountByTargets counts every comment on each target, replies included.
func (r *commentRepository) CountByTargets(ctx context.Context, kind models.TargetKind, targetIDs []uint) (map[uint]int64, error) {
	if len(targetIDs) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []countRow
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Comment{}).
		Select("target_id AS ref_id, COUNT(*) AS total").
		Where("target_type = ? AND target_id IN ?", kind, targetIDs).
		Group("target_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return countMap(rows, targetIDs), nil
}

func (r *commentRepository) IDsByTarget(ctx context.Context, kind models.TargetKind, targetID uint) ([]uint, error) {
	ids := make([]uint, 0)
	err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("target_type = ? AND target_id = ?", kind, targetID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// SubtreeIDs collects rootID and all of its descendants level by level.
func (r *commentRepository) SubtreeIDs(ctx context.Context, rootID uint) ([]uint, error) {
	ids := []uint{rootID}
	frontier := []uint{rootID}
	for len(frontier) > 0 {
		var next []uint
		err := r.db.WithContext(ctx).
			Model(&models.Comment{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &next).Error
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		ids = append(ids, next...)
		frontier = next
	}
	return ids, nil
}

func (r *commentRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Comment{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
