package repository

import (
	"context"

	"vidnest/internal/models"

	"gorm.io/gorm"
)

// LikeRepository stores likes on videos, tweets and comments.
type LikeRepository interface {
	Toggle(ctx context.Context, kind models.TargetKind, targetID, userID uint) (bool, error)
	CountByTargets(ctx context.Context, kind models.TargetKind, ids []uint) (map[uint]int64, error)
	LikedTargets(ctx context.Context, kind models.TargetKind, ids []uint, userID uint) (map[uint]bool, error)
	DeleteByTargets(ctx context.Context, kind models.TargetKind, ids []uint) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new LikeRepository.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

func (r *likeRepository) Toggle(ctx context.Context, kind models.TargetKind, targetID, userID uint) (bool, error) {
	present, err := Toggle(ctx, r.db, &models.Like{
		TargetType: kind,
		TargetID:   targetID,
		LikedByID:  userID,
	}, map[string]interface{}{
		"target_type": kind,
		"target_id":   targetID,
		"liked_by_id": userID,
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return present, nil
}

func (r *likeRepository) CountByTargets(ctx context.Context, kind models.TargetKind, ids []uint) (map[uint]int64, error) {
	if len(ids) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []countRow
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Like{}).
		Select("target_id AS ref_id, COUNT(*) AS total").
		Where("target_type = ? AND target_id IN ?", kind, ids).
		Group("target_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return countMap(rows, ids), nil
}

func (r *likeRepository) LikedTargets(ctx context.Context, kind models.TargetKind, ids []uint, userID uint) (map[uint]bool, error) {
	if userID == 0 || len(ids) == 0 {
		return map[uint]bool{}, nil
	}
	var liked []uint
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Like{}).
		Where("target_type = ? AND target_id IN ? AND liked_by_id = ?", kind, ids, userID).
		Pluck("target_id", &liked).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return idSet(liked), nil
}

func (r *likeRepository) DeleteByTargets(ctx context.Context, kind models.TargetKind, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ?", kind, ids).
		Delete(&models.Like{})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
