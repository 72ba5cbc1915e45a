package repository

import (
	"context"

	"vidnest/internal/models"

	"gorm.io/gorm"
)

// TweetRepository defines persistence operations for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet *models.Tweet) error
	GetByID(ctx context.Context, id uint) (*models.Tweet, error)
	Exists(ctx context.Context, id uint) (bool, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, id uint) error
	ListByOwner(ctx context.Context, ownerID uint, req PageRequest) (models.Page[*models.Tweet], error)
}

type tweetRepository struct {
	db *gorm.DB
}

// NewTweetRepository creates a new TweetRepository.
func NewTweetRepository(db *gorm.DB) TweetRepository {
	return &tweetRepository{db: db}
}

func (r *tweetRepository) Create(ctx context.Context, tweet *models.Tweet) error {
	if tweet.Media == nil {
		tweet.Media = models.MediaList{}
	}
	if err := r.db.WithContext(ctx).Create(tweet).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tweetRepository) GetByID(ctx context.Context, id uint) (*models.Tweet, error) {
	var tweet models.Tweet
	if err := r.db.WithContext(ctx).Preload("Owner").First(&tweet, id).Error; err != nil {
		return nil, lookupError(err, "Tweet", id)
	}
	return &tweet, nil
}

func (r *tweetRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Tweet{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *tweetRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	res := r.db.WithContext(ctx).Model(&models.Tweet{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Tweet", id)
	}
	return nil
}

func (r *tweetRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Tweet{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Tweet", id)
	}
	return nil
}

func (r *tweetRepository) ListByOwner(ctx context.Context, ownerID uint, req PageRequest) (models.Page[*models.Tweet], error) {
	return Paginate[models.Tweet](ctx, readDB(r.db), PageQuery{
		Filter: func(db *gorm.DB) *gorm.DB {
			return db.Where("owner_id = ?", ownerID)
		},
		Order:   []string{"tweets.created_at DESC"},
		Preload: []string{"Owner"},
	}, req)
}
