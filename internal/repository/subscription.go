package repository

import (
	"context"

	"vidnest/internal/models"

	"gorm.io/gorm"
)

// SubscriptionRepository stores subscriber -> channel edges and answers batch
// questions about them.
type SubscriptionRepository interface {
	Toggle(ctx context.Context, subscriberID, channelID uint) (bool, error)
	CountSubscribers(ctx context.Context, channelIDs []uint) (map[uint]int64, error)
	CountSubscriptions(ctx context.Context, subscriberIDs []uint) (map[uint]int64, error)
	SubscribedChannels(ctx context.Context, subscriberID uint, channelIDs []uint) (map[uint]bool, error)
	ListSubscribers(ctx context.Context, channelID uint, req PageRequest) (models.Page[*models.Subscription], error)
	ListSubscriptions(ctx context.Context, subscriberID uint, req PageRequest) (models.Page[*models.Subscription], error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID uint) (bool, error) {
	present, err := Toggle(ctx, r.db, &models.Subscription{
		SubscriberID: subscriberID,
		ChannelID:    channelID,
	}, map[string]interface{}{
		"subscriber_id": subscriberID,
		"channel_id":    channelID,
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return present, nil
}

func (r *subscriptionRepository) CountSubscribers(ctx context.Context, channelIDs []uint) (map[uint]int64, error) {
	return r.countBy(ctx, "channel_id", channelIDs)
}

func (r *subscriptionRepository) CountSubscriptions(ctx context.Context, subscriberIDs []uint) (map[uint]int64, error) {
	return r.countBy(ctx, "subscriber_id", subscriberIDs)
}

func (r *subscriptionRepository) countBy(ctx context.Context, column string, ids []uint) (map[uint]int64, error) {
	if len(ids) == 0 {
		return map[uint]int64{}, nil
	}
	var rows []countRow
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Subscription{}).
		Select(column+" AS ref_id, COUNT(*) AS total").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return countMap(rows, ids), nil
}

func (r *subscriptionRepository) SubscribedChannels(ctx context.Context, subscriberID uint, channelIDs []uint) (map[uint]bool, error) {
	if subscriberID == 0 || len(channelIDs) == 0 {
		return map[uint]bool{}, nil
	}
	var ids []uint
	err := readDB(r.db).WithContext(ctx).
		Model(&models.Subscription{}).
		Where("subscriber_id = ? AND channel_id IN ?", subscriberID, channelIDs).
		Pluck("channel_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return idSet(ids), nil
}

func (r *subscriptionRepository) ListSubscribers(ctx context.Context, channelID uint, req PageRequest) (models.Page[*models.Subscription], error) {
	return Paginate[models.Subscription](ctx, readDB(r.db), PageQuery{
		Filter: func(db *gorm.DB) *gorm.DB {
			return db.Where("channel_id = ?", channelID)
		},
		Order:   []string{"created_at DESC"},
		Preload: []string{"Subscriber"},
	}, req)
}

func (r *subscriptionRepository) ListSubscriptions(ctx context.Context, subscriberID uint, req PageRequest) (models.Page[*models.Subscription], error) {
	return Paginate[models.Subscription](ctx, readDB(r.db), PageQuery{
		Filter: func(db *gorm.DB) *gorm.DB {
			return db.Where("subscriber_id = ?", subscriberID)
		},
		Order:   []string{"created_at DESC"},
		Preload: []string{"Channel"},
	}, req)
}
