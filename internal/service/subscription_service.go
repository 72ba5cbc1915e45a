package service

import (
	"context"

	"vidnest/internal/models"
	"vidnest/internal/notifications"
	"vidnest/internal/observability"
	"vidnest/internal/repository"
)

// SubscriptionService toggles and lists subscriber -> channel edges.
type SubscriptionService struct {
	subs      repository.SubscriptionRepository
	users     repository.UserRepository
	projector *Projector
	events    EventPublisher
	limits    Limits
}

// NewSubscriptionService creates a SubscriptionService.
func NewSubscriptionService(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	projector *Projector,
	events EventPublisher,
	limits Limits,
) *SubscriptionService {
	if events == nil {
		events = noopEvents{}
	}
	return &SubscriptionService{subs: subs, users: users, projector: projector, events: events, limits: limits}
}

// ToggleSubscribe flips the viewer's subscription to channelID.
// Subscribing to yourself is rejected.
func (s *SubscriptionService) ToggleSubscribe(ctx context.Context, channelID, viewerID uint) (*models.SubscriptionState, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	if channelID == 0 {
		return nil, models.NewValidationError("Invalid channel id")
	}
	if channelID == viewerID {
		return nil, models.NewValidationError("You cannot subscribe to your own channel")
	}
	if _, err := s.users.GetByID(ctx, channelID); err != nil {
		return nil, err
	}

	subscribed, err := s.subs.Toggle(ctx, viewerID, channelID)
	if err != nil {
		return nil, err
	}
	observability.ToggleTotal.WithLabelValues("subscription", observability.ToggleState(subscribed)).Inc()

	counts, err := s.subs.CountSubscribers(ctx, []uint{channelID})
	if err != nil {
		return nil, err
	}

	if subscribed {
		s.events.Notify(ctx, channelID, notifications.Event{
			Type:       notifications.EventSubscribed,
			ActorID:    viewerID,
			TargetType: "channel",
			TargetID:   channelID,
		})
	}

	return &models.SubscriptionState{
		ChannelID:       channelID,
		IsSubscribed:    subscribed,
		SubscriberCount: counts[channelID],
	}, nil
}

// ListSubscribers pages the subscribers of channelID. SubscribedBack tells
// whether the channel subscribes to that subscriber in return.
func (s *SubscriptionService) ListSubscribers(ctx context.Context, channelID, viewerID uint, page, limit int) (*models.Page[models.SubscriberEntry], error) {
	if _, err := s.users.GetByID(ctx, channelID); err != nil {
		return nil, err
	}
	edges, err := s.subs.ListSubscribers(ctx, channelID, s.limits.Page(page, limit))
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(edges.Items))
	ids := make([]uint, 0, len(edges.Items))
	for _, e := range edges.Items {
		users = append(users, &e.Subscriber)
		ids = append(ids, e.SubscriberID)
	}
	profiles, err := s.projector.Channels(ctx, users, viewerID)
	if err != nil {
		return nil, err
	}
	back, err := s.subs.SubscribedChannels(ctx, channelID, ids)
	if err != nil {
		return nil, err
	}

	i := 0
	out := models.MapPage(edges, func(e *models.Subscription) models.SubscriberEntry {
		entry := models.SubscriberEntry{
			ChannelProfile: profiles[i],
			SubscribedBack: back[e.SubscriberID],
			SubscribedAt:   e.CreatedAt,
		}
		i++
		return entry
	})
	return &out, nil
}

// ListSubscriptions pages the channels subscriberID subscribes to.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, subscriberID, viewerID uint, page, limit int) (*models.Page[models.SubscriptionEntry], error) {
	if _, err := s.users.GetByID(ctx, subscriberID); err != nil {
		return nil, err
	}
	edges, err := s.subs.ListSubscriptions(ctx, subscriberID, s.limits.Page(page, limit))
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(edges.Items))
	for _, e := range edges.Items {
		users = append(users, &e.Channel)
	}
	profiles, err := s.projector.Channels(ctx, users, viewerID)
	if err != nil {
		return nil, err
	}

	i := 0
	out := models.MapPage(edges, func(e *models.Subscription) models.SubscriptionEntry {
		entry := models.SubscriptionEntry{ChannelProfile: profiles[i], SubscribedAt: e.CreatedAt}
		i++
		return entry
	})
	return &out, nil
}
