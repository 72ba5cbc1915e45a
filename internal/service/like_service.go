package service

import (
	"context"

	"vidnest/internal/models"
	"vidnest/internal/notifications"
	"vidnest/internal/observability"
	"vidnest/internal/repository"
)

// LikeService toggles likes and lists liked content.
type LikeService struct {
	likes     repository.LikeRepository
	videos    repository.VideoRepository
	tweets    repository.TweetRepository
	comments  repository.CommentRepository
	projector *Projector
	events    EventPublisher
	limits    Limits
}

// NewLikeService creates a LikeService. A nil events publisher disables notifications.
func NewLikeService(
	likes repository.LikeRepository,
	videos repository.VideoRepository,
	tweets repository.TweetRepository,
	comments repository.CommentRepository,
	projector *Projector,
	events EventPublisher,
	limits Limits,
) *LikeService {
	if events == nil {
		events = noopEvents{}
	}
	return &LikeService{
		likes:     likes,
		videos:    videos,
		tweets:    tweets,
		comments:  comments,
		projector: projector,
		events:    events,
		limits:    limits,
	}
}

// ToggleLike flips the viewer's like on a target and returns the new state
// with the recomputed like count.
func (s *LikeService) ToggleLike(ctx context.Context, kind models.TargetKind, targetID, viewerID uint) (*models.LikeState, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	kind, ok := models.ParseTargetKind(string(kind))
	if !ok {
		return nil, models.NewValidationError("Invalid like target")
	}
	if targetID == 0 {
		return nil, models.NewValidationError("Invalid target id")
	}

	ownerID, err := s.targetOwner(ctx, kind, targetID, viewerID)
	if err != nil {
		return nil, err
	}

	liked, err := s.likes.Toggle(ctx, kind, targetID, viewerID)
	if err != nil {
		return nil, err
	}
	observability.ToggleTotal.WithLabelValues(string(kind), observability.ToggleState(liked)).Inc()

	proj, err := s.projector.Like(ctx, kind, targetID, viewerID)
	if err != nil {
		return nil, err
	}

	if liked && ownerID != viewerID {
		s.events.Notify(ctx, ownerID, notifications.Event{
			Type:       notifications.EventLiked,
			ActorID:    viewerID,
			TargetType: string(kind),
			TargetID:   targetID,
		})
	}

	return &models.LikeState{
		TargetType: kind,
		TargetID:   targetID,
		IsLiked:    liked,
		LikeCount:  proj.Count,
	}, nil
}

// targetOwner resolves the owner of a like target. Unpublished videos are
// invisible to everyone but their owner.
func (s *LikeService) targetOwner(ctx context.Context, kind models.TargetKind, targetID, viewerID uint) (uint, error) {
	switch kind {
	case models.TargetVideo:
		v, err := s.videos.GetByID(ctx, targetID)
		if err != nil {
			return 0, err
		}
		if !v.IsPublished && v.OwnerID != viewerID {
			return 0, models.NewNotFoundError("Video", targetID)
		}
		return v.OwnerID, nil
	case models.TargetTweet:
		t, err := s.tweets.GetByID(ctx, targetID)
		if err != nil {
			return 0, err
		}
		return t.OwnerID, nil
	default:
		c, err := s.comments.GetByID(ctx, targetID)
		if err != nil {
			return 0, err
		}
		return c.OwnerID, nil
	}
}

// LikedVideos pages the videos the viewer liked, most recent like first.
func (s *LikeService) LikedVideos(ctx context.Context, viewerID uint, page, limit int) (*models.Page[models.VideoListItem], error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	videos, err := s.videos.ListLikedBy(ctx, viewerID, s.limits.Page(page, limit))
	if err != nil {
		return nil, err
	}
	out := models.MapPage(videos, models.NewVideoListItem)
	return &out, nil
}
