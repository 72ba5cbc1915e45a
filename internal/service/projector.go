package service

import (
	"context"

	"vidnest/internal/models"
	"vidnest/internal/repository"

	"golang.org/x/sync/errgroup"
)

// LikeProjection is the like aggregate of one target as seen by one viewer.
type LikeProjection struct {
	Count int64
	Liked bool
}

// Projector derives counts and viewer flags from the like and subscription
// stores. Counts are always recomputed from relationship rows. An anonymous
// viewer (id 0) gets false flags without any membership query.
type Projector struct {
	likes repository.LikeRepository
	subs  repository.SubscriptionRepository
}

// NewProjector creates a Projector.
func NewProjector(likes repository.LikeRepository, subs repository.SubscriptionRepository) *Projector {
	return &Projector{likes: likes, subs: subs}
}

// Likes projects every target of one kind in two queries.
func (p *Projector) Likes(ctx context.Context, kind models.TargetKind, ids []uint, viewerID uint) (map[uint]LikeProjection, error) {
	out := make(map[uint]LikeProjection, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	counts, err := p.likes.CountByTargets(ctx, kind, ids)
	if err != nil {
		return nil, err
	}
	liked := map[uint]bool{}
	if viewerID != 0 {
		if liked, err = p.likes.LikedTargets(ctx, kind, ids, viewerID); err != nil {
			return nil, err
		}
	}

	for _, id := range ids {
		out[id] = LikeProjection{Count: counts[id], Liked: liked[id]}
	}
	return out, nil
}

// Like projects a single target.
func (p *Projector) Like(ctx context.Context, kind models.TargetKind, id, viewerID uint) (LikeProjection, error) {
	all, err := p.Likes(ctx, kind, []uint{id}, viewerID)
	if err != nil {
		return LikeProjection{}, err
	}
	return all[id], nil
}

// Channels projects users as channels. Email is only exposed to its owner.
func (p *Projector) Channels(ctx context.Context, users []*models.User, viewerID uint) ([]models.ChannelProfile, error) {
	out := make([]models.ChannelProfile, 0, len(users))
	if len(users) == 0 {
		return out, nil
	}
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	var (
		subscribers  map[uint]int64
		subscribedTo map[uint]int64
		subscribed   = map[uint]bool{}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		subscribers, err = p.subs.CountSubscribers(gctx, ids)
		return err
	})
	g.Go(func() (err error) {
		subscribedTo, err = p.subs.CountSubscriptions(gctx, ids)
		return err
	})
	if viewerID != 0 {
		g.Go(func() (err error) {
			subscribed, err = p.subs.SubscribedChannels(gctx, viewerID, ids)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, u := range users {
		profile := models.ChannelProfile{
			ID:                u.ID,
			Username:          u.Username,
			FullName:          u.FullName,
			Avatar:            u.Avatar,
			CoverImage:        u.CoverImage,
			SubscriberCount:   subscribers[u.ID],
			SubscribedToCount: subscribedTo[u.ID],
			IsSubscribed:      subscribed[u.ID],
		}
		if viewerID != 0 && viewerID == u.ID {
			profile.Email = u.Email
		}
		out = append(out, profile)
	}
	return out, nil
}

// Channel projects a single user as a channel.
func (p *Projector) Channel(ctx context.Context, user *models.User, viewerID uint) (models.ChannelProfile, error) {
	all, err := p.Channels(ctx, []*models.User{user}, viewerID)
	if err != nil {
		return models.ChannelProfile{}, err
	}
	return all[0], nil
}

// Comments projects comments into unexpanded nodes.
func (p *Projector) Comments(ctx context.Context, comments []*models.Comment, viewerID uint) ([]*models.CommentNode, error) {
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	likes, err := p.Likes(ctx, models.TargetComment, ids, viewerID)
	if err != nil {
		return nil, err
	}

	nodes := make([]*models.CommentNode, 0, len(comments))
	for _, c := range comments {
		n := models.NewCommentNode(c)
		n.LikeCount = likes[c.ID].Count
		n.IsLiked = likes[c.ID].Liked
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Tweets projects tweets with their like and comment aggregates.
func (p *Projector) Tweets(ctx context.Context, tweets []*models.Tweet, commentCounts map[uint]int64, viewerID uint) ([]models.TweetView, error) {
	ids := make([]uint, 0, len(tweets))
	for _, t := range tweets {
		ids = append(ids, t.ID)
	}
	likes, err := p.Likes(ctx, models.TargetTweet, ids, viewerID)
	if err != nil {
		return nil, err
	}

	views := make([]models.TweetView, 0, len(tweets))
	for _, t := range tweets {
		media := t.Media
		if media == nil {
			media = models.MediaList{}
		}
		views = append(views, models.TweetView{
			ID:           t.ID,
			Content:      t.Content,
			Media:        media,
			Owner:        t.Owner.Summary(),
			LikeCount:    likes[t.ID].Count,
			CommentCount: commentCounts[t.ID],
			IsLiked:      likes[t.ID].Liked,
			CreatedAt:    t.CreatedAt,
			UpdatedAt:    t.UpdatedAt,
		})
	}
	return views, nil
}
