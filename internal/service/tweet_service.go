package service

import (
	"context"
	"fmt"

	"vidnest/internal/media"
	"vidnest/internal/models"
	"vidnest/internal/repository"
	"vidnest/internal/validation"
)

// MaxTweetMedia caps the images attached to one tweet.
const MaxTweetMedia = 4

// TweetService manages tweets and their projections.
type TweetService struct {
	tweets    repository.TweetRepository
	users     repository.UserRepository
	comments  repository.CommentRepository
	likes     repository.LikeRepository
	projector *Projector
	threads   *ThreadAssembler
	uploader  MediaUploader
	limits    Limits
}

type CreateTweetInput struct {
	OwnerID uint
	Content string
	Media   []media.File
}

func NewTweetService(
	tweets repository.TweetRepository,
	users repository.UserRepository,
	comments repository.CommentRepository,
	likes repository.LikeRepository,
	projector *Projector,
	threads *ThreadAssembler,
	uploader MediaUploader,
	limits Limits,
) *TweetService {
	return &TweetService{
		tweets:    tweets,
		users:     users,
		comments:  comments,
		likes:     likes,
		projector: projector,
		threads:   threads,
		uploader:  uploader,
		limits:    limits,
	}
}

// CreateTweet stores the attached images and creates the tweet.
func (s *TweetService) CreateTweet(ctx context.Context, in CreateTweetInput) (*models.TweetView, error) {
	if err := requireViewer(in.OwnerID); err != nil {
		return nil, err
	}
	content, err := text("Content", in.Content, validation.MaxTweetLen)
	if err != nil {
		return nil, err
	}
	if len(in.Media) > MaxTweetMedia {
		return nil, models.NewValidationError(fmt.Sprintf("At most %d media files per tweet", MaxTweetMedia))
	}

	refs := make(models.MediaList, 0, len(in.Media))
	release := func() {
		for _, ref := range refs {
			releaseMedia(ctx, s.uploader, ref, media.KindImage)
		}
	}
	for _, f := range in.Media {
		ref, err := s.uploader.Image(ctx, f)
		if err != nil {
			release()
			return nil, err
		}
		refs = append(refs, ref)
	}

	tweet := &models.Tweet{OwnerID: in.OwnerID, Content: content, Media: refs}
	if err := s.tweets.Create(ctx, tweet); err != nil {
		release()
		return nil, err
	}
	return s.view(ctx, tweet.ID, in.OwnerID)
}

// ListUserTweets pages a user's tweets, newest first.
func (s *TweetService) ListUserTweets(ctx context.Context, ownerID, viewerID uint, page, limit int) (*models.Page[models.TweetView], error) {
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, err
	}
	tweets, err := s.tweets.ListByOwner(ctx, ownerID, s.limits.Page(page, limit))
	if err != nil {
		return nil, err
	}
	views, err := s.project(ctx, tweets.Items, viewerID)
	if err != nil {
		return nil, err
	}

	out := models.Page[models.TweetView]{
		Items:      views,
		Page:       tweets.Page,
		Limit:      tweets.Limit,
		TotalItems: tweets.TotalItems,
		TotalPages: tweets.TotalPages,
	}
	return &out, nil
}

// GetTweet projects one tweet with the first page of its comment threads.
func (s *TweetService) GetTweet(ctx context.Context, tweetID, viewerID uint) (*models.TweetDetail, error) {
	view, err := s.view(ctx, tweetID, viewerID)
	if err != nil {
		return nil, err
	}
	comments, err := s.threads.RootThreads(ctx, models.TargetTweet, tweetID, viewerID, s.limits.Page(1, 0), 0)
	if err != nil {
		return nil, err
	}
	return &models.TweetDetail{TweetView: *view, Comments: comments}, nil
}

// UpdateTweet rewrites the content of the viewer's tweet.
func (s *TweetService) UpdateTweet(ctx context.Context, tweetID, viewerID uint, content string) (*models.TweetView, error) {
	if _, err := s.ownedTweet(ctx, tweetID, viewerID); err != nil {
		return nil, err
	}
	content, err := text("Content", content, validation.MaxTweetLen)
	if err != nil {
		return nil, err
	}
	if err := s.tweets.UpdateContent(ctx, tweetID, content); err != nil {
		return nil, err
	}
	return s.view(ctx, tweetID, viewerID)
}

// DeleteTweet removes the tweet row, then its likes, comments and images.
func (s *TweetService) DeleteTweet(ctx context.Context, tweetID, viewerID uint) error {
	tweet, err := s.ownedTweet(ctx, tweetID, viewerID)
	if err != nil {
		return err
	}
	if err := s.tweets.Delete(ctx, tweet.ID); err != nil {
		return err
	}
	purgeTarget(ctx, s.likes, s.comments, models.TargetTweet, tweet.ID)
	for _, ref := range tweet.Media {
		releaseMedia(ctx, s.uploader, ref, media.KindImage)
	}
	return nil
}

func (s *TweetService) ownedTweet(ctx context.Context, tweetID, viewerID uint) (*models.Tweet, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	if tweet.OwnerID != viewerID {
		return nil, models.NewForbiddenError("You can only modify your own tweets")
	}
	return tweet, nil
}

func (s *TweetService) view(ctx context.Context, tweetID, viewerID uint) (*models.TweetView, error) {
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	views, err := s.project(ctx, []*models.Tweet{tweet}, viewerID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *TweetService) project(ctx context.Context, tweets []*models.Tweet, viewerID uint) ([]models.TweetView, error) {
	ids := make([]uint, 0, len(tweets))
	for _, t := range tweets {
		ids = append(ids, t.ID)
	}
	commentCounts, err := s.comments.CountByTargets(ctx, models.TargetTweet, ids)
	if err != nil {
		return nil, err
	}
	return s.projector.Tweets(ctx, tweets, commentCounts, viewerID)
}
