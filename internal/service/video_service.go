package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vidnest/internal/cache"
	"vidnest/internal/media"
	"vidnest/internal/models"
	"vidnest/internal/observability"
	"vidnest/internal/repository"
	"vidnest/internal/validation"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const videoListCacheName = "video_list"

// sortColumns maps client sort keys onto video columns.
var sortColumns = map[string]string{
	"views":     "views",
	"createdAt": "created_at",
	"duration":  "duration",
}

// VideoService owns video listing, detail and lifecycle.
type VideoService struct {
	videos    repository.VideoRepository
	users     repository.UserRepository
	likes     repository.LikeRepository
	comments  repository.CommentRepository
	projector *Projector
	threads   *ThreadAssembler
	uploader  MediaUploader
	limits    Limits
	listTTL   time.Duration
}

type ListVideosInput struct {
	Page     int
	Limit    int
	Query    string
	SortBy   string
	SortType string
	OwnerID  uint
	ViewerID uint
}

type PublishVideoInput struct {
	OwnerID     uint
	Title       string
	Description string
	Video       media.File
	Thumbnail   media.File
}

type UpdateVideoInput struct {
	VideoID     uint
	ViewerID    uint
	Title       *string
	Description *string
}

// NewVideoService creates a VideoService. A zero listTTL uses cache.VideoListTTL.
func NewVideoService(
	videos repository.VideoRepository,
	users repository.UserRepository,
	likes repository.LikeRepository,
	comments repository.CommentRepository,
	projector *Projector,
	threads *ThreadAssembler,
	uploader MediaUploader,
	limits Limits,
	listTTL time.Duration,
) *VideoService {
	if listTTL <= 0 {
		listTTL = cache.VideoListTTL
	}
	return &VideoService{
		videos:    videos,
		users:     users,
		likes:     likes,
		comments:  comments,
		projector: projector,
		threads:   threads,
		uploader:  uploader,
		limits:    limits,
		listTTL:   listTTL,
	}
}

// ParseVideoSort validates a client sort key and direction. Empty values
// default to createdAt desc.
func ParseVideoSort(sortBy, sortType string) (repository.VideoSort, error) {
	if sortBy == "" {
		sortBy = "createdAt"
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return repository.VideoSort{}, models.NewValidationError(
			fmt.Sprintf("Invalid sortBy %q (expected views, createdAt or duration)", sortBy))
	}
	switch strings.ToLower(sortType) {
	case "", "desc":
		return repository.VideoSort{Column: column, Desc: true}, nil
	case "asc":
		return repository.VideoSort{Column: column}, nil
	default:
		return repository.VideoSort{}, models.NewValidationError(
			fmt.Sprintf("Invalid sortType %q (expected asc or desc)", sortType))
	}
}

// ListVideos pages videos visible to the viewer. Anonymous listings are
// served through the cache.
func (s *VideoService) ListVideos(ctx context.Context, in ListVideosInput) (*models.Page[models.VideoListItem], error) {
	sort, err := ParseVideoSort(in.SortBy, in.SortType)
	if err != nil {
		return nil, err
	}
	req := s.limits.Page(in.Page, in.Limit)
	filter := repository.VideoFilter{
		OwnerID:  in.OwnerID,
		Query:    strings.TrimSpace(in.Query),
		ViewerID: in.ViewerID,
	}

	fetch := func(out *models.Page[models.VideoListItem]) error {
		videos, err := s.videos.List(ctx, filter, sort, req)
		if err != nil {
			return err
		}
		*out = models.MapPage(videos, models.NewVideoListItem)
		return nil
	}

	var page models.Page[models.VideoListItem]
	if in.ViewerID != 0 {
		if err := fetch(&page); err != nil {
			return nil, err
		}
		return &page, nil
	}

	fingerprint := fmt.Sprintf("%d|%d|%d|%s|%s", req.Page, req.Limit, filter.OwnerID, strings.ToLower(filter.Query), sort.Term())
	key := cache.VideoListKey(cache.VideoListGeneration(ctx), fingerprint)
	if err := cache.Aside(ctx, videoListCacheName, key, &page, s.listTTL, func() error {
		return fetch(&page)
	}); err != nil {
		return nil, err
	}
	return &page, nil
}

// PublishVideo stores the uploaded files and creates the video row.
func (s *VideoService) PublishVideo(ctx context.Context, in PublishVideoInput) (*models.VideoListItem, error) {
	if err := requireViewer(in.OwnerID); err != nil {
		return nil, err
	}
	title, err := text("Title", in.Title, validation.MaxTitleLen)
	if err != nil {
		return nil, err
	}
	description, err := text("Description", in.Description, validation.MaxDescriptionLen)
	if err != nil {
		return nil, err
	}
	if in.Video.Open == nil {
		return nil, models.NewValidationError("Video file is required")
	}
	if in.Thumbnail.Open == nil {
		return nil, models.NewValidationError("Thumbnail is required")
	}

	videoRef, duration, err := s.uploader.Video(ctx, in.Video)
	if err != nil {
		return nil, err
	}
	thumbRef, err := s.uploader.Image(ctx, in.Thumbnail)
	if err != nil {
		releaseMedia(ctx, s.uploader, videoRef, media.KindVideo)
		return nil, err
	}

	video := &models.Video{
		OwnerID:     in.OwnerID,
		Title:       title,
		Description: description,
		VideoFile:   videoRef,
		Thumbnail:   thumbRef,
		Duration:    duration,
		IsPublished: true,
	}
	if err := s.videos.Create(ctx, video); err != nil {
		releaseMedia(ctx, s.uploader, videoRef, media.KindVideo)
		releaseMedia(ctx, s.uploader, thumbRef, media.KindImage)
		return nil, err
	}
	cache.InvalidateVideoLists(ctx)

	created, err := s.videos.GetByID(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	item := models.NewVideoListItem(created)
	return &item, nil
}

// visibleVideo loads a video the viewer may see. Unpublished videos are
// NotFound for everyone but their owner.
func (s *VideoService) visibleVideo(ctx context.Context, videoID, viewerID uint) (*models.Video, error) {
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsPublished && video.OwnerID != viewerID {
		return nil, models.NewNotFoundError("Video", videoID)
	}
	return video, nil
}

// GetVideoDetail projects a video for the viewer with the first page of its
// comment threads, then counts the view. The reported views include it.
func (s *VideoService) GetVideoDetail(ctx context.Context, videoID, viewerID uint) (_ *models.VideoDetail, err error) {
	ctx, end := observability.StartSpan(ctx, "video.detail",
		attribute.Int64("video.id", int64(videoID)),
		attribute.Bool("viewer.anonymous", viewerID == 0))
	defer func() { end(err) }()

	video, err := s.visibleVideo(ctx, videoID, viewerID)
	if err != nil {
		return nil, err
	}

	var (
		owner    models.ChannelProfile
		likes    LikeProjection
		comments models.Page[*models.CommentNode]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		owner, err = s.projector.Channel(gctx, &video.Owner, viewerID)
		return err
	})
	g.Go(func() (err error) {
		likes, err = s.projector.Like(gctx, models.TargetVideo, video.ID, viewerID)
		return err
	})
	g.Go(func() (err error) {
		comments, err = s.threads.RootThreads(gctx, models.TargetVideo, video.ID, viewerID, s.limits.Page(1, 0), 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views, err := s.videos.IncrementViews(ctx, video.ID)
	if err != nil {
		return nil, err
	}
	video.Views = views

	return &models.VideoDetail{
		VideoListItem: models.NewVideoListItem(video),
		Owner:         owner,
		LikeCount:     likes.Count,
		IsLiked:       likes.Liked,
		Comments:      comments,
	}, nil
}

// ownedVideo loads a video and checks the viewer owns it.
func (s *VideoService) ownedVideo(ctx context.Context, videoID, viewerID uint) (*models.Video, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	video, err := s.videos.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.OwnerID != viewerID {
		return nil, models.NewForbiddenError("You can only modify your own videos")
	}
	return video, nil
}

// UpdateVideo changes title and description. Nil fields are left alone.
func (s *VideoService) UpdateVideo(ctx context.Context, in UpdateVideoInput) (*models.VideoListItem, error) {
	video, err := s.ownedVideo(ctx, in.VideoID, in.ViewerID)
	if err != nil {
		return nil, err
	}
	if in.Title == nil && in.Description == nil {
		return nil, models.NewValidationError("Nothing to update")
	}
	if in.Title != nil {
		if video.Title, err = text("Title", *in.Title, validation.MaxTitleLen); err != nil {
			return nil, err
		}
	}
	if in.Description != nil {
		if video.Description, err = text("Description", *in.Description, validation.MaxDescriptionLen); err != nil {
			return nil, err
		}
	}
	if err := s.videos.Update(ctx, video); err != nil {
		return nil, err
	}
	cache.InvalidateVideoLists(ctx)

	item := models.NewVideoListItem(video)
	return &item, nil
}

// UpdateThumbnail replaces the thumbnail and releases the old blob.
func (s *VideoService) UpdateThumbnail(ctx context.Context, videoID, viewerID uint, file media.File) (*models.VideoListItem, error) {
	video, err := s.ownedVideo(ctx, videoID, viewerID)
	if err != nil {
		return nil, err
	}
	if file.Open == nil {
		return nil, models.NewValidationError("Thumbnail is required")
	}
	ref, err := s.uploader.Image(ctx, file)
	if err != nil {
		return nil, err
	}

	old := video.Thumbnail
	video.Thumbnail = ref
	if err := s.videos.Update(ctx, video); err != nil {
		releaseMedia(ctx, s.uploader, ref, media.KindImage)
		return nil, err
	}
	releaseMedia(ctx, s.uploader, old, media.KindImage)
	cache.InvalidateVideoLists(ctx)

	item := models.NewVideoListItem(video)
	return &item, nil
}

// TogglePublish flips the published flag.
func (s *VideoService) TogglePublish(ctx context.Context, videoID, viewerID uint) (*models.VideoListItem, error) {
	video, err := s.ownedVideo(ctx, videoID, viewerID)
	if err != nil {
		return nil, err
	}
	video.IsPublished = !video.IsPublished
	if err := s.videos.Update(ctx, video); err != nil {
		return nil, err
	}
	cache.InvalidateVideoLists(ctx)

	item := models.NewVideoListItem(video)
	return &item, nil
}

// DeleteVideo removes the video row first, then its likes, its comments'
// likes, its comments and finally its media. Only the row delete can fail
// the call.
func (s *VideoService) DeleteVideo(ctx context.Context, videoID, viewerID uint) error {
	video, err := s.ownedVideo(ctx, videoID, viewerID)
	if err != nil {
		return err
	}
	if err := s.videos.Delete(ctx, video.ID); err != nil {
		return err
	}
	cache.InvalidateVideoLists(ctx)

	purgeTarget(ctx, s.likes, s.comments, models.TargetVideo, video.ID)
	releaseMedia(ctx, s.uploader, video.VideoFile, media.KindVideo)
	releaseMedia(ctx, s.uploader, video.Thumbnail, media.KindImage)
	return nil
}

// purgeTarget deletes likes on the target, then likes on its comments, then
// the comments themselves.
func purgeTarget(ctx context.Context, likes repository.LikeRepository, comments repository.CommentRepository, kind models.TargetKind, id uint) {
	entity := string(kind)
	cascadeStep(ctx, entity, id, "likes", func() error {
		_, err := likes.DeleteByTargets(ctx, kind, []uint{id})
		return err
	})

	var commentIDs []uint
	cascadeStep(ctx, entity, id, "comment_ids", func() (err error) {
		commentIDs, err = comments.IDsByTarget(ctx, kind, id)
		return err
	})
	if len(commentIDs) == 0 {
		return
	}
	cascadeStep(ctx, entity, id, "comment_likes", func() error {
		_, err := likes.DeleteByTargets(ctx, models.TargetComment, commentIDs)
		return err
	})
	cascadeStep(ctx, entity, id, "comments", func() error {
		_, err := comments.DeleteByIDs(ctx, commentIDs)
		return err
	})
}
