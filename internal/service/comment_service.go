package service

import (
	"context"

	"vidnest/internal/models"
	"vidnest/internal/notifications"
	"vidnest/internal/repository"
	"vidnest/internal/validation"
)

// CommentService manages comments and replies on videos and tweets.
type CommentService struct {
	comments  repository.CommentRepository
	videos    repository.VideoRepository
	tweets    repository.TweetRepository
	likes     repository.LikeRepository
	projector *Projector
	threads   *ThreadAssembler
	events    EventPublisher
	limits    Limits
}

type ListCommentsInput struct {
	Kind     models.TargetKind
	TargetID uint
	ViewerID uint
	Page     int
	Limit    int
	Depth    int
}

type AddCommentInput struct {
	Kind     models.TargetKind
	TargetID uint
	ViewerID uint
	Content  string
}

type UpdateCommentInput struct {
	CommentID uint
	ViewerID  uint
	Content   string
}

func NewCommentService(
	comments repository.CommentRepository,
	videos repository.VideoRepository,
	tweets repository.TweetRepository,
	likes repository.LikeRepository,
	projector *Projector,
	threads *ThreadAssembler,
	events EventPublisher,
	limits Limits,
) *CommentService {
	if events == nil {
		events = noopEvents{}
	}
	return &CommentService{
		comments:  comments,
		videos:    videos,
		tweets:    tweets,
		likes:     likes,
		projector: projector,
		threads:   threads,
		events:    events,
		limits:    limits,
	}
}

// targetOwner checks a comment target exists and is visible to the viewer,
// returning its owner.
func (s *CommentService) targetOwner(ctx context.Context, kind models.TargetKind, targetID, viewerID uint) (uint, error) {
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
		return 0, models.NewValidationError("Comments can only target videos or tweets")
	}
}

// ListComments pages the root threads of a target.
func (s *CommentService) ListComments(ctx context.Context, in ListCommentsInput) (*models.Page[*models.CommentNode], error) {
	if _, err := s.targetOwner(ctx, in.Kind, in.TargetID, in.ViewerID); err != nil {
		return nil, err
	}
	page, err := s.threads.RootThreads(ctx, in.Kind, in.TargetID, in.ViewerID, s.limits.Page(in.Page, in.Limit), in.Depth)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetThread expands one comment depth levels down.
func (s *CommentService) GetThread(ctx context.Context, commentID, viewerID uint, depth int) (*models.CommentNode, error) {
	root, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.targetOwner(ctx, root.TargetType, root.TargetID, viewerID); err != nil {
		return nil, err
	}
	return s.threads.AssembleThread(ctx, root.ID, viewerID, s.limits.Depth(depth))
}

// AddComment creates a root comment on a video or tweet.
func (s *CommentService) AddComment(ctx context.Context, in AddCommentInput) (*models.CommentNode, error) {
	if err := requireViewer(in.ViewerID); err != nil {
		return nil, err
	}
	content, err := text("Content", in.Content, validation.MaxCommentLen)
	if err != nil {
		return nil, err
	}
	ownerID, err := s.targetOwner(ctx, in.Kind, in.TargetID, in.ViewerID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content:    content,
		OwnerID:    in.ViewerID,
		TargetType: in.Kind,
		TargetID:   in.TargetID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	if ownerID != in.ViewerID {
		s.events.Notify(ctx, ownerID, notifications.Event{
			Type:       notifications.EventCommented,
			ActorID:    in.ViewerID,
			TargetType: string(in.Kind),
			TargetID:   in.TargetID,
		})
	}
	return s.node(ctx, comment.ID, in.ViewerID)
}

// AddReply answers an existing comment. The reply inherits its parent's target.
func (s *CommentService) AddReply(ctx context.Context, parentID, viewerID uint, content string) (*models.CommentNode, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	content, err := text("Content", content, validation.MaxCommentLen)
	if err != nil {
		return nil, err
	}
	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.targetOwner(ctx, parent.TargetType, parent.TargetID, viewerID); err != nil {
		return nil, err
	}

	reply := &models.Comment{
		Content:    content,
		OwnerID:    viewerID,
		TargetType: parent.TargetType,
		TargetID:   parent.TargetID,
		ParentID:   &parent.ID,
	}
	if err := s.comments.Create(ctx, reply); err != nil {
		return nil, err
	}

	if parent.OwnerID != viewerID {
		s.events.Notify(ctx, parent.OwnerID, notifications.Event{
			Type:       notifications.EventReplied,
			ActorID:    viewerID,
			TargetType: string(models.TargetComment),
			TargetID:   parent.ID,
		})
	}
	return s.node(ctx, reply.ID, viewerID)
}

// UpdateComment rewrites the content of the viewer's own comment.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.CommentNode, error) {
	if _, err := s.ownedComment(ctx, in.CommentID, in.ViewerID); err != nil {
		return nil, err
	}
	content, err := text("Content", in.Content, validation.MaxCommentLen)
	if err != nil {
		return nil, err
	}
	if err := s.comments.UpdateContent(ctx, in.CommentID, content); err != nil {
		return nil, err
	}
	return s.node(ctx, in.CommentID, in.ViewerID)
}

// DeleteComment removes the viewer's comment with all of its replies, then
// the likes on them.
func (s *CommentService) DeleteComment(ctx context.Context, commentID, viewerID uint) error {
	comment, err := s.ownedComment(ctx, commentID, viewerID)
	if err != nil {
		return err
	}
	subtree, err := s.comments.SubtreeIDs(ctx, comment.ID)
	if err != nil {
		return err
	}
	deleted, err := s.comments.DeleteByIDs(ctx, subtree)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return models.NewNotFoundError("Comment", commentID)
	}

	cascadeStep(ctx, string(models.TargetComment), comment.ID, "likes", func() error {
		_, err := s.likes.DeleteByTargets(ctx, models.TargetComment, subtree)
		return err
	})
	return nil
}

func (s *CommentService) ownedComment(ctx context.Context, commentID, viewerID uint) (*models.Comment, error) {
	if err := requireViewer(viewerID); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.OwnerID != viewerID {
		return nil, models.NewForbiddenError("You can only modify your own comments")
	}
	return comment, nil
}

// node reloads a comment with its owner and projects it without replies.
func (s *CommentService) node(ctx context.Context, commentID, viewerID uint) (*models.CommentNode, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	nodes, err := s.projector.Comments(ctx, []*models.Comment{comment}, viewerID)
	if err != nil {
		return nil, err
	}
	counts, err := s.comments.CountChildren(ctx, []uint{comment.ID})
	if err != nil {
		return nil, err
	}
	nodes[0].ReplyCount = counts[comment.ID]
	return nodes[0], nil
}
