package server

import (
	"vidnest/internal/models"
	"vidnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content"`
}

// ListVideoComments handles GET /api/v1/comments/:videoId?page&limit&depth
func (s *Server) ListVideoComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}
	return s.listComments(c, models.TargetVideo, id)
}

// ListTweetComments handles GET /api/v1/tweets/:id/comments?page&limit&depth
func (s *Server) ListTweetComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.listComments(c, models.TargetTweet, id)
}

func (s *Server) listComments(c *fiber.Ctx, kind models.TargetKind, targetID uint) error {
	p := parsePagination(c)
	page, err := s.commentService.ListComments(c.UserContext(), service.ListCommentsInput{
		Kind:     kind,
		TargetID: targetID,
		ViewerID: viewerID(c),
		Page:     p.Page,
		Limit:    p.Limit,
		Depth:    c.QueryInt("depth", 0),
	})
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, page, "Comments fetched successfully")
}

// AddVideoComment handles POST /api/v1/comments/:videoId
func (s *Server) AddVideoComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}
	return s.addComment(c, models.TargetVideo, id)
}

// AddTweetComment handles POST /api/v1/tweets/:id/comments
func (s *Server) AddTweetComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.addComment(c, models.TargetTweet, id)
}

func (s *Server) addComment(c *fiber.Ctx, kind models.TargetKind, targetID uint) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	node, err := s.commentService.AddComment(c.UserContext(), service.AddCommentInput{
		Kind:     kind,
		TargetID: targetID,
		ViewerID: viewerID(c),
		Content:  req.Content,
	})
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, node, "Comment added successfully")
}

// GetCommentThread handles GET /api/v1/comments/thread/:commentId?depth
func (s *Server) GetCommentThread(c *fiber.Ctx) error {
	id, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	node, err := s.commentService.GetThread(c.UserContext(), id, viewerID(c), c.QueryInt("depth", 0))
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, node, "Thread fetched successfully")
}

// AddReply handles POST /api/v1/comments/:commentId/replies
func (s *Server) AddReply(c *fiber.Ctx) error {
	id, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	node, err := s.commentService.AddReply(c.UserContext(), id, viewerID(c), req.Content)
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, node, "Reply added successfully")
}

// UpdateComment handles PATCH /api/v1/comments/c/:commentId
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	node, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		CommentID: id,
		ViewerID:  viewerID(c),
		Content:   req.Content,
	})
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, node, "Comment updated successfully")
}

// DeleteComment handles DELETE /api/v1/comments/c/:commentId and removes its replies too.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	if err := s.commentService.DeleteComment(c.UserContext(), id, viewerID(c)); err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{"id": id}, "Comment deleted successfully")
}
