package server

import (
	"vidnest/internal/models"
	"vidnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateTweet handles POST /api/v1/tweets (JSON, or multipart with media files)
func (s *Server) CreateTweet(c *fiber.Ctx) error {
	var req struct {
		Content string `json:"content" form:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	tweet, err := s.tweetService.CreateTweet(c.UserContext(), service.CreateTweetInput{
		OwnerID: viewerID(c),
		Content: req.Content,
		Media:   formFiles(c, "media"),
	})
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, tweet, "Tweet created successfully")
}

// GetUserTweets handles GET /api/v1/tweets/user/:userId?page&limit
func (s *Server) GetUserTweets(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	p := parsePagination(c)
	page, err := s.tweetService.ListUserTweets(c.UserContext(), userID, viewerID(c), p.Page, p.Limit)
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, page, "Tweets fetched successfully")
}

// GetTweet handles GET /api/v1/tweets/:id
func (s *Server) GetTweet(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	tweet, err := s.tweetService.GetTweet(c.UserContext(), id, viewerID(c))
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, tweet, "Tweet fetched successfully")
}

// UpdateTweet handles PATCH /api/v1/tweets/:id
func (s *Server) UpdateTweet(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	tweet, err := s.tweetService.UpdateTweet(c.UserContext(), id, viewerID(c), req.Content)
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, tweet, "Tweet updated successfully")
}

// DeleteTweet handles DELETE /api/v1/tweets/:id
func (s *Server) DeleteTweet(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.tweetService.DeleteTweet(c.UserContext(), id, viewerID(c)); err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{"id": id}, "Tweet deleted successfully")
}
