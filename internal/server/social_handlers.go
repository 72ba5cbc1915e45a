package server

import (
	"vidnest/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ToggleLike handles POST /api/v1/likes/toggle/:kind/:id where kind is video, tweet or comment.
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	kind, ok := models.ParseTargetKind(c.Params("kind"))
	if !ok {
		return badRequest(c, "Invalid like target")
	}
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	state, err := s.likeService.ToggleLike(c.UserContext(), kind, id, viewerID(c))
	if err != nil {
		return fail(c, err)
	}
	msg := "Like removed"
	if state.IsLiked {
		msg = "Like added"
	}
	return models.Respond(c, fiber.StatusOK, state, msg)
}

// GetLikedVideos handles GET /api/v1/likes/videos?page&limit
func (s *Server) GetLikedVideos(c *fiber.Ctx) error {
	p := parsePagination(c)
	page, err := s.likeService.LikedVideos(c.UserContext(), viewerID(c), p.Page, p.Limit)
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, page, "Liked videos fetched successfully")
}

// ToggleSubscription handles POST /api/v1/subscriptions/toggle/:channelId
func (s *Server) ToggleSubscription(c *fiber.Ctx) error {
	channelID, err := s.parseID(c, "channelId")
	if err != nil {
		return nil
	}
	state, err := s.subscriptionService.ToggleSubscribe(c.UserContext(), channelID, viewerID(c))
	if err != nil {
		return fail(c, err)
	}
	msg := "Unsubscribed"
	if state.IsSubscribed {
		msg = "Subscribed"
	}
	return models.Respond(c, fiber.StatusOK, state, msg)
}

// GetChannelSubscribers handles GET /api/v1/subscriptions/c/:channelId?page&limit
func (s *Server) GetChannelSubscribers(c *fiber.Ctx) error {
	channelID, err := s.parseID(c, "channelId")
	if err != nil {
		return nil
	}
	p := parsePagination(c)
	page, err := s.subscriptionService.ListSubscribers(c.UserContext(), channelID, viewerID(c), p.Page, p.Limit)
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, page, "Subscribers fetched successfully")
}

// GetSubscribedChannels handles GET /api/v1/subscriptions/u/:subscriberId?page&limit
func (s *Server) GetSubscribedChannels(c *fiber.Ctx) error {
	subscriberID, err := s.parseID(c, "subscriberId")
	if err != nil {
		return nil
	}
	p := parsePagination(c)
	page, err := s.subscriptionService.ListSubscriptions(c.UserContext(), subscriberID, viewerID(c), p.Page, p.Limit)
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, page, "Subscribed channels fetched successfully")
}
