package server

import (
	"vidnest/internal/models"
	"vidnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListVideos handles GET /api/v1/videos?page&limit&query&sortBy&sortType&userId
func (s *Server) ListVideos(c *fiber.Ctx) error {
	p := parsePagination(c)
	ownerID := c.QueryInt("userId", 0)
	if ownerID < 0 {
		return badRequest(c, "Invalid user ID")
	}

	page, err := s.videoService.ListVideos(c.UserContext(), service.ListVideosInput{
		Page:     p.Page,
		Limit:    p.Limit,
		Query:    c.Query("query"),
		SortBy:   c.Query("sortBy"),
		SortType: c.Query("sortType"),
		OwnerID:  uint(ownerID),
		ViewerID: viewerID(c),
	})
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, page, "Videos fetched successfully")
}

// PublishVideo handles POST /api/v1/videos (multipart: videoFile, thumbnail, title, description)
func (s *Server) PublishVideo(c *fiber.Ctx) error {
	video, err := s.videoService.PublishVideo(c.UserContext(), service.PublishVideoInput{
		OwnerID:     viewerID(c),
		Title:       formValue(c, "title"),
		Description: formValue(c, "description"),
		Video:       formFile(c, "videoFile"),
		Thumbnail:   formFile(c, "thumbnail"),
	})
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, video, "Video published successfully")
}

// GetVideo handles GET /api/v1/videos/:id
func (s *Server) GetVideo(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	detail, err := s.videoService.GetVideoDetail(c.UserContext(), id, viewerID(c))
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, detail, "Video fetched successfully")
}

// UpdateVideo handles PATCH /api/v1/videos/:id
func (s *Server) UpdateVideo(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	video, err := s.videoService.UpdateVideo(c.UserContext(), service.UpdateVideoInput{
		VideoID:     id,
		ViewerID:    viewerID(c),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, video, "Video updated successfully")
}

// UpdateThumbnail handles PATCH /api/v1/videos/:id/thumbnail (multipart: thumbnail)
func (s *Server) UpdateThumbnail(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	video, err := s.videoService.UpdateThumbnail(c.UserContext(), id, viewerID(c), formFile(c, "thumbnail"))
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, video, "Thumbnail updated successfully")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/:id
func (s *Server) TogglePublish(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	video, err := s.videoService.TogglePublish(c.UserContext(), id, viewerID(c))
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, video, "Publish status toggled")
}

// DeleteVideo handles DELETE /api/v1/videos/:id
func (s *Server) DeleteVideo(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.videoService.DeleteVideo(c.UserContext(), id, viewerID(c)); err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{"id": id}, "Video deleted successfully")
}
