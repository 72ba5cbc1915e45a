package server

import (
	"time"

	"vidnest/internal/middleware"
	"vidnest/internal/models"
	"vidnest/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

func (s *Server) userSvc() *service.UserService {
	if s.userService == nil {
		s.userService = service.NewUserService(s.userRepo, s.tokens, s.uploader, s.projector)
	}
	return s.userService
}

// Register handles POST /api/v1/users/register (multipart: avatar required, coverImage optional)
func (s *Server) Register(c *fiber.Ctx) error {
	user, err := s.userSvc().Register(c.UserContext(), service.RegisterInput{
		Username: formValue(c, "username"),
		Email:    formValue(c, "email"),
		FullName: formValue(c, "fullName"),
		Password: c.FormValue("password"),
		Avatar:   formFile(c, "avatar"),
		Cover:    formFile(c, "coverImage"),
	})
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, user, "User registered successfully")
}

// Login handles POST /api/v1/users/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	login := req.Username
	if login == "" {
		login = req.Email
	}

	result, err := s.userSvc().Login(c.UserContext(), login, req.Password)
	if err != nil {
		return fail(c, err)
	}
	s.setAuthCookies(c, result)
	return models.Respond(c, fiber.StatusOK, result, "User logged in successfully")
}

// RefreshToken handles POST /api/v1/users/refresh-token. The token is read from
// the body first and the cookie second.
func (s *Server) RefreshToken(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.BodyParser(&req)
	raw := req.RefreshToken
	if raw == "" {
		raw = c.Cookies(refreshCookie)
	}

	result, err := s.userSvc().Refresh(c.UserContext(), raw)
	if err != nil {
		return fail(c, err)
	}
	s.setAuthCookies(c, result)
	return models.Respond(c, fiber.StatusOK, result, "Access token refreshed")
}

// Logout handles POST /api/v1/users/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	identity, ok := middleware.ViewerIdentity(c)
	if !ok {
		return fail(c, models.NewUnauthorizedError("Authorization required"))
	}
	if err := s.userSvc().Logout(c.UserContext(), identity); err != nil {
		return fail(c, err)
	}
	expired := time.Now().Add(-time.Hour)
	c.Cookie(&fiber.Cookie{Name: accessCookie, HTTPOnly: true, Expires: expired})
	c.Cookie(&fiber.Cookie{Name: refreshCookie, HTTPOnly: true, Path: "/api/v1/users", Expires: expired})
	return models.Respond(c, fiber.StatusOK, fiber.Map{}, "User logged out")
}

// ChangePassword handles POST /api/v1/users/change-password
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := s.userSvc().ChangePassword(c.UserContext(), viewerID(c), req.OldPassword, req.NewPassword); err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{}, "Password changed successfully")
}

// GetMe handles GET /api/v1/users/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	user, err := s.userSvc().Me(c.UserContext(), viewerID(c))
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, user, "Current user fetched successfully")
}

// UpdateAccount handles PATCH /api/v1/users/me
func (s *Server) UpdateAccount(c *fiber.Ctx) error {
	var req struct {
		FullName *string `json:"fullName"`
		Email    *string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	user, err := s.userSvc().UpdateAccount(c.UserContext(), service.UpdateAccountInput{
		UserID:   viewerID(c),
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, user, "Account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar (multipart: avatar)
func (s *Server) UpdateAvatar(c *fiber.Ctx) error {
	user, err := s.userSvc().UpdateAvatar(c.UserContext(), viewerID(c), formFile(c, "avatar"))
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, user, "Avatar updated successfully")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image (multipart: coverImage)
func (s *Server) UpdateCoverImage(c *fiber.Ctx) error {
	user, err := s.userSvc().UpdateCover(c.UserContext(), viewerID(c), formFile(c, "coverImage"))
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, user, "Cover image updated successfully")
}

// GetChannelProfile handles GET /api/v1/users/c/:username
func (s *Server) GetChannelProfile(c *fiber.Ctx) error {
	profile, err := s.userSvc().ChannelProfile(c.UserContext(), c.Params("username"), viewerID(c))
	if err != nil {
		return fail(c, err)
	}
	return models.Respond(c, fiber.StatusOK, profile, "Channel fetched successfully")
}

func (s *Server) setAuthCookies(c *fiber.Ctx, result *service.AuthResult) {
	secure := s.config.Env == "production"
	c.Cookie(&fiber.Cookie{
		Name:     accessCookie,
		Value:    result.AccessToken,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Duration(s.config.AccessTokenTTLMinutes) * time.Minute),
	})
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookie,
		Value:    result.RefreshToken,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Path:     "/api/v1/users",
		Expires:  time.Now().Add(time.Duration(s.config.RefreshTokenTTLHours) * time.Hour),
	})
}
