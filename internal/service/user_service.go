package service

import (
	"context"
	"errors"
	"strings"

	"vidnest/internal/auth"
	"vidnest/internal/cache"
	"vidnest/internal/media"
	"vidnest/internal/models"
	"vidnest/internal/repository"
	"vidnest/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "Invalid credentials"

// UserService handles accounts, credentials and channel profiles.
type UserService struct {
	users     repository.UserRepository
	tokens    *auth.Tokens
	uploader  MediaUploader
	projector *Projector
}

type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Avatar   media.File
	Cover    media.File
}

type UpdateAccountInput struct {
	UserID   uint
	FullName *string
	Email    *string
}

// AuthResult is returned by login and token refresh.
type AuthResult struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

func NewUserService(users repository.UserRepository, tokens *auth.Tokens, uploader MediaUploader, projector *Projector) *UserService {
	return &UserService{users: users, tokens: tokens, uploader: uploader, projector: projector}
}

// Register creates an account. The avatar is required, the cover image optional.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))
	fullName, err := text("Full name", in.FullName, validation.MaxFullNameLen)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.Avatar.Open == nil {
		return nil, models.NewValidationError("Avatar is required")
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing, err = s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
	}
	if existing != nil {
		return nil, models.NewConflictError("User with email or username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	avatar, err := s.uploader.Image(ctx, in.Avatar)
	if err != nil {
		return nil, err
	}
	var cover models.MediaRef
	if in.Cover.Open != nil {
		if cover, err = s.uploader.Image(ctx, in.Cover); err != nil {
			releaseMedia(ctx, s.uploader, avatar, media.KindImage)
			return nil, err
		}
	}

	user := &models.User{
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Password:   string(hash),
		Avatar:     avatar,
		CoverImage: cover,
	}
	if err := s.users.Create(ctx, user); err != nil {
		releaseMedia(ctx, s.uploader, avatar, media.KindImage)
		releaseMedia(ctx, s.uploader, cover, media.KindImage)
		return nil, err
	}
	return user, nil
}

// Login authenticates by username or email and issues a token pair.
func (s *UserService) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	if strings.TrimSpace(login) == "" || password == "" {
		return nil, models.NewValidationError("Username or email and password are required")
	}
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError(invalidCredentials)
	}
	return s.issue(ctx, user)
}

// Refresh rotates a refresh token. Only the most recently issued refresh
// token of a user is accepted.
func (s *UserService) Refresh(ctx context.Context, raw string) (*AuthResult, error) {
	if raw == "" {
		return nil, models.NewUnauthorizedError("Refresh token is required")
	}
	id, err := s.tokens.VerifyRefresh(raw)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid refresh token")
	}
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
			return nil, models.NewUnauthorizedError("Invalid refresh token")
		}
		return nil, err
	}
	if user.RefreshToken == "" || user.RefreshToken != id.TokenID {
		return nil, models.NewUnauthorizedError("Refresh token is expired or used")
	}
	return s.issue(ctx, user)
}

// Logout drops the stored refresh token and blacklists the access token.
func (s *UserService) Logout(ctx context.Context, access auth.Identity) error {
	if err := requireViewer(access.UserID); err != nil {
		return err
	}
	if err := s.users.UpdateFields(ctx, access.UserID, map[string]interface{}{"refresh_token": ""}); err != nil {
		return err
	}
	if err := s.tokens.Revoke(ctx, access); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *UserService) issue(ctx context.Context, user *models.User) (*AuthResult, error) {
	access, _, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	refresh, refreshID, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.users.UpdateFields(ctx, user.ID, map[string]interface{}{"refresh_token": refreshID.TokenID}); err != nil {
		return nil, err
	}
	user.RefreshToken = refreshID.TokenID
	return &AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return models.NewValidationError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(newPassword); err != nil {
		return models.NewValidationError(err.Error())
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	return s.users.UpdateFields(ctx, userID, map[string]interface{}{"password": string(hash)})
}

// Me returns the caller's own account.
func (s *UserService) Me(ctx context.Context, userID uint) (*models.User, error) {
	if err := requireViewer(userID); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// UpdateAccount changes the full name and email. Nil fields are left alone.
func (s *UserService) UpdateAccount(ctx context.Context, in UpdateAccountInput) (*models.User, error) {
	if err := requireViewer(in.UserID); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.FullName != nil {
		name, err := text("Full name", *in.FullName, validation.MaxFullNameLen)
		if err != nil {
			return nil, err
		}
		fields["full_name"] = name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		fields["email"] = email
	}
	if len(fields) == 0 {
		return nil, models.NewValidationError("Nothing to update")
	}
	if err := s.users.UpdateFields(ctx, in.UserID, fields); err != nil {
		return nil, err
	}
	// cached listings embed the owner's full name
	if _, ok := fields["full_name"]; ok {
		cache.InvalidateVideoLists(ctx)
	}
	return s.users.GetByID(ctx, in.UserID)
}

// UpdateAvatar swaps the avatar and releases the previous blob.
func (s *UserService) UpdateAvatar(ctx context.Context, userID uint, file media.File) (*models.User, error) {
	return s.swapImage(ctx, userID, file, "avatar", func(u *models.User) *models.MediaRef { return &u.Avatar })
}

// UpdateCover swaps the cover image and releases the previous blob.
func (s *UserService) UpdateCover(ctx context.Context, userID uint, file media.File) (*models.User, error) {
	return s.swapImage(ctx, userID, file, "cover", func(u *models.User) *models.MediaRef { return &u.CoverImage })
}

func (s *UserService) swapImage(ctx context.Context, userID uint, file media.File, prefix string, slot func(*models.User) *models.MediaRef) (*models.User, error) {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	if file.Open == nil {
		return nil, models.NewValidationError("Image file is required")
	}
	ref, err := s.uploader.Image(ctx, file)
	if err != nil {
		return nil, err
	}

	err = s.users.UpdateFields(ctx, userID, map[string]interface{}{
		prefix + "_url":       ref.URL,
		prefix + "_public_id": ref.PublicID,
	})
	if err != nil {
		releaseMedia(ctx, s.uploader, ref, media.KindImage)
		return nil, err
	}

	if prefix == "avatar" {
		cache.InvalidateVideoLists(ctx)
	}

	current := slot(user)
	old := *current
	*current = ref
	releaseMedia(ctx, s.uploader, old, media.KindImage)
	return user, nil
}

// ChannelProfile projects the user named username as a channel for the viewer.
func (s *UserService) ChannelProfile(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, models.NewValidationError("Username is required")
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("Channel", username)
	}
	profile, err := s.projector.Channel(ctx, user, viewerID)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
