package service

import (
	"context"
	"testing"
	"time"

	"vidnest/internal/auth"
	"vidnest/internal/cache"
	"vidnest/internal/models"
	"vidnest/internal/repository"
	"vidnest/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "Sup3r$ecretPass"

func newUserService(t *testing.T, h *harness) (*UserService, *auth.Tokens) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tokens := auth.NewTokens("test-secret-key-12345678901234567890123456789012", time.Hour, 24*time.Hour, auth.NewRedisRevocations(rdb))
	return NewUserService(repository.NewUserRepository(h.db), tokens, h.uploader, h.projector), tokens
}

func register(t *testing.T, svc *UserService, username string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Password: strongPassword,
		Avatar:   fileOf("me.png", "image/png", []byte("avatar")),
	})
	require.NoError(t, err)
	return user
}

func TestUserService_Register(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	svc, _ := newUserService(t, h)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username: "Alice",
		Email:    "Alice@Example.com",
		FullName: "Alice Liddell",
		Password: strongPassword,
		Avatar:   fileOf("a.png", "image/png", []byte("a")),
		Cover:    fileOf("c.png", "image/png", []byte("c")),
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, strongPassword, user.Password)
	assert.NotEmpty(t, user.Avatar.URL)
	assert.NotEmpty(t, user.CoverImage.URL)

	tests := []struct {
		name string
		in   RegisterInput
		code string
	}{
		{"duplicate username", RegisterInput{Username: "ALICE", Email: "other@example.com", FullName: "A", Password: strongPassword, Avatar: fileOf("a.png", "image/png", []byte("a"))}, models.CodeConflict},
		{"duplicate email", RegisterInput{Username: "other", Email: "alice@example.com", FullName: "A", Password: strongPassword, Avatar: fileOf("a.png", "image/png", []byte("a"))}, models.CodeConflict},
		{"weak password", RegisterInput{Username: "bob", Email: "bob@example.com", FullName: "B", Password: "short", Avatar: fileOf("a.png", "image/png", []byte("a"))}, models.CodeValidation},
		{"missing avatar", RegisterInput{Username: "bob", Email: "bob@example.com", FullName: "B", Password: strongPassword}, models.CodeValidation},
		{"bad email", RegisterInput{Username: "bob", Email: "nope", FullName: "B", Password: strongPassword, Avatar: fileOf("a.png", "image/png", []byte("a"))}, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			assertAppError(t, err, tt.code)
		})
	}
}

func TestUserService_LoginRefreshLogout(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	svc, tokens := newUserService(t, h)
	ctx := context.Background()
	register(t, svc, "alice")

	_, err := svc.Login(ctx, "alice", "Wr0ng$password")
	assertAppError(t, err, models.CodeUnauthorized)
	_, err = svc.Login(ctx, "nobody", strongPassword)
	assertAppError(t, err, models.CodeUnauthorized)

	session, err := svc.Login(ctx, "ALICE@example.com", strongPassword)
	require.NoError(t, err)
	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)

	rotated, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)

	_, err = svc.Refresh(ctx, session.RefreshToken)
	assertAppError(t, err, models.CodeUnauthorized)
	_, err = svc.Refresh(ctx, rotated.AccessToken)
	assertAppError(t, err, models.CodeUnauthorized)

	identity, err := tokens.VerifyAccess(ctx, rotated.AccessToken)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, identity))

	_, err = tokens.VerifyAccess(ctx, rotated.AccessToken)
	assert.ErrorIs(t, err, auth.ErrRevokedToken)
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	assertAppError(t, err, models.CodeUnauthorized)
}

func TestUserService_AccountUpdates(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	svc, _ := newUserService(t, h)
	ctx := context.Background()
	alice := register(t, svc, "alice")
	register(t, svc, "bob")

	assertAppError(t, svc.ChangePassword(ctx, alice.ID, "Wr0ng$password", "N3w$ecretPassword"), models.CodeValidation)
	require.NoError(t, svc.ChangePassword(ctx, alice.ID, strongPassword, "N3w$ecretPassword"))
	_, err := svc.Login(ctx, "alice", "N3w$ecretPassword")
	require.NoError(t, err)

	name := "  Alice L. "
	updated, err := svc.UpdateAccount(ctx, UpdateAccountInput{UserID: alice.ID, FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice L.", updated.FullName)

	taken := "bob@example.com"
	_, err = svc.UpdateAccount(ctx, UpdateAccountInput{UserID: alice.ID, Email: &taken})
	assertAppError(t, err, models.CodeConflict)
	_, err = svc.UpdateAccount(ctx, UpdateAccountInput{UserID: alice.ID})
	assertAppError(t, err, models.CodeValidation)

	oldAvatar := alice.Avatar.PublicID
	withAvatar, err := svc.UpdateAvatar(ctx, alice.ID, fileOf("new.png", "image/png", []byte("n")))
	require.NoError(t, err)
	assert.NotEqual(t, oldAvatar, withAvatar.Avatar.PublicID)
	assert.Contains(t, h.uploader.Released(), oldAvatar)

	withCover, err := svc.UpdateCover(ctx, alice.ID, fileOf("cover.png", "image/png", []byte("c")))
	require.NoError(t, err)
	assert.NotEmpty(t, withCover.CoverImage.URL)

	reloaded, err := svc.Me(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, withAvatar.Avatar, reloaded.Avatar)
	assert.Equal(t, withCover.CoverImage, reloaded.CoverImage)
}

func TestUserService_ChannelProfile(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	svc, _ := newUserService(t, h)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	bob := testutil.CreateUser(t, h.db, "bob")
	testutil.Subscribe(t, h.db, bob.ID, alice.ID)

	profile, err := svc.ChannelProfile(ctx, "Alice", bob.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsSubscribed)
	assert.Equal(t, int64(1), profile.SubscriberCount)
	assert.Empty(t, profile.Email)

	own, err := svc.ChannelProfile(ctx, "alice", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Email, own.Email)

	_, err = svc.ChannelProfile(ctx, "ghost", 0)
	assertAppError(t, err, models.CodeNotFound)
}

func TestUserService_ProfileChangesRefreshCachedListings(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	h := newHarness(t)
	svc, _ := newUserService(t, h)
	ctx := context.Background()
	alice := register(t, svc, "alice")
	testutil.CreateVideo(t, h.db, alice.ID, true)

	owner := func() models.UserSummary {
		t.Helper()
		page, err := h.videos.ListVideos(ctx, ListVideosInput{})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		return page.Items[0].Owner
	}
	assert.Equal(t, "Test alice", owner().FullName)

	name := "Alice Renamed"
	_, err := svc.UpdateAccount(ctx, UpdateAccountInput{UserID: alice.ID, FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, name, owner().FullName)

	updated, err := svc.UpdateAvatar(ctx, alice.ID, fileOf("fresh.png", "image/png", []byte("f")))
	require.NoError(t, err)
	assert.Equal(t, updated.Avatar.URL, owner().Avatar)
}
