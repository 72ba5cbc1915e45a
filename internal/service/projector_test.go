package service

import (
	"context"
	"testing"

	"vidnest/internal/models"
	"vidnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjector_LikesBatch(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	bob := testutil.CreateUser(t, h.db, "bob")
	v1 := testutil.CreateVideo(t, h.db, alice.ID, true)
	v2 := testutil.CreateVideo(t, h.db, alice.ID, true)
	testutil.CreateLike(t, h.db, alice.ID, models.TargetVideo, v1.ID)
	testutil.CreateLike(t, h.db, bob.ID, models.TargetVideo, v1.ID)

	got, err := h.projector.Likes(ctx, models.TargetVideo, []uint{v1.ID, v2.ID}, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeProjection{Count: 2, Liked: true}, got[v1.ID])
	assert.Equal(t, LikeProjection{Count: 0, Liked: false}, got[v2.ID])

	anon, err := h.projector.Likes(ctx, models.TargetVideo, []uint{v1.ID}, 0)
	require.NoError(t, err)
	assert.Equal(t, LikeProjection{Count: 2, Liked: false}, anon[v1.ID])

	empty, err := h.projector.Likes(ctx, models.TargetVideo, nil, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProjector_Channels(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	bob := testutil.CreateUser(t, h.db, "bob")
	carol := testutil.CreateUser(t, h.db, "carol")
	testutil.Subscribe(t, h.db, bob.ID, alice.ID)
	testutil.Subscribe(t, h.db, carol.ID, alice.ID)
	testutil.Subscribe(t, h.db, alice.ID, carol.ID)

	profiles, err := h.projector.Channels(ctx, []*models.User{alice, carol}, bob.ID)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	assert.Equal(t, alice.ID, profiles[0].ID)
	assert.Equal(t, int64(2), profiles[0].SubscriberCount)
	assert.Equal(t, int64(1), profiles[0].SubscribedToCount)
	assert.True(t, profiles[0].IsSubscribed)
	assert.Empty(t, profiles[0].Email, "email is private to its owner")

	assert.Equal(t, int64(1), profiles[1].SubscriberCount)
	assert.False(t, profiles[1].IsSubscribed)

	self, err := h.projector.Channel(ctx, alice, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Email, self.Email)
	assert.False(t, self.IsSubscribed)

	anon, err := h.projector.Channel(ctx, alice, 0)
	require.NoError(t, err)
	assert.False(t, anon.IsSubscribed)
	assert.Equal(t, int64(2), anon.SubscriberCount)
}
