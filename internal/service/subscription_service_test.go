package service

import (
	"context"
	"testing"

	"vidnest/internal/models"
	"vidnest/internal/notifications"
	"vidnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionService_Toggle(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	bob := testutil.CreateUser(t, h.db, "bob")

	state, err := h.subs.ToggleSubscribe(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, state.IsSubscribed)
	assert.Equal(t, int64(1), state.SubscriberCount)

	state, err = h.subs.ToggleSubscribe(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, state.IsSubscribed)
	assert.Equal(t, int64(0), state.SubscriberCount)

	sent := h.events.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, alice.ID, sent[0].recipient)
	assert.Equal(t, notifications.EventSubscribed, sent[0].event.Type)
}

func TestSubscriptionService_ToggleErrors(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, h.db, "alice")

	_, err := h.subs.ToggleSubscribe(ctx, alice.ID, alice.ID)
	assertAppError(t, err, models.CodeValidation)

	_, err = h.subs.ToggleSubscribe(ctx, 999, alice.ID)
	assertAppError(t, err, models.CodeNotFound)

	_, err = h.subs.ToggleSubscribe(ctx, alice.ID, 0)
	assertAppError(t, err, models.CodeUnauthorized)

	assert.Equal(t, int64(0), h.count(t, &models.Subscription{}, "1 = 1"))
}

func TestSubscriptionService_Lists(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	bob := testutil.CreateUser(t, h.db, "bob")
	carol := testutil.CreateUser(t, h.db, "carol")
	testutil.Subscribe(t, h.db, bob.ID, alice.ID)
	testutil.Subscribe(t, h.db, carol.ID, alice.ID)
	testutil.Subscribe(t, h.db, alice.ID, carol.ID)

	subscribers, err := h.subs.ListSubscribers(ctx, alice.ID, bob.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, subscribers.Items, 2)
	byName := map[string]models.SubscriberEntry{}
	for _, e := range subscribers.Items {
		byName[e.Username] = e
	}
	assert.True(t, byName["carol"].SubscribedBack)
	assert.False(t, byName["bob"].SubscribedBack)
	assert.Equal(t, int64(1), byName["carol"].SubscriberCount)
	assert.Empty(t, byName["carol"].Email)

	channels, err := h.subs.ListSubscriptions(ctx, alice.ID, 0, 1, 10)
	require.NoError(t, err)
	require.Len(t, channels.Items, 1)
	assert.Equal(t, carol.ID, channels.Items[0].ID)
	assert.False(t, channels.Items[0].IsSubscribed)

	_, err = h.subs.ListSubscribers(ctx, 999, 0, 1, 10)
	assertAppError(t, err, models.CodeNotFound)
}
