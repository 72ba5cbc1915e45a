package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		SetClient(nil)
		mr.Close()
	})
	return mr
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestAside_FetchesOnceThenServesFromRedis(t *testing.T) {
	useMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *payload) func() error {
		return func() error {
			calls++
			*dest = payload{Name: "videos", Count: 3}
			return nil
		}
	}

	var first payload
	require.NoError(t, Aside(ctx, "test", "k", &first, time.Minute, fetch(&first)))
	var second payload
	require.NoError(t, Aside(ctx, "test", "k", &second, time.Minute, fetch(&second)))

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestAside_WithoutClientAlwaysFetches(t *testing.T) {
	SetClient(nil)
	calls := 0
	var dest payload
	for i := 0; i < 2; i++ {
		require.NoError(t, Aside(context.Background(), "test", "k", &dest, time.Minute, func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 2, calls)
}

func TestAside_PropagatesFetchError(t *testing.T) {
	useMiniredis(t)
	boom := errors.New("boom")
	var dest payload
	err := Aside(context.Background(), "test", "k", &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)

	found, err := GetJSON(context.Background(), "k", &dest)
	require.NoError(t, err)
	assert.False(t, found, "failed fetch must not populate the cache")
}

func TestInvalidateVideoLists_BumpsGeneration(t *testing.T) {
	useMiniredis(t)
	ctx := context.Background()

	before := VideoListGeneration(ctx)
	keyBefore := VideoListKey(before, "page=1")
	InvalidateVideoLists(ctx)
	after := VideoListGeneration(ctx)

	assert.Equal(t, before+1, after)
	assert.NotEqual(t, keyBefore, VideoListKey(after, "page=1"))
	assert.Equal(t, VideoListKey(after, "page=1"), VideoListKey(after, "page=1"))
}
