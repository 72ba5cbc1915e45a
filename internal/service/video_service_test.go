package service

import (
	"context"
	"testing"

	"vidnest/internal/models"
	"vidnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVideoSort(t *testing.T) {
	t.Parallel()
	tests := []struct {
		by, typ string
		want    string
		wantErr bool
	}{
		{"", "", "videos.created_at DESC", false},
		{"views", "asc", "videos.views ASC", false},
		{"duration", "DESC", "videos.duration DESC", false},
		{"createdAt", "", "videos.created_at DESC", false},
		{"title", "asc", "", true},
		{"views", "sideways", "", true},
	}
	for _, tt := range tests {
		sort, err := ParseVideoSort(tt.by, tt.typ)
		if tt.wantErr {
			assertAppError(t, err, models.CodeValidation)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, sort.Term())
	}
}

func TestVideoService_DetailProjection(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	bob := testutil.CreateUser(t, h.db, "bob")
	video := testutil.CreateVideo(t, h.db, alice.ID, true)
	testutil.CreateComment(t, h.db, bob.ID, models.TargetVideo, video.ID, nil)

	before, err := h.videos.GetVideoDetail(ctx, video.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), before.LikeCount)
	assert.False(t, before.IsLiked)
	assert.Equal(t, int64(1), before.Views)

	_, err = h.likes.ToggleLike(ctx, models.TargetVideo, video.ID, bob.ID)
	require.NoError(t, err)
	_, err = h.subs.ToggleSubscribe(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	after, err := h.videos.GetVideoDetail(ctx, video.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, before.LikeCount+1, after.LikeCount)
	assert.True(t, after.IsLiked)
	assert.Equal(t, int64(2), after.Views)
	assert.Equal(t, alice.ID, after.Owner.ID)
	assert.True(t, after.Owner.IsSubscribed)
	assert.Equal(t, int64(1), after.Owner.SubscriberCount)
	assert.Empty(t, after.Owner.Email)
	assert.Equal(t, int64(1), after.Comments.TotalItems)
	require.Len(t, after.Comments.Items, 1)

	anon, err := h.videos.GetVideoDetail(ctx, video.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), anon.LikeCount)
	assert.False(t, anon.IsLiked)
	assert.False(t, anon.Owner.IsSubscribed)
	assert.Equal(t, int64(3), anon.Views)
}

func TestVideoService_Unpublished(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	bob := testutil.CreateUser(t, h.db, "bob")
	hidden := testutil.CreateVideo(t, h.db, alice.ID, false)
	testutil.CreateVideo(t, h.db, alice.ID, true)

	_, err := h.videos.GetVideoDetail(ctx, hidden.ID, bob.ID)
	assertAppError(t, err, models.CodeNotFound)
	_, err = h.videos.GetVideoDetail(ctx, hidden.ID, 0)
	assertAppError(t, err, models.CodeNotFound)

	own, err := h.videos.GetVideoDetail(ctx, hidden.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, own.IsPublished)

	public, err := h.videos.ListVideos(ctx, ListVideosInput{OwnerID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), public.TotalItems)

	mine, err := h.videos.ListVideos(ctx, ListVideosInput{OwnerID: alice.ID, ViewerID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.TotalItems)

	_, err = h.videos.GetVideoDetail(ctx, 999, alice.ID)
	assertAppError(t, err, models.CodeNotFound)
}

func TestVideoService_ListVideos(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	views := []int64{30, 10, 20}
	for i, n := range views {
		v := testutil.CreateVideo(t, h.db, alice.ID, true)
		require.NoError(t, h.db.Model(v).Updates(map[string]interface{}{
			"views":       n,
			"title":       []string{"Go tips", "cooking", "GO 100%"}[i],
			"description": "plain",
		}).Error)
	}

	asc, err := h.videos.ListVideos(ctx, ListVideosInput{SortBy: "views", SortType: "asc"})
	require.NoError(t, err)
	require.Len(t, asc.Items, 3)
	assert.Equal(t, []int64{10, 20, 30}, []int64{asc.Items[0].Views, asc.Items[1].Views, asc.Items[2].Views})
	assert.Equal(t, "alice", asc.Items[0].Owner.Username)

	found, err := h.videos.ListVideos(ctx, ListVideosInput{Query: "go", SortBy: "views", SortType: "desc", ViewerID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.TotalItems)

	literal, err := h.videos.ListVideos(ctx, ListVideosInput{Query: "100%"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), literal.TotalItems)

	paged, err := h.videos.ListVideos(ctx, ListVideosInput{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, paged.Items, 1)
	assert.Equal(t, 2, paged.TotalPages)

	_, err = h.videos.ListVideos(ctx, ListVideosInput{SortBy: "likes"})
	assertAppError(t, err, models.CodeValidation)
}

func TestVideoService_PublishAndUpdate(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	bob := testutil.CreateUser(t, h.db, "bob")

	item, err := h.videos.PublishVideo(ctx, PublishVideoInput{
		OwnerID:     alice.ID,
		Title:       "  First upload ",
		Description: "hello",
		Video:       fileOf("clip.mp4", "video/mp4", []byte("video")),
		Thumbnail:   fileOf("thumb.png", "image/png", []byte("image")),
	})
	require.NoError(t, err)
	assert.Equal(t, "First upload", item.Title)
	assert.Equal(t, 12.5, item.Duration)
	assert.True(t, item.IsPublished)
	assert.Contains(t, item.VideoFile.PublicID, "videos/")

	_, err = h.videos.PublishVideo(ctx, PublishVideoInput{OwnerID: alice.ID, Title: "", Description: "x"})
	assertAppError(t, err, models.CodeValidation)

	title := "Hijacked"
	_, err = h.videos.UpdateVideo(ctx, UpdateVideoInput{VideoID: item.ID, ViewerID: bob.ID, Title: &title})
	assertAppError(t, err, models.CodeForbidden)
	var stored models.Video
	require.NoError(t, h.db.First(&stored, item.ID).Error)
	assert.Equal(t, "First upload", stored.Title)

	updated, err := h.videos.UpdateVideo(ctx, UpdateVideoInput{VideoID: item.ID, ViewerID: alice.ID, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Hijacked", updated.Title)
	assert.Equal(t, "hello", updated.Description)

	oldThumb := item.Thumbnail.PublicID
	thumbed, err := h.videos.UpdateThumbnail(ctx, item.ID, alice.ID, fileOf("new.png", "image/png", []byte("img")))
	require.NoError(t, err)
	assert.NotEqual(t, oldThumb, thumbed.Thumbnail.PublicID)
	assert.Contains(t, h.uploader.Released(), oldThumb)

	toggled, err := h.videos.TogglePublish(ctx, item.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsPublished)
	_, err = h.videos.TogglePublish(ctx, item.ID, bob.ID)
	assertAppError(t, err, models.CodeForbidden)
}

func TestVideoService_DeleteCascade(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	bob := testutil.CreateUser(t, h.db, "bob")
	video := testutil.CreateVideo(t, h.db, alice.ID, true)
	other := testutil.CreateVideo(t, h.db, alice.ID, true)

	root := testutil.CreateComment(t, h.db, bob.ID, models.TargetVideo, video.ID, nil)
	reply := testutil.CreateComment(t, h.db, alice.ID, models.TargetVideo, video.ID, root)
	keep := testutil.CreateComment(t, h.db, bob.ID, models.TargetVideo, other.ID, nil)
	testutil.CreateLike(t, h.db, bob.ID, models.TargetVideo, video.ID)
	testutil.CreateLike(t, h.db, alice.ID, models.TargetComment, root.ID)
	testutil.CreateLike(t, h.db, bob.ID, models.TargetComment, reply.ID)
	testutil.CreateLike(t, h.db, bob.ID, models.TargetVideo, other.ID)
	testutil.CreateLike(t, h.db, alice.ID, models.TargetComment, keep.ID)

	err := h.videos.DeleteVideo(ctx, video.ID, bob.ID)
	assertAppError(t, err, models.CodeForbidden)

	require.NoError(t, h.videos.DeleteVideo(ctx, video.ID, alice.ID))

	_, err = h.videos.GetVideoDetail(ctx, video.ID, alice.ID)
	assertAppError(t, err, models.CodeNotFound)
	assert.Equal(t, int64(0), h.count(t, &models.Like{}, "target_type = ? AND target_id = ?", models.TargetVideo, video.ID))
	assert.Equal(t, int64(0), h.count(t, &models.Comment{}, "target_type = ? AND target_id = ?", models.TargetVideo, video.ID))
	assert.Equal(t, int64(0), h.count(t, &models.Like{}, "target_type = ? AND target_id IN ?", models.TargetComment, []uint{root.ID, reply.ID}))

	assert.Equal(t, int64(1), h.count(t, &models.Like{}, "target_type = ? AND target_id = ?", models.TargetVideo, other.ID))
	assert.Equal(t, int64(1), h.count(t, &models.Like{}, "target_type = ? AND target_id = ?", models.TargetComment, keep.ID))
	assert.ElementsMatch(t, []string{video.VideoFile.PublicID, video.Thumbnail.PublicID}, h.uploader.Released())

	err = h.videos.DeleteVideo(ctx, video.ID, alice.ID)
	assertAppError(t, err, models.CodeNotFound)
}
