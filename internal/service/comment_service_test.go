package service

import (
	"context"
	"strings"
	"testing"

	"vidnest/internal/models"
	"vidnest/internal/notifications"
	"vidnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_AddAndReply(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	bob := testutil.CreateUser(t, h.db, "bob")
	video := testutil.CreateVideo(t, h.db, alice.ID, true)

	root, err := h.comments.AddComment(ctx, AddCommentInput{
		Kind: models.TargetVideo, TargetID: video.ID, ViewerID: bob.ID, Content: " nice video ",
	})
	require.NoError(t, err)
	assert.Equal(t, "nice video", root.Content)
	assert.Nil(t, root.ParentID)
	assert.Equal(t, "bob", root.Owner.Username)

	reply, err := h.comments.AddReply(ctx, root.ID, alice.ID, "thanks")
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)
	assert.Equal(t, models.TargetVideo, reply.TargetType)
	assert.Equal(t, video.ID, reply.TargetID)

	sent := h.events.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, alice.ID, sent[0].recipient)
	assert.Equal(t, notifications.EventCommented, sent[0].event.Type)
	assert.Equal(t, bob.ID, sent[1].recipient)
	assert.Equal(t, notifications.EventReplied, sent[1].event.Type)

	thread, err := h.comments.GetThread(ctx, root.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), thread.ReplyCount)
	require.Len(t, thread.Replies, 1)

	list, err := h.comments.ListComments(ctx, ListCommentsInput{Kind: models.TargetVideo, TargetID: video.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.TotalItems, "replies are not listed as roots")
}

func TestCommentService_Validation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	bob := testutil.CreateUser(t, h.db, "bob")
	hidden := testutil.CreateVideo(t, h.db, alice.ID, false)
	tweet := testutil.CreateTweet(t, h.db, alice.ID)

	tests := []struct {
		name string
		in   AddCommentInput
		code string
	}{
		{"anonymous", AddCommentInput{Kind: models.TargetTweet, TargetID: tweet.ID, Content: "hi"}, models.CodeUnauthorized},
		{"blank", AddCommentInput{Kind: models.TargetTweet, TargetID: tweet.ID, ViewerID: bob.ID, Content: "  "}, models.CodeValidation},
		{"too long", AddCommentInput{Kind: models.TargetTweet, TargetID: tweet.ID, ViewerID: bob.ID, Content: strings.Repeat("x", 2001)}, models.CodeValidation},
		{"comment target", AddCommentInput{Kind: models.TargetComment, TargetID: 1, ViewerID: bob.ID, Content: "hi"}, models.CodeValidation},
		{"missing tweet", AddCommentInput{Kind: models.TargetTweet, TargetID: 999, ViewerID: bob.ID, Content: "hi"}, models.CodeNotFound},
		{"unpublished video", AddCommentInput{Kind: models.TargetVideo, TargetID: hidden.ID, ViewerID: bob.ID, Content: "hi"}, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.comments.AddComment(ctx, tt.in)
			assertAppError(t, err, tt.code)
		})
	}

	_, err := h.comments.AddReply(ctx, 999, bob.ID, "hi")
	assertAppError(t, err, models.CodeNotFound)

	_, err = h.comments.ListComments(ctx, ListCommentsInput{Kind: models.TargetVideo, TargetID: hidden.ID, ViewerID: bob.ID})
	assertAppError(t, err, models.CodeNotFound)
}

func TestCommentService_UpdateAndDelete(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	bob := testutil.CreateUser(t, h.db, "bob")
	tweet := testutil.CreateTweet(t, h.db, alice.ID)

	root := testutil.CreateComment(t, h.db, bob.ID, models.TargetTweet, tweet.ID, nil)
	child := testutil.CreateComment(t, h.db, alice.ID, models.TargetTweet, tweet.ID, root)
	grandchild := testutil.CreateComment(t, h.db, bob.ID, models.TargetTweet, tweet.ID, child)
	sibling := testutil.CreateComment(t, h.db, alice.ID, models.TargetTweet, tweet.ID, nil)
	testutil.CreateLike(t, h.db, alice.ID, models.TargetComment, grandchild.ID)
	testutil.CreateLike(t, h.db, bob.ID, models.TargetComment, sibling.ID)

	_, err := h.comments.UpdateComment(ctx, UpdateCommentInput{CommentID: root.ID, ViewerID: alice.ID, Content: "mine now"})
	assertAppError(t, err, models.CodeForbidden)

	updated, err := h.comments.UpdateComment(ctx, UpdateCommentInput{CommentID: root.ID, ViewerID: bob.ID, Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, int64(1), updated.ReplyCount)

	assertAppError(t, h.comments.DeleteComment(ctx, root.ID, alice.ID), models.CodeForbidden)
	require.NoError(t, h.comments.DeleteComment(ctx, root.ID, bob.ID))

	assert.Equal(t, int64(1), h.count(t, &models.Comment{}, "target_id = ?", tweet.ID))
	assert.Equal(t, int64(0), h.count(t, &models.Like{}, "target_id = ?", grandchild.ID))
	assert.Equal(t, int64(1), h.count(t, &models.Like{}, "target_id = ?", sibling.ID))

	assertAppError(t, h.comments.DeleteComment(ctx, root.ID, bob.ID), models.CodeNotFound)
}

func TestCommentService_OwnActivityNotifiesNobody(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, h.db, "alice")
	tweet := testutil.CreateTweet(t, h.db, alice.ID)

	root, err := h.comments.AddComment(ctx, AddCommentInput{
		Kind: models.TargetTweet, TargetID: tweet.ID, ViewerID: alice.ID, Content: "adding context",
	})
	require.NoError(t, err)
	_, err = h.comments.AddReply(ctx, root.ID, alice.ID, "and one more thing")
	require.NoError(t, err)

	assert.Empty(t, h.events.Sent())
}
