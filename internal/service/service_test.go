package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"vidnest/internal/media"
	"vidnest/internal/models"
	"vidnest/internal/notifications"
	"vidnest/internal/repository"
	"vidnest/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// uploaderStub hands out predictable refs and records releases.
type uploaderStub struct {
	mu       sync.Mutex
	n        int
	imageErr error
	released []string
}

func (u *uploaderStub) Image(_ context.Context, f media.File) (models.MediaRef, error) {
	if u.imageErr != nil {
		return models.MediaRef{}, u.imageErr
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.n++
	id := fmt.Sprintf("images/%d-%s", u.n, f.Name)
	return models.MediaRef{URL: "http://media.test/" + id, PublicID: id}, nil
}

func (u *uploaderStub) Video(_ context.Context, f media.File) (models.MediaRef, float64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.n++
	id := fmt.Sprintf("videos/%d-%s", u.n, f.Name)
	return models.MediaRef{URL: "http://media.test/" + id, PublicID: id}, 12.5, nil
}

func (u *uploaderStub) Release(_ context.Context, ref models.MediaRef, _ media.Kind) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.released = append(u.released, ref.PublicID)
	return nil
}

func (u *uploaderStub) Released() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.released...)
}

type sentEvent struct {
	recipient uint
	event     notifications.Event
}

// eventRecorder captures notifications instead of publishing them.
type eventRecorder struct {
	mu     sync.Mutex
	events []sentEvent
}

func (r *eventRecorder) Notify(_ context.Context, recipient uint, ev notifications.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sentEvent{recipient: recipient, event: ev})
}

func (r *eventRecorder) Sent() []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentEvent(nil), r.events...)
}

type harness struct {
	db       *gorm.DB
	uploader *uploaderStub
	events   *eventRecorder

	projector *Projector
	threads   *ThreadAssembler

	likes    *LikeService
	subs     *SubscriptionService
	videos   *VideoService
	comments *CommentService
	tweets   *TweetService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewTestDB(t)

	userRepo := repository.NewUserRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	tweetRepo := repository.NewTweetRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	h := &harness{db: db, uploader: &uploaderStub{}, events: &eventRecorder{}}
	h.projector = NewProjector(likeRepo, subRepo)
	h.threads = NewThreadAssembler(commentRepo, h.projector, DefaultLimits)
	h.likes = NewLikeService(likeRepo, videoRepo, tweetRepo, commentRepo, h.projector, h.events, DefaultLimits)
	h.subs = NewSubscriptionService(subRepo, userRepo, h.projector, h.events, DefaultLimits)
	h.videos = NewVideoService(videoRepo, userRepo, likeRepo, commentRepo, h.projector, h.threads, h.uploader, DefaultLimits, 0)
	h.comments = NewCommentService(commentRepo, videoRepo, tweetRepo, likeRepo, h.projector, h.threads, h.events, DefaultLimits)
	h.tweets = NewTweetService(tweetRepo, userRepo, commentRepo, likeRepo, h.projector, h.threads, h.uploader, DefaultLimits)
	return h
}

func (h *harness) count(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, h.db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func fileOf(name, contentType string, body []byte) media.File {
	return media.File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		},
	}
}

// assertAppError asserts that err is an AppError carrying code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code, appErr.Message)
}

func TestLimits(t *testing.T) {
	t.Parallel()
	l := Limits{MaxPageLimit: 50, DefaultThreadDepth: 3, MaxThreadDepth: 5}

	assert.Equal(t, 3, l.Depth(0))
	assert.Equal(t, 3, l.Depth(-2))
	assert.Equal(t, 4, l.Depth(4))
	assert.Equal(t, 5, l.Depth(99))

	req := l.Page(0, 500)
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, 50, req.Limit)
}
