package repository

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"vidnest/internal/models"
	"vidnest/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggle_AlternatesState(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := NewLikeRepository(db)
	ctx := context.Background()

	viewer := testutil.CreateUser(t, db, "viewer")
	video := testutil.CreateVideo(t, db, viewer.ID, true)

	for n := 1; n <= 5; n++ {
		liked, err := repo.Toggle(ctx, models.TargetVideo, video.ID, viewer.ID)
		require.NoError(t, err)
		assert.Equal(t, n%2 == 1, liked, "after %d toggles", n)

		var rows int64
		require.NoError(t, db.Model(&models.Like{}).Where("target_id = ?", video.ID).Count(&rows).Error)
		if liked {
			assert.Equal(t, int64(1), rows)
		} else {
			assert.Equal(t, int64(0), rows)
		}
	}
}

func TestToggle_ConcurrentTogglesNeverDuplicate(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	sub := testutil.CreateUser(t, db, "sub")
	channel := testutil.CreateUser(t, db, "channel")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Toggle(ctx, sub.ID, channel.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var rows int64
	require.NoError(t, db.Model(&models.Subscription{}).
		Where("subscriber_id = ? AND channel_id = ?", sub.ID, channel.ID).
		Count(&rows).Error)
	assert.LessOrEqual(t, rows, int64(1))
}

func TestToggle_InsertUsesOnConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewLikeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes" WHERE`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "likes" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	liked, err := repo.Toggle(context.Background(), models.TargetComment, 3, 9)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggle_DeleteSkipsInsert(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSubscriptionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "subscriptions" WHERE`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	subscribed, err := repo.Toggle(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, subscribed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
