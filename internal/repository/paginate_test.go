package repository

import (
	"context"
	"regexp"
	"testing"

	"vidnest/internal/models"
	"vidnest/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPageRequest_Normalize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   PageRequest
		want PageRequest
	}{
		{"Defaults", PageRequest{}, PageRequest{Page: 1, Limit: DefaultPageLimit}},
		{"Negative Page", PageRequest{Page: -3, Limit: 5, MaxLimit: 50}, PageRequest{Page: 1, Limit: 5, MaxLimit: 50}},
		{"Clamped Limit", PageRequest{Page: 2, Limit: 500, MaxLimit: 100}, PageRequest{Page: 2, Limit: 100, MaxLimit: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
	assert.Equal(t, 20, PageRequest{Page: 3, Limit: 10}.Offset())
}

func TestPaginate_DisjointPages(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner")
	for i := 0; i < 25; i++ {
		testutil.CreateVideo(t, db, owner.ID, true)
	}
	// identical sort keys everywhere force the id tie-breaker to decide
	require.NoError(t, db.Model(&models.Video{}).Where("1 = 1").Update("views", 7).Error)

	q := PageQuery{Order: []string{"videos.views DESC"}}
	seen := map[uint]bool{}
	for page := 1; page <= 3; page++ {
		got, err := Paginate[models.Video](context.Background(), db, q, PageRequest{Page: page, Limit: 10, MaxLimit: 100})
		require.NoError(t, err)
		assert.Equal(t, int64(25), got.TotalItems)
		assert.Equal(t, 3, got.TotalPages)
		for _, v := range got.Items {
			assert.False(t, seen[v.ID], "video %d returned twice", v.ID)
			seen[v.ID] = true
		}
	}
	assert.Len(t, seen, 25)
}

func TestPaginate_PastTheEndIsEmpty(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner")
	testutil.CreateVideo(t, db, owner.ID, true)

	got, err := Paginate[models.Video](context.Background(), db, PageQuery{}, PageRequest{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, got.Items)
	assert.Empty(t, got.Items)
	assert.Equal(t, 9, got.Page)
	assert.Equal(t, int64(1), got.TotalItems)
	assert.Equal(t, 1, got.TotalPages)
}

func TestPaginate_FilterAppliesToCount(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	for i := 0; i < 3; i++ {
		testutil.CreateVideo(t, db, a.ID, true)
	}
	testutil.CreateVideo(t, db, b.ID, true)

	got, err := Paginate[models.Video](context.Background(), db, PageQuery{
		Filter: func(q *gorm.DB) *gorm.DB { return q.Where("owner_id = ?", a.ID) },
	}, PageRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.TotalItems)
	assert.Equal(t, 2, got.TotalPages)
	assert.Len(t, got.Items, 2)
	for _, v := range got.Items {
		assert.Equal(t, a.ID, v.OwnerID)
	}
}

func TestPaginate_PostgresUsesOneSnapshot(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tweets" WHERE owner_id = \$1`).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tweets" WHERE owner_id = $1 ORDER BY tweets.created_at DESC,tweets.id DESC LIMIT $2`)).
		WithArgs(4, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "content"}).AddRow(1, 4, "hello"))
	mock.ExpectCommit()

	got, err := Paginate[models.Tweet](context.Background(), db, PageQuery{
		Filter: func(q *gorm.DB) *gorm.DB { return q.Where("owner_id = ?", 4) },
		Order:  []string{"tweets.created_at DESC"},
	}, PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "hello", got.Items[0].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}
