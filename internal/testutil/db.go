// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"vidnest/internal/database"
	"vidnest/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var nameCleaner = strings.NewReplacer("/", "_", " ", "_", "#", "_")

// NewTestDB opens a private in-memory sqlite database with the full schema.
// A single connection keeps transactions and fan-out queries on one shared database.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared",
		nameCleaner.Replace(t.Name()), uuid.NewString()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser inserts a user with a random profile under username.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@%s", username, gofakeit.DomainName()),
		FullName: gofakeit.Name(),
		Password: "x",
		Avatar: models.MediaRef{
			URL:      gofakeit.URL(),
			PublicID: "avatars/" + username,
		},
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateVideo inserts a video owned by ownerID.
func CreateVideo(t testing.TB, db *gorm.DB, ownerID uint, published bool) *models.Video {
	t.Helper()
	v := &models.Video{
		OwnerID:     ownerID,
		Title:       gofakeit.Sentence(4),
		Description: gofakeit.Paragraph(1, 2, 8, " "),
		VideoFile:   models.MediaRef{URL: gofakeit.URL(), PublicID: "videos/" + uuid.NewString()},
		Thumbnail:   models.MediaRef{URL: gofakeit.URL(), PublicID: "thumbnails/" + uuid.NewString()},
		Duration:    gofakeit.Float64Range(5, 600),
		IsPublished: true,
	}
	require.NoError(t, db.Create(v).Error)
	if !published {
		// the column default would override a zero value on insert
		require.NoError(t, db.Model(v).Update("is_published", false).Error)
		v.IsPublished = false
	}
	return v
}

// CreateTweet inserts a tweet owned by ownerID.
func CreateTweet(t testing.TB, db *gorm.DB, ownerID uint) *models.Tweet {
	t.Helper()
	tw := &models.Tweet{OwnerID: ownerID, Content: gofakeit.Sentence(10), Media: models.MediaList{}}
	require.NoError(t, db.Create(tw).Error)
	return tw
}

// CreateComment inserts a comment on a target, optionally replying to parent.
func CreateComment(t testing.TB, db *gorm.DB, ownerID uint, kind models.TargetKind, targetID uint, parent *models.Comment) *models.Comment {
	t.Helper()
	c := &models.Comment{
		Content:    gofakeit.Sentence(6),
		OwnerID:    ownerID,
		TargetType: kind,
		TargetID:   targetID,
	}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateLike inserts a like by userID on a target.
func CreateLike(t testing.TB, db *gorm.DB, userID uint, kind models.TargetKind, targetID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.Like{TargetType: kind, TargetID: targetID, LikedByID: userID}).Error)
}

// Subscribe inserts a subscription edge.
func Subscribe(t testing.TB, db *gorm.DB, subscriberID, channelID uint) {
	t.Helper()
	require.NoError(t, db.Create(&models.Subscription{SubscriberID: subscriberID, ChannelID: channelID}).Error)
}
