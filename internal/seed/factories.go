// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"vidnest/internal/models"
	"vidnest/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DemoPassword is the plaintext password every seeded account shares.
const DemoPassword = "password123"

var sampleVideos = []string{
	"https://storage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
	"https://storage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4",
	"https://storage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4",
	"https://storage.googleapis.com/gtv-videos-bucket/sample/Sintel.mp4",
	"https://storage.googleapis.com/gtv-videos-bucket/sample/TearsOfSteel.mp4",
}

// Factory builds domain entities without persisting them.
// Seeders batch the results into the database.
type Factory struct {
	faker *gofakeit.Faker
	opts  Options

	hashOnce sync.Once
	hash     string
	hashErr  error
}

// NewFactory creates a Factory. A zero Options.RandomSeed picks a random seed.
func NewFactory(opts Options) *Factory {
	return &Factory{faker: gofakeit.New(opts.RandomSeed), opts: opts}
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return DemoPassword, nil
	}
	f.hashOnce.Do(func() {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
		f.hash, f.hashErr = string(hashed), err
	})
	return f.hash, f.hashErr
}

// createdAt spreads timestamps over the last MaxDays days.
func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.faker.Number(0, maxDays-1))*24*time.Hour +
		time.Duration(f.faker.Number(0, 23))*time.Hour +
		time.Duration(f.faker.Number(0, 59))*time.Minute
	return time.Now().Add(-back)
}

// chance reports true with probability p.
func (f *Factory) chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}

// BuildUser returns an unsaved user. The index keeps usernames unique.
func (f *Factory) BuildUser(index int, overrides ...func(*models.User)) (*models.User, error) {
	password, err := f.password()
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}

	username := fmt.Sprintf("%s%d", strings.ToLower(f.faker.Username()), index)
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		FullName: f.faker.Name(),
		Password: password,
		Avatar: models.MediaRef{
			URL:      fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username),
			PublicID: "seed/avatars/" + username,
		},
		CreatedAt: f.createdAt(),
	}
	if f.chance(0.5) {
		user.CoverImage = models.MediaRef{
			URL:      fmt.Sprintf("https://picsum.photos/seed/cover-%s/1280/320", username),
			PublicID: "seed/covers/" + username,
		}
	}

	for _, override := range overrides {
		override(user)
	}
	return user, nil
}

// BuildVideo returns an unsaved video owned by owner.
func (f *Factory) BuildVideo(owner *models.User, overrides ...func(*models.Video)) *models.Video {
	id := f.faker.UUID()
	video := &models.Video{
		OwnerID:     owner.ID,
		Title:       strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 7)), "."),
		Description: f.faker.Paragraph(1, 3, 10, "\n"),
		VideoFile: models.MediaRef{
			URL:      sampleVideos[f.faker.Number(0, len(sampleVideos)-1)],
			PublicID: "seed/videos/" + id,
		},
		Thumbnail: models.MediaRef{
			URL:      fmt.Sprintf("https://picsum.photos/seed/%s/1280/720", id),
			PublicID: "seed/thumbnails/" + id,
		},
		Duration:    float64(f.faker.Number(15, 1800)),
		Views:       int64(f.faker.Number(0, 50000)),
		IsPublished: f.chance(0.9),
		CreatedAt:   f.createdAt(),
	}
	for _, override := range overrides {
		override(video)
	}
	return video
}

// BuildTweet returns an unsaved tweet owned by owner, sometimes with images.
func (f *Factory) BuildTweet(owner *models.User, overrides ...func(*models.Tweet)) *models.Tweet {
	tweet := &models.Tweet{
		OwnerID:   owner.ID,
		Content:   f.faker.Sentence(f.faker.Number(6, 24)),
		Media:     models.MediaList{},
		CreatedAt: f.createdAt(),
	}
	if f.chance(0.3) {
		for i := f.faker.Number(1, service.MaxTweetMedia); i > 0; i-- {
			id := f.faker.UUID()
			tweet.Media = append(tweet.Media, models.MediaRef{
				URL:      fmt.Sprintf("https://picsum.photos/seed/%s/800/800", id),
				PublicID: "seed/tweets/" + id,
			})
		}
	}
	for _, override := range overrides {
		override(tweet)
	}
	return tweet
}

// BuildComment returns an unsaved comment on a target, replying to parent when set.
func (f *Factory) BuildComment(author *models.User, kind models.TargetKind, targetID uint, parent *models.Comment) *models.Comment {
	comment := &models.Comment{
		Content:    f.faker.Sentence(f.faker.Number(4, 16)),
		OwnerID:    author.ID,
		TargetType: kind,
		TargetID:   targetID,
		CreatedAt:  f.createdAt(),
	}
	if parent != nil {
		comment.ParentID = &parent.ID
		if comment.CreatedAt.Before(parent.CreatedAt) {
			comment.CreatedAt = parent.CreatedAt.Add(time.Duration(f.faker.Number(1, 720)) * time.Minute)
		}
		if now := time.Now(); comment.CreatedAt.After(now) {
			comment.CreatedAt = now
		}
	}
	return comment
}
