package seed

import (
	"context"
	"fmt"
	"log"

	"vidnest/internal/models"

	"gorm.io/gorm"
)

const batchSize = 200

// Options configure the seeder.
type Options struct {
	NumUsers          int
	VideosPerUser     int
	TweetsPerUser     int
	CommentsPerTarget int
	// MaxReplyDepth bounds how deep generated reply chains go below a top-level comment.
	MaxReplyDepth  int
	LikeRatio      float64
	SubscribeRatio float64
	MaxDays        int
	RandomSeed     int64
	SkipBcrypt     bool
	ShouldClean    bool
}

// DefaultOptions is a small populated channel network for local development.
func DefaultOptions() Options {
	return Options{
		NumUsers:          20,
		VideosPerUser:     3,
		TweetsPerUser:     4,
		CommentsPerTarget: 3,
		MaxReplyDepth:     3,
		LikeRatio:         0.25,
		SubscribeRatio:    0.3,
		MaxDays:           90,
		ShouldClean:       true,
	}
}

// Summary counts the rows a seeding run created.
type Summary struct {
	Users         int
	Videos        int
	Tweets        int
	Comments      int
	Likes         int
	Subscriptions int
}

// Seeder writes generated content through a Factory.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(opts)}
}

// Seed populates the database with demo data.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (*Summary, error) {
	return NewSeeder(db, opts).Run(ctx)
}

// Run clears (when asked) and seeds every table in dependency order.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	log.Printf("🌱 Starting database seeding with %d users...", s.opts.NumUsers)

	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	sum := &Summary{}
	users, err := s.SeedUsers(ctx, s.opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	sum.Users = len(users)
	log.Printf("✓ %d users created", sum.Users)

	if sum.Subscriptions, err = s.SeedSubscriptions(ctx, users); err != nil {
		return nil, fmt.Errorf("failed to create subscriptions: %w", err)
	}
	log.Printf("✓ %d subscriptions created", sum.Subscriptions)

	videos, err := s.SeedVideos(ctx, users)
	if err != nil {
		return nil, fmt.Errorf("failed to create videos: %w", err)
	}
	sum.Videos = len(videos)
	log.Printf("✓ %d videos created", sum.Videos)

	tweets, err := s.SeedTweets(ctx, users)
	if err != nil {
		return nil, fmt.Errorf("failed to create tweets: %w", err)
	}
	sum.Tweets = len(tweets)
	log.Printf("✓ %d tweets created", sum.Tweets)

	videoIDs := make([]uint, len(videos))
	for i, v := range videos {
		videoIDs[i] = v.ID
	}
	tweetIDs := make([]uint, len(tweets))
	for i, tw := range tweets {
		tweetIDs[i] = tw.ID
	}

	videoComments, err := s.SeedComments(ctx, users, models.TargetVideo, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create video comments: %w", err)
	}
	tweetComments, err := s.SeedComments(ctx, users, models.TargetTweet, tweetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create tweet comments: %w", err)
	}
	sum.Comments = len(videoComments) + len(tweetComments)
	log.Printf("✓ %d comments created", sum.Comments)

	commentIDs := make([]uint, 0, sum.Comments)
	for _, c := range append(videoComments, tweetComments...) {
		commentIDs = append(commentIDs, c.ID)
	}
	for _, target := range []struct {
		kind models.TargetKind
		ids  []uint
	}{
		{models.TargetVideo, videoIDs},
		{models.TargetTweet, tweetIDs},
		{models.TargetComment, commentIDs},
	} {
		n, err := s.SeedLikes(ctx, users, target.kind, target.ids)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s likes: %w", target.kind, err)
		}
		sum.Likes += n
	}
	log.Printf("✓ %d likes created", sum.Likes)

	log.Println("🎉 Database seeding completed successfully!")
	return sum, nil
}

// ClearAll removes every seeded row, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("🗑️  Clearing existing data...")
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE likes, comments, subscriptions, tweets, videos, users RESTART IDENTITY CASCADE`).Error
	}
	for _, model := range []interface{}{
		&models.Like{}, &models.Comment{}, &models.Subscription{},
		&models.Tweet{}, &models.Video{}, &models.User{},
	} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// SeedUsers creates count accounts sharing DemoPassword.
func (s *Seeder) SeedUsers(ctx context.Context, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		u, err := s.factory.BuildUser(i)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(users, batchSize).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SeedSubscriptions has each user follow a random share of the other channels.
func (s *Seeder) SeedSubscriptions(ctx context.Context, users []*models.User) (int, error) {
	var subs []*models.Subscription
	for _, subscriber := range users {
		for _, channel := range users {
			if subscriber.ID == channel.ID || !s.factory.chance(s.opts.SubscribeRatio) {
				continue
			}
			subs = append(subs, &models.Subscription{SubscriberID: subscriber.ID, ChannelID: channel.ID})
		}
	}
	if len(subs) == 0 {
		return 0, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(subs, batchSize).Error; err != nil {
		return 0, err
	}
	return len(subs), nil
}

// SeedVideos uploads VideosPerUser videos for every user. Some stay unpublished.
func (s *Seeder) SeedVideos(ctx context.Context, users []*models.User) ([]*models.Video, error) {
	var videos []*models.Video
	for _, u := range users {
		for i := 0; i < s.opts.VideosPerUser; i++ {
			videos = append(videos, s.factory.BuildVideo(u))
		}
	}
	if len(videos) == 0 {
		return videos, nil
	}

	// is_published defaults to true, so drafts are flipped after insert.
	var drafts []uint
	db := s.db.WithContext(ctx)
	if err := db.CreateInBatches(videos, batchSize).Error; err != nil {
		return nil, err
	}
	for _, v := range videos {
		if !v.IsPublished {
			drafts = append(drafts, v.ID)
		}
	}
	if len(drafts) > 0 {
		if err := db.Model(&models.Video{}).Where("id IN ?", drafts).Update("is_published", false).Error; err != nil {
			return nil, err
		}
	}
	return videos, nil
}

// SeedTweets posts TweetsPerUser tweets for every user.
func (s *Seeder) SeedTweets(ctx context.Context, users []*models.User) ([]*models.Tweet, error) {
	var tweets []*models.Tweet
	for _, u := range users {
		for i := 0; i < s.opts.TweetsPerUser; i++ {
			tweets = append(tweets, s.factory.BuildTweet(u))
		}
	}
	if len(tweets) == 0 {
		return tweets, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(tweets, batchSize).Error; err != nil {
		return nil, err
	}
	return tweets, nil
}

// SeedComments writes CommentsPerTarget top-level comments on each target and
// grows reply chains level by level down to MaxReplyDepth.
func (s *Seeder) SeedComments(ctx context.Context, users []*models.User, kind models.TargetKind, targetIDs []uint) ([]*models.Comment, error) {
	if len(users) == 0 {
		return nil, nil
	}
	db := s.db.WithContext(ctx)

	var level []*models.Comment
	for _, targetID := range targetIDs {
		for i := 0; i < s.opts.CommentsPerTarget; i++ {
			level = append(level, s.factory.BuildComment(s.pickUser(users), kind, targetID, nil))
		}
	}

	var all []*models.Comment
	for depth := 0; len(level) > 0; depth++ {
		if err := db.CreateInBatches(level, batchSize).Error; err != nil {
			return nil, err
		}
		all = append(all, level...)
		if depth >= s.opts.MaxReplyDepth {
			break
		}

		var next []*models.Comment
		for _, parent := range level {
			// replies thin out the deeper the chain goes
			for r := s.factory.faker.Number(0, 2); r > 0; r-- {
				if !s.factory.chance(1.0 / float64(depth+2)) {
					continue
				}
				next = append(next, s.factory.BuildComment(s.pickUser(users), kind, parent.TargetID, parent))
			}
		}
		level = next
	}
	return all, nil
}

// SeedLikes has each user like each target with probability LikeRatio.
func (s *Seeder) SeedLikes(ctx context.Context, users []*models.User, kind models.TargetKind, targetIDs []uint) (int, error) {
	var likes []*models.Like
	for _, targetID := range targetIDs {
		for _, u := range users {
			if s.factory.chance(s.opts.LikeRatio) {
				likes = append(likes, &models.Like{TargetType: kind, TargetID: targetID, LikedByID: u.ID})
			}
		}
	}
	if len(likes) == 0 {
		return 0, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(likes, batchSize).Error; err != nil {
		return 0, err
	}
	return len(likes), nil
}

func (s *Seeder) pickUser(users []*models.User) *models.User {
	return users[s.factory.faker.Number(0, len(users)-1)]
}
