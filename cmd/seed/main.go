// Command seed populates the vidnest database with generated demo content.
package main

import (
	"context"
	"flag"
	"log"

	"vidnest/internal/config"
	"vidnest/internal/database"
	"vidnest/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of channels to create")
	videos := flag.Int("videos", defaults.VideosPerUser, "Videos uploaded per channel")
	tweets := flag.Int("tweets", defaults.TweetsPerUser, "Tweets posted per channel")
	comments := flag.Int("comments", defaults.CommentsPerTarget, "Top-level comments per video and tweet")
	depth := flag.Int("depth", defaults.MaxReplyDepth, "Maximum reply depth below a top-level comment")
	likeRatio := flag.Float64("like-ratio", defaults.LikeRatio, "Chance that a user likes a given item")
	subRatio := flag.Float64("subscribe-ratio", defaults.SubscribeRatio, "Chance that a user subscribes to a given channel")
	randomSeed := flag.Int64("seed", 0, "Random seed; 0 picks one")
	fast := flag.Bool("fast", false, "Store the demo password unhashed")
	shouldClean := flag.Bool("clean", defaults.ShouldClean, "Clean database before seeding")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := seed.Options{
		NumUsers:          *numUsers,
		VideosPerUser:     *videos,
		TweetsPerUser:     *tweets,
		CommentsPerTarget: *comments,
		MaxReplyDepth:     *depth,
		LikeRatio:         *likeRatio,
		SubscribeRatio:    *subRatio,
		MaxDays:           defaults.MaxDays,
		RandomSeed:        *randomSeed,
		SkipBcrypt:        *fast,
		ShouldClean:       *shouldClean,
	}
	sum, err := seed.Seed(context.Background(), db, opts)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ All done! users=%d videos=%d tweets=%d comments=%d likes=%d subscriptions=%d",
		sum.Users, sum.Videos, sum.Tweets, sum.Comments, sum.Likes, sum.Subscriptions)
	log.Printf("📧 All demo users have the password: %s", seed.DemoPassword)
}
