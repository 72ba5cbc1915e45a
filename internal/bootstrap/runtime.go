// Package bootstrap wires the process-wide runtime dependencies.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	"vidnest/internal/cache"
	"vidnest/internal/config"
	"vidnest/internal/database"
	"vidnest/internal/media"
	"vidnest/internal/models"
	"vidnest/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty database with generated channels and content.
	SeedDemo bool
	Seed     seed.Options
}

// Runtime holds the connections a server process shares.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Store media.Store
}

// OptionsFromConfig enables demo seeding outside production when SEED_DEMO_DATA is set.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{SeedDemo: cfg.SeedDemoData && !cfg.IsProduction(), Seed: seed.DefaultOptions()}
	opts.Seed.ShouldClean = false
	return opts
}

// InitRuntime connects to DB, Redis and the media store and optionally seeds demo data.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Redis may be nil if unreachable
	cache.InitRedis(cfg.RedisURL)

	store, err := media.NewStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("media store init failed: %w", err)
	}

	if opts.SeedDemo {
		if err := seedIfEmpty(ctx, db, opts.Seed); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return &Runtime{DB: db, Redis: cache.GetClient(), Store: store}, nil
}

// seedIfEmpty only seeds a database without users so restarts keep real data.
func seedIfEmpty(ctx context.Context, db *gorm.DB, opts seed.Options) error {
	var users int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		log.Printf("skipping demo seed: %d users already present", users)
		return nil
	}
	_, err := seed.Seed(ctx, db, opts)
	return err
}
