// Command resetdb drops the vidnest schema and rebuilds it, optionally reseeding.
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
	withSeed := flag.Bool("seed", false, "Seed demo data after rebuilding the schema")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to reset a production database")
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatal(err)
	}

	log.Println("Dropping schema...")
	if err := db.Exec("DROP SCHEMA public CASCADE; CREATE SCHEMA public;").Error; err != nil {
		log.Fatalf("failed to drop schema: %v", err)
	}
	if err := db.Exec("GRANT ALL ON SCHEMA public TO public;").Error; err != nil {
		log.Fatalf("failed to grant schema permissions: %v", err)
	}

	ctx := context.Background()
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		log.Fatalf("failed to rebuild schema: %v", err)
	}
	log.Println("Schema rebuilt.")

	if *withSeed {
		opts := seed.DefaultOptions()
		opts.ShouldClean = false
		if _, err := seed.Seed(ctx, db, opts); err != nil {
			log.Fatalf("failed to seed: %v", err)
		}
	}
}
