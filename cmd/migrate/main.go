// Command migrate applies, inspects and rolls back the vidnest schema.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"vidnest/internal/config"
	"vidnest/internal/database"

	"gorm.io/gorm"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: migrate [-timeout 5m] <up|auto|status|down> [version]")
}

func run() error {
	timeout := flag.Duration("timeout", 5*time.Minute, "Abort schema operations after this long")
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.RunMigrations(ctx, db, database.GetMigrations()); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrations applied")
	case "status":
		return printStatus(ctx, db, cfg)
	case "down":
		if flag.NArg() < 2 {
			return fmt.Errorf("usage: migrate down <version>")
		}
		version, err := strconv.Atoi(flag.Arg(1))
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", flag.Arg(1), err)
		}
		if err := database.RollbackMigration(ctx, db, database.GetMigrations(), version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %06d", version)
	default:
		return usage()
	}
	return nil
}

func printStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := database.PlanSchema(cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	applied, pending, err := database.PendingMigrations(ctx, db)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	log.Printf("mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d",
		plan.Mode, cfg.Env, plan.SQL, plan.Auto, len(applied), len(pending))
	for _, m := range pending {
		log.Printf("pending: %s", m)
	}
	return nil
}
