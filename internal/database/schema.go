package database

import (
	"context"
	"fmt"
	"log/slog"

	"vidnest/internal/config"
	"vidnest/internal/middleware"

	"gorm.io/gorm"
)

// Schema modes accepted by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// SchemaPlan says which schema steps a config enables.
type SchemaPlan struct {
	Mode string
	SQL  bool
	Auto bool
}

// PlanSchema resolves DB_SCHEMA_MODE for the configured environment.
// Production and staging never AutoMigrate in hybrid mode, and refuse auto
// mode unless DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE is set.
func PlanSchema(cfg *config.Config) (SchemaPlan, error) {
	plan := SchemaPlan{Mode: cfg.DBSchemaMode}
	if plan.Mode == "" {
		plan.Mode = SchemaModeHybrid
	}
	guarded := cfg.IsProduction() || cfg.Env == "staging"

	switch plan.Mode {
	case SchemaModeHybrid:
		plan.SQL, plan.Auto = true, !guarded
	case SchemaModeSQL:
		plan.SQL = true
	case SchemaModeAuto:
		if guarded && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.Auto = true
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.Mode)
	}
	return plan, nil
}

// AutoMigrate creates or updates the vidnest tables from the GORM models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PersistentModels()...)
}

// ApplySchema runs the steps PlanSchema enables: embedded SQL migrations first,
// then AutoMigrate.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := PlanSchema(cfg)
	if err != nil {
		return err
	}
	if plan.SQL {
		if err := RunMigrations(ctx, db, GetMigrations()); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}
	if plan.Auto {
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", plan.Mode), slog.String("env", cfg.Env))
		if err := AutoMigrate(db); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}
	return nil
}

// PendingMigrations lists the applied versions and the embedded migrations
// not yet recorded in migration_logs.
func PendingMigrations(ctx context.Context, db *gorm.DB) ([]int, []Migration, error) {
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return nil, nil, err
	}
	done := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}
	var pending []Migration
	for _, m := range GetMigrations() {
		if _, ok := done[m.Version]; !ok {
			pending = append(pending, m)
		}
	}
	return applied, pending, nil
}
