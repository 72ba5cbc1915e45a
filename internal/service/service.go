// Package service composes repositories into viewer-relative read models and
// the mutations that change them.
package service

import (
	"context"
	"log/slog"

	"vidnest/internal/config"
	"vidnest/internal/media"
	"vidnest/internal/middleware"
	"vidnest/internal/models"
	"vidnest/internal/notifications"
	"vidnest/internal/observability"
	"vidnest/internal/repository"
	"vidnest/internal/validation"
)

// MediaUploader stores uploaded files and releases stored blobs.
type MediaUploader interface {
	Image(ctx context.Context, f media.File) (models.MediaRef, error)
	Video(ctx context.Context, f media.File) (models.MediaRef, float64, error)
	Release(ctx context.Context, ref models.MediaRef, kind media.Kind) error
}

// EventPublisher delivers best-effort activity events to a user.
type EventPublisher interface {
	Notify(ctx context.Context, recipient uint, ev notifications.Event)
}

type noopEvents struct{}

func (noopEvents) Notify(context.Context, uint, notifications.Event) {}

// Limits bounds page sizes and reply tree depth.
type Limits struct {
	MaxPageLimit       int
	DefaultThreadDepth int
	MaxThreadDepth     int
}

// DefaultLimits mirrors the configuration defaults.
var DefaultLimits = Limits{MaxPageLimit: 100, DefaultThreadDepth: 3, MaxThreadDepth: 10}

// LimitsFromConfig reads the paging and thread limits from cfg.
func LimitsFromConfig(cfg *config.Config) Limits {
	l := DefaultLimits
	if cfg == nil {
		return l
	}
	if cfg.PaginationMaxLimit > 0 {
		l.MaxPageLimit = cfg.PaginationMaxLimit
	}
	if cfg.ThreadDefaultDepth > 0 {
		l.DefaultThreadDepth = cfg.ThreadDefaultDepth
	}
	if cfg.ThreadMaxDepth > 0 {
		l.MaxThreadDepth = cfg.ThreadMaxDepth
	}
	return l
}

// Page builds a normalized page request.
func (l Limits) Page(page, limit int) repository.PageRequest {
	return repository.PageRequest{Page: page, Limit: limit, MaxLimit: l.MaxPageLimit}.Normalize()
}

// Depth resolves a requested thread depth: non-positive means the default and
// anything above the ceiling is clamped.
func (l Limits) Depth(requested int) int {
	if requested <= 0 {
		requested = l.DefaultThreadDepth
	}
	if l.MaxThreadDepth > 0 && requested > l.MaxThreadDepth {
		requested = l.MaxThreadDepth
	}
	return requested
}

func requireViewer(viewerID uint) error {
	if viewerID == 0 {
		return models.NewUnauthorizedError("Authentication required")
	}
	return nil
}

// cascadeStep runs one dependent cleanup step of a delete. Failures are logged
// and counted, never returned: the primary row is already gone.
func cascadeStep(ctx context.Context, entity string, id uint, step string, fn func() error) {
	if err := fn(); err != nil {
		observability.CascadeFailures.WithLabelValues(entity, step).Inc()
		middleware.Logger.ErrorContext(ctx, "cascade step failed",
			slog.String("entity", entity),
			slog.Uint64("id", uint64(id)),
			slog.String("step", step),
			slog.String("error", models.NewInternalError(err).Error()))
	}
}

// releaseMedia frees a replaced or orphaned blob and logs failures.
func releaseMedia(ctx context.Context, uploader MediaUploader, ref models.MediaRef, kind media.Kind) {
	if uploader == nil || ref.PublicID == "" {
		return
	}
	if err := uploader.Release(ctx, ref, kind); err != nil {
		middleware.Logger.WarnContext(ctx, "media release failed",
			slog.String("public_id", ref.PublicID),
			slog.String("error", err.Error()))
	}
}

// text validates a free-text field and reports failures as validation errors.
func text(field, value string, max int) (string, error) {
	v, err := validation.ValidateText(field, value, max)
	if err != nil {
		return "", models.NewValidationError(err.Error())
	}
	return v, nil
}
