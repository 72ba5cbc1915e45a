package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"vidnest/internal/config"
	"vidnest/internal/middleware"
	"vidnest/internal/models"
)

// Uploader validates uploads, prepares them and hands them to a Store.
type Uploader struct {
	store    Store
	maxBytes int64
	maxDim   int
	probe    func(path string) (float64, error)
}

// NewUploader wraps store with the upload limits from cfg.
func NewUploader(store Store, cfg *config.Config) *Uploader {
	u := &Uploader{
		store:    store,
		maxBytes: 200 << 20,
		maxDim:   1920,
		probe:    ProbeDuration,
	}
	if cfg != nil {
		if cfg.MediaMaxUploadMB > 0 {
			u.maxBytes = int64(cfg.MediaMaxUploadMB) << 20
		}
		if cfg.ImageMaxDimension > 0 {
			u.maxDim = cfg.ImageMaxDimension
		}
	}
	return u
}

// WithProbe replaces the duration probe.
func (u *Uploader) WithProbe(probe func(path string) (float64, error)) *Uploader {
	u.probe = probe
	return u
}

// Image normalises an image upload to WebP and stores it.
func (u *Uploader) Image(ctx context.Context, f File) (models.MediaRef, error) {
	content, err := u.readAll(f)
	if err != nil {
		return models.MediaRef{}, err
	}
	normalized, err := NormalizeImage(content, u.maxDim)
	if err != nil {
		return models.MediaRef{}, err
	}

	name := strings.TrimSuffix(f.Name, filepath.Ext(f.Name)) + ".webp"
	ref, err := u.store.Put(ctx, Object{
		Kind:        KindImage,
		Name:        name,
		ContentType: "image/webp",
		Size:        int64(len(normalized)),
		Body:        bytes.NewReader(normalized),
	})
	if err != nil {
		return models.MediaRef{}, models.NewInternalError(err)
	}
	return ref, nil
}

// Video spools the upload to disk, probes its duration and stores it.
// A failed probe is logged and stores the video with zero duration.
func (u *Uploader) Video(ctx context.Context, f File) (models.MediaRef, float64, error) {
	if err := u.checkSize(f); err != nil {
		return models.MediaRef{}, 0, err
	}
	if ct := normalizeContentType(f.ContentType); ct != "" && !strings.HasPrefix(ct, "video/") && ct != "application/octet-stream" {
		return models.MediaRef{}, 0, models.NewValidationError("Invalid video type")
	}

	src, err := f.Open()
	if err != nil {
		return models.MediaRef{}, 0, models.NewValidationError("Unable to read video file")
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "vidnest-upload-*"+filepath.Ext(f.Name))
	if err != nil {
		return models.MediaRef{}, 0, models.NewInternalError(err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	written, err := io.Copy(tmp, io.LimitReader(src, u.maxBytes+1))
	if err != nil {
		return models.MediaRef{}, 0, models.NewInternalError(err)
	}
	if written > u.maxBytes {
		return models.MediaRef{}, 0, u.tooLarge()
	}

	duration, err := u.probe(tmp.Name())
	if err != nil {
		middleware.Logger.WarnContext(ctx, "video probe failed",
			slog.String("file", f.Name), slog.String("error", err.Error()))
		duration = 0
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return models.MediaRef{}, 0, models.NewInternalError(err)
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ref, err := u.store.Put(ctx, Object{
		Kind:        KindVideo,
		Name:        f.Name,
		ContentType: contentType,
		Size:        written,
		Body:        tmp,
	})
	if err != nil {
		return models.MediaRef{}, 0, models.NewInternalError(err)
	}
	return ref, duration, nil
}

// Release deletes the blob behind ref. Empty references are ignored.
func (u *Uploader) Release(ctx context.Context, ref models.MediaRef, kind Kind) error {
	if ref.PublicID == "" {
		return nil
	}
	if err := u.store.Delete(ctx, ref.PublicID, kind); err != nil {
		return fmt.Errorf("release %s: %w", ref.PublicID, err)
	}
	return nil
}

func (u *Uploader) readAll(f File) ([]byte, error) {
	if err := u.checkSize(f); err != nil {
		return nil, err
	}
	src, err := f.Open()
	if err != nil {
		return nil, models.NewValidationError("Unable to read uploaded file")
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, u.maxBytes+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if int64(len(content)) > u.maxBytes {
		return nil, u.tooLarge()
	}
	return content, nil
}

func (u *Uploader) checkSize(f File) error {
	if f.Open == nil {
		return models.NewValidationError("File is required")
	}
	if f.Size > u.maxBytes {
		return u.tooLarge()
	}
	return nil
}

func (u *Uploader) tooLarge() error {
	return models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", u.maxBytes>>20))
}
