// Package media stores uploaded blobs and prepares images and videos before they are stored.
package media

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"vidnest/internal/config"
	"vidnest/internal/models"
	"vidnest/internal/observability"

	"github.com/google/uuid"
)

// Kind groups stored objects by what they hold.
type Kind string

// Object kinds. The kind is also the key prefix of stored objects.
const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Object is one blob ready to be stored. Body should be seekable for the s3 backend.
type Object struct {
	Kind        Kind
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store persists blobs and releases them by public id.
type Store interface {
	Put(ctx context.Context, obj Object) (models.MediaRef, error)
	Delete(ctx context.Context, publicID string, kind Kind) error
	Backend() string
}

// File is an upload as received from a multipart form.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FromMultipart adapts a multipart file header.
func FromMultipart(fh *multipart.FileHeader) File {
	return File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// NewStore builds the backend selected by MEDIA_BACKEND.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.MediaBackend {
	case config.MediaBackendMinio:
		store, err = NewMinioStore(ctx, cfg)
	case config.MediaBackendS3:
		store, err = NewS3Store(ctx, cfg)
	case config.MediaBackendLocal, "":
		store, err = NewLocalStore(cfg.MediaLocalDir, cfg.MediaPublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported media backend %q", cfg.MediaBackend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(store), nil
}

// objectKey names a new object: "<kind>s/<uuid><ext>".
func objectKey(kind Kind, name string) string {
	ext := strings.ToLower(path.Ext(name))
	if len(ext) > 8 {
		ext = ""
	}
	return fmt.Sprintf("%ss/%s%s", kind, uuid.NewString(), ext)
}

type instrumented struct {
	Store
}

// Instrument counts every Put and Delete by backend and outcome.
func Instrument(s Store) Store {
	if _, ok := s.(instrumented); ok {
		return s
	}
	return instrumented{s}
}

func (s instrumented) Put(ctx context.Context, obj Object) (models.MediaRef, error) {
	ref, err := s.Store.Put(ctx, obj)
	observability.MediaOperations.WithLabelValues(s.Backend(), "put", outcome(err)).Inc()
	return ref, err
}

func (s instrumented) Delete(ctx context.Context, publicID string, kind Kind) error {
	err := s.Store.Delete(ctx, publicID, kind)
	observability.MediaOperations.WithLabelValues(s.Backend(), "delete", outcome(err)).Inc()
	return err
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
