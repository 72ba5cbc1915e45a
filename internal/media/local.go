package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"vidnest/internal/models"
)

// LocalStore keeps blobs on disk and serves them under a public base URL.
type LocalStore struct {
	dir     string
	baseURL string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("media directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Backend() string { return "local" }

func (s *LocalStore) Put(ctx context.Context, obj Object) (models.MediaRef, error) {
	key := objectKey(obj.Kind, obj.Name)
	abs, err := s.resolve(key)
	if err != nil {
		return models.MediaRef{}, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return models.MediaRef{}, err
	}

	f, err := os.Create(abs)
	if err != nil {
		return models.MediaRef{}, err
	}
	if _, err := io.Copy(f, obj.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(abs)
		return models.MediaRef{}, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(abs)
		return models.MediaRef{}, err
	}
	if err := ctx.Err(); err != nil {
		_ = os.Remove(abs)
		return models.MediaRef{}, err
	}

	return models.MediaRef{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

// Delete removes the blob. A blob that is already gone is not an error.
func (s *LocalStore) Delete(_ context.Context, publicID string, _ Kind) error {
	abs, err := s.resolve(publicID)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Dir is the root directory served for this store.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return filepath.Join(s.dir, clean), nil
}
