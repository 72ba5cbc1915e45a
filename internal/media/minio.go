package media

import (
	"context"
	"fmt"
	"strings"

	"vidnest/internal/config"
	"vidnest/internal/models"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore keeps blobs in a MinIO bucket.
type MinioStore struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinioStore connects to MinIO and creates the bucket when it is missing.
func NewMinioStore(ctx context.Context, cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.MinioBucket, err)
		}
	}

	base := cfg.MediaPublicBaseURL
	if !strings.HasPrefix(base, "http") {
		scheme := "http"
		if cfg.MinioUseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.MinioEndpoint, cfg.MinioBucket)
	}

	return &MinioStore{client: client, bucket: cfg.MinioBucket, baseURL: strings.TrimRight(base, "/")}, nil
}

func (s *MinioStore) Backend() string { return "minio" }

func (s *MinioStore) Put(ctx context.Context, obj Object) (models.MediaRef, error) {
	key := objectKey(obj.Kind, obj.Name)
	size := obj.Size
	if size <= 0 {
		size = -1
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, obj.Body, size, minio.PutObjectOptions{
		ContentType: obj.ContentType,
	})
	if err != nil {
		return models.MediaRef{}, fmt.Errorf("put %s: %w", key, err)
	}
	return models.MediaRef{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

func (s *MinioStore) Delete(ctx context.Context, publicID string, _ Kind) error {
	return s.client.RemoveObject(ctx, s.bucket, publicID, minio.RemoveObjectOptions{})
}
