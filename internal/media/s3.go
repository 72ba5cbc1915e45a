package media

import (
	"context"
	"fmt"
	"strings"

	"vidnest/internal/config"
	"vidnest/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store keeps blobs in an S3 bucket or an S3-compatible endpoint.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3Store loads the default AWS credential chain unless static keys are configured.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	base := cfg.MediaPublicBaseURL
	switch {
	case strings.HasPrefix(base, "http"):
	case cfg.S3Endpoint != "":
		base = strings.TrimRight(cfg.S3Endpoint, "/") + "/" + cfg.S3Bucket
	default:
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}

	return &S3Store{client: client, bucket: cfg.S3Bucket, baseURL: strings.TrimRight(base, "/")}, nil
}

func (s *S3Store) Backend() string { return "s3" }

func (s *S3Store) Put(ctx context.Context, obj Object) (models.MediaRef, error) {
	key := objectKey(obj.Kind, obj.Name)
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        obj.Body,
		ContentType: aws.String(obj.ContentType),
	}
	if obj.Size > 0 {
		in.ContentLength = aws.Int64(obj.Size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return models.MediaRef{}, fmt.Errorf("put %s: %w", key, err)
	}
	return models.MediaRef{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

func (s *S3Store) Delete(ctx context.Context, publicID string, _ Kind) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	return err
}
