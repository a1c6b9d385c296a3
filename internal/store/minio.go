package store

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ayush/socialnet/backend/internal/config"
)

// MinioStore is the hosted media store for profile, cover and post images.
type MinioStore struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

func NewMinioStore(ctx context.Context, cfg *config.Config) (*MinioStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &MinioStore{
		client:     client,
		bucket:     cfg.MinioBucket,
		publicBase: strings.TrimRight(cfg.MediaPublicBaseURL, "/"),
	}, nil
}

// Upload stores a data URI image and returns its public reference.
func (s *MinioStore) Upload(ctx context.Context, dataURI string) (string, error) {
	contentType, data, err := ParseDataURI(dataURI)
	if err != nil {
		return "", err
	}
	key := newObjectKey(contentType)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("minio upload %s: %w", key, err)
	}
	return fmt.Sprintf("%s/%s/%s", s.publicBase, s.bucket, key), nil
}

// Delete removes the object behind a reference returned by Upload.
func (s *MinioStore) Delete(ctx context.Context, ref string) error {
	key := KeyFromRef(ref)
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("minio remove %s: %w", key, err)
	}
	return nil
}
