package minio

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"github.com/civicpulse/reporter/backend/pkg/config"
)

// Client represents a MinIO object storage client bound to one bucket
type Client struct {
	client *minio.Client
	bucket string
}

// NewClient creates a MinIO client and makes sure the bucket exists
func NewClient(ctx context.Context, cfg *config.ObjectStorageConfig) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("created MinIO bucket")
	}

	return &Client{client: client, bucket: cfg.Bucket}, nil
}

// Client returns the underlying MinIO client
func (c *Client) Client() *minio.Client {
	return c.client
}

// Bucket returns the bucket images are written to
func (c *Client) Bucket() string {
	return c.bucket
}
