package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	minioclient "github.com/civicpulse/reporter/backend/internal/infrastructure/clients/minio"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// MinioImageStore writes issue photos to a MinIO bucket
type MinioImageStore struct {
	client    *minioclient.Client
	publicURL string
}

var _ providers.ImageStore = (*MinioImageStore)(nil)

// NewMinioImageStore creates an image store. publicURL, when set, prefixes
// returned references; otherwise the reference is "bucket/key".
func NewMinioImageStore(client *minioclient.Client, publicURL string) *MinioImageStore {
	return &MinioImageStore{client: client, publicURL: strings.TrimRight(publicURL, "/")}
}

// Put uploads an image and returns its reference
func (s *MinioImageStore) Put(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error) {
	key, err := ObjectKey(name, contentType, time.Now().UTC())
	if err != nil {
		return "", err
	}

	_, err = s.client.Client().PutObject(ctx, s.client.Bucket(), key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", apperrors.NewTransportError("failed to store image", err)
	}

	if s.publicURL != "" {
		return s.publicURL + "/" + s.client.Bucket() + "/" + key, nil
	}
	return s.client.Bucket() + "/" + key, nil
}

// ObjectKey builds a date-partitioned, collision-free key for an upload
func ObjectKey(name, contentType string, now time.Time) (string, error) {
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", apperrors.NewValidationError(fmt.Sprintf("unsupported image type %q", contentType))
	}
	if given := strings.ToLower(path.Ext(name)); given == ".jpeg" || given == ext {
		ext = given
	}
	return path.Join("issues", now.Format("2006/01/02"), uuid.New().String()+ext), nil
}
