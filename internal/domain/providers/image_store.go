package providers

import (
	"context"
	"io"
)

// ImageStore stores issue photos and returns an opaque reference to them
type ImageStore interface {
	Put(ctx context.Context, name, contentType string, body io.Reader, size int64) (string, error)
}
