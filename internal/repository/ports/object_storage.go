package ports

import (
	"context"
	"io"
)

// ObjectStorage uploads a blob and returns its public URL.
type ObjectStorage interface {
	Upload(ctx context.Context, bucket, objectName, contentType string, reader io.Reader, size int64) (string, error)
}
