// Package storage keeps file contents in an S3-compatible object store.
package storage

import (
	"context"
	"io"
)

// Object is a readable stored blob. The caller closes Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ContentType string
}

// BlobStore is the object-storage contract used by the file service.
type BlobStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that downloads key as filename.
	PresignGet(ctx context.Context, key, filename string) (string, error)
}
