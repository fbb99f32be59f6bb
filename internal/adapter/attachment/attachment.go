// Package attachment stores uploaded report files, either in a local
// directory or in an S3-compatible bucket.
package attachment

import (
	"context"
	"io"
)

// Store saves and retrieves attachments by stored name.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}
