package port

import (
	"context"
	"io"
	"time"
)

// PutInput describes an object to archive.
type PutInput struct {
	Key         string
	Body        io.Reader
	ContentType string
}

// PutOutput contains the result of a successful archive upload.
type PutOutput struct {
	Key      string
	Location string
	ETag     string
}

// ObjectStorage archives parse result documents in a single configured bucket.
type ObjectStorage interface {
	Put(ctx context.Context, input PutInput) (*PutOutput, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
