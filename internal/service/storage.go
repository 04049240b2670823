package service

import (
	"context"
	"io"
	"time"
)

// FileStorage abstracts the object store holding submission images.
// Upload returns the storage path persisted on the submission row plus
// the publicly resolvable URL handed to the grading pipeline.
type FileStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader) (path string, publicURL string, err error)
	PublicURL(path string) string
	SignedURL(ctx context.Context, path string, expiresIn time.Duration) (string, error)
}
