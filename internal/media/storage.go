package media

import (
	"context"
	"io"
)

// Storage persists uploaded objects under slash-separated keys and knows the
// public URL each key is served from.
type Storage interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	URL(key string) string
	// Check reports whether the backend is reachable and writable.
	Check(ctx context.Context) error
}
