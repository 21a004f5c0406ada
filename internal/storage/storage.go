// Package storage abstracts the object store holding book files and cover
// images. The service layer depends only on the Client interface; the S3
// implementation lives alongside it.
package storage

import (
	"context"
	"time"
)

// MaxAccessTTL caps how long an issued access URL may stay valid. Seven
// days is the presigned-URL ceiling S3 enforces.
const MaxAccessTTL = 7 * 24 * time.Hour

// Client is the object-store contract the library service consumes.
type Client interface {
	// IssueAccessURL returns a time-limited URL granting read access to the
	// object at key. Issuing is idempotent per call and may be rate-limited
	// by the store.
	IssueAccessURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// DeleteAsset removes the object at key. Deleting a missing object is
	// not an error; calls are safe to retry.
	DeleteAsset(ctx context.Context, key string) error
}
