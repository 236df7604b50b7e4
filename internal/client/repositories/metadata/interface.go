// Package metadata is a durable key/value store in the client database. The
// credential store keeps its serialized credentials and session flag here.
package metadata

import (
	"context"
)

// Repository reads and writes opaque values by key. Get returns (nil, nil)
// for a key that was never set or has been deleted.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
