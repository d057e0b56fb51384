// Package store provides the key-value blob storage that backs the board's
// local state.
package store

import "context"

// KV is a get/set/remove store of opaque byte blobs.
//
// Get returns ErrNotFound when the key is absent. Remove of an absent key is
// not an error.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Close() error
}
