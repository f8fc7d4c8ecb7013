// Package kv is the persistent key-value primitive underneath the resource cache
// and the interceptor's named response caches.
package kv

import "context"

// Store is a flat byte-valued key space. Implementations must be safe for
// concurrent use; each call is atomic on its own key but there are no
// multi-key transactions.
type Store interface {
	// Get returns the value and true, or nil and false for a missing key.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes keys; missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Keys lists every key starting with prefix. An empty prefix lists all keys.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
