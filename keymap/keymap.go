// Package keymap defines the external map from logical keys (file paths) to
// record ids in an appendable storage.
package keymap

import "context"

// KeyMap maps keys to record ids. Implementations are safe for concurrent use.
type KeyMap interface {
	// Get returns the id stored for key and whether it was present.
	Get(ctx context.Context, key string) (int64, bool, error)
	// Put stores id for key, replacing any previous id.
	Put(ctx context.Context, key string, id int64) error
	// Delete removes key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Range calls fn for every key starting with prefix, in key order, until fn returns false.
	// fn must not modify the map.
	Range(ctx context.Context, prefix string, fn func(key string, id int64) bool) error
	// Clear removes every key.
	Clear(ctx context.Context) error
	Close() error
}
