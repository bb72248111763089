package cache

import (
	"encoding/json"

	"github.com/puzpuzpuz/xsync/v3"
)

// Map is a concurrent key-value cache that can be persisted as JSON.
type Map[K comparable, V any] struct {
	data *xsync.MapOf[K, V]
}

// NewMap creates an empty cache.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{data: xsync.NewMapOf[K, V]()}
}

// Get returns the value stored for key.
func (c *Map[K, V]) Get(key K) (V, bool) {
	return c.data.Load(key)
}

// Set stores value for key.
func (c *Map[K, V]) Set(key K, value V) {
	c.data.Store(key, value)
}

// Delete removes key.
func (c *Map[K, V]) Delete(key K) {
	c.data.Delete(key)
}

// Range calls fn for each entry until it returns false.
func (c *Map[K, V]) Range(fn func(key K, value V) bool) {
	c.data.Range(fn)
}

// Size returns the number of entries.
func (c *Map[K, V]) Size() int {
	return c.data.Size()
}

// Clear removes every entry.
func (c *Map[K, V]) Clear() {
	c.data.Clear()
}

// Data returns the cache content as JSON.
func (c *Map[K, V]) Data() ([]byte, error) {
	snapshot := make(map[K]V, c.data.Size())
	c.data.Range(func(k K, v V) bool {
		snapshot[k] = v
		return true
	})
	return json.Marshal(snapshot)
}

// Load merges JSON produced by Data into the cache.
func (c *Map[K, V]) Load(data []byte) error {
	var snapshot map[K]V
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return err
	}
	for k, v := range snapshot {
		c.data.Store(k, v)
	}
	return nil
}
