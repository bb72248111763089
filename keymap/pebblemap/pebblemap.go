// Package pebblemap implements keymap.KeyMap on a cockroachdb/pebble LSM store.
package pebblemap

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/viant/fwdindex/keymap"
)

// keys live under a one-byte prefix so that Clear can drop them with one range tombstone
const prefix = 'k'

// Map is a pebble-backed key map.
type Map struct {
	db    *pebble.DB
	write *pebble.WriteOptions
}

// Options configures the map.
type Options struct {
	// Sync makes every write durable before it returns.
	Sync bool
}

// Open opens or creates a pebble database in dir.
func Open(dir string, options Options) (*Map, error) {
	opts := &pebble.Options{}
	opts.EnsureDefaults()
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("pebblemap: open %s: %w", dir, err)
	}
	write := pebble.NoSync
	if options.Sync {
		write = pebble.Sync
	}
	return &Map{db: db, write: write}, nil
}

func encodeKey(key string) []byte {
	out := make([]byte, 0, len(key)+1)
	out = append(out, prefix)
	return append(out, key...)
}

func (m *Map) Get(_ context.Context, key string) (int64, bool, error) {
	value, closer, err := m.db.Get(encodeKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("pebblemap: get %s: %w", key, err)
	}
	defer closer.Close()
	id, n := binary.Varint(value)
	if n <= 0 {
		return 0, false, fmt.Errorf("pebblemap: get %s: malformed value", key)
	}
	return id, true, nil
}

func (m *Map) Put(_ context.Context, key string, id int64) error {
	var value [binary.MaxVarintLen64]byte
	n := binary.PutVarint(value[:], id)
	if err := m.db.Set(encodeKey(key), value[:n], m.write); err != nil {
		return fmt.Errorf("pebblemap: put %s: %w", key, err)
	}
	return nil
}

func (m *Map) Delete(_ context.Context, key string) error {
	if err := m.db.Delete(encodeKey(key), m.write); err != nil {
		return fmt.Errorf("pebblemap: delete %s: %w", key, err)
	}
	return nil
}

func (m *Map) Range(ctx context.Context, prefix string, fn func(key string, id int64) bool) error {
	lower := encodeKey(prefix)
	iter, err := m.db.NewIterWithContext(ctx, &pebble.IterOptions{LowerBound: lower, UpperBound: upperBound(lower)})
	if err != nil {
		return fmt.Errorf("pebblemap: range %s: %w", prefix, err)
	}
	for valid := iter.First(); valid; valid = iter.Next() {
		id, n := binary.Varint(iter.Value())
		if n <= 0 {
			_ = iter.Close()
			return fmt.Errorf("pebblemap: range %s: malformed value", prefix)
		}
		if !fn(string(iter.Key()[1:]), id) {
			break
		}
	}
	return iter.Close()
}

// upperBound returns the smallest key greater than every key starting with lower.
func upperBound(lower []byte) []byte {
	end := append([]byte(nil), lower...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func (m *Map) Clear(context.Context) error {
	if err := m.db.DeleteRange([]byte{prefix}, []byte{prefix + 1}, m.write); err != nil {
		return fmt.Errorf("pebblemap: clear: %w", err)
	}
	return nil
}

// Flush persists the memtable.
func (m *Map) Flush() error {
	return m.db.Flush()
}

func (m *Map) Close() error {
	return m.db.Close()
}

var _ keymap.KeyMap = (*Map)(nil)

// Metrics returns the pebble engine metrics.
func (m *Map) Metrics() *pebble.Metrics {
	return m.db.Metrics()
}
