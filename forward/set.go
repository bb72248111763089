package forward

import (
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/viant/fwdindex/appendable"
	"github.com/viant/fwdindex/storage"
)

// Set is a set of integer keys kept in ascending order.
type Set []int64

// NewSet builds a set from index entries.
func NewSet(entries ...IDIndexEntry) Set {
	set := make(Set, len(entries))
	for i, e := range entries {
		set[i] = int64(e)
	}
	return set.normalize()
}

// Entries converts the keys back to index entries.
func (s Set) Entries() []IDIndexEntry {
	entries := make([]IDIndexEntry, len(s))
	for i, k := range s {
		entries[i] = IDIndexEntry(k)
	}
	return entries
}

// normalize returns the keys sorted and without duplicates, copying only when needed.
func (s Set) normalize() Set {
	if slices.IsSorted(s) && !hasDuplicates(s) {
		return s
	}
	sorted := slices.Clone(s)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

func hasDuplicates(sorted Set) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return true
		}
	}
	return false
}

// SetCodec writes a key count followed by zigzag-varint deltas between ascending keys.
type SetCodec struct{}

// PrefixFree marks the count-prefixed encoding.
func (SetCodec) PrefixFree() {}

func (SetCodec) Encode(sink appendable.Sink, set Set) error {
	set = set.normalize()
	var scratch [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scratch[:], uint64(len(set)))
	if _, err := sink.Write(scratch[:n]); err != nil {
		return err
	}
	return writeDeltas(sink, set)
}

func (SetCodec) Decode(source appendable.Source) (Set, error) {
	count, err := binary.ReadUvarint(source)
	if err != nil {
		return nil, err
	}
	if count > maxKeys {
		return nil, fmt.Errorf("forward: set of %d keys: %w", count, storage.ErrCorrupt)
	}
	keys, err := readDeltas(source, count)
	if err != nil {
		return nil, err
	}
	return keys, nil
}

const (
	maxKeys     = 1 << 28
	initialKeys = 256
)

func writeDeltas(w io.Writer, keys []int64) error {
	var scratch [binary.MaxVarintLen64]byte
	var prev int64
	for _, k := range keys {
		n := binary.PutVarint(scratch[:], k-prev)
		if _, err := w.Write(scratch[:n]); err != nil {
			return err
		}
		prev = k
	}
	return nil
}

// readDeltas grows the result as keys arrive, so a corrupt count fails on the
// missing bytes before it can size an allocation.
func readDeltas(r io.ByteReader, count uint64) ([]int64, error) {
	keys := make([]int64, 0, min(count, initialKeys))
	var prev int64
	for i := uint64(0); i < count; i++ {
		delta, err := binary.ReadVarint(r)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("forward: key %d of %d: %w", i, count, err)
		}
		prev += delta
		keys = append(keys, prev)
	}
	return keys, nil
}
