package forward

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"slices"

	"github.com/viant/fwdindex/appendable"
	"github.com/viant/fwdindex/storage"
)

// Map is a forward-index entry collection: every key of a document with the
// contexts it occurred in.
type Map map[IDIndexEntry]OccurrenceMask

// Add merges mask into the mask recorded for entry.
func (m Map) Add(entry IDIndexEntry, mask OccurrenceMask) {
	m[entry] |= mask
}

// MapCodec writes a byte length followed by groups of keys sharing a mask:
// mask byte, key count, zigzag-varint deltas. Groups are in ascending mask
// order and keys ascending within a group. The empty map is the single byte 0.
type MapCodec struct{}

// PrefixFree marks the length-prefixed encoding.
func (MapCodec) PrefixFree() {}

func (MapCodec) Encode(sink appendable.Sink, m Map) error {
	groups := make(map[OccurrenceMask][]int64)
	for entry, mask := range m {
		groups[mask] = append(groups[mask], int64(entry))
	}
	masks := make([]OccurrenceMask, 0, len(groups))
	for mask := range groups {
		masks = append(masks, mask)
	}
	slices.Sort(masks)

	var body bytes.Buffer
	var scratch [binary.MaxVarintLen64]byte
	for _, mask := range masks {
		keys := groups[mask]
		slices.Sort(keys)
		body.WriteByte(byte(mask))
		n := binary.PutUvarint(scratch[:], uint64(len(keys)))
		body.Write(scratch[:n])
		if err := writeDeltas(&body, keys); err != nil {
			return err
		}
	}
	n := binary.PutUvarint(scratch[:], uint64(body.Len()))
	if _, err := sink.Write(scratch[:n]); err != nil {
		return err
	}
	_, err := sink.Write(body.Bytes())
	return err
}

func (MapCodec) Decode(source appendable.Source) (Map, error) {
	size, err := binary.ReadUvarint(source)
	if err != nil {
		return nil, err
	}
	if size > maxKeys {
		return nil, fmt.Errorf("forward: map of %d bytes: %w", size, storage.ErrCorrupt)
	}
	var body bytes.Buffer
	if _, err := io.CopyN(&body, source, int64(size)); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	result := make(Map)
	reader := bytes.NewReader(body.Bytes())
	for reader.Len() > 0 {
		mask, _ := reader.ReadByte()
		count, err := binary.ReadUvarint(reader)
		if err != nil {
			return nil, fmt.Errorf("forward: group %s count: %w", OccurrenceMask(mask), storage.ErrCorrupt)
		}
		// every key takes at least one byte
		if count > uint64(reader.Len()) {
			return nil, fmt.Errorf("forward: group %s of %d keys: %w", OccurrenceMask(mask), count, storage.ErrCorrupt)
		}
		keys, err := readDeltas(reader, count)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			result[IDIndexEntry(k)] = OccurrenceMask(mask)
		}
	}
	return result, nil
}
