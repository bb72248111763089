// Package codec provides appendable.Codec implementations for common value types.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/viant/fwdindex/appendable"
)

// maxChunk bounds a length prefix read from disk.
const maxChunk = 1 << 30

// ErrTooLarge is returned when a length prefix exceeds the supported size.
var ErrTooLarge = errors.New("codec: length prefix too large")

func writeChunk(sink appendable.Sink, data []byte) error {
	var prefix [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(prefix[:], uint64(len(data)))
	if _, err := sink.Write(prefix[:n]); err != nil {
		return err
	}
	_, err := sink.Write(data)
	return err
}

func readChunk(source appendable.Source) ([]byte, error) {
	size, err := binary.ReadUvarint(source)
	if err != nil {
		return nil, err
	}
	if size > maxChunk {
		return nil, fmt.Errorf("%w: %d", ErrTooLarge, size)
	}
	data := make([]byte, size)
	if _, err := io.ReadFull(source, data); err != nil {
		return nil, err
	}
	return data, nil
}
