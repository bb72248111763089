package codec

import (
	"fmt"

	"github.com/viant/bintly"
	"github.com/viant/fwdindex/appendable"
)

// BinaryCodable is a pointer to T that encodes itself with bintly.
type BinaryCodable[T any] interface {
	*T
	EncodeBinary(stream *bintly.Writer) error
	DecodeBinary(stream *bintly.Reader) error
}

// Bintly encodes values through their bintly EncodeBinary/DecodeBinary methods,
// prefixed with the encoded length so that records stay self-delimiting.
type Bintly[T any, P BinaryCodable[T]] struct {
	writers *bintly.Writers
	readers *bintly.Readers
}

// NewBintly creates a bintly-backed codec.
func NewBintly[T any, P BinaryCodable[T]]() *Bintly[T, P] {
	return &Bintly[T, P]{writers: bintly.NewWriters(), readers: bintly.NewReaders()}
}

func (c *Bintly[T, P]) PrefixFree() {}

func (c *Bintly[T, P]) Encode(sink appendable.Sink, value T) error {
	writer := c.writers.Get()
	defer c.writers.Put(writer)
	if err := P(&value).EncodeBinary(writer); err != nil {
		return fmt.Errorf("codec: bintly encode: %w", err)
	}
	return writeChunk(sink, writer.Bytes())
}

func (c *Bintly[T, P]) Decode(source appendable.Source) (T, error) {
	var value T
	data, err := readChunk(source)
	if err != nil {
		return value, err
	}
	reader := c.readers.Get()
	defer c.readers.Put(reader)
	if err := reader.FromBytes(data); err != nil {
		return value, fmt.Errorf("codec: bintly: %w", err)
	}
	if err := P(&value).DecodeBinary(reader); err != nil {
		return value, fmt.Errorf("codec: bintly decode: %w", err)
	}
	return value, nil
}
