package codec

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/viant/fwdindex/appendable"
)

// Zstd compresses the records of an inner codec. Each record is a uvarint
// length followed by one zstd frame.
type Zstd[T any] struct {
	inner   appendable.Codec[T]
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstd wraps inner with zstd compression.
func NewZstd[T any](inner appendable.Codec[T]) (*Zstd[T], error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("codec: zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("codec: zstd decoder: %w", err)
	}
	return &Zstd[T]{inner: inner, encoder: encoder, decoder: decoder}, nil
}

func (c *Zstd[T]) PrefixFree() {}

func (c *Zstd[T]) Encode(sink appendable.Sink, value T) error {
	var plain bytes.Buffer
	if err := c.inner.Encode(&plain, value); err != nil {
		return err
	}
	return writeChunk(sink, c.encoder.EncodeAll(plain.Bytes(), nil))
}

func (c *Zstd[T]) Decode(source appendable.Source) (T, error) {
	var zero T
	frame, err := readChunk(source)
	if err != nil {
		return zero, err
	}
	plain, err := c.decoder.DecodeAll(frame, nil)
	if err != nil {
		return zero, fmt.Errorf("codec: zstd: %w", err)
	}
	return c.inner.Decode(bytes.NewReader(plain))
}

// Close releases encoder and decoder resources.
func (c *Zstd[T]) Close() error {
	c.decoder.Close()
	return c.encoder.Close()
}
