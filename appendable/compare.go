package appendable

import (
	"errors"
	"io"
)

// comparingSink checks each encoded byte against the persisted one instead of storing it.
type comparingSink struct {
	src      io.ByteReader
	matched  int64
	mismatch bool
	err      error
}

func (c *comparingSink) WriteByte(b byte) error {
	if c.mismatch {
		return errMismatch
	}
	got, err := c.src.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			// persisted record is shorter than the new encoding
			c.mismatch = true
			return errMismatch
		}
		c.err = err
		return err
	}
	if got != b {
		c.mismatch = true
		return errMismatch
	}
	c.matched++
	return nil
}

func (c *comparingSink) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := c.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// compare reports whether the encoding of v is a prefix of src and how many bytes it took.
func compare[T any](src io.ByteReader, codec Codec[T], v T) (bool, int64, error) {
	sink := &comparingSink{src: src}
	err := codec.Encode(sink, v)
	switch {
	case sink.mismatch:
		return false, 0, nil
	case sink.err != nil:
		return false, 0, sink.err
	case err != nil:
		return false, 0, err
	}
	return true, sink.matched, nil
}
