package codec

import (
	"encoding/binary"
	"io"

	"github.com/viant/fwdindex/appendable"
)

// String encodes a string as a uvarint byte length followed by its UTF-8 bytes.
type String struct{}

// PrefixFree marks the length-prefixed encoding.
func (String) PrefixFree() {}

func (String) Encode(sink appendable.Sink, value string) error {
	var prefix [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(prefix[:], uint64(len(value)))
	if _, err := sink.Write(prefix[:n]); err != nil {
		return err
	}
	_, err := io.WriteString(sink, value)
	return err
}

func (String) Decode(source appendable.Source) (string, error) {
	data, err := readChunk(source)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
