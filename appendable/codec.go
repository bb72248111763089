package appendable

import "io"

// Sink receives encoded bytes.
type Sink interface {
	io.Writer
	io.ByteWriter
}

// Source supplies encoded bytes to a decoder.
type Source interface {
	io.Reader
	io.ByteScanner
}

// Codec encodes and decodes values of T. Encodings must be self-delimiting:
// Decode alone decides how many bytes belong to a record.
type Codec[T any] interface {
	Encode(sink Sink, value T) error
	Decode(source Source) (T, error)
}

// PrefixFree is implemented by codecs whose encodings are never a proper prefix
// of another encoding, such as length-prefixed ones. CheckBytesAreTheSame trusts
// a full byte match for them; for other codecs it also decodes the stored record
// to confirm that it ends where the new encoding does.
type PrefixFree interface {
	PrefixFree()
}
