package storage

import "io"

// Store is a byte-addressable backing resource for an append-only log.
//
// ReadAt and WriteAt follow io.ReaderAt / io.WriterAt semantics. Reads are bounded
// by Length; a read that reaches Length returns the bytes available and io.EOF.
// Writes must not leave gaps: off <= Length().
//
// Implementations must allow concurrent ReadAt calls while a single writer is
// active on another range of the store.
type Store interface {
	io.ReaderAt
	io.WriterAt

	// ByteAt returns the byte stored at off.
	ByteAt(off int64) (byte, error)

	// Length returns the number of bytes written so far.
	Length() int64

	// Force makes every byte written so far durable.
	Force() error

	// Clear truncates the store to zero length.
	Clear() error

	// Close releases resources (mappings, file handles). After Close, the
	// implementation must return ErrClosed.
	Close() error

	// Stats returns best-effort metrics; it should be cheap to call.
	Stats() Stats
}

// Stats exposes basic runtime and storage metrics.
type Stats struct {
	// Length is the logical number of bytes stored.
	Length int64 `json:"length"`
	// Total bytes written through WriteAt
	BytesWritten uint64 `json:"bytesWritten"`
	// Total bytes returned by ReadAt/ByteAt
	BytesRead uint64 `json:"bytesRead"`
	// Number of Force calls
	Forces uint64 `json:"forces"`
	// Pages (paged store) or regions (mmap store) currently held in memory
	Resident int `json:"resident"`
	// Page cache hits and misses (paged store only)
	Hits   uint64 `json:"hits,omitempty"`
	Misses uint64 `json:"misses,omitempty"`
}
