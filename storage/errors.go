package storage

import "errors"

var (
	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("storage: store closed")

	// ErrNoData indicates there is no record at the requested address, either
	// because the address lies past the end of the log or because the log was
	// cleared after the address was handed out.
	ErrNoData = errors.New("storage: no data at this address")

	// ErrCorrupt indicates a record could not be decoded from the stored bytes.
	ErrCorrupt = errors.New("storage: data corruption detected")

	// ErrGap is returned when a write would leave unwritten bytes behind it.
	ErrGap = errors.New("storage: write past end of store")
)
