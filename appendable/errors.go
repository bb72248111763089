package appendable

import "errors"

var (
	// ErrEmptyRecord is returned when a codec encodes a value to zero bytes.
	ErrEmptyRecord = errors.New("appendable: codec produced an empty record")
	// ErrLockHeld is returned by ProcessAll when the context already carries the storage lock.
	ErrLockHeld = errors.New("appendable: lock already held by caller")
	// ErrLockNotHeld is returned when a handle is requested with a context that does not carry the lock.
	ErrLockNotHeld = errors.New("appendable: lock not held")
	// ErrUnsupported is returned by operations an implementation cannot provide.
	ErrUnsupported = errors.New("appendable: operation not supported")
	// ErrOutOfRange is returned by Inlined.Append for a value without an int32 id.
	ErrOutOfRange = errors.New("appendable: value out of inlined id range")
)

// errMismatch stops an equality-check encode at the first differing byte.
var errMismatch = errors.New("appendable: bytes differ")
