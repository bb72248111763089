package appendable

import "context"

// Reader is the read side of a storage, valid while the lock is held.
type Reader[T any] interface {
	Read(id int64) (T, error)
	CheckBytesAreTheSame(id int64, v T) (bool, error)
	CurrentLength() int64
}

// Writer is the write side of a storage, valid while the write lock is held.
type Writer[T any] interface {
	Reader[T]
	Append(v T) (int64, error)
	Force() error
	Clear() error
}

// ObjectStorage is implemented by Storage and Inlined.
type ObjectStorage[T any] interface {
	Append(v T) (int64, error)
	Read(id int64) (T, error)
	CheckBytesAreTheSame(id int64, v T) (bool, error)
	ProcessAll(ctx context.Context, fn func(id int64, v T) bool) (Outcome, error)
	CurrentLength() int64
	View(ctx context.Context, fn func(ctx context.Context, r Reader[T]) error) error
	Update(ctx context.Context, fn func(ctx context.Context, w Writer[T]) error) error
	Clear() error
	Force() error
	Close() error
}
