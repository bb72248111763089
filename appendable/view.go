package appendable

import (
	"context"
	"fmt"
)

// handle exposes the unlocked operations of a storage to a caller holding its lock.
type handle[T any] struct {
	s *Storage[T]
}

func (h handle[T]) Read(id int64) (T, error) { return h.s.read(id) }

func (h handle[T]) CheckBytesAreTheSame(id int64, v T) (bool, error) {
	return h.s.checkBytesAreTheSame(id, v)
}

func (h handle[T]) CurrentLength() int64 { return h.s.currentLength() }

func (h handle[T]) Append(v T) (int64, error) { return h.s.append(v) }

func (h handle[T]) Force() error { return h.s.force() }

func (h handle[T]) Clear() error { return h.s.clear() }

// LockRead takes the read lock. The returned context marks the lock as held;
// release with UnlockRead.
func (s *Storage[T]) LockRead(ctx context.Context) (context.Context, Reader[T]) {
	s.lock.mu.RLock()
	return s.lock.mark(ctx, readMode), handle[T]{s: s}
}

// UnlockRead releases the read lock.
func (s *Storage[T]) UnlockRead() {
	s.lock.mu.RUnlock()
}

// LockWrite takes the write lock; release with UnlockWrite.
func (s *Storage[T]) LockWrite(ctx context.Context) (context.Context, Writer[T]) {
	s.lock.mu.Lock()
	return s.lock.mark(ctx, writeMode), handle[T]{s: s}
}

// UnlockWrite releases the write lock.
func (s *Storage[T]) UnlockWrite() {
	s.lock.mu.Unlock()
}

// View runs fn with the read lock held. If ctx already carries the lock, fn runs without re-locking.
func (s *Storage[T]) View(ctx context.Context, fn func(ctx context.Context, r Reader[T]) error) error {
	return s.lock.View(ctx, func(ctx context.Context) error {
		return fn(ctx, handle[T]{s: s})
	})
}

// Update runs fn with the write lock held.
func (s *Storage[T]) Update(ctx context.Context, fn func(ctx context.Context, w Writer[T]) error) error {
	return s.lock.Update(ctx, func(ctx context.Context) error {
		return fn(ctx, handle[T]{s: s})
	})
}

// ReaderFor returns a read handle for a caller whose ctx carries this storage's
// lock, typically taken through another storage sharing it.
func (s *Storage[T]) ReaderFor(ctx context.Context) (Reader[T], error) {
	if !s.lock.Held(ctx) {
		return nil, fmt.Errorf("appendable: %s: %w", s.name, ErrLockNotHeld)
	}
	return handle[T]{s: s}, nil
}

// WriterFor returns a write handle for a caller whose ctx carries the write lock.
func (s *Storage[T]) WriterFor(ctx context.Context) (Writer[T], error) {
	if s.lock.mode(ctx) != writeMode {
		return nil, fmt.Errorf("appendable: %s: write %w", s.name, ErrLockNotHeld)
	}
	return handle[T]{s: s}, nil
}
