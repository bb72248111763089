package appendable

import (
	"context"
	"fmt"

	"github.com/viant/fwdindex/storage"
)

// Outcome reports how a ProcessAll scan ended.
type Outcome int

const (
	// Completed means every record up to the snapshot was visited.
	Completed Outcome = iota
	// Stopped means the processor returned false or an error ended the scan.
	Stopped
	// Cancelled means the context was done before the scan finished.
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case Stopped:
		return "stopped"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

const cancelCheckInterval = 64

// ProcessAll flushes the buffer and visits every record up to the resulting
// length, in id order. Records appended after the flush may not be visited, and
// a later scan visits earlier records again.
//
// It must not be called with a context that carries the storage lock.
func (s *Storage[T]) ProcessAll(ctx context.Context, fn func(id int64, v T) bool) (Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.lock.Held(ctx) {
		return Stopped, fmt.Errorf("appendable: %s: process all: %w", s.name, ErrLockHeld)
	}
	limit, err := s.snapshot()
	if err != nil {
		return Stopped, err
	}
	return s.scan(ctx, limit, fn)
}

func (s *Storage[T]) snapshot() (int64, error) {
	s.lock.mu.Lock()
	defer s.lock.mu.Unlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	if err := s.flush(); err != nil {
		return 0, err
	}
	return s.fileLength, nil
}

// scan decodes records from the store without holding the lock; flushed bytes are immutable.
func (s *Storage[T]) scan(ctx context.Context, limit int64, fn func(id int64, v T) bool) (Outcome, error) {
	cursor := storage.AcquireCursor(s.store, 0, limit)
	defer cursor.Release()
	for visited := 0; cursor.Offset() < limit; visited++ {
		if visited%cancelCheckInterval == 0 && ctx.Err() != nil {
			s.logf("appendable: %s: scan cancelled at %d of %d", s.name, cursor.Offset(), limit)
			return Cancelled, nil
		}
		id := cursor.Offset()
		v, err := s.codec.Decode(cursor)
		if err != nil {
			return Stopped, s.corrupt(id, err)
		}
		s.storeReads.Add(1)
		if !fn(id, v) {
			return Stopped, nil
		}
	}
	return Completed, nil
}
