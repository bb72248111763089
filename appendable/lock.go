package appendable

import (
	"context"
	"sync"
)

type lockMode int

const (
	readMode lockMode = iota + 1
	writeMode
)

type heldKey struct{ l *Lock }

// Lock is a read-write lock that can be shared by several storages.
//
// It is not reentrant. Contexts returned by the locking helpers carry a marker
// so that operations which must take the lock themselves can refuse to run
// under it instead of deadlocking.
type Lock struct {
	mu sync.RWMutex
}

// NewLock creates a lock.
func NewLock() *Lock {
	return &Lock{}
}

func (l *Lock) mark(ctx context.Context, mode lockMode) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, heldKey{l: l}, mode)
}

func (l *Lock) mode(ctx context.Context) lockMode {
	if ctx == nil {
		return 0
	}
	mode, _ := ctx.Value(heldKey{l: l}).(lockMode)
	return mode
}

// Held reports whether ctx was produced while holding l.
func (l *Lock) Held(ctx context.Context) bool {
	return l.mode(ctx) != 0
}

// View runs fn with the read lock held.
func (l *Lock) View(ctx context.Context, fn func(ctx context.Context) error) error {
	if l.Held(ctx) {
		return fn(ctx)
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(l.mark(ctx, readMode))
}

// Update runs fn with the write lock held.
func (l *Lock) Update(ctx context.Context, fn func(ctx context.Context) error) error {
	switch l.mode(ctx) {
	case writeMode:
		return fn(ctx)
	case readMode:
		return ErrLockHeld
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.mark(ctx, writeMode))
}
