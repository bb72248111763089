package appendable

import "log"

const defaultBufferCapacity = 4096

// Options configures a Storage.
type Options struct {
	BufferCapacity int
	Lock           *Lock
	Name           string
	Logf           func(format string, args ...interface{})
}

func (o *Options) withDefaults() {
	if o.BufferCapacity <= 0 {
		o.BufferCapacity = defaultBufferCapacity
	}
	if o.Lock == nil {
		o.Lock = NewLock()
	}
	if o.Logf == nil {
		o.Logf = log.Printf
	}
}

// Option modifies Options.
type Option func(*Options)

// WithBufferCapacity sets the append buffer capacity in bytes.
func WithBufferCapacity(n int) Option {
	return func(o *Options) {
		o.BufferCapacity = n
	}
}

// WithLock makes the storage use a lock shared with other storages.
func WithLock(l *Lock) Option {
	return func(o *Options) {
		o.Lock = l
	}
}

// WithName sets the name used in logs and stats.
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

// WithLogf sets the logger.
func WithLogf(fn func(format string, args ...interface{})) Option {
	return func(o *Options) {
		o.Logf = fn
	}
}
