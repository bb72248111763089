package appendable

import (
	"context"
	"fmt"
	"math"

	"github.com/viant/fwdindex/storage"
	"golang.org/x/exp/constraints"
)

// Inlined is an ObjectStorage for values with a bijective mapping to int32.
// Nothing is stored: the id is the value.
type Inlined[T any] struct {
	toID   func(T) int32
	fromID func(int32) T
	fits   func(T) bool // nil accepts every value
}

// NewInlined creates an inlined storage from a value/id bijection.
func NewInlined[T any](toID func(T) int32, fromID func(int32) T) *Inlined[T] {
	return &Inlined[T]{toID: toID, fromID: fromID}
}

// NewIntInlined creates an inlined storage for integer values. Append rejects
// values that do not survive a round trip through int32.
func NewIntInlined[T constraints.Integer]() *Inlined[T] {
	s := NewInlined(func(v T) int32 { return int32(v) }, func(id int32) T { return T(id) })
	s.fits = func(v T) bool { return T(int32(v)) == v }
	return s
}

func (s *Inlined[T]) Append(v T) (int64, error) {
	if s.fits != nil && !s.fits(v) {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, v)
	}
	return int64(s.toID(v)), nil
}

func (s *Inlined[T]) Read(id int64) (T, error) {
	if id < math.MinInt32 || id > math.MaxInt32 {
		var zero T
		return zero, fmt.Errorf("appendable: inlined id %d: %w", id, storage.ErrNoData)
	}
	return s.fromID(int32(id)), nil
}

// CheckBytesAreTheSame is always false; there are no bytes to compare.
func (s *Inlined[T]) CheckBytesAreTheSame(int64, T) (bool, error) {
	return false, nil
}

func (s *Inlined[T]) ProcessAll(context.Context, func(id int64, v T) bool) (Outcome, error) {
	return Stopped, ErrUnsupported
}

func (s *Inlined[T]) CurrentLength() int64 { return 0 }

func (s *Inlined[T]) View(context.Context, func(ctx context.Context, r Reader[T]) error) error {
	return ErrUnsupported
}

func (s *Inlined[T]) Update(context.Context, func(ctx context.Context, w Writer[T]) error) error {
	return ErrUnsupported
}

func (s *Inlined[T]) Clear() error { return nil }

func (s *Inlined[T]) Force() error { return nil }

func (s *Inlined[T]) Close() error { return nil }

var _ ObjectStorage[int32] = (*Inlined[int32])(nil)
