package appendable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendBuffer(t *testing.T) {
	b := newAppendBuffer(8, 100)
	assert.False(t, b.hasChanges())
	assert.Equal(t, 8, b.remaining())

	b.append([]byte("abc"))
	assert.True(t, b.hasChanges())
	assert.Equal(t, 5, b.remaining())
	assert.Equal(t, int64(103), b.end())
	assert.True(t, b.contains(100))
	assert.False(t, b.contains(99))

	snapshot := b.copy()
	b.append([]byte("de"))
	assert.Equal(t, "abc", string(snapshot.bytes()))
	assert.Equal(t, "abcde", string(b.bytes()))

	next := b.rewind(105)
	assert.False(t, next.hasChanges())
	assert.Equal(t, int64(105), next.start)
	assert.Equal(t, 8, next.remaining())
	// the old buffer is left untouched for anyone still reading it
	assert.Equal(t, "abcde", string(b.bytes()))
}

func TestLock_Markers(t *testing.T) {
	l := NewLock()
	other := NewLock()
	err := l.View(context.Background(), func(ctx context.Context) error {
		assert.True(t, l.Held(ctx))
		assert.False(t, other.Held(ctx))
		assert.ErrorIs(t, l.Update(ctx, func(context.Context) error { return nil }), ErrLockHeld)
		// nested View under the same lock does not re-acquire it
		return l.View(ctx, func(context.Context) error { return nil })
	})
	assert.NoError(t, err)

	err = l.Update(context.Background(), func(ctx context.Context) error {
		return l.Update(ctx, func(ctx context.Context) error {
			assert.Equal(t, writeMode, l.mode(ctx))
			return nil
		})
	})
	assert.NoError(t, err)
}
