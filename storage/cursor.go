package storage

import (
	"errors"
	"io"
	"sync"
)

const cursorWindow = 512

var cursors = sync.Pool{New: func() any { return &Cursor{window: make([]byte, cursorWindow)} }}

// Cursor reads a store sequentially from an offset up to a limit.
//
// It pulls bytes through a small window, so a byte-at-a-time consumer crosses
// page or region boundaries without the whole page being copied. A Cursor must
// not be shared between goroutines.
type Cursor struct {
	src    io.ReaderAt
	next   int64 // store offset of window[end]
	limit  int64
	window []byte
	pos    int
	end    int
	last   int // index of the last byte returned by ReadByte, -1 if none
}

// AcquireCursor returns a pooled cursor positioned at off that never reads at or
// past limit. Release it when done.
func AcquireCursor(src io.ReaderAt, off, limit int64) *Cursor {
	c := cursors.Get().(*Cursor)
	c.src = src
	c.next = off
	c.limit = limit
	c.pos, c.end, c.last = 0, 0, -1
	return c
}

// Release returns the cursor to the pool.
func (c *Cursor) Release() {
	c.src = nil
	cursors.Put(c)
}

// Offset returns the store offset of the next byte to be read.
func (c *Cursor) Offset() int64 {
	return c.next - int64(c.end-c.pos)
}

func (c *Cursor) fill() error {
	if c.next >= c.limit {
		return io.EOF
	}
	size := int64(len(c.window))
	if remaining := c.limit - c.next; remaining < size {
		size = remaining
	}
	n, err := c.src.ReadAt(c.window[:size], c.next)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	c.next += int64(n)
	c.pos, c.end, c.last = 0, n, -1
	return nil
}

// ReadByte implements io.ByteReader.
func (c *Cursor) ReadByte() (byte, error) {
	if c.pos >= c.end {
		if err := c.fill(); err != nil {
			return 0, err
		}
	}
	b := c.window[c.pos]
	c.last = c.pos
	c.pos++
	return b, nil
}

// UnreadByte implements io.ByteScanner. Only the byte returned by the most
// recent ReadByte can be unread.
func (c *Cursor) UnreadByte() error {
	if c.last < 0 || c.last != c.pos-1 {
		return errors.New("storage: cursor: invalid UnreadByte")
	}
	c.pos--
	c.last = -1
	return nil
}

// Read implements io.Reader.
func (c *Cursor) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if c.pos >= c.end {
		if err := c.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, c.window[c.pos:c.end])
	c.pos += n
	c.last = -1
	return n, nil
}
