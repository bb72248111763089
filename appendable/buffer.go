package appendable

// appendBuffer holds the tail of the log that has not been written to the store yet.
// It is not synchronized.
type appendBuffer struct {
	data  []byte
	pos   int
	start int64
}

func newAppendBuffer(capacity int, start int64) *appendBuffer {
	return &appendBuffer{data: make([]byte, capacity), start: start}
}

// append copies p after the current position; the caller checks remaining first.
func (b *appendBuffer) append(p []byte) {
	b.pos += copy(b.data[b.pos:], p)
}

func (b *appendBuffer) copy() *appendBuffer {
	data := make([]byte, b.pos)
	copy(data, b.data[:b.pos])
	return &appendBuffer{data: data, pos: b.pos, start: b.start}
}

// rewind returns a fresh empty buffer of the same capacity anchored at start.
func (b *appendBuffer) rewind(start int64) *appendBuffer {
	return newAppendBuffer(len(b.data), start)
}

func (b *appendBuffer) hasChanges() bool {
	return b.pos > 0
}

func (b *appendBuffer) remaining() int {
	return len(b.data) - b.pos
}

func (b *appendBuffer) bytes() []byte {
	return b.data[:b.pos]
}

func (b *appendBuffer) end() int64 {
	return b.start + int64(b.pos)
}

// contains reports whether id falls into the range covered by this buffer,
// including ids past its write position.
func (b *appendBuffer) contains(id int64) bool {
	return id >= b.start
}
