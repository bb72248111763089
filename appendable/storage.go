package appendable

import (
	"bytes"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/viant/fwdindex/storage"
)

// Storage is an append-only log of T records over a storage.Store.
//
// Top-level methods take the lock themselves. Inside View or Update use the
// Reader or Writer handle instead; calling a top-level method there deadlocks.
type Storage[T any] struct {
	name     string
	store    storage.Store
	codec    Codec[T]
	lock     *Lock
	capacity int
	logf     func(format string, args ...interface{})

	// guarded by lock
	fileLength int64
	buffer     *appendBuffer
	scratch    bytes.Buffer
	closed     bool

	appends      atomic.Uint64
	flushes      atomic.Uint64
	directWrites atomic.Uint64
	bufferReads  atomic.Uint64
	storeReads   atomic.Uint64
	checks       atomic.Uint64
}

// New creates a storage appending to store. The log starts at store.Length().
func New[T any](store storage.Store, codec Codec[T], opts ...Option) (*Storage[T], error) {
	if store == nil {
		return nil, fmt.Errorf("appendable: store is required")
	}
	if codec == nil {
		return nil, fmt.Errorf("appendable: codec is required")
	}
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	options.withDefaults()
	return &Storage[T]{
		name:       options.Name,
		store:      store,
		codec:      codec,
		lock:       options.Lock,
		capacity:   options.BufferCapacity,
		logf:       options.Logf,
		fileLength: store.Length(),
	}, nil
}

// Name returns the storage name.
func (s *Storage[T]) Name() string {
	return s.name
}

// Lock returns the lock guarding this storage.
func (s *Storage[T]) Lock() *Lock {
	return s.lock
}

// Append encodes v and adds it to the log, returning its id.
func (s *Storage[T]) Append(v T) (int64, error) {
	s.lock.mu.Lock()
	defer s.lock.mu.Unlock()
	return s.append(v)
}

// Read decodes the record stored at id.
func (s *Storage[T]) Read(id int64) (T, error) {
	s.lock.mu.RLock()
	defer s.lock.mu.RUnlock()
	return s.read(id)
}

// CheckBytesAreTheSame reports whether the record at id is byte-identical to the encoding of v.
func (s *Storage[T]) CheckBytesAreTheSame(id int64, v T) (bool, error) {
	s.lock.mu.RLock()
	defer s.lock.mu.RUnlock()
	return s.checkBytesAreTheSame(id, v)
}

// CurrentLength returns the logical end of the log, flushed or not.
func (s *Storage[T]) CurrentLength() int64 {
	s.lock.mu.RLock()
	defer s.lock.mu.RUnlock()
	return s.currentLength()
}

// Force flushes the append buffer and makes the store durable.
func (s *Storage[T]) Force() error {
	s.lock.mu.Lock()
	defer s.lock.mu.Unlock()
	return s.force()
}

// Clear drops every record. Ids returned before become invalid.
func (s *Storage[T]) Clear() error {
	s.lock.mu.Lock()
	defer s.lock.mu.Unlock()
	return s.clear()
}

// Close forces and closes the store. It is safe to call more than once.
func (s *Storage[T]) Close() error {
	s.lock.mu.Lock()
	defer s.lock.mu.Unlock()
	if s.closed {
		return nil
	}
	err := s.force()
	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("appendable: %s: close: %w", s.name, cerr)
	}
	s.closed = true
	s.buffer = nil
	return err
}

func (s *Storage[T]) currentLength() int64 {
	if s.buffer != nil {
		return s.buffer.end()
	}
	return s.fileLength
}

func (s *Storage[T]) append(v T) (int64, error) {
	if s.closed {
		return 0, storage.ErrClosed
	}
	s.scratch.Reset()
	if err := s.codec.Encode(&s.scratch, v); err != nil {
		return 0, fmt.Errorf("appendable: %s: encode: %w", s.name, err)
	}
	encoded := s.scratch.Bytes()
	size := len(encoded)
	if size == 0 {
		return 0, ErrEmptyRecord
	}
	id := s.currentLength()
	if size > s.capacity {
		if err := s.flush(); err != nil {
			return 0, err
		}
		if _, err := s.store.WriteAt(encoded, s.fileLength); err != nil {
			return 0, fmt.Errorf("appendable: %s: write at %d: %w", s.name, s.fileLength, err)
		}
		s.fileLength += int64(size)
		if s.buffer != nil {
			s.buffer = s.buffer.rewind(s.fileLength)
		}
		s.directWrites.Add(1)
		s.appends.Add(1)
		return id, nil
	}
	if s.buffer == nil {
		s.buffer = newAppendBuffer(s.capacity, s.fileLength)
	} else if s.buffer.remaining() < size {
		if err := s.flush(); err != nil {
			return 0, err
		}
	}
	s.buffer.append(encoded)
	s.appends.Add(1)
	return id, nil
}

// flush writes pending buffer bytes to the store and rewinds the buffer.
func (s *Storage[T]) flush() error {
	b := s.buffer
	if b == nil || !b.hasChanges() {
		return nil
	}
	if _, err := s.store.WriteAt(b.bytes(), s.fileLength); err != nil {
		return fmt.Errorf("appendable: %s: flush at %d: %w", s.name, s.fileLength, err)
	}
	s.fileLength += int64(b.pos)
	s.buffer = b.rewind(s.fileLength)
	s.flushes.Add(1)
	return nil
}

func (s *Storage[T]) force() error {
	if s.closed {
		return storage.ErrClosed
	}
	if err := s.flush(); err != nil {
		return err
	}
	if err := s.store.Force(); err != nil {
		return fmt.Errorf("appendable: %s: force: %w", s.name, err)
	}
	return nil
}

func (s *Storage[T]) clear() error {
	if s.closed {
		return storage.ErrClosed
	}
	s.buffer = nil
	s.fileLength = 0
	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("appendable: %s: clear: %w", s.name, err)
	}
	return nil
}

func (s *Storage[T]) read(id int64) (T, error) {
	var zero T
	if s.closed {
		return zero, storage.ErrClosed
	}
	if id < 0 {
		return zero, s.noData(id)
	}
	if b := s.buffer; b != nil && b.contains(id) {
		if id >= b.end() {
			return zero, s.noData(id)
		}
		snapshot := b.copy()
		s.bufferReads.Add(1)
		v, err := s.codec.Decode(bytes.NewReader(snapshot.data[id-snapshot.start:]))
		if err != nil {
			return zero, s.corrupt(id, err)
		}
		return v, nil
	}
	if id >= s.fileLength {
		return zero, s.noData(id)
	}
	cursor := storage.AcquireCursor(s.store, id, s.fileLength)
	defer cursor.Release()
	s.storeReads.Add(1)
	v, err := s.codec.Decode(cursor)
	if err != nil {
		return zero, s.corrupt(id, err)
	}
	return v, nil
}

func (s *Storage[T]) checkBytesAreTheSame(id int64, v T) (bool, error) {
	if s.closed {
		return false, storage.ErrClosed
	}
	if id < 0 {
		return false, s.noData(id)
	}
	s.checks.Add(1)
	var source io.ByteReader
	if b := s.buffer; b != nil && b.contains(id) {
		if id >= b.end() {
			return false, s.noData(id)
		}
		source = bytes.NewReader(b.data[id-b.start : b.pos])
	} else {
		if id >= s.fileLength {
			return false, s.noData(id)
		}
		cursor := storage.AcquireCursor(s.store, id, s.fileLength)
		defer cursor.Release()
		source = cursor
	}
	same, size, err := compare(source, s.codec, v)
	if !same || err != nil {
		return same, err
	}
	if _, ok := s.codec.(PrefixFree); ok {
		return true, nil
	}
	end, err := s.recordEnd(id)
	if err != nil {
		return false, err
	}
	return end == id+size, nil
}

// recordEnd decodes the record at id and returns the offset just past it.
func (s *Storage[T]) recordEnd(id int64) (int64, error) {
	if b := s.buffer; b != nil && b.contains(id) {
		data := b.data[id-b.start : b.pos]
		reader := bytes.NewReader(data)
		if _, err := s.codec.Decode(reader); err != nil {
			return 0, s.corrupt(id, err)
		}
		return id + int64(len(data)-reader.Len()), nil
	}
	cursor := storage.AcquireCursor(s.store, id, s.fileLength)
	defer cursor.Release()
	if _, err := s.codec.Decode(cursor); err != nil {
		return 0, s.corrupt(id, err)
	}
	return cursor.Offset(), nil
}

func (s *Storage[T]) noData(id int64) error {
	return fmt.Errorf("appendable: %s: id %d: %w", s.name, id, storage.ErrNoData)
}

func (s *Storage[T]) corrupt(id int64, err error) error {
	return fmt.Errorf("appendable: %s: decode at %d: %w: %w", s.name, id, storage.ErrCorrupt, err)
}

// Stats describes a storage.
type Stats struct {
	Name          string        `json:"name"`
	CurrentLength int64         `json:"currentLength"`
	Appends       uint64        `json:"appends"`
	Flushes       uint64        `json:"flushes"`
	DirectWrites  uint64        `json:"directWrites"`
	BufferReads   uint64        `json:"bufferReads"`
	StoreReads    uint64        `json:"storeReads"`
	Checks        uint64        `json:"checks"`
	Store         storage.Stats `json:"store"`
}

// Stats returns a snapshot of counters.
func (s *Storage[T]) Stats() Stats {
	s.lock.mu.RLock()
	length := s.currentLength()
	closed := s.closed
	s.lock.mu.RUnlock()
	stats := Stats{
		Name:          s.name,
		CurrentLength: length,
		Appends:       s.appends.Load(),
		Flushes:       s.flushes.Load(),
		DirectWrites:  s.directWrites.Load(),
		BufferReads:   s.bufferReads.Load(),
		StoreReads:    s.storeReads.Load(),
		Checks:        s.checks.Load(),
	}
	if !closed {
		stats.Store = s.store.Stats()
	}
	return stats
}

var _ ObjectStorage[string] = (*Storage[string])(nil)
