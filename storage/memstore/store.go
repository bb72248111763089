package memstore

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/viant/fwdindex/storage"
)

// Store is a simple in-memory implementation of storage.Store.
// It is intended for tests and for throwaway logs that never need to survive a restart.
type Store struct {
	mu        sync.RWMutex
	data      []byte
	stats     storage.Stats
	bytesRead atomic.Uint64
	closed    bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{}
}

// WriteAt copies p into the store at off, growing it as needed.
func (s *Store) WriteAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	if off < 0 || off > int64(len(s.data)) {
		return 0, storage.ErrGap
	}
	end := int(off) + len(p)
	if end > len(s.data) {
		s.data = append(s.data, make([]byte, end-len(s.data))...)
	}
	copy(s.data[off:end], p)
	s.stats.BytesWritten += uint64(len(p))
	return len(p), nil
}

// ReadAt copies bytes starting at off into p.
func (s *Store) ReadAt(p []byte, off int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	if off < 0 {
		return 0, storage.ErrNoData
	}
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[off:])
	s.bytesRead.Add(uint64(n))
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ByteAt returns the byte at off.
func (s *Store) ByteAt(off int64) (byte, error) {
	var b [1]byte
	if _, err := s.ReadAt(b[:], off); err != nil {
		if err == io.EOF {
			return 0, storage.ErrNoData
		}
		return 0, err
	}
	return b[0], nil
}

// Length returns the number of bytes stored.
func (s *Store) Length() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.data))
}

// Force is a no-op for in-memory store.
func (s *Store) Force() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.stats.Forces++
	return nil
}

// Clear drops all data.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.data = s.data[:0]
	return nil
}

// Close marks the store as closed. Further ops return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
	return nil
}

// Stats returns current stats snapshot.
func (s *Store) Stats() storage.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stats
	st.Length = int64(len(s.data))
	st.BytesRead = s.bytesRead.Load()
	st.Resident = 1
	return st
}

var _ storage.Store = (*Store)(nil)
