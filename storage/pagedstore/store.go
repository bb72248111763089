// Package pagedstore implements storage.Store over a regular file read through
// a bounded, shareable LRU page cache.
package pagedstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/viant/fwdindex/storage"
	"github.com/viant/fwdindex/storage/filelock"
)

// Options configures the store.
type Options struct {
	// Cache is the page cache to use. A private cache with default sizing is created when nil.
	Cache *PageCache
	// ExclusiveLock takes an advisory lock so that a second process fails to open the file.
	ExclusiveLock bool
}

// Store is a file-backed store. Writes go straight to the file and update any
// cached page; reads are served from the cache, loading pages on miss.
type Store struct {
	path   string
	f      *os.File
	cache  *PageCache
	id     uint64
	locked bool

	ioMu   sync.Mutex // serializes writes, page loads and truncation
	length atomic.Int64
	closed atomic.Bool

	bytesWritten atomic.Uint64
	bytesRead    atomic.Uint64
	forces       atomic.Uint64
	hits         atomic.Uint64
	misses       atomic.Uint64
}

// Open creates or opens the file at path.
func Open(path string, opts Options) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("pagedstore: path is required")
	}
	cache := opts.Cache
	if cache == nil {
		var err error
		if cache, err = NewPageCache(DefaultPages, DefaultPageSize); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("pagedstore: mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pagedstore: open: %w", err)
	}
	s := &Store{path: path, f: f, cache: cache, id: cache.register()}
	if opts.ExclusiveLock {
		if err := filelock.TryLock(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("pagedstore: %s: %w", path, err)
		}
		s.locked = true
	}
	info, err := f.Stat()
	if err != nil {
		s.release()
		return nil, fmt.Errorf("pagedstore: stat: %w", err)
	}
	s.length.Store(info.Size())
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// WriteAt writes p to the file at off and refreshes cached pages it touches.
func (s *Store) WriteAt(p []byte, off int64) (int, error) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	if s.closed.Load() {
		return 0, storage.ErrClosed
	}
	length := s.length.Load()
	if off < 0 || off > length {
		return 0, fmt.Errorf("pagedstore: write at %d, length %d: %w", off, length, storage.ErrGap)
	}
	n, err := s.f.WriteAt(p, off)
	if err != nil {
		return n, fmt.Errorf("pagedstore: write: %w", err)
	}
	s.refresh(p, off)
	if end := off + int64(n); end > length {
		s.length.Store(end)
	}
	s.bytesWritten.Add(uint64(n))
	return n, nil
}

// refresh copies freshly written bytes into pages already resident. Caller holds ioMu.
func (s *Store) refresh(p []byte, off int64) {
	size := s.cache.pageSize
	for len(p) > 0 {
		index := off / size
		inner := off % size
		n := int(size - inner)
		if n > len(p) {
			n = len(p)
		}
		if pg, ok := s.cache.pages.Peek(pageKey{store: s.id, index: index}); ok {
			pg.mu.Lock()
			if end := int(inner) + n; end > len(pg.data) {
				pg.data = pg.data[:end]
			}
			copy(pg.data[inner:], p[:n])
			pg.mu.Unlock()
		}
		p = p[n:]
		off += int64(n)
	}
}

func (s *Store) page(index int64) (*page, error) {
	key := pageKey{store: s.id, index: index}
	if pg, ok := s.cache.pages.Get(key); ok {
		s.hits.Add(1)
		return pg, nil
	}
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	if pg, ok := s.cache.pages.Peek(key); ok {
		s.hits.Add(1)
		return pg, nil
	}
	if s.closed.Load() {
		return nil, storage.ErrClosed
	}
	s.misses.Add(1)
	buf := make([]byte, s.cache.pageSize)
	n, err := s.f.ReadAt(buf, index*s.cache.pageSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("pagedstore: load page %d: %w", index, err)
	}
	pg := &page{data: buf[:n]}
	s.cache.pages.Add(key, pg)
	return pg, nil
}

// ReadAt copies stored bytes starting at off into p.
func (s *Store) ReadAt(p []byte, off int64) (int, error) {
	if s.closed.Load() {
		return 0, storage.ErrClosed
	}
	if off < 0 {
		return 0, storage.ErrNoData
	}
	length := s.length.Load()
	if off >= length {
		return 0, io.EOF
	}
	want := len(p)
	if available := length - off; int64(want) > available {
		want = int(available)
	}
	size := s.cache.pageSize
	read := 0
	for read < want {
		pg, err := s.page(off / size)
		if err != nil {
			return read, err
		}
		inner := int(off % size)
		pg.mu.RLock()
		var n int
		if inner < len(pg.data) {
			n = copy(p[read:want], pg.data[inner:])
		}
		pg.mu.RUnlock()
		if n == 0 {
			// the file was truncated underneath us
			return read, io.ErrUnexpectedEOF
		}
		read += n
		off += int64(n)
	}
	s.bytesRead.Add(uint64(read))
	if read < len(p) {
		return read, io.EOF
	}
	return read, nil
}

// ByteAt returns the byte at off.
func (s *Store) ByteAt(off int64) (byte, error) {
	var b [1]byte
	if _, err := s.ReadAt(b[:], off); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, storage.ErrNoData
		}
		return 0, err
	}
	return b[0], nil
}

// Length returns the file size.
func (s *Store) Length() int64 {
	return s.length.Load()
}

// Force fsyncs the file.
func (s *Store) Force() error {
	if s.closed.Load() {
		return storage.ErrClosed
	}
	s.forces.Add(1)
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("pagedstore: sync: %w", err)
	}
	return nil
}

// Clear drops cached pages and truncates the file.
func (s *Store) Clear() error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	if s.closed.Load() {
		return storage.ErrClosed
	}
	s.cache.drop(s.id)
	if err := s.f.Truncate(0); err != nil {
		return fmt.Errorf("pagedstore: truncate: %w", err)
	}
	s.length.Store(0)
	return nil
}

// Close syncs and closes the file. It is safe to call more than once.
func (s *Store) Close() error {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	if s.closed.Swap(true) {
		return nil
	}
	s.cache.drop(s.id)
	err := s.f.Sync()
	s.release()
	if err != nil {
		return fmt.Errorf("pagedstore: sync: %w", err)
	}
	return nil
}

func (s *Store) release() {
	if s.locked {
		_ = filelock.Unlock(s.f)
		s.locked = false
	}
	_ = s.f.Close()
}

// Stats returns best-effort metrics.
func (s *Store) Stats() storage.Stats {
	return storage.Stats{
		Length:       s.length.Load(),
		BytesWritten: s.bytesWritten.Load(),
		BytesRead:    s.bytesRead.Load(),
		Forces:       s.forces.Load(),
		Resident:     s.cache.resident(s.id),
		Hits:         s.hits.Load(),
		Misses:       s.misses.Load(),
	}
}

var _ storage.Store = (*Store)(nil)
