package mmapstore

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/viant/fwdindex/storage"
	"github.com/viant/fwdindex/storage/filelock"
)

// Implementation notes
// - The file is a fixed header followed by the data bytes; it is mapped in
//   fixed-size regions, each its own mapping, so growing the file never moves
//   bytes a reader is looking at.
// - Logical offset off lives at file offset headerSize+off; a read or write that
//   spans two regions is split at the region boundary.
// - The committed length is kept in the header and rewritten on Force/Close.
//   Bytes past it are ignored on reopen.

const (
	headerSize     = 64
	magicWord      = 0x4D445746 // "FWDM" little-endian
	currentVersion = 1

	offMagic      = 0
	offVersion    = 4
	offRegionSize = 8
	offLength     = 16
	offStatus     = 24

	statusClosed = 0
	statusOpened = 1

	defaultRegionSize = 1 << 20
)

// MaxRegionSize bounds RegionSize; the header stores it in 32 bits.
const MaxRegionSize = 1 << 30

// Options configures the store.
type Options struct {
	// RegionSize is the size of each mapped region. It is rounded up to a
	// multiple of the OS page size and capped at MaxRegionSize. Ignored when
	// reopening an existing file.
	RegionSize int64
	// ExclusiveLock takes an advisory lock so that a second process fails to open the file.
	ExclusiveLock bool
}

func (o *Options) withDefaults() {
	if o.RegionSize <= 0 {
		o.RegionSize = defaultRegionSize
	}
	if o.RegionSize > MaxRegionSize {
		o.RegionSize = MaxRegionSize
	}
	page := int64(os.Getpagesize())
	if rem := o.RegionSize % page; rem != 0 {
		o.RegionSize += page - rem
	}
	if o.RegionSize < headerSize {
		o.RegionSize = page
	}
}

// Store implements storage.Store over a memory-mapped file.
type Store struct {
	path       string
	f          *os.File
	locked     bool
	regionSize int64

	mu      sync.RWMutex // guards regions and closed
	regions [][]byte
	closed  bool

	writeMu      sync.Mutex // serializes writers
	length       atomic.Int64
	cleanOpen    bool
	bytesWritten atomic.Uint64
	bytesRead    atomic.Uint64
	forces       atomic.Uint64
}

// Open creates or opens a memory-mapped store at path.
func Open(path string, opts Options) (*Store, error) {
	opts.withDefaults()
	if path == "" {
		return nil, fmt.Errorf("mmapstore: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mmapstore: mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("mmapstore: open: %w", err)
	}
	s := &Store{path: path, f: f, regionSize: opts.RegionSize}
	if opts.ExclusiveLock {
		if err := filelock.TryLock(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("mmapstore: %s: %w", path, err)
		}
		s.locked = true
	}
	if err := s.init(); err != nil {
		s.release()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	info, err := s.f.Stat()
	if err != nil {
		return fmt.Errorf("mmapstore: stat: %w", err)
	}
	if info.Size() < headerSize {
		if err := s.f.Truncate(s.regionSize); err != nil {
			return fmt.Errorf("mmapstore: allocate: %w", err)
		}
		if err := s.mapRegions(1); err != nil {
			return err
		}
		s.writeHeader(statusOpened)
		s.cleanOpen = true
		return nil
	}
	var header [headerSize]byte
	if _, err := s.f.ReadAt(header[:], 0); err != nil {
		return fmt.Errorf("mmapstore: read header: %w", err)
	}
	if magic := binary.LittleEndian.Uint32(header[offMagic:]); magic != magicWord {
		return fmt.Errorf("mmapstore: %s: bad magic %#x: %w", s.path, magic, storage.ErrCorrupt)
	}
	if version := binary.LittleEndian.Uint32(header[offVersion:]); version != currentVersion {
		return fmt.Errorf("mmapstore: %s: unsupported version %d", s.path, version)
	}
	s.regionSize = int64(binary.LittleEndian.Uint32(header[offRegionSize:]))
	if s.regionSize < headerSize {
		return fmt.Errorf("mmapstore: %s: bad region size %d: %w", s.path, s.regionSize, storage.ErrCorrupt)
	}
	length := int64(binary.LittleEndian.Uint64(header[offLength:]))
	s.cleanOpen = binary.LittleEndian.Uint32(header[offStatus:]) == statusClosed

	count := (info.Size() + s.regionSize - 1) / s.regionSize
	if info.Size()%s.regionSize != 0 {
		if err := s.f.Truncate(count * s.regionSize); err != nil {
			return fmt.Errorf("mmapstore: align: %w", err)
		}
	}
	if headerSize+length > count*s.regionSize {
		return fmt.Errorf("mmapstore: %s: length %d beyond file end: %w", s.path, length, storage.ErrCorrupt)
	}
	if err := s.mapRegions(int(count)); err != nil {
		return err
	}
	s.length.Store(length)
	s.writeHeader(statusOpened)
	return nil
}

// mapRegions maps regions until there are count of them. Caller holds mu or owns s exclusively.
func (s *Store) mapRegions(count int) error {
	for i := len(s.regions); i < count; i++ {
		region, err := mapRegion(s.f, int64(i)*s.regionSize, s.regionSize)
		if err != nil {
			return fmt.Errorf("mmapstore: map region %d: %w", i, err)
		}
		s.regions = append(s.regions, region)
	}
	return nil
}

func (s *Store) writeHeader(status uint32) {
	h := s.regions[0][:headerSize]
	binary.LittleEndian.PutUint32(h[offMagic:], magicWord)
	binary.LittleEndian.PutUint32(h[offVersion:], currentVersion)
	binary.LittleEndian.PutUint32(h[offRegionSize:], uint32(s.regionSize))
	binary.LittleEndian.PutUint64(h[offLength:], uint64(s.length.Load()))
	binary.LittleEndian.PutUint32(h[offStatus:], status)
}

// WasClosedProperly reports whether the file had been closed cleanly before it was opened.
func (s *Store) WasClosedProperly() bool {
	return s.cleanOpen
}

// ensureCapacity grows the file and maps new regions so that file offset end is addressable.
func (s *Store) ensureCapacity(end int64) error {
	s.mu.RLock()
	have := int64(len(s.regions)) * s.regionSize
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return storage.ErrClosed
	}
	if end <= have {
		return nil
	}
	count := (end + s.regionSize - 1) / s.regionSize
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.f.Truncate(count * s.regionSize); err != nil {
		return fmt.Errorf("mmapstore: grow: %w", err)
	}
	return s.mapRegions(int(count))
}

// copyAt copies between p and the mapped bytes at file offset pos, crossing
// region boundaries. Caller holds mu (shared is enough).
func (s *Store) copyAt(p []byte, pos int64, write bool) {
	for len(p) > 0 {
		region := s.regions[pos/s.regionSize]
		inner := pos % s.regionSize
		var n int
		if write {
			n = copy(region[inner:], p)
		} else {
			n = copy(p, region[inner:])
		}
		p = p[n:]
		pos += int64(n)
	}
}

// WriteAt copies p into the store at off.
func (s *Store) WriteAt(p []byte, off int64) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	length := s.length.Load()
	if off < 0 || off > length {
		return 0, fmt.Errorf("mmapstore: write at %d, length %d: %w", off, length, storage.ErrGap)
	}
	end := headerSize + off + int64(len(p))
	if err := s.ensureCapacity(end); err != nil {
		return 0, err
	}
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return 0, storage.ErrClosed
	}
	s.copyAt(p, headerSize+off, true)
	s.mu.RUnlock()
	if newLength := off + int64(len(p)); newLength > length {
		s.length.Store(newLength)
	}
	s.bytesWritten.Add(uint64(len(p)))
	return len(p), nil
}

// ReadAt copies stored bytes starting at off into p.
func (s *Store) ReadAt(p []byte, off int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	if off < 0 {
		return 0, storage.ErrNoData
	}
	length := s.length.Load()
	if off >= length {
		return 0, io.EOF
	}
	n := len(p)
	if available := length - off; int64(n) > available {
		n = int(available)
	}
	s.copyAt(p[:n], headerSize+off, false)
	s.bytesRead.Add(uint64(n))
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ByteAt returns the byte at off.
func (s *Store) ByteAt(off int64) (byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, storage.ErrClosed
	}
	if off < 0 || off >= s.length.Load() {
		return 0, storage.ErrNoData
	}
	pos := headerSize + off
	s.bytesRead.Add(1)
	return s.regions[pos/s.regionSize][pos%s.regionSize], nil
}

// Length returns the committed logical length.
func (s *Store) Length() int64 {
	return s.length.Load()
}

// Force records the length in the header and flushes every region to disk.
func (s *Store) Force() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storage.ErrClosed
	}
	s.forces.Add(1)
	return s.syncLocked(statusOpened)
}

func (s *Store) syncLocked(status uint32) error {
	s.writeHeader(status)
	for i, region := range s.regions {
		if err := syncRegion(s.f, int64(i)*s.regionSize, region); err != nil {
			return fmt.Errorf("mmapstore: sync region %d: %w", i, err)
		}
	}
	return nil
}

// Clear unmaps every region and truncates the file back to a single empty region.
func (s *Store) Clear() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrClosed
	}
	if err := s.unmapAll(); err != nil {
		return err
	}
	if err := s.f.Truncate(0); err != nil {
		return fmt.Errorf("mmapstore: truncate: %w", err)
	}
	if err := s.f.Truncate(s.regionSize); err != nil {
		return fmt.Errorf("mmapstore: allocate: %w", err)
	}
	if err := s.mapRegions(1); err != nil {
		return err
	}
	s.length.Store(0)
	s.writeHeader(statusOpened)
	return nil
}

func (s *Store) unmapAll() error {
	var firstErr error
	for i, region := range s.regions {
		if err := unmapRegion(region); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("mmapstore: unmap region %d: %w", i, err)
		}
	}
	s.regions = nil
	return firstErr
}

// Close flushes, marks the header closed and releases mappings and the file.
func (s *Store) Close() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	firstErr := s.syncLocked(statusClosed)
	if err := s.unmapAll(); err != nil && firstErr == nil {
		firstErr = err
	}
	s.release()
	return firstErr
}

func (s *Store) release() {
	if s.regions != nil {
		_ = s.unmapAll()
	}
	if s.locked {
		_ = filelock.Unlock(s.f)
		s.locked = false
	}
	_ = s.f.Close()
}

// Stats returns best-effort metrics.
func (s *Store) Stats() storage.Stats {
	s.mu.RLock()
	resident := len(s.regions)
	s.mu.RUnlock()
	return storage.Stats{
		Length:       s.length.Load(),
		BytesWritten: s.bytesWritten.Load(),
		BytesRead:    s.bytesRead.Load(),
		Forces:       s.forces.Load(),
		Resident:     resident,
	}
}

var _ storage.Store = (*Store)(nil)
