package mmapstore

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/viant/fwdindex/storage"
	"github.com/viant/fwdindex/storage/filelock"
)

func openTemp(t *testing.T, opts Options) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.fwdm")
	s, err := Open(path, opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s, path
}

func TestStore_WriteRead(t *testing.T) {
	s, _ := openTemp(t, Options{})
	defer s.Close()

	data := []byte("hello world")
	if _, err := s.WriteAt(data, 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if s.Length() != int64(len(data)) {
		t.Fatalf("length = %d, want %d", s.Length(), len(data))
	}
	got := make([]byte, len(data))
	if _, err := s.ReadAt(got, 0); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want %q", got, data)
	}
	b, err := s.ByteAt(6)
	if err != nil || b != 'w' {
		t.Fatalf("byteAt: %v, got %q", err, b)
	}
	if _, err := s.ByteAt(int64(len(data))); !errors.Is(err, storage.ErrNoData) {
		t.Fatalf("byteAt past end: %v", err)
	}
}

func TestStore_WriteGap(t *testing.T) {
	s, _ := openTemp(t, Options{})
	defer s.Close()
	if _, err := s.WriteAt([]byte("x"), 5); !errors.Is(err, storage.ErrGap) {
		t.Fatalf("expected ErrGap, got %v", err)
	}
}

func TestStore_GrowAcrossRegions(t *testing.T) {
	page := os.Getpagesize()
	s, path := openTemp(t, Options{RegionSize: int64(page)})

	payload := make([]byte, page*3+123)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	// write in uneven chunks so some straddle a region boundary
	var off int64
	for _, n := range []int{100, page, 7, page*2 + 16} {
		if _, err := s.WriteAt(payload[off:off+int64(n)], off); err != nil {
			t.Fatalf("write at %d: %v", off, err)
		}
		off += int64(n)
	}
	if s.Length() != int64(len(payload)) {
		t.Fatalf("length = %d, want %d", s.Length(), len(payload))
	}
	if s.Stats().Resident < 4 {
		t.Fatalf("expected at least 4 regions, got %d", s.Stats().Resident)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// reopening ignores the requested region size in favour of the header
	s2, err := Open(path, Options{RegionSize: 8 << 20})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if !s2.WasClosedProperly() {
		t.Fatalf("expected clean close")
	}
	got := make([]byte, len(payload))
	if _, err := s2.ReadAt(got, 0); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload mismatch after reopen")
	}
}

func TestStore_ForceWithoutClose(t *testing.T) {
	s, path := openTemp(t, Options{})
	if _, err := s.WriteAt([]byte("first"), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Force(); err != nil {
		t.Fatalf("force: %v", err)
	}
	// bytes written after the last Force are not part of the committed length
	if _, err := s.WriteAt([]byte("second"), 5); err != nil {
		t.Fatalf("write: %v", err)
	}
	s.mu.Lock()
	_ = s.unmapAll()
	s.closed = true
	s.mu.Unlock()
	_ = s.f.Close()

	s2, err := Open(path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if s2.WasClosedProperly() {
		t.Fatalf("expected unclean close to be detected")
	}
	if s2.Length() != 5 {
		t.Fatalf("length = %d, want 5", s2.Length())
	}
	if s.Stats().Forces != 1 {
		t.Fatalf("forces = %d, want 1", s.Stats().Forces)
	}
}

func TestStore_Clear(t *testing.T) {
	s, _ := openTemp(t, Options{RegionSize: int64(os.Getpagesize())})
	defer s.Close()
	if _, err := s.WriteAt(make([]byte, os.Getpagesize()*2), 0); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if s.Length() != 0 {
		t.Fatalf("length after clear = %d", s.Length())
	}
	if _, err := s.ReadAt(make([]byte, 1), 0); err != io.EOF {
		t.Fatalf("expected EOF after clear, got %v", err)
	}
	if _, err := s.WriteAt([]byte("again"), 0); err != nil {
		t.Fatalf("write after clear: %v", err)
	}
}

func TestStore_CloseIdempotent(t *testing.T) {
	s, _ := openTemp(t, Options{})
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := s.WriteAt([]byte("x"), 0); !errors.Is(err, storage.ErrClosed) {
		t.Fatalf("write after close: %v", err)
	}
}

func TestStore_ExclusiveLock(t *testing.T) {
	s, path := openTemp(t, Options{ExclusiveLock: true})
	defer s.Close()
	if _, err := Open(path, Options{ExclusiveLock: true}); !errors.Is(err, filelock.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestStore_BadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xAB}, headerSize*2), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, Options{}); !errors.Is(err, storage.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestOptions_RegionSizeBounds(t *testing.T) {
	page := int64(os.Getpagesize())
	cases := []struct {
		in, want int64
	}{
		{0, defaultRegionSize},
		{1, page},
		{page + 1, 2 * page},
		{4 << 30, MaxRegionSize},
		{MaxRegionSize + 1, MaxRegionSize},
	}
	for _, c := range cases {
		opts := Options{RegionSize: c.in}
		opts.withDefaults()
		if opts.RegionSize != c.want {
			t.Fatalf("region size %d: got %d, want %d", c.in, opts.RegionSize, c.want)
		}
		if opts.RegionSize > int64(^uint32(0)) {
			t.Fatalf("region size %d does not fit the header", opts.RegionSize)
		}
	}
}
