package mmapstore

import (
	"math/rand"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func BenchmarkWriteAt_Sizes(b *testing.B) {
	sizes := []int{256, 1024, 4096, 16384}
	for _, sz := range sizes {
		b.Run("size_"+strconv.Itoa(sz), func(b *testing.B) {
			s, err := Open(filepath.Join(b.TempDir(), "bench.fwdm"), Options{RegionSize: 64 << 20})
			if err != nil {
				b.Fatalf("open: %v", err)
			}
			defer s.Close()
			payload := make([]byte, sz)
			rand.Read(payload)

			b.SetBytes(int64(sz))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := s.WriteAt(payload, s.Length()); err != nil {
					b.Fatalf("write: %v", err)
				}
			}
			b.StopTimer()
		})
	}
}

func BenchmarkReadAt_Parallel(b *testing.B) {
	s, err := Open(filepath.Join(b.TempDir(), "bench.fwdm"), Options{RegionSize: 64 << 20})
	if err != nil {
		b.Fatalf("open: %v", err)
	}
	defer s.Close()

	const recs = 10000
	payload := make([]byte, 1024)
	rand.Read(payload)
	for i := 0; i < recs; i++ {
		if _, err := s.WriteAt(payload, s.Length()); err != nil {
			b.Fatalf("write: %v", err)
		}
	}
	_ = s.Force()

	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		buf := make([]byte, len(payload))
		for pb.Next() {
			off := int64(rng.Intn(recs)) * int64(len(payload))
			if _, err := s.ReadAt(buf, off); err != nil {
				b.Fatalf("read: %v", err)
			}
		}
	})
}
