//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly || solaris || aix

package mmapstore

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapRegion maps size bytes of f starting at off, shared and writable.
func mapRegion(f *os.File, off, size int64) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), off, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func unmapRegion(region []byte) error {
	return unix.Munmap(region)
}

// syncRegion flushes dirty pages of the mapping back to the file.
func syncRegion(_ *os.File, _ int64, region []byte) error {
	return unix.Msync(region, unix.MS_SYNC)
}
