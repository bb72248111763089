//go:build windows

package mmapstore

import (
	"errors"
	"io"
	"os"
)

// On Windows regions are heap buffers loaded from the file and written back on sync.

func mapRegion(f *os.File, off, size int64) ([]byte, error) {
	region := make([]byte, size)
	if _, err := f.ReadAt(region, off); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return region, nil
}

func unmapRegion([]byte) error {
	return nil
}

func syncRegion(f *os.File, off int64, region []byte) error {
	if _, err := f.WriteAt(region, off); err != nil {
		return err
	}
	return f.Sync()
}
