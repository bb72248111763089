package cache

import (
	"io"

	"github.com/minio/highwayhash"
)

var key = []byte("0123456789ABCDEF0123456789ABCDEF")

// Hash returns the highwayhash-64 fingerprint of data.
func Hash(data []byte) (uint64, error) {
	h, err := highwayhash.New64(key)
	if err != nil {
		return 0, err
	}
	if _, err = h.Write(data); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// HashReader fingerprints a stream without holding it in memory.
func HashReader(r io.Reader) (uint64, int64, error) {
	h, err := highwayhash.New64(key)
	if err != nil {
		return 0, 0, err
	}
	n, err := io.Copy(h, r)
	if err != nil {
		return 0, n, err
	}
	return h.Sum64(), n, nil
}
