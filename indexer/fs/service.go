package fs

import (
	"context"

	"github.com/viant/afs/storage"
)

// Service abstracts listing and downloading objects so that the walker can run
// over any afs-supported location (local disk, mem://, cloud storage).
type Service interface {
	// List returns objects available at the given location/URI.
	List(ctx context.Context, location string) ([]storage.Object, error)
	// Download returns the content of the given object.
	Download(ctx context.Context, object storage.Object) ([]byte, error)
}
