package fs

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
)

// Visit is called for every file that passes the filter.
type Visit func(ctx context.Context, path string, object storage.Object, data []byte) error

// WalkStats counts what a walk saw.
type WalkStats struct {
	Files   int
	Skipped int
	Bytes   int64
	Visited int
	Dirs    int
}

// Walker lists a location recursively and downloads the files that pass the filter.
type Walker struct {
	fs     Service
	filter *Filter
}

// NewWalker creates a walker; a nil service defaults to afs, a nil filter accepts everything.
func NewWalker(fs Service, filter *Filter) *Walker {
	if fs == nil {
		fs = NewAFS(nil)
	}
	if filter == nil {
		filter = NewFilter()
	}
	return &Walker{fs: fs, filter: filter}
}

// Normalize turns a relative or absolute OS path into an afs URL; URLs are returned unchanged.
func Normalize(location string) (string, error) {
	norm := location
	if url.Scheme(norm, "") == "" && url.IsRelative(norm) {
		abs, err := filepath.Abs(norm)
		if err != nil {
			return "", fmt.Errorf("fs: absolute path for %s: %w", location, err)
		}
		norm = abs
	}
	if url.Scheme(norm, "") == "" && !url.IsRelative(norm) {
		norm = url.ToFileURL(norm)
	}
	return norm, nil
}

// Walk visits every file under location.
func (w *Walker) Walk(ctx context.Context, location string, visit Visit) (WalkStats, error) {
	var stats WalkStats
	norm, err := Normalize(location)
	if err != nil {
		return stats, err
	}
	err = w.walk(ctx, norm, visit, &stats)
	return stats, err
}

func (w *Walker) walk(ctx context.Context, location string, visit Visit, stats *WalkStats) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	objects, err := w.fs.List(ctx, location)
	if err != nil {
		return fmt.Errorf("fs: list %s: %w", location, err)
	}
	stats.Dirs++
	for _, object := range objects {
		if object.IsDir() {
			// afs lists the directory itself first
			if url.Equals(object.URL(), location) || url.Path(object.URL()) == url.Path(location) {
				continue
			}
			if w.filter.Excluded(object.URL(), 0, true) {
				stats.Skipped++
				continue
			}
			if err := w.walk(ctx, url.Join(location, object.Name()), visit, stats); err != nil {
				return err
			}
			continue
		}
		stats.Files++
		if w.filter.Excluded(object.URL(), int(object.Size()), false) {
			stats.Skipped++
			continue
		}
		data, err := w.fs.Download(ctx, object)
		if err != nil {
			return fmt.Errorf("fs: download %s: %w", object.URL(), err)
		}
		stats.Visited++
		stats.Bytes += int64(len(data))
		if err := visit(ctx, url.Path(object.URL()), object, data); err != nil {
			return err
		}
	}
	return nil
}
