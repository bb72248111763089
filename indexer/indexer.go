// Package indexer builds forward word indices for a tree of files and stores
// them in appendable storages.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"
	"github.com/viant/afs/url"
	"github.com/viant/fwdindex/appendable"
	"github.com/viant/fwdindex/forward"
	"github.com/viant/fwdindex/indexer/cache"
	"github.com/viant/fwdindex/indexer/fs"
	"github.com/viant/fwdindex/keymap"
	fwdstorage "github.com/viant/fwdindex/storage"
)

// ErrNotIndexed is returned by Lookup for a path with no record.
var ErrNotIndexed = errors.New("indexer: path not indexed")

// Stats summarizes one Index run.
type Stats struct {
	Files     int   `json:"files"`
	Skipped   int   `json:"skipped"`
	Bytes     int64 `json:"bytes"`
	Indexed   int   `json:"indexed"`
	Unchanged int   `json:"unchanged"`
	Reused    int   `json:"reused"`
	Stale     int   `json:"stale"`
	Removed   int   `json:"removed"`
}

// Indexer scans files into forward.Map entries. Entries and FileInfo records
// live in two storages sharing one lock; the key map points from a file path
// to its latest FileInfo.
type Indexer struct {
	entries      *appendable.Storage[forward.Map]
	infos        *appendable.Storage[FileInfo]
	keys         keymap.KeyMap
	fingerprints *cache.Map[string, Fingerprint]
	fs           fs.Service
	filter       *fs.Filter
	assets       afs.Service
	scanner      WordScanner
	logf         func(format string, args ...interface{})
}

// New creates an indexer. entries and infos must share a lock.
func New(entries *appendable.Storage[forward.Map], infos *appendable.Storage[FileInfo], keys keymap.KeyMap, opts ...Option) (*Indexer, error) {
	if entries == nil || infos == nil || keys == nil {
		return nil, fmt.Errorf("indexer: entries, infos and keys are required")
	}
	if entries.Lock() != infos.Lock() {
		return nil, fmt.Errorf("indexer: entries and infos must share a lock")
	}
	i := &Indexer{
		entries:      entries,
		infos:        infos,
		keys:         keys,
		fingerprints: cache.NewMap[string, Fingerprint](),
		assets:       afs.New(),
		logf:         log.Printf,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.fs == nil {
		i.fs = fs.NewAFS(i.assets)
	}
	return i, nil
}

// Index walks location and records every changed file.
func (i *Indexer) Index(ctx context.Context, location string) (Stats, error) {
	var stats Stats
	seen := make(map[string]bool)
	walker := fs.NewWalker(i.fs, i.filter)
	walked, err := walker.Walk(ctx, location, func(ctx context.Context, path string, _ storage.Object, data []byte) error {
		seen[path] = true
		return i.indexFile(ctx, path, data, &stats)
	})
	stats.Files, stats.Skipped, stats.Bytes = walked.Files, walked.Skipped, walked.Bytes
	if err != nil {
		return stats, err
	}
	root, err := fs.Normalize(location)
	if err != nil {
		return stats, err
	}
	removed, err := i.forgetMissing(ctx, url.Path(root), seen)
	stats.Removed = removed
	return stats, err
}

func (i *Indexer) indexFile(ctx context.Context, path string, data []byte, stats *Stats) error {
	hash, err := cache.Hash(data)
	if err != nil {
		return fmt.Errorf("indexer: fingerprint %s: %w", path, err)
	}
	size := int64(len(data))
	if fp, ok := i.fingerprints.Get(path); ok && fp.Hash == hash && fp.Size == size {
		fresh, err := i.verify(ctx, path, fp)
		if err != nil {
			return err
		}
		if fresh {
			stats.Unchanged++
			return nil
		}
		i.logf("indexer: warning: cached fingerprint of %s does not match stored record, re-indexing", path)
		stats.Stale++
	}

	entry := i.scanner.Scan(data)
	var infoID int64
	reused := false
	err = i.entries.Update(ctx, func(ctx context.Context, w appendable.Writer[forward.Map]) error {
		infoW, err := i.infos.WriterFor(ctx)
		if err != nil {
			return err
		}
		entryID := int64(-1)
		if prev, ok, err := i.previous(ctx, infoW, path); err != nil {
			return err
		} else if ok {
			same, err := w.CheckBytesAreTheSame(prev.EntryID, entry)
			if err != nil && !errors.Is(err, fwdstorage.ErrNoData) {
				return err
			}
			if same {
				entryID, reused = prev.EntryID, true
			}
		}
		if entryID < 0 {
			if entryID, err = w.Append(entry); err != nil {
				return err
			}
		}
		info := FileInfo{Path: path, Size: size, Fingerprint: hash, EntryID: entryID, Words: len(entry), IndexedAt: time.Now()}
		if infoID, err = infoW.Append(info); err != nil {
			return err
		}
		return i.keys.Put(ctx, path, infoID)
	})
	if err != nil {
		return fmt.Errorf("indexer: %s: %w", path, err)
	}
	i.fingerprints.Set(path, Fingerprint{Size: size, Hash: hash, InfoID: infoID})
	stats.Indexed++
	if reused {
		stats.Reused++
	}
	return nil
}

// previous returns the FileInfo the key map points at, ignoring ids invalidated by a clear.
func (i *Indexer) previous(ctx context.Context, r appendable.Reader[FileInfo], path string) (FileInfo, bool, error) {
	id, ok, err := i.keys.Get(ctx, path)
	if err != nil || !ok {
		return FileInfo{}, false, err
	}
	info, err := r.Read(id)
	if errors.Is(err, fwdstorage.ErrNoData) {
		i.logf("indexer: warning: key map points %s at missing record %d", path, id)
		return FileInfo{}, false, nil
	}
	if err != nil {
		return FileInfo{}, false, err
	}
	return info, true, nil
}

// verify reports whether the stored record still carries fp.
func (i *Indexer) verify(ctx context.Context, path string, fp Fingerprint) (bool, error) {
	fresh := false
	err := i.infos.View(ctx, func(ctx context.Context, r appendable.Reader[FileInfo]) error {
		info, ok, err := i.previous(ctx, r, path)
		if err != nil || !ok {
			return err
		}
		fresh = info.Fingerprint == fp.Hash && info.Size == fp.Size
		return nil
	})
	return fresh, err
}

// forgetMissing drops every path under root that the walk did not visit. Paths
// come from the key map, so removals survive a lost fingerprint cache.
func (i *Indexer) forgetMissing(ctx context.Context, root string, seen map[string]bool) (int, error) {
	root = strings.TrimSuffix(root, "/")
	under := func(path string) bool {
		return (path == root || strings.HasPrefix(path, root+"/")) && !seen[path]
	}
	var missing []string
	err := i.keys.Range(ctx, root, func(path string, _ int64) bool {
		if under(path) {
			missing = append(missing, path)
		}
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("indexer: list keys under %s: %w", root, err)
	}
	for _, path := range missing {
		if err := i.keys.Delete(ctx, path); err != nil {
			return 0, err
		}
		i.fingerprints.Delete(path)
	}
	i.fingerprints.Range(func(path string, _ Fingerprint) bool {
		if under(path) {
			i.fingerprints.Delete(path)
		}
		return true
	})
	return len(missing), nil
}

// Lookup returns the latest FileInfo and forward entry for path.
func (i *Indexer) Lookup(ctx context.Context, path string) (FileInfo, forward.Map, error) {
	var info FileInfo
	var entry forward.Map
	err := i.entries.View(ctx, func(ctx context.Context, r appendable.Reader[forward.Map]) error {
		infos, err := i.infos.ReaderFor(ctx)
		if err != nil {
			return err
		}
		var ok bool
		if info, ok, err = i.previous(ctx, infos, path); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: %s", ErrNotIndexed, path)
		}
		entry, err = r.Read(info.EntryID)
		return err
	})
	return info, entry, err
}

// Reset forgets every fingerprint, so that the next Index run re-reads all files.
func (i *Indexer) Reset() {
	i.fingerprints.Clear()
}

// Persist saves the fingerprint cache to URL.
func (i *Indexer) Persist(ctx context.Context, URL string) error {
	data, err := i.fingerprints.Data()
	if err != nil {
		return fmt.Errorf("indexer: marshal fingerprints: %w", err)
	}
	if err := i.assets.Upload(ctx, URL, file.DefaultFileOsMode, strings.NewReader(string(data))); err != nil {
		return fmt.Errorf("indexer: upload fingerprints: %w", err)
	}
	return nil
}

// Load restores the fingerprint cache from URL; a missing asset is not an error.
func (i *Indexer) Load(ctx context.Context, URL string) error {
	exists, err := i.assets.Exists(ctx, URL)
	if err != nil || !exists {
		return err
	}
	data, err := i.assets.DownloadWithURL(ctx, URL)
	if err != nil {
		return fmt.Errorf("indexer: download fingerprints: %w", err)
	}
	return i.fingerprints.Load(data)
}
