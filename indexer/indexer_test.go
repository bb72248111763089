package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs/url"
	"github.com/viant/fwdindex/appendable"
	"github.com/viant/fwdindex/codec"
	"github.com/viant/fwdindex/forward"
	"github.com/viant/fwdindex/indexer/fs"
	"github.com/viant/fwdindex/keymap/sqlitemap"
	"github.com/viant/fwdindex/storage/memstore"
)

type fixture struct {
	indexer  *Indexer
	entries  *appendable.Storage[forward.Map]
	infos    *appendable.Storage[FileInfo]
	keys     *sqlitemap.Map
	root     string
	mu       sync.Mutex
	warnings []string
}

func (f *fixture) logf(format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.Contains(format, "warning") {
		f.warnings = append(f.warnings, format)
	}
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return url.Path(url.ToFileURL(path))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{root: t.TempDir()}
	lock := appendable.NewLock()
	var err error
	f.entries, err = appendable.New[forward.Map](memstore.New(), forward.MapCodec{}, appendable.WithLock(lock), appendable.WithName("entries"))
	require.NoError(t, err)
	f.infos, err = appendable.New[FileInfo](memstore.New(), codec.NewBintly[FileInfo](), appendable.WithLock(lock), appendable.WithName("infos"))
	require.NoError(t, err)
	f.keys, err = sqlitemap.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	f.indexer, err = New(f.entries, f.infos, f.keys,
		WithFilter(fs.NewFilter(fs.WithIncludes("*.go"))),
		WithLogf(f.logf))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = f.entries.Close()
		_ = f.infos.Close()
		_ = f.keys.Close()
	})
	return f
}

func TestIndexer_IndexAndLookup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mainPath := f.write(t, "main.go", "package main\n// entry point\nfunc main() { println(\"hi\") }\n")
	f.write(t, "pkg/util.go", "package pkg\nfunc Util() {}\n")
	f.write(t, "notes.txt", "not indexed")

	stats, err := f.indexer.Index(ctx, f.root)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 1, stats.Skipped)

	info, entry, err := f.indexer.Lookup(ctx, mainPath)
	require.NoError(t, err)
	assert.Equal(t, mainPath, info.Path)
	assert.Equal(t, len(entry), info.Words)
	assert.Equal(t, forward.InCode, entry[forward.NewEntry("main", false)])
	assert.Equal(t, forward.InComments, entry[forward.NewEntry("point", false)])
	assert.Equal(t, forward.InStrings, entry[forward.NewEntry("hi", false)])

	_, _, err = f.indexer.Lookup(ctx, "/nowhere.go")
	assert.ErrorIs(t, err, ErrNotIndexed)
}

func TestIndexer_Incremental(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, "a.go", "package a")
	bPath := f.write(t, "b.go", "package b")

	_, err := f.indexer.Index(ctx, f.root)
	require.NoError(t, err)

	stats, err := f.indexer.Index(ctx, f.root)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Indexed)
	assert.Equal(t, 2, stats.Unchanged)

	f.write(t, "b.go", "package b\nvar changed = 1")
	stats, err = f.indexer.Index(ctx, f.root)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 1, stats.Unchanged)
	_, entry, err := f.indexer.Lookup(ctx, bPath)
	require.NoError(t, err)
	assert.Contains(t, entry, forward.NewEntry("changed", false))

	// forgetting fingerprints re-reads files but reuses identical entries
	entriesLength := f.entries.CurrentLength()
	f.indexer.Reset()
	stats, err = f.indexer.Index(ctx, f.root)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 2, stats.Reused)
	assert.Equal(t, entriesLength, f.entries.CurrentLength())
}

func TestIndexer_StaleFingerprint(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := f.write(t, "a.go", "package a")
	_, err := f.indexer.Index(ctx, f.root)
	require.NoError(t, err)

	// storages are rebuilt behind the indexer's back
	require.NoError(t, f.entries.Clear())
	require.NoError(t, f.infos.Clear())

	stats, err := f.indexer.Index(ctx, f.root)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Stale)
	assert.Equal(t, 1, stats.Indexed)
	assert.NotEmpty(t, f.warnings)

	_, entry, err := f.indexer.Lookup(ctx, path)
	require.NoError(t, err)
	assert.Contains(t, entry, forward.NewEntry("package", false))
}

func TestIndexer_RemovedFile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, "keep.go", "package keep")
	gone := f.write(t, "gone.go", "package gone")
	_, err := f.indexer.Index(ctx, f.root)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(f.root, "gone.go")))
	stats, err := f.indexer.Index(ctx, f.root)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)
	_, _, err = f.indexer.Lookup(ctx, gone)
	assert.ErrorIs(t, err, ErrNotIndexed)
}

func TestIndexer_RemovedFileWithoutFingerprints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	keep := f.write(t, "keep.go", "package keep")
	gone := f.write(t, "gone.go", "package gone")
	_, err := f.indexer.Index(ctx, f.root)
	require.NoError(t, err)

	f.indexer.Reset()
	require.NoError(t, os.Remove(filepath.Join(f.root, "gone.go")))
	stats, err := f.indexer.Index(ctx, f.root)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Removed)
	_, _, err = f.indexer.Lookup(ctx, gone)
	assert.ErrorIs(t, err, ErrNotIndexed)
	_, _, err = f.indexer.Lookup(ctx, keep)
	assert.NoError(t, err)
}

func TestIndexer_PersistFingerprints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, "a.go", "package a")
	_, err := f.indexer.Index(ctx, f.root)
	require.NoError(t, err)

	assetURL := url.ToFileURL(filepath.Join(t.TempDir(), "fingerprints.json"))
	require.NoError(t, f.indexer.Persist(ctx, assetURL))

	other, err := New(f.entries, f.infos, f.keys, WithFilter(fs.NewFilter(fs.WithIncludes("*.go"))), WithLogf(f.logf))
	require.NoError(t, err)
	require.NoError(t, other.Load(ctx, assetURL))
	stats, err := other.Index(ctx, f.root)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unchanged)

	missing := url.ToFileURL(filepath.Join(t.TempDir(), "none.json"))
	assert.NoError(t, other.Load(ctx, missing))
}

func TestNew_RequiresSharedLock(t *testing.T) {
	entries, err := appendable.New[forward.Map](memstore.New(), forward.MapCodec{})
	require.NoError(t, err)
	infos, err := appendable.New[FileInfo](memstore.New(), codec.NewBintly[FileInfo]())
	require.NoError(t, err)
	keys, err := sqlitemap.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer keys.Close()
	_, err = New(entries, infos, keys)
	assert.Error(t, err)
}
