package keymap_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/fwdindex/keymap"
	"github.com/viant/fwdindex/keymap/pebblemap"
	"github.com/viant/fwdindex/keymap/sqlitemap"
)

func implementations(t *testing.T) map[string]keymap.KeyMap {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	sqlite, err := sqlitemap.Open(ctx, filepath.Join(dir, "keymap.db"))
	require.NoError(t, err)
	memory, err := sqlitemap.Open(ctx, ":memory:")
	require.NoError(t, err)
	pebble, err := pebblemap.Open(filepath.Join(dir, "pebble"), pebblemap.Options{Sync: true})
	require.NoError(t, err)
	result := map[string]keymap.KeyMap{"sqlite": sqlite, "sqlite-memory": memory, "pebble": pebble}
	t.Cleanup(func() {
		for _, m := range result {
			_ = m.Close()
		}
	})
	return result
}

func TestKeyMap_Contract(t *testing.T) {
	ctx := context.Background()
	for name, m := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := m.Get(ctx, "/src/main.go")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, m.Put(ctx, "/src/main.go", 42))
			require.NoError(t, m.Put(ctx, "/src/util.go", 0))
			require.NoError(t, m.Put(ctx, "/src/main.go", 1<<40))

			id, ok, err := m.Get(ctx, "/src/main.go")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, int64(1<<40), id)

			id, ok, err = m.Get(ctx, "/src/util.go")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, int64(0), id)

			require.NoError(t, m.Delete(ctx, "/src/util.go"))
			require.NoError(t, m.Delete(ctx, "/missing.go"))
			_, ok, err = m.Get(ctx, "/src/util.go")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, m.Clear(ctx))
			_, ok, err = m.Get(ctx, "/src/main.go")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestKeyMap_Range(t *testing.T) {
	ctx := context.Background()
	for name, m := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			for id, key := range []string{"/src/b.go", "/src/a.go", "/srcx/c.go", "/lib/d.go", "/src/sub/e.go"} {
				require.NoError(t, m.Put(ctx, key, int64(id)))
			}
			var keys []string
			require.NoError(t, m.Range(ctx, "/src/", func(key string, _ int64) bool {
				keys = append(keys, key)
				return true
			}))
			assert.Equal(t, []string{"/src/a.go", "/src/b.go", "/src/sub/e.go"}, keys)

			ids := map[string]int64{}
			require.NoError(t, m.Range(ctx, "", func(key string, id int64) bool {
				ids[key] = id
				return true
			}))
			assert.Len(t, ids, 5)
			assert.Equal(t, int64(3), ids["/lib/d.go"])

			calls := 0
			require.NoError(t, m.Range(ctx, "/src", func(string, int64) bool {
				calls++
				return false
			}))
			assert.Equal(t, 1, calls)
		})
	}
}

func TestSQLiteMap_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "keymap.db")
	m, err := sqlitemap.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, m.Put(ctx, "a", 7))
	require.NoError(t, m.Close())

	m, err = sqlitemap.Open(ctx, path)
	require.NoError(t, err)
	defer m.Close()
	id, ok, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
	n, err := m.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
