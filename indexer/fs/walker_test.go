package fs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs/storage"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestWalker_Walk(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.go":           "package main",
		"pkg/util.go":       "package pkg",
		"pkg/deep/x.go":     "package deep",
		"README.md":         "# readme",
		"vendor/lib/lib.go": "package lib",
	})

	walker := NewWalker(nil, NewFilter(WithIncludes("*.go"), WithExcludes("vendor/")))
	var visited []string
	contents := map[string]string{}
	stats, err := walker.Walk(context.Background(), root, func(ctx context.Context, path string, object storage.Object, data []byte) error {
		rel, err := filepath.Rel(root, filepath.FromSlash(path))
		require.NoError(t, err)
		rel = filepath.ToSlash(rel)
		visited = append(visited, rel)
		contents[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	sort.Strings(visited)
	assert.Equal(t, []string{"main.go", "pkg/deep/x.go", "pkg/util.go"}, visited)
	assert.Equal(t, "package deep", contents["pkg/deep/x.go"])
	assert.Equal(t, 3, stats.Visited)
	assert.Equal(t, 4, stats.Files)
}

func TestWalker_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.go": "package a"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewWalker(nil, nil).Walk(ctx, root, func(context.Context, string, storage.Object, []byte) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
