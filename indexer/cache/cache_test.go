package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	a, err := Hash([]byte("package main"))
	require.NoError(t, err)
	b, err := Hash([]byte("package main"))
	require.NoError(t, err)
	c, err := Hash([]byte("package other"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	streamed, n, err := HashReader(strings.NewReader("package main"))
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.Equal(t, a, streamed)
}

type fingerprint struct {
	Size int64  `json:"size"`
	Hash uint64 `json:"hash"`
}

func TestMap_PersistRoundTrip(t *testing.T) {
	m := NewMap[string, fingerprint]()
	m.Set("/a.go", fingerprint{Size: 1, Hash: 11})
	m.Set("/b.go", fingerprint{Size: 2, Hash: 22})
	m.Set("/c.go", fingerprint{Size: 3, Hash: 33})
	m.Delete("/c.go")
	assert.Equal(t, 2, m.Size())

	data, err := m.Data()
	require.NoError(t, err)

	restored := NewMap[string, fingerprint]()
	require.NoError(t, restored.Load(data))
	got, ok := restored.Get("/b.go")
	require.True(t, ok)
	assert.Equal(t, fingerprint{Size: 2, Hash: 22}, got)
	_, ok = restored.Get("/c.go")
	assert.False(t, ok)

	keys := 0
	restored.Range(func(string, fingerprint) bool {
		keys++
		return true
	})
	assert.Equal(t, 2, keys)
	restored.Clear()
	assert.Equal(t, 0, restored.Size())
}
