//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly || solaris || aix

package filelock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.log")
	f1, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	defer f1.Close()
	f2, err := os.OpenFile(path, os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f2.Close()

	require.NoError(t, TryLock(f1))
	assert.ErrorIs(t, TryLock(f2), ErrLocked)
	require.NoError(t, Unlock(f1))
	assert.NoError(t, TryLock(f2))
	assert.NoError(t, Unlock(f2))
}
