// Package filelock guards a backing file against being opened by a second process.
package filelock

import "errors"

// ErrLocked indicates the file is already locked by another process.
var ErrLocked = errors.New("filelock: file locked by another process")
