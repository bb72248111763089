// Package sqliteutil holds DSN helpers for the modernc.org/sqlite driver.
package sqliteutil

import (
	"fmt"
	"strings"
)

// FileDSN turns a database path into a driver DSN.
func FileDSN(path string) string {
	if path == "" || path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path
}

// EnsurePragmas appends SQLite pragmas to the DSN when missing.
// It is a no-op for in-memory databases.
func EnsurePragmas(dsn string, wal bool, busyTimeoutMS int) string {
	if dsn == "" {
		return dsn
	}
	lower := strings.ToLower(dsn)
	if dsn == ":memory:" || strings.HasPrefix(lower, "file::memory:") {
		return dsn
	}
	if wal && !strings.Contains(lower, "_pragma=journal_mode") {
		dsn = addPragma(dsn, "journal_mode(WAL)")
	}
	if busyTimeoutMS > 0 && !strings.Contains(lower, "_pragma=busy_timeout") {
		dsn = addPragma(dsn, fmt.Sprintf("busy_timeout(%d)", busyTimeoutMS))
	}
	return dsn
}

func addPragma(dsn, pragma string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=" + pragma
}
