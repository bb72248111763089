package fs

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"

	"github.com/viant/afs/url"
)

// Filter decides which walked files are indexed.
type Filter struct {
	includes    []string
	excludes    []string
	maxFileSize int
}

// FilterOption modifies a Filter.
type FilterOption func(*Filter)

// NewFilter creates a filter. Without options nothing is excluded.
func NewFilter(opts ...FilterOption) *Filter {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// WithIncludes restricts indexing to paths matching one of the glob patterns.
func WithIncludes(patterns ...string) FilterOption {
	return func(f *Filter) {
		f.includes = append(f.includes, clean(patterns)...)
	}
}

// WithExcludes skips paths matching one of the patterns.
func WithExcludes(patterns ...string) FilterOption {
	return func(f *Filter) {
		f.excludes = append(f.excludes, clean(patterns)...)
	}
}

// WithMaxFileSize skips files larger than size bytes.
func WithMaxFileSize(size int) FilterOption {
	return func(f *Filter) {
		f.maxFileSize = size
	}
}

// WithIgnoreFile adds exclusion patterns read from a .gitignore-style reader.
func WithIgnoreFile(reader io.Reader) FilterOption {
	return func(f *Filter) {
		var patterns []string
		scanner := bufio.NewScanner(reader)
		for scanner.Scan() {
			patterns = append(patterns, scanner.Text())
		}
		f.excludes = append(f.excludes, clean(patterns)...)
	}
}

// DefaultExcludes lists directories and generated files that are rarely worth indexing.
func DefaultExcludes() []string {
	return []string{".git/", ".idea/", ".vscode/", "node_modules/", "vendor/", "*.min.js", "*.pb.go", "*.lock", "*.log"}
}

func clean(patterns []string) []string {
	var result []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		result = append(result, p)
	}
	return result
}

// Excluded reports whether the file at location, of size bytes, should be skipped.
// Directories pass size 0 and are only checked against exclusions.
func (f *Filter) Excluded(location string, size int, isDir bool) bool {
	path := filepath.ToSlash(url.Path(location))
	if isDir {
		path += "/"
	} else {
		if f.maxFileSize > 0 && size > f.maxFileSize {
			return true
		}
		if len(f.includes) > 0 && !f.anyMatch(path, f.includes) {
			return true
		}
	}
	return f.anyMatch(path, f.excludes)
}

func (f *Filter) anyMatch(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if match(path, pattern) {
			return true
		}
	}
	return false
}

func match(path, pattern string) bool {
	if strings.HasSuffix(pattern, "/") {
		// directory pattern: any path segment
		return strings.Contains("/"+strings.TrimPrefix(path, "/"), "/"+strings.TrimPrefix(pattern, "/"))
	}
	base := filepath.Base(path)
	if ok, _ := filepath.Match(pattern, base); ok {
		return true
	}
	if ok, _ := filepath.Match(strings.TrimPrefix(pattern, "/"), strings.TrimPrefix(path, "/")); ok {
		return true
	}
	return strings.Contains(pattern, "/") && strings.HasSuffix(path, "/"+strings.TrimPrefix(pattern, "/"))
}
