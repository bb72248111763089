package fs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Excluded(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		size     int
		isDir    bool
		options  []FilterOption
		excluded bool
	}{
		{name: "no rules", path: "/src/main.go", excluded: false},
		{name: "include glob match", path: "/src/main.go", options: []FilterOption{WithIncludes("*.go")}, excluded: false},
		{name: "include glob miss", path: "/src/readme.md", options: []FilterOption{WithIncludes("*.go")}, excluded: true},
		{name: "include ignores dirs", path: "/src/pkg", isDir: true, options: []FilterOption{WithIncludes("*.go")}, excluded: false},
		{name: "dir pattern", path: "/repo/.git", isDir: true, options: []FilterOption{WithExcludes(".git/")}, excluded: true},
		{name: "dir pattern on file path", path: "/repo/vendor/x/y.go", options: []FilterOption{WithExcludes("vendor/")}, excluded: true},
		{name: "dir pattern not a prefix of name", path: "/repo/myvendor/y.go", options: []FilterOption{WithExcludes("vendor/")}, excluded: false},
		{name: "basename glob", path: "/repo/api/service.pb.go", options: []FilterOption{WithExcludes("*.pb.go")}, excluded: true},
		{name: "nested path suffix", path: "/repo/internal/gen/types.go", options: []FilterOption{WithExcludes("gen/types.go")}, excluded: true},
		{name: "too large", path: "/repo/big.go", size: 2048, options: []FilterOption{WithMaxFileSize(1024)}, excluded: true},
		{name: "size limit ignored for dirs", path: "/repo/big", size: 2048, isDir: true, options: []FilterOption{WithMaxFileSize(1024)}, excluded: false},
		{name: "ignore file", path: "/repo/tmp/a.go", options: []FilterOption{WithIgnoreFile(strings.NewReader("# comment\n\ntmp/\n"))}, excluded: true},
		{name: "defaults", path: "/repo/node_modules/x.js", options: []FilterOption{WithExcludes(DefaultExcludes()...)}, excluded: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := NewFilter(tc.options...)
			assert.Equal(t, tc.excluded, f.Excluded(tc.path, tc.size, tc.isDir))
		})
	}
}
