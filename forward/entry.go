// Package forward holds forward-index entry types and their compact binary codecs.
package forward

import (
	"strings"

	"github.com/cespare/xxhash"
)

// IDIndexEntry is the 32-bit hash of a token.
type IDIndexEntry int32

// NewEntry hashes token; case-insensitive entries hash the lower-cased token.
func NewEntry(token string, caseSensitive bool) IDIndexEntry {
	if !caseSensitive {
		token = strings.ToLower(token)
	}
	return IDIndexEntry(int32(xxhash.Sum64String(token)))
}

// OccurrenceMask records the lexical contexts a token was seen in.
type OccurrenceMask uint8

const (
	InCode             OccurrenceMask = 1
	InComments         OccurrenceMask = 2
	InStrings          OccurrenceMask = 4
	InForeignLanguages OccurrenceMask = 8
	InPlainText        OccurrenceMask = 16
	Any                OccurrenceMask = 255
)

func (m OccurrenceMask) Has(flag OccurrenceMask) bool {
	return m&flag == flag
}

func (m OccurrenceMask) String() string {
	if m == Any {
		return "any"
	}
	var parts []string
	for _, f := range []struct {
		flag OccurrenceMask
		name string
	}{
		{InCode, "code"},
		{InComments, "comments"},
		{InStrings, "strings"},
		{InForeignLanguages, "foreign"},
		{InPlainText, "text"},
	} {
		if m.Has(f.flag) {
			parts = append(parts, f.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
