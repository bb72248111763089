package indexer

import (
	"github.com/viant/fwdindex/indexer/fs"
)

// Option configures an Indexer.
type Option func(*Indexer)

// WithFS sets the file service used for listing and downloading.
func WithFS(svc fs.Service) Option {
	return func(i *Indexer) {
		i.fs = svc
	}
}

// WithFilter sets the include/exclude filter.
func WithFilter(filter *fs.Filter) Option {
	return func(i *Indexer) {
		i.filter = filter
	}
}

// WithCaseSensitive makes words hash with their original case.
func WithCaseSensitive(caseSensitive bool) Option {
	return func(i *Indexer) {
		i.scanner.CaseSensitive = caseSensitive
	}
}

// WithLogf sets the logger.
func WithLogf(fn func(format string, args ...interface{})) Option {
	return func(i *Indexer) {
		i.logf = fn
	}
}
