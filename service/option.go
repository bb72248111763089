package service

import "github.com/viant/fwdindex/indexer/fs"

// Option configures the Service.
type Option func(*Service)

// WithLogf sets the logger shared by the service and its components.
func WithLogf(fn func(format string, args ...interface{})) Option {
	return func(s *Service) { s.logf = fn }
}

// WithFS sets the file service used by the indexer.
func WithFS(svc fs.Service) Option {
	return func(s *Service) { s.fs = svc }
}
