package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/fwdindex/appendable"
	"github.com/viant/fwdindex/codec"
	"github.com/viant/fwdindex/config"
	"github.com/viant/fwdindex/forward"
	"github.com/viant/fwdindex/indexer"
	"github.com/viant/fwdindex/indexer/fs"
	"github.com/viant/fwdindex/keymap"
	"github.com/viant/fwdindex/keymap/pebblemap"
	"github.com/viant/fwdindex/keymap/sqlitemap"
	"github.com/viant/fwdindex/metrics"
	"github.com/viant/fwdindex/storage"
	"github.com/viant/fwdindex/storage/memstore"
	"github.com/viant/fwdindex/storage/mmapstore"
	"github.com/viant/fwdindex/storage/pagedstore"
)

const (
	entriesName      = "entries"
	infosName        = "infos"
	fingerprintsFile = "fingerprints.json"
)

// Stats describes the service storages.
type Stats struct {
	Entries    appendable.Stats `json:"entries"`
	Infos      appendable.Stats `json:"infos"`
	CachePages int              `json:"cachePages,omitempty"`
	LastIndex  *indexer.Stats   `json:"lastIndex,omitempty"`
}

// Service is a forward index over a configured set of stores.
type Service struct {
	cfg          *config.Config
	logf         func(format string, args ...interface{})
	fs           fs.Service
	cache        *pagedstore.PageCache
	lock         *appendable.Lock
	entries      *appendable.Storage[forward.Map]
	infos        *appendable.Storage[indexer.FileInfo]
	closers      []io.Closer
	keys         keymap.KeyMap
	indexer      *indexer.Indexer
	fingerprints string
	indexMetrics *metrics.IndexerMetrics

	mu        sync.Mutex
	lastIndex *indexer.Stats
	closed    bool
}

// New opens every component described by cfg.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Init(); err != nil {
		return nil, err
	}
	s := &Service{cfg: cfg, logf: log.Printf, lock: appendable.NewLock()}
	for _, opt := range opts {
		opt(s)
	}
	s.indexMetrics = metrics.NewIndexerMetrics(cfg.Metrics.Namespace)
	if err := s.open(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) open(ctx context.Context) error {
	cfg := s.cfg
	if cfg.Storage.Kind != config.KindMemory {
		if err := os.MkdirAll(cfg.Storage.Dir, 0o755); err != nil {
			return fmt.Errorf("service: %w", err)
		}
		s.fingerprints = filepath.Join(cfg.Storage.Dir, fingerprintsFile)
	}
	if cfg.Storage.Kind == config.KindPaged {
		cache, err := pagedstore.NewPageCache(cfg.Storage.CachePages, cfg.Storage.PageSize)
		if err != nil {
			return fmt.Errorf("service: %w", err)
		}
		s.cache = cache
	}

	var entryCodec appendable.Codec[forward.Map] = forward.MapCodec{}
	if cfg.Storage.Compression == config.CompressionZstd {
		compressed, err := codec.NewZstd[forward.Map](entryCodec)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, compressed)
		entryCodec = compressed
	}
	store, err := s.openStore(entriesName)
	if err != nil {
		return err
	}
	if s.entries, err = appendable.New[forward.Map](store, entryCodec, s.storageOptions(entriesName)...); err != nil {
		_ = store.Close()
		return err
	}
	if store, err = s.openStore(infosName); err != nil {
		return err
	}
	if s.infos, err = appendable.New[indexer.FileInfo](store, codec.NewBintly[indexer.FileInfo, *indexer.FileInfo](), s.storageOptions(infosName)...); err != nil {
		_ = store.Close()
		return err
	}
	if s.keys, err = s.openKeyMap(ctx); err != nil {
		return err
	}

	filter := fs.NewFilter(
		fs.WithIncludes(cfg.Index.Include...),
		fs.WithExcludes(fs.DefaultExcludes()...),
		fs.WithExcludes(cfg.Index.Exclude...),
		fs.WithMaxFileSize(cfg.Index.MaxSizeBytes),
	)
	indexOpts := []indexer.Option{indexer.WithFilter(filter), indexer.WithCaseSensitive(cfg.Index.CaseSensitive), indexer.WithLogf(s.logf)}
	if s.fs != nil {
		indexOpts = append(indexOpts, indexer.WithFS(s.fs))
	}
	if s.indexer, err = indexer.New(s.entries, s.infos, s.keys, indexOpts...); err != nil {
		return err
	}
	if s.fingerprints != "" {
		if err := s.indexer.Load(ctx, s.fingerprints); err != nil {
			s.logf("service: warning: ignoring fingerprints %s: %v", s.fingerprints, err)
		}
	}
	return nil
}

func (s *Service) storageOptions(name string) []appendable.Option {
	return []appendable.Option{
		appendable.WithName(name),
		appendable.WithLock(s.lock),
		appendable.WithBufferCapacity(s.cfg.Storage.BufferCapacity),
		appendable.WithLogf(s.logf),
	}
}

func (s *Service) openStore(name string) (storage.Store, error) {
	cfg := s.cfg.Storage
	path := filepath.Join(cfg.Dir, name+".log")
	switch cfg.Kind {
	case config.KindMemory:
		return memstore.New(), nil
	case config.KindMmap:
		store, err := mmapstore.Open(path, mmapstore.Options{RegionSize: cfg.RegionSize, ExclusiveLock: cfg.ExclusiveLock})
		if err != nil {
			return nil, fmt.Errorf("service: %s: %w", name, err)
		}
		if !store.WasClosedProperly() {
			s.logf("service: warning: %s was not closed cleanly, %d bytes recovered", path, store.Length())
		}
		return store, nil
	default:
		store, err := pagedstore.Open(path, pagedstore.Options{Cache: s.cache, ExclusiveLock: cfg.ExclusiveLock})
		if err != nil {
			return nil, fmt.Errorf("service: %s: %w", name, err)
		}
		return store, nil
	}
}

func (s *Service) openKeyMap(ctx context.Context) (keymap.KeyMap, error) {
	dsn := s.cfg.KeyMap.DSN
	switch s.cfg.KeyMap.Driver {
	case config.DriverPebble:
		return pebblemap.Open(dsn, pebblemap.Options{})
	default:
		if dsn == "" {
			dsn = ":memory:"
		}
		return sqlitemap.Open(ctx, dsn)
	}
}

// Index indexes every file under location and makes the result durable.
func (s *Service) Index(ctx context.Context, location string) (indexer.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	started := time.Now()
	stats, err := s.indexer.Index(ctx, location)
	if err == nil {
		err = s.force(ctx)
	}
	s.indexMetrics.Observe(stats, time.Since(started), err)
	s.lastIndex = &stats
	return stats, err
}

func (s *Service) force(ctx context.Context) error {
	if err := s.entries.Force(); err != nil {
		return err
	}
	if err := s.infos.Force(); err != nil {
		return err
	}
	if s.fingerprints == "" {
		return nil
	}
	return s.indexer.Persist(ctx, s.fingerprints)
}

// Lookup returns the latest record for path.
func (s *Service) Lookup(ctx context.Context, path string) (indexer.FileInfo, forward.Map, error) {
	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return s.indexer.Lookup(ctx, path)
}

// Files visits every FileInfo record in append order, superseded ones included.
func (s *Service) Files(ctx context.Context, fn func(id int64, info indexer.FileInfo) bool) (appendable.Outcome, error) {
	return s.infos.ProcessAll(ctx, fn)
}

// Entries visits every forward entry in append order.
func (s *Service) Entries(ctx context.Context, fn func(id int64, entry forward.Map) bool) (appendable.Outcome, error) {
	return s.entries.ProcessAll(ctx, fn)
}

// Rebuild drops every record, key and fingerprint.
func (s *Service) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.entries.Update(ctx, func(ctx context.Context, w appendable.Writer[forward.Map]) error {
		infos, err := s.infos.WriterFor(ctx)
		if err != nil {
			return err
		}
		if err := w.Clear(); err != nil {
			return err
		}
		return infos.Clear()
	})
	if err != nil {
		return fmt.Errorf("service: rebuild: %w", err)
	}
	if err := s.keys.Clear(ctx); err != nil {
		return fmt.Errorf("service: rebuild: %w", err)
	}
	s.indexer.Reset()
	s.lastIndex = nil
	return s.force(ctx)
}

// Stats returns a snapshot of storage counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	last := s.lastIndex
	s.mu.Unlock()
	stats := Stats{Entries: s.entries.Stats(), Infos: s.infos.Stats(), LastIndex: last}
	if s.cache != nil {
		stats.CachePages = s.cache.Len()
	}
	return stats
}

// Collectors returns Prometheus collectors for the service.
func (s *Service) Collectors() []prometheus.Collector {
	result := []prometheus.Collector{
		metrics.NewStorageCollector(s.cfg.Metrics.Namespace, s.entries, s.infos),
		s.indexMetrics,
	}
	if source, ok := s.keys.(metrics.PebbleSource); ok {
		result = append(result, metrics.NewPebbleCollector(s.cfg.Metrics.Namespace, source))
	}
	return result
}

// Close persists fingerprints and releases every component.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	if s.indexer != nil && s.fingerprints != "" {
		errs = append(errs, s.indexer.Persist(context.Background(), s.fingerprints))
	}
	if s.entries != nil {
		errs = append(errs, s.entries.Close())
	}
	if s.infos != nil {
		errs = append(errs, s.infos.Close())
	}
	if s.keys != nil {
		errs = append(errs, s.keys.Close())
	}
	for _, closer := range s.closers {
		errs = append(errs, closer.Close())
	}
	return errors.Join(errs...)
}
