// Package config loads the YAML configuration of a forward index.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/fwdindex/storage/mmapstore"
	"gopkg.in/yaml.v3"
)

// Storage kinds.
const (
	KindPaged  = "paged"
	KindMmap   = "mmap"
	KindMemory = "memory"
)

// Key map drivers.
const (
	DriverSQLite = "sqlite"
	DriverPebble = "pebble"
)

// Compression modes.
const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the root configuration.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	KeyMap  KeyMapConfig  `yaml:"keymap"`
	Index   IndexConfig   `yaml:"index"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// StorageConfig selects and sizes the backing stores.
type StorageConfig struct {
	Kind           string `yaml:"kind"`
	Dir            string `yaml:"dir"`
	BufferCapacity int    `yaml:"bufferCapacity"`
	PageSize       int    `yaml:"pageSize"`
	CachePages     int    `yaml:"cachePages"`
	RegionSize     int64  `yaml:"regionSize"`
	ExclusiveLock  bool   `yaml:"exclusiveLock"`
	Compression    string `yaml:"compression"`
}

// KeyMapConfig selects the path to record id map.
type KeyMapConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// IndexConfig controls what gets scanned.
type IndexConfig struct {
	CaseSensitive bool     `yaml:"caseSensitive"`
	Include       []string `yaml:"include"`
	Exclude       []string `yaml:"exclude"`
	MaxSizeBytes  int      `yaml:"maxSizeBytes"`
}

// MetricsConfig controls the Prometheus exporter.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
	Addr      string `yaml:"addr"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Kind:           KindPaged,
			Dir:            "~/.fwdindex",
			BufferCapacity: 4096,
			PageSize:       64 << 10,
			CachePages:     256,
			RegionSize:     1 << 20,
			ExclusiveLock:  true,
			Compression:    CompressionNone,
		},
		KeyMap: KeyMapConfig{Driver: DriverSQLite},
		Index: IndexConfig{
			MaxSizeBytes: 1 << 20,
		},
		Metrics: MetricsConfig{Namespace: "fwdindex", Addr: ":9464"},
	}
}

// LoadConfig reads path over the defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Init(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Init expands paths, fills derived defaults and validates.
func (c *Config) Init() error {
	dir, err := expandUserPath(c.Storage.Dir)
	if err != nil {
		return err
	}
	c.Storage.Dir = dir
	if c.KeyMap.DSN == "" && c.Storage.Kind != KindMemory {
		switch c.KeyMap.Driver {
		case DriverSQLite:
			c.KeyMap.DSN = filepath.Join(dir, "keymap.db")
		case DriverPebble:
			c.KeyMap.DSN = filepath.Join(dir, "keymap")
		}
	}
	if c.KeyMap.DSN, err = expandUserPath(c.KeyMap.DSN); err != nil {
		return err
	}
	if c.Storage.Compression == "" {
		c.Storage.Compression = CompressionNone
	}
	return c.Validate()
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	switch c.Storage.Kind {
	case KindPaged, KindMmap, KindMemory:
	default:
		return fmt.Errorf("%w: storage.kind %q", ErrInvalid, c.Storage.Kind)
	}
	if c.Storage.Kind != KindMemory && c.Storage.Dir == "" {
		return fmt.Errorf("%w: storage.dir is required for kind %s", ErrInvalid, c.Storage.Kind)
	}
	if c.Storage.BufferCapacity <= 0 {
		return fmt.Errorf("%w: storage.bufferCapacity must be positive", ErrInvalid)
	}
	if c.Storage.Kind == KindPaged && (c.Storage.PageSize <= 0 || c.Storage.CachePages <= 0) {
		return fmt.Errorf("%w: storage.pageSize and storage.cachePages must be positive", ErrInvalid)
	}
	if c.Storage.Kind == KindMmap {
		page := int64(os.Getpagesize())
		if c.Storage.RegionSize <= 0 || c.Storage.RegionSize%page != 0 {
			return fmt.Errorf("%w: storage.regionSize must be a positive multiple of %d", ErrInvalid, page)
		}
		if c.Storage.RegionSize > mmapstore.MaxRegionSize {
			return fmt.Errorf("%w: storage.regionSize must not exceed %d", ErrInvalid, mmapstore.MaxRegionSize)
		}
	}
	switch c.Storage.Compression {
	case CompressionNone, CompressionZstd:
	default:
		return fmt.Errorf("%w: storage.compression %q", ErrInvalid, c.Storage.Compression)
	}
	switch c.KeyMap.Driver {
	case DriverSQLite:
	case DriverPebble:
		if c.Storage.Kind == KindMemory && c.KeyMap.DSN == "" {
			return fmt.Errorf("%w: keymap.dsn is required for pebble with memory storage", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: keymap.driver %q", ErrInvalid, c.KeyMap.Driver)
	}
	if c.Index.MaxSizeBytes < 0 {
		return fmt.Errorf("%w: index.maxSizeBytes must not be negative", ErrInvalid)
	}
	return nil
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed[0] != '~' {
		return path, nil
	}
	if trimmed != "~" && !strings.HasPrefix(trimmed, "~/") {
		return "", fmt.Errorf("config: unsupported ~user path: %s", path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if trimmed == "~" {
		return home, nil
	}
	return filepath.Join(home, trimmed[2:]), nil
}
