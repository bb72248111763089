package pagedstore

import (
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultPageSize = 64 << 10
	DefaultPages    = 256
)

type pageKey struct {
	store uint64
	index int64
}

type page struct {
	mu   sync.RWMutex
	data []byte
}

// PageCache is a bounded LRU of file pages. One cache can be shared by several
// stores so that they compete for the same memory budget.
type PageCache struct {
	pageSize int64
	pages    *lru.Cache[pageKey, *page]
	nextID   atomic.Uint64
}

// NewPageCache creates a cache holding at most pages pages of pageSize bytes.
func NewPageCache(pages, pageSize int) (*PageCache, error) {
	if pages <= 0 {
		pages = DefaultPages
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	c, err := lru.New[pageKey, *page](pages)
	if err != nil {
		return nil, fmt.Errorf("pagedstore: page cache: %w", err)
	}
	return &PageCache{pageSize: int64(pageSize), pages: c}, nil
}

// PageSize returns the page size in bytes.
func (c *PageCache) PageSize() int {
	return int(c.pageSize)
}

// Len returns the number of resident pages across all stores.
func (c *PageCache) Len() int {
	return c.pages.Len()
}

func (c *PageCache) register() uint64 {
	return c.nextID.Add(1)
}

// drop evicts every page that belongs to store.
func (c *PageCache) drop(store uint64) {
	for _, key := range c.pages.Keys() {
		if key.store == store {
			c.pages.Remove(key)
		}
	}
}

func (c *PageCache) resident(store uint64) int {
	count := 0
	for _, key := range c.pages.Keys() {
		if key.store == store {
			count++
		}
	}
	return count
}
