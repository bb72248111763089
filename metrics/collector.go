// Package metrics exports storage and indexer counters to Prometheus.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/fwdindex/appendable"
)

// StatsSource reports storage counters. *appendable.Storage satisfies it.
type StatsSource interface {
	Stats() appendable.Stats
}

// StorageCollector collects appendable storage and backing store counters.
// Every source is labelled with its storage name.
type StorageCollector struct {
	mu      sync.RWMutex
	sources []StatsSource

	currentLength *prometheus.Desc
	appends       *prometheus.Desc
	flushes       *prometheus.Desc
	directWrites  *prometheus.Desc
	bufferReads   *prometheus.Desc
	storeReads    *prometheus.Desc
	checks        *prometheus.Desc
	bytesWritten  *prometheus.Desc
	bytesRead     *prometheus.Desc
	forces        *prometheus.Desc
	resident      *prometheus.Desc
	cacheHits     *prometheus.Desc
	cacheMisses   *prometheus.Desc
}

// NewStorageCollector creates a collector for sources.
func NewStorageCollector(namespace string, sources ...StatsSource) *StorageCollector {
	labels := []string{"storage"}
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "storage", name), help, labels, nil)
	}
	return &StorageCollector{
		sources:       sources,
		currentLength: desc("current_length_bytes", "Logical length including buffered bytes"),
		appends:       desc("appends_total", "Records appended"),
		flushes:       desc("flushes_total", "Buffer flushes to the backing store"),
		directWrites:  desc("direct_writes_total", "Records larger than the buffer written directly"),
		bufferReads:   desc("buffer_reads_total", "Reads served from the append buffer"),
		storeReads:    desc("store_reads_total", "Reads served from the backing store"),
		checks:        desc("checks_total", "Byte comparisons against stored records"),
		bytesWritten:  desc("store_written_bytes_total", "Bytes written to the backing store"),
		bytesRead:     desc("store_read_bytes_total", "Bytes read from the backing store"),
		forces:        desc("store_forces_total", "Durability syncs of the backing store"),
		resident:      desc("store_resident", "Pages or regions held in memory"),
		cacheHits:     desc("page_cache_hits_total", "Page cache hits"),
		cacheMisses:   desc("page_cache_misses_total", "Page cache misses"),
	}
}

// Add registers another source.
func (c *StorageCollector) Add(source StatsSource) {
	c.mu.Lock()
	c.sources = append(c.sources, source)
	c.mu.Unlock()
}

func (c *StorageCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.currentLength
	ch <- c.appends
	ch <- c.flushes
	ch <- c.directWrites
	ch <- c.bufferReads
	ch <- c.storeReads
	ch <- c.checks
	ch <- c.bytesWritten
	ch <- c.bytesRead
	ch <- c.forces
	ch <- c.resident
	ch <- c.cacheHits
	ch <- c.cacheMisses
}

func (c *StorageCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	sources := append([]StatsSource(nil), c.sources...)
	c.mu.RUnlock()
	for _, source := range sources {
		st := source.Stats()
		counter := func(desc *prometheus.Desc, v uint64) {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), st.Name)
		}
		ch <- prometheus.MustNewConstMetric(c.currentLength, prometheus.GaugeValue, float64(st.CurrentLength), st.Name)
		counter(c.appends, st.Appends)
		counter(c.flushes, st.Flushes)
		counter(c.directWrites, st.DirectWrites)
		counter(c.bufferReads, st.BufferReads)
		counter(c.storeReads, st.StoreReads)
		counter(c.checks, st.Checks)
		counter(c.bytesWritten, st.Store.BytesWritten)
		counter(c.bytesRead, st.Store.BytesRead)
		counter(c.forces, st.Store.Forces)
		ch <- prometheus.MustNewConstMetric(c.resident, prometheus.GaugeValue, float64(st.Store.Resident), st.Name)
		counter(c.cacheHits, st.Store.Hits)
		counter(c.cacheMisses, st.Store.Misses)
	}
}

var _ prometheus.Collector = (*StorageCollector)(nil)
