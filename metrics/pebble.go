package metrics

import (
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

// PebbleSource exposes pebble engine metrics. *pebblemap.Map satisfies it.
type PebbleSource interface {
	Metrics() *pebble.Metrics
}

// PebbleCollector collects a subset of pebble engine metrics for the key map.
type PebbleCollector struct {
	source PebbleSource

	compactions     *prometheus.Desc
	compactionDebt  *prometheus.Desc
	memtableSize    *prometheus.Desc
	memtableCount   *prometheus.Desc
	walSize         *prometheus.Desc
	walBytesWritten *prometheus.Desc
}

// NewPebbleCollector creates a collector over source.
func NewPebbleCollector(namespace string, source PebbleSource) *PebbleCollector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "keymap_pebble", name), help, nil, nil)
	}
	return &PebbleCollector{
		source:          source,
		compactions:     desc("compactions_total", "Compactions performed"),
		compactionDebt:  desc("compaction_debt_bytes", "Estimated bytes left to compact"),
		memtableSize:    desc("memtable_size_bytes", "Current memtable size"),
		memtableCount:   desc("memtables", "Current memtable count"),
		walSize:         desc("wal_size_bytes", "Live WAL size"),
		walBytesWritten: desc("wal_written_bytes_total", "Physical bytes written to the WAL"),
	}
}

func (c *PebbleCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.compactions
	ch <- c.compactionDebt
	ch <- c.memtableSize
	ch <- c.memtableCount
	ch <- c.walSize
	ch <- c.walBytesWritten
}

func (c *PebbleCollector) Collect(ch chan<- prometheus.Metric) {
	m := c.source.Metrics()
	ch <- prometheus.MustNewConstMetric(c.compactions, prometheus.CounterValue, float64(m.Compact.Count))
	ch <- prometheus.MustNewConstMetric(c.compactionDebt, prometheus.GaugeValue, float64(m.Compact.EstimatedDebt))
	ch <- prometheus.MustNewConstMetric(c.memtableSize, prometheus.GaugeValue, float64(m.MemTable.Size))
	ch <- prometheus.MustNewConstMetric(c.memtableCount, prometheus.GaugeValue, float64(m.MemTable.Count))
	ch <- prometheus.MustNewConstMetric(c.walSize, prometheus.GaugeValue, float64(m.WAL.Size))
	ch <- prometheus.MustNewConstMetric(c.walBytesWritten, prometheus.CounterValue, float64(m.WAL.BytesWritten))
}

var _ prometheus.Collector = (*PebbleCollector)(nil)
