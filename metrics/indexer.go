package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/viant/fwdindex/indexer"
)

// IndexerMetrics tracks indexing runs.
type IndexerMetrics struct {
	runs     *prometheus.CounterVec
	files    *prometheus.CounterVec
	bytes    prometheus.Counter
	duration prometheus.Histogram
}

// NewIndexerMetrics creates indexer metrics under namespace.
func NewIndexerMetrics(namespace string) *IndexerMetrics {
	return &IndexerMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "runs_total",
			Help:      "Index runs by result",
		}, []string{"result"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "files_total",
			Help:      "Files visited by outcome",
		}, []string{"outcome"}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "scanned_bytes_total",
			Help:      "Bytes of file content visited",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "indexer",
			Name:      "run_duration_seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
	}
}

// Observe records one run.
func (m *IndexerMetrics) Observe(stats indexer.Stats, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.runs.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
	m.bytes.Add(float64(stats.Bytes))
	for outcome, n := range map[string]int{
		"indexed":   stats.Indexed,
		"unchanged": stats.Unchanged,
		"reused":    stats.Reused,
		"stale":     stats.Stale,
		"removed":   stats.Removed,
		"skipped":   stats.Skipped,
	} {
		if n > 0 {
			m.files.WithLabelValues(outcome).Add(float64(n))
		}
	}
}

func (m *IndexerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.runs.Describe(ch)
	m.files.Describe(ch)
	m.bytes.Describe(ch)
	m.duration.Describe(ch)
}

func (m *IndexerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.runs.Collect(ch)
	m.files.Collect(ch)
	m.bytes.Collect(ch)
	m.duration.Collect(ch)
}

var _ prometheus.Collector = (*IndexerMetrics)(nil)
