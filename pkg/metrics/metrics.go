// Package metrics provides Prometheus observability for ringpool pools.
//
// The pool itself keeps its counters in plain atomics so the borrow/return
// hot path never touches a Prometheus primitive. PoolCollector samples those
// counters at scrape time, following the custom-collector pattern:
//
//	collector := metrics.NewPoolCollector(pool)
//	prometheus.MustRegister(collector)
//
// Exposed series, all labeled with the pool name:
//   - ringpool_capacity              fixed slot count (gauge)
//   - ringpool_remaining_slots       free slots right now (gauge)
//   - ringpool_objects_created_total objects allocated beyond pre-fill (counter)
//   - ringpool_claimant_waits_total  times the claimant had to wait (counter)
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PoolStats is the read-only counter surface a pool exposes for scraping.
// *objpool.Pool[T] satisfies it for any T.
type PoolStats interface {
	Name() string
	Capacity() int64
	Remaining() int64
	ObjectsCreated() int64
	WaitCount() int64
}

// PoolCollector is a prometheus.Collector that samples a pool's counters at
// scrape time.
type PoolCollector struct {
	stats PoolStats

	capacityDesc  *prometheus.Desc
	remainingDesc *prometheus.Desc
	createdDesc   *prometheus.Desc
	waitsDesc     *prometheus.Desc
}

// NewPoolCollector creates a collector for the given pool.
func NewPoolCollector(stats PoolStats) *PoolCollector {
	labels := prometheus.Labels{"pool": stats.Name()}
	return &PoolCollector{
		stats: stats,
		capacityDesc: prometheus.NewDesc(
			"ringpool_capacity",
			"Fixed capacity of the object pool.",
			nil, labels,
		),
		remainingDesc: prometheus.NewDesc(
			"ringpool_remaining_slots",
			"Slots currently available for returns.",
			nil, labels,
		),
		createdDesc: prometheus.NewDesc(
			"ringpool_objects_created_total",
			"Objects allocated outside the pre-filled set.",
			nil, labels,
		),
		waitsDesc: prometheus.NewDesc(
			"ringpool_claimant_waits_total",
			"Times the claimant found the pool empty and had to wait.",
			nil, labels,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.capacityDesc
	ch <- c.remainingDesc
	ch <- c.createdDesc
	ch <- c.waitsDesc
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.capacityDesc,
		prometheus.GaugeValue, float64(c.stats.Capacity()))
	ch <- prometheus.MustNewConstMetric(c.remainingDesc,
		prometheus.GaugeValue, float64(c.stats.Remaining()))
	ch <- prometheus.MustNewConstMetric(c.createdDesc,
		prometheus.CounterValue, float64(c.stats.ObjectsCreated()))
	ch <- prometheus.MustNewConstMetric(c.waitsDesc,
		prometheus.CounterValue, float64(c.stats.WaitCount()))
}

// MustRegister registers collectors for every given pool on the default
// registry, panicking on duplicate registration.
func MustRegister(pools ...PoolStats) {
	for _, p := range pools {
		prometheus.MustRegister(NewPoolCollector(p))
	}
}
