package metrics_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/ringforge/ringpool/pkg/metrics"
)

type fakeStats struct {
	name      string
	capacity  int64
	remaining int64
	created   int64
	waits     int64
}

func (f *fakeStats) Name() string          { return f.name }
func (f *fakeStats) Capacity() int64       { return f.capacity }
func (f *fakeStats) Remaining() int64      { return f.remaining }
func (f *fakeStats) ObjectsCreated() int64 { return f.created }
func (f *fakeStats) WaitCount() int64      { return f.waits }

func TestPoolCollector(t *testing.T) {
	stats := &fakeStats{
		name:      "frames",
		capacity:  1024,
		remaining: 12,
		created:   3,
		waits:     7,
	}
	collector := metrics.NewPoolCollector(stats)

	expected := `
# HELP ringpool_capacity Fixed capacity of the object pool.
# TYPE ringpool_capacity gauge
ringpool_capacity{pool="frames"} 1024
# HELP ringpool_claimant_waits_total Times the claimant found the pool empty and had to wait.
# TYPE ringpool_claimant_waits_total counter
ringpool_claimant_waits_total{pool="frames"} 7
# HELP ringpool_objects_created_total Objects allocated outside the pre-filled set.
# TYPE ringpool_objects_created_total counter
ringpool_objects_created_total{pool="frames"} 3
# HELP ringpool_remaining_slots Slots currently available for returns.
# TYPE ringpool_remaining_slots gauge
ringpool_remaining_slots{pool="frames"} 12
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(expected)))
}

func TestPoolCollector_SamplesAtScrapeTime(t *testing.T) {
	stats := &fakeStats{name: "live", capacity: 64, remaining: 64}
	collector := metrics.NewPoolCollector(stats)

	first := `
# HELP ringpool_remaining_slots Slots currently available for returns.
# TYPE ringpool_remaining_slots gauge
ringpool_remaining_slots{pool="live"} 64
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(first),
		"ringpool_remaining_slots"))

	// The collector holds no copies; a later scrape sees the new values.
	stats.remaining = 1
	stats.waits = 5

	second := `
# HELP ringpool_claimant_waits_total Times the claimant found the pool empty and had to wait.
# TYPE ringpool_claimant_waits_total counter
ringpool_claimant_waits_total{pool="live"} 5
# HELP ringpool_remaining_slots Slots currently available for returns.
# TYPE ringpool_remaining_slots gauge
ringpool_remaining_slots{pool="live"} 1
`
	require.NoError(t, testutil.CollectAndCompare(collector, strings.NewReader(second),
		"ringpool_remaining_slots", "ringpool_claimant_waits_total"))
}
