package ringbuf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringforge/ringpool/pkg/ringbuf"
	"github.com/ringforge/ringpool/pkg/ringpoolerrors"
)

func TestNewRing_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, 3, 6, 12, 1000} {
		_, err := ringbuf.NewRing[string](capacity)
		require.Error(t, err, "capacity %d", capacity)
		assert.True(t, ringpoolerrors.IsType(err, ringpoolerrors.ErrorTypeInvalidCapacity),
			"capacity %d should fail with invalid_capacity, got %v", capacity, err)
	}
}

func TestNewRing_ValidCapacity(t *testing.T) {
	for _, capacity := range []int{1, 2, 4, 64, 1024} {
		r, err := ringbuf.NewRing[string](capacity)
		require.NoError(t, err, "capacity %d", capacity)
		assert.Equal(t, int64(capacity), r.Capacity())
	}
}

func TestRing_PublishTake(t *testing.T) {
	r, err := ringbuf.NewRing[string](4)
	require.NoError(t, err)

	require.False(t, r.IsPublished(0))

	require.NoError(t, r.Publish(0, "a", false))
	require.True(t, r.IsPublished(0))

	v, ok := r.Take(0)
	require.True(t, ok)
	assert.Equal(t, "a", v)

	// Consumed slots are no longer published.
	assert.False(t, r.IsPublished(0))

	// The slot is free again on the next lap.
	require.NoError(t, r.Publish(4, "b", false))
	require.True(t, r.IsPublished(4))
	v, ok = r.Take(4)
	require.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestRing_HighestPublishedStopsAtGap(t *testing.T) {
	r, err := ringbuf.NewRing[int](8)
	require.NoError(t, err)

	require.NoError(t, r.Publish(0, 10, false))
	require.NoError(t, r.Publish(1, 11, false))
	require.NoError(t, r.Publish(3, 13, false))

	assert.Equal(t, int64(1), r.HighestPublished(0, 3))
	assert.Equal(t, int64(1), r.HighestPublished(2, 2), "unpublished lo yields lo-1")

	require.NoError(t, r.Publish(2, 12, false))
	assert.Equal(t, int64(3), r.HighestPublished(0, 3))
}

func TestRing_StartupPublishSkipsOccupancyCheck(t *testing.T) {
	r, err := ringbuf.NewRing[int](2)
	require.NoError(t, err)

	require.NoError(t, r.Publish(0, 1, true))
	require.NoError(t, r.Publish(1, 2, true))

	v, ok := r.Take(0)
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestRing_TakeClearsReference(t *testing.T) {
	type obj struct{ n int }

	r, err := ringbuf.NewRing[*obj](2)
	require.NoError(t, err)

	require.NoError(t, r.Publish(0, &obj{n: 7}, false))
	v, ok := r.Take(0)
	require.True(t, ok)
	require.NotNil(t, v)

	// Republishing on the next lap must see an empty slot; a corruption
	// error here would mean Take left the reference behind.
	require.NoError(t, r.Publish(2, &obj{n: 8}, false))
}
