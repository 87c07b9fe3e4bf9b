package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshot_MissWhenEmpty(t *testing.T) {
	snap := NewSnapshot[int](time.Minute)

	items, ok := snap.Get()
	assert.False(t, ok)
	assert.Nil(t, items)
}

func TestSnapshot_HitWithinTTL(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	snap := NewSnapshot(time.Minute, WithClock[string](func() time.Time { return now }))

	snap.Set([]string{"a", "b"})

	items, ok := snap.Get()
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, items)

	// Still fresh just under the TTL.
	now = now.Add(59 * time.Second)
	_, ok = snap.Get()
	assert.True(t, ok)
}

func TestSnapshot_ExpiresAfterTTL(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	snap := NewSnapshot(time.Minute, WithClock[string](func() time.Time { return now }))

	snap.Set([]string{"a"})
	now = now.Add(time.Minute)

	_, ok := snap.Get()
	assert.False(t, ok)
}

func TestSnapshot_Invalidate(t *testing.T) {
	snap := NewSnapshot[int](time.Minute)
	snap.Set([]int{1, 2, 3})

	snap.Invalidate()

	_, ok := snap.Get()
	assert.False(t, ok)
}

func TestSnapshot_GetReturnsStableCopy(t *testing.T) {
	snap := NewSnapshot[int](time.Minute)
	original := []int{1, 2, 3}
	snap.Set(original)

	// Mutating either the input or a returned copy must not leak into the cache.
	original[0] = 99
	first, ok := snap.Get()
	require.True(t, ok)
	first[1] = 99

	second, ok := snap.Get()
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, second)
}

func TestNewSnapshot_ZeroTTLUsesDefault(t *testing.T) {
	snap := NewSnapshot[int](0)
	assert.Equal(t, DefaultSnapshotTTL, snap.ttl)
}
