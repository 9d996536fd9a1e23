package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/run-bigpig/ava/internal/models"
)

func TestFileCacheTTL(t *testing.T) {
	cache, err := NewFileCache[models.Fundamentals](t.TempDir(), time.Minute)
	require.NoError(t, err)

	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_, ok := cache.Get("AAPL")
	assert.False(t, ok)

	want := models.Fundamentals{Symbol: "AAPL", Metrics: map[string]float64{"trailingPE": 28.5}}
	require.NoError(t, cache.Set("AAPL", want))

	got, ok := cache.Get("AAPL")
	require.True(t, ok)
	assert.Equal(t, want.Metrics, got.Metrics)

	now = now.Add(2 * time.Minute)
	_, ok = cache.Get("AAPL")
	assert.False(t, ok, "entry should expire after ttl")
}

func TestFileCacheKeySanitized(t *testing.T) {
	cache, err := NewFileCache[string](t.TempDir(), time.Minute)
	require.NoError(t, err)

	require.NoError(t, cache.Set("../BRK/B:1y", "x"))
	got, ok := cache.Get("../BRK/B:1y")
	assert.True(t, ok)
	assert.Equal(t, "x", got)
}
