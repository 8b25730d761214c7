package registry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCountOperationsAndCache(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics(prometheus.NewRegistry())
	reg, _ := newTestRegistry(t, WithCacheWindow(time.Minute), WithMetrics(m))

	_, err := reg.Up(ctx, "svc-a", "8000")
	require.NoError(t, err)

	// First read misses and consults the store, second is a cache hit.
	_, err = reg.Get(ctx, "svc-a")
	require.NoError(t, err)
	_, err = reg.Get(ctx, "svc-a")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("up")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("get")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheMisses))

	// A cache hit never reaches the store, so the op counter stays put.
	_, err = reg.All(ctx, "svc-a")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("get")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues("all")))
}

func TestMetricsCountMutationsAndEnumeration(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics(prometheus.NewRegistry())
	reg, _ := newTestRegistry(t, WithMetrics(m))

	_, err := reg.Up(ctx, "svc-a", "8000")
	require.NoError(t, err)
	_, err = reg.Down(ctx, "svc-a", "8000")
	require.NoError(t, err)
	_, err = reg.Services(ctx)
	require.NoError(t, err)
	require.NoError(t, reg.Destroy(ctx, "svc-a"))

	for _, op := range []string{"up", "down", "services", "destroy"} {
		assert.Equal(t, 1.0, testutil.ToFloat64(m.ops.WithLabelValues(op)), op)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.op("up")
		m.cacheHit()
		m.cacheMiss()
	})

	// An uninstrumented registry runs every path without collectors.
	ctx := context.Background()
	reg, _ := newTestRegistry(t, WithCacheWindow(time.Minute))
	_, err := reg.Up(ctx, "svc-a", "8000")
	require.NoError(t, err)
	_, err = reg.Get(ctx, "svc-a")
	require.NoError(t, err)
	_, err = reg.Get(ctx, "svc-a")
	require.NoError(t, err)
}
