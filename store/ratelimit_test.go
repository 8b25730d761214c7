package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestRateLimitPassesThrough(t *testing.T) {
	ctx := context.Background()
	s := WithRateLimit(NewMemoryStore(), rate.Inf, 1)

	added, err := s.SAdd(ctx, "clerq::svc-a", "10.0.0.5:8000")
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	members, err := s.SMembers(ctx, "clerq::svc-a")
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestRateLimitHonorsContext(t *testing.T) {
	// One token per hour, burst 1: the second call must wait and the
	// cancelled context is its only way out.
	s := WithRateLimit(NewMemoryStore(), rate.Every(time.Hour), 1)

	_, err := s.SAdd(context.Background(), "clerq::svc-a", "10.0.0.5:8000")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.SAdd(ctx, "clerq::svc-a", "10.0.0.6:8000")
	assert.Error(t, err)
}
