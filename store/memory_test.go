package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetCounts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	added, err := s.SAdd(ctx, "clerq::svc-a", "10.0.0.5:8000")
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	// Re-adding an existing member is not an error, just a zero count.
	added, err = s.SAdd(ctx, "clerq::svc-a", "10.0.0.5:8000")
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	removed, err := s.SRem(ctx, "clerq::svc-a", "10.0.0.5:8000")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = s.SRem(ctx, "clerq::svc-a", "10.0.0.5:8000")
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestMemoryReadsOnAbsentKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	members, err := s.SMembers(ctx, "clerq::nope")
	require.NoError(t, err)
	assert.Empty(t, members)

	member, err := s.SRandMember(ctx, "clerq::nope")
	require.NoError(t, err)
	assert.Empty(t, member)
}

func TestMemoryKeysByPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.SAdd(ctx, "clerq::svc-a", "10.0.0.5:8000")
	require.NoError(t, err)
	_, err = s.SAdd(ctx, "clerq::svc-b", "10.0.0.6:8000")
	require.NoError(t, err)
	_, err = s.SAdd(ctx, "other::svc-c", "10.0.0.7:8000")
	require.NoError(t, err)

	keys, err := s.Keys(ctx, "clerq::*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"clerq::svc-a", "clerq::svc-b"}, keys)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.SAdd(ctx, "clerq::svc-a", "10.0.0.5:8000")
	require.NoError(t, err)
	require.NoError(t, s.Expire(ctx, "clerq::svc-a", time.Second))

	// Still there inside the window.
	members, err := s.SMembers(ctx, "clerq::svc-a")
	require.NoError(t, err)
	assert.Len(t, members, 1)

	// Refresh resets the countdown.
	s.FastForward(700 * time.Millisecond)
	require.NoError(t, s.Expire(ctx, "clerq::svc-a", time.Second))
	s.FastForward(700 * time.Millisecond)
	members, err = s.SMembers(ctx, "clerq::svc-a")
	require.NoError(t, err)
	assert.Len(t, members, 1)

	s.FastForward(time.Second)
	members, err = s.SMembers(ctx, "clerq::svc-a")
	require.NoError(t, err)
	assert.Empty(t, members)

	keys, err := s.Keys(ctx, "clerq::*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMemoryExpireAbsentKeyIsNoop(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, s.Expire(context.Background(), "clerq::nope", time.Second))
}

func TestMemoryClosed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close()) // idempotent

	_, err := s.SAdd(ctx, "clerq::svc-a", "10.0.0.5:8000")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.SMembers(ctx, "clerq::svc-a")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Expire(ctx, "clerq::svc-a", time.Second), ErrClosed)
}
