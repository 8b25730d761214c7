package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr())
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisSetCounts(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedis(t)

	added, err := s.SAdd(ctx, "clerq::svc-a", "10.0.0.5:8000")
	require.NoError(t, err)
	assert.Equal(t, 1, added)

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

func TestRedisRandMemberAbsentKey(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedis(t)

	// redis.Nil must not leak out as an error.
	member, err := s.SRandMember(ctx, "clerq::nope")
	require.NoError(t, err)
	assert.Empty(t, member)
}

func TestRedisMembersAndKeys(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestRedis(t)

	for _, m := range []string{"10.0.0.5:8000", "10.0.0.6:8000"} {
		_, err := s.SAdd(ctx, "clerq::svc-a", m)
		require.NoError(t, err)
	}
	_, err := s.SAdd(ctx, "other::svc-b", "10.0.0.7:8000")
	require.NoError(t, err)

	members, err := s.SMembers(ctx, "clerq::svc-a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"10.0.0.5:8000", "10.0.0.6:8000"}, members)

	keys, err := s.Keys(ctx, "clerq::*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"clerq::svc-a"}, keys)
}

func TestRedisExpire(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestRedis(t)

	_, err := s.SAdd(ctx, "clerq::svc-a", "10.0.0.5:8000")
	require.NoError(t, err)
	require.NoError(t, s.Expire(ctx, "clerq::svc-a", time.Second))

	mr.FastForward(2 * time.Second)

	members, err := s.SMembers(ctx, "clerq::svc-a")
	require.NoError(t, err)
	assert.Empty(t, members)

	keys, err := s.Keys(ctx, "clerq::*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestRedisClose(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisStore(mr.Addr())
	require.NoError(t, s.Close())

	_, err := s.SAdd(context.Background(), "clerq::svc-a", "10.0.0.5:8000")
	assert.Error(t, err)
}
