package loadbalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var addrs = []string{"10.0.0.1:8001", "10.0.0.2:8002", "10.0.0.3:8003"}

func TestRandomPicksAMember(t *testing.T) {
	b := &RandomBalancer{}
	for i := 0; i < 50; i++ {
		addr, err := b.Pick(addrs)
		require.NoError(t, err)
		assert.Contains(t, addrs, addr)
	}

	_, err := b.Pick(nil)
	assert.ErrorIs(t, err, ErrNoAddresses)
}

func TestRoundRobinCyclesEvenly(t *testing.T) {
	b := &RoundRobinBalancer{}
	counts := make(map[string]int)
	for i := 0; i < 3*len(addrs); i++ {
		addr, err := b.Pick(addrs)
		require.NoError(t, err)
		counts[addr]++
	}
	for _, addr := range addrs {
		assert.Equal(t, 3, counts[addr], addr)
	}

	_, err := b.Pick([]string{})
	assert.ErrorIs(t, err, ErrNoAddresses)
}

func TestConsistentHashIsStablePerKey(t *testing.T) {
	b := NewConsistentHashBalancer()
	for _, addr := range addrs {
		b.Add(addr)
	}

	first, err := b.PickKey("session-42")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := b.PickKey("session-42")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestConsistentHashEmptyRing(t *testing.T) {
	b := NewConsistentHashBalancer()
	_, err := b.PickKey("anything")
	assert.ErrorIs(t, err, ErrNoAddresses)
}
