package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"
)

// ConsistentHashBalancer maps keys to addresses using a hash ring. The
// same key always maps to the same address (until the ring changes),
// providing affinity — useful for stateful services or local caches.
//
// Virtual nodes: each real address is mapped to N virtual nodes on the
// ring. Without them a handful of addresses might cluster together,
// causing uneven distribution; 100 virtual nodes per address gives
// statistical uniformity.
type ConsistentHashBalancer struct {
	replicas int               // Virtual nodes per real address
	ring     []uint32          // Sorted hash values on the ring
	nodes    map[uint32]string // Hash value -> address mapping
}

// NewConsistentHashBalancer creates a hash ring with 100 virtual nodes
// per address.
func NewConsistentHashBalancer() *ConsistentHashBalancer {
	return &ConsistentHashBalancer{
		replicas: 100,
		ring:     []uint32{},
		nodes:    make(map[uint32]string),
	}
}

// Add places an address onto the hash ring with N virtual nodes, each
// hashed from "{addr}#{i}" to spread evenly across the ring.
func (b *ConsistentHashBalancer) Add(addr string) {
	for i := 0; i < b.replicas; i++ {
		hash := crc32.ChecksumIEEE([]byte(fmt.Sprintf("%s#%d", addr, i)))
		b.ring = append(b.ring, hash)
		b.nodes[hash] = addr
	}
	// Keep the ring sorted for binary search in PickKey()
	sort.Slice(b.ring, func(i, j int) bool {
		return b.ring[i] < b.ring[j]
	})
}

// PickKey finds the address responsible for the given key: hash the key,
// binary-search for the first node >= hash, wrapping around to the first
// node past the top of the ring.
//
// Note: PickKey takes a string key (not []string) because consistent
// hashing is key-based — it does not implement the Balancer interface
// directly.
func (b *ConsistentHashBalancer) PickKey(key string) (string, error) {
	if len(b.ring) == 0 {
		return "", ErrNoAddresses
	}
	hash := crc32.ChecksumIEEE([]byte(key))

	idx := sort.Search(len(b.ring), func(i int) bool {
		return b.ring[i] >= hash
	})
	if idx == len(b.ring) {
		idx = 0
	}
	return b.nodes[b.ring[idx]], nil
}

func (b *ConsistentHashBalancer) Name() string {
	return "ConsistentHash"
}
