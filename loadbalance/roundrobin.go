package loadbalance

import "sync/atomic"

// RoundRobinBalancer distributes picks evenly across all addresses in
// order. Uses an atomic counter for lock-free, goroutine-safe operation.
//
// Best for: stateless services where all instances have similar capacity.
type RoundRobinBalancer struct {
	counter int64 // Atomic counter, incremented on each Pick()
}

// Pick selects the next address in round-robin order.
func (b *RoundRobinBalancer) Pick(addrs []string) (string, error) {
	if len(addrs) == 0 {
		return "", ErrNoAddresses
	}
	index := atomic.AddInt64(&b.counter, 1) % int64(len(addrs))
	return addrs[index], nil
}

func (b *RoundRobinBalancer) Name() string {
	return "RoundRobin"
}
