// Package loadbalance provides strategies for picking one address out of
// a discovered set.
//
// Three strategies are implemented:
//   - Random:         uniform pick; also what the registry core uses to
//     seed its read cache after a full enumeration
//   - RoundRobin:     stateless services, equal-capacity instances
//   - ConsistentHash: stateful services requiring affinity by key
package loadbalance

import "errors"

// ErrNoAddresses is returned by Pick when the address list is empty.
var ErrNoAddresses = errors.New("loadbalance: no addresses available")

// Balancer is the interface for selection strategies. Pick may be called
// on every discovery read and must be goroutine-safe.
type Balancer interface {
	// Pick selects one address from the list.
	Pick(addrs []string) (string, error)

	// Name returns the strategy name (for logging/debugging).
	Name() string
}
