// Package store defines the contract the registry core expects from its
// backing key/set store, together with concrete adapters.
//
// The registry only needs a handful of set operations with atomic
// single-key semantics. Anything that can answer "was this member newly
// added?" atomically can back the registry:
//
//   - Redis maps one-to-one (SADD/SREM/SMEMBERS/SRANDMEMBER/KEYS/EXPIRE)
//   - etcd emulates sets with one key per member and a create-revision
//     transaction as the compare-and-swap
//   - Memory backs tests and single-process setups
//
// The atomic add-returns-whether-new guarantee matters: the port
// allocator uses it as its only synchronization primitive.
package store

import (
	"context"
	"errors"
	"time"
)

// Standard error variables shared by the adapters.
var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store: closed")
)

// Store is the set-store contract consumed by the registry core and the
// port allocator. All operations act on a single key and must be atomic
// with respect to concurrent callers of the same key.
type Store interface {
	// SAdd adds member to the set at key and reports how many members
	// were newly added (0 if it was already present, 1 otherwise).
	SAdd(ctx context.Context, key, member string) (int, error)

	// SRem removes member from the set at key and reports how many
	// members were removed (0 or 1).
	SRem(ctx context.Context, key, member string) (int, error)

	// SMembers returns the full member list, unordered. A missing key
	// yields an empty list, not an error.
	SMembers(ctx context.Context, key string) ([]string, error)

	// SRandMember returns one member chosen by the store, or "" when the
	// key is absent or the set is empty.
	SRandMember(ctx context.Context, key string) (string, error)

	// Keys returns all keys matching a glob-style prefix pattern such as
	// "clerq::*".
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Expire schedules key deletion after ttl. Calling it again resets
	// the countdown.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Close releases the underlying connection. Idempotent; operations
	// issued afterwards fail at the store boundary.
	Close() error
}
