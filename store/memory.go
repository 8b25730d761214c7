package store

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory. It exists for tests and
// single-process setups where sharing a registry across hosts is not
// needed; the semantics (counts, lazy expiry, glob prefix matching)
// mirror the Redis adapter.
type MemoryStore struct {
	mu       sync.Mutex
	sets     map[string]map[string]struct{}
	deadline map[string]time.Time
	skew     time.Duration // test clock offset, see FastForward
	closed   bool
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sets:     make(map[string]map[string]struct{}),
		deadline: make(map[string]time.Time),
	}
}

// FastForward advances the store's notion of time so tests can observe
// expiry without sleeping, in the manner of miniredis.
func (s *MemoryStore) FastForward(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skew += d
}

func (s *MemoryStore) SAdd(_ context.Context, key, member string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.reapLocked(key)
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	if _, exists := set[member]; exists {
		return 0, nil
	}
	set[member] = struct{}{}
	return 1, nil
}

func (s *MemoryStore) SRem(_ context.Context, key, member string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.reapLocked(key)
	set, ok := s.sets[key]
	if !ok {
		return 0, nil
	}
	if _, exists := set[member]; !exists {
		return 0, nil
	}
	delete(set, member)
	if len(set) == 0 {
		delete(s.sets, key)
		delete(s.deadline, key)
	}
	return 1, nil
}

func (s *MemoryStore) SMembers(_ context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	s.reapLocked(key)
	members := make([]string, 0, len(s.sets[key]))
	for m := range s.sets[key] {
		members = append(members, m)
	}
	return members, nil
}

func (s *MemoryStore) SRandMember(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}
	s.reapLocked(key)
	set := s.sets[key]
	if len(set) == 0 {
		return "", nil
	}
	n := rand.Intn(len(set))
	for m := range set {
		if n == 0 {
			return m, nil
		}
		n--
	}
	return "", nil
}

func (s *MemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range s.sets {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		s.reapLocked(k)
		if _, live := s.sets[k]; live {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.reapLocked(key)
	if _, ok := s.sets[key]; !ok {
		return nil
	}
	s.deadline[key] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemoryStore) now() time.Time {
	return time.Now().Add(s.skew)
}

// reapLocked drops the key if its deadline has passed. Expiry is lazy:
// nothing is scheduled, the key just stops being observable.
func (s *MemoryStore) reapLocked(key string) {
	dl, ok := s.deadline[key]
	if !ok {
		return
	}
	if !s.now().Before(dl) {
		delete(s.sets, key)
		delete(s.deadline, key)
	}
}
