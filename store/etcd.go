package store

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// memberSep separates the set key from the member inside an etcd key.
// The unit separator cannot appear in service names, hosts or ports, so
// splitting on its first occurrence is unambiguous.
const memberSep = "\x1f"

// EtcdStore implements Store on etcd v3. etcd has no native sets, so a
// set is modelled as one etcd key per member:
//
//	Key:   {setKey}\x1f{member}
//	Value: "" (membership is the key's existence)
//
// SAdd uses a create-revision transaction as the atomic
// add-returns-whether-new primitive; key expiry is carried by one lease
// per set key, re-attached to every member on Expire.
type EtcdStore struct {
	client *clientv3.Client

	mu     sync.Mutex
	leases map[string]clientv3.LeaseID // set key -> current lease
	ttls   map[string]int64            // set key -> lease TTL in seconds
	closed bool
}

// NewEtcdStore connects to the given etcd endpoints.
func NewEtcdStore(endpoints []string) (*EtcdStore, error) {
	c, err := clientv3.New(clientv3.Config{Endpoints: endpoints})
	if err != nil {
		return nil, err
	}
	return &EtcdStore{
		client: c,
		leases: make(map[string]clientv3.LeaseID),
		ttls:   make(map[string]int64),
	}, nil
}

func (s *EtcdStore) SAdd(ctx context.Context, key, member string) (int, error) {
	if err := s.alive(); err != nil {
		return 0, err
	}
	k := key + memberSep + member

	var opts []clientv3.OpOption
	s.mu.Lock()
	if lease, ok := s.leases[key]; ok {
		// New members join the set's current expiry, like Redis members
		// inheriting the key's TTL.
		opts = append(opts, clientv3.WithLease(lease))
	}
	s.mu.Unlock()

	// Put only if the key has never been created: the transaction result
	// tells us atomically whether the member is new.
	resp, err := s.client.Txn(ctx).
		If(clientv3.Compare(clientv3.CreateRevision(k), "=", 0)).
		Then(clientv3.OpPut(k, "", opts...)).
		Commit()
	if err != nil {
		return 0, err
	}
	if resp.Succeeded {
		return 1, nil
	}
	return 0, nil
}

func (s *EtcdStore) SRem(ctx context.Context, key, member string) (int, error) {
	if err := s.alive(); err != nil {
		return 0, err
	}
	resp, err := s.client.Delete(ctx, key+memberSep+member)
	if err != nil {
		return 0, err
	}
	return int(resp.Deleted), nil
}

func (s *EtcdStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if err := s.alive(); err != nil {
		return nil, err
	}
	prefix := key + memberSep
	resp, err := s.client.Get(ctx, prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, err
	}
	members := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		members = append(members, string(kv.Key)[len(prefix):])
	}
	return members, nil
}

func (s *EtcdStore) SRandMember(ctx context.Context, key string) (string, error) {
	members, err := s.SMembers(ctx, key)
	if err != nil || len(members) == 0 {
		return "", err
	}
	return members[rand.Intn(len(members))], nil
}

func (s *EtcdStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := s.alive(); err != nil {
		return nil, err
	}
	prefix := strings.TrimSuffix(pattern, "*")
	resp, err := s.client.Get(ctx, prefix, clientv3.WithPrefix(), clientv3.WithKeysOnly())
	if err != nil {
		return nil, err
	}
	// Member keys collapse onto their set key, deduplicated in encounter
	// order.
	seen := make(map[string]bool)
	var keys []string
	for _, kv := range resp.Kvs {
		k := string(kv.Key)
		if i := strings.Index(k, memberSep); i >= 0 {
			k = k[:i]
		}
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Expire attaches a lease with the given TTL to every member of the set.
// Repeating the same TTL only refreshes the existing lease; a different
// TTL grants a new lease and re-binds the members to it.
func (s *EtcdStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.alive(); err != nil {
		return err
	}
	secs := int64(ttl / time.Second)
	if secs < 1 {
		secs = 1
	}

	s.mu.Lock()
	current, haveLease := s.leases[key]
	currentTTL := s.ttls[key]
	s.mu.Unlock()

	if haveLease && currentTTL == secs {
		if _, err := s.client.KeepAliveOnce(ctx, current); err == nil {
			return nil
		}
		// The lease may have already expired out from under us; grant a
		// fresh one below.
	}

	lease, err := s.client.Grant(ctx, secs)
	if err != nil {
		return err
	}

	prefix := key + memberSep
	resp, err := s.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return err
	}
	if len(resp.Kvs) > 0 {
		ops := make([]clientv3.Op, 0, len(resp.Kvs))
		for _, kv := range resp.Kvs {
			ops = append(ops, clientv3.OpPut(string(kv.Key), string(kv.Value), clientv3.WithLease(lease.ID)))
		}
		if _, err := s.client.Txn(ctx).Then(ops...).Commit(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.leases[key] = lease.ID
	s.ttls[key] = secs
	s.mu.Unlock()

	if haveLease && current != lease.ID {
		// Members were re-bound above; revoking the old lease only
		// discards its timer.
		_, _ = s.client.Revoke(ctx, current)
	}
	return nil
}

func (s *EtcdStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.client.Close()
}

func (s *EtcdStore) alive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}
