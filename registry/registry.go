// Package registry implements a lightweight service registry and
// discovery client on top of a key/set store.
//
// Instances of a named service register their "host:port" address under
// a shared key; discovery clients ask for one or all live addresses.
// Liveness is purely TTL-based: every read or write of a service key
// re-arms the key's expiry, so a service that stops touching its key
// simply ages out. There is no health checking, no consensus and no
// cross-key transaction — each operation is one atomic store call.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"disco/cache"
	"disco/codec"
	"disco/loadbalance"
	"disco/store"
)

var (
	// ErrInvalidService is returned before any store I/O when the
	// service name is empty.
	ErrInvalidService = errors.New("registry: invalid service name")

	// ErrInvalidOptions is returned by New for an unusable configuration,
	// such as a nil store.
	ErrInvalidOptions = errors.New("registry: invalid options")
)

// destroyTTL is the grace window Destroy leaves before a key vanishes.
// Expiring instead of deleting lets in-flight readers still observe the
// key briefly.
const destroyTTL = time.Second

// Registry is one independent registry client. Multiple instances over
// the same store are fine; each owns its read cache and its store handle
// and is disposed of individually with Close.
type Registry struct {
	store     store.Store
	codec     codec.Codec
	cache     *cache.Cache
	seed      loadbalance.Balancer
	expiry    time.Duration
	localHost string
	log       *zap.Logger
	metrics   *Metrics
}

// New builds a Registry over the given store. Defaults: prefix "clerq",
// delimiter "::", TTL refresh disabled, read cache disabled, local host
// resolved from the first usable network interface.
func New(s store.Store, opts ...Option) (*Registry, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidOptions)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	localHost := cfg.localHost
	if localHost == "" {
		addr, err := codec.LocalAddr(cfg.iface)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
		localHost = addr
	}

	return &Registry{
		store:     s,
		codec:     codec.New(cfg.prefix, cfg.delimiter),
		cache:     cache.New(cfg.cacheWindow),
		seed:      &loadbalance.RandomBalancer{},
		expiry:    cfg.expiry,
		localHost: localHost,
		log:       cfg.log,
		metrics:   cfg.metrics,
	}, nil
}

// Up registers target as a live address of service and reports how many
// addresses were newly added (0 if it was already registered). Targets
// are normalized per codec.Normalize; an unusable target is a no-op
// returning 0.
func (r *Registry) Up(ctx context.Context, service, target string) (int, error) {
	key, err := r.key(service)
	if err != nil {
		return 0, err
	}
	addr := codec.Normalize(target, r.localHost)
	if addr == "" {
		return 0, nil
	}
	added, err := r.store.SAdd(ctx, key, addr)
	if err != nil {
		return 0, fmt.Errorf("up %q: %w", service, err)
	}
	r.metrics.op("up")
	r.log.Debug("registered", zap.String("service", service), zap.String("addr", addr), zap.Int("added", added))
	return added, r.touch(ctx, key)
}

// Down removes target's normalized address from service and reports how
// many addresses were removed (0 if it was not registered).
func (r *Registry) Down(ctx context.Context, service, target string) (int, error) {
	key, err := r.key(service)
	if err != nil {
		return 0, err
	}
	addr := codec.Normalize(target, r.localHost)
	if addr == "" {
		return 0, nil
	}
	removed, err := r.store.SRem(ctx, key, addr)
	if err != nil {
		return 0, fmt.Errorf("down %q: %w", service, err)
	}
	r.metrics.op("down")
	r.log.Debug("deregistered", zap.String("service", service), zap.String("addr", addr), zap.Int("removed", removed))
	return removed, r.touch(ctx, key)
}

// Destroy schedules the whole service key for removal after a short
// grace window rather than deleting it outright. Succeeds whether or not
// the key existed.
func (r *Registry) Destroy(ctx context.Context, service string) error {
	key, err := r.key(service)
	if err != nil {
		return err
	}
	if err := r.store.Expire(ctx, key, destroyTTL); err != nil {
		return fmt.Errorf("destroy %q: %w", service, err)
	}
	r.metrics.op("destroy")
	r.log.Debug("destroyed", zap.String("service", service))
	return nil
}

// Get returns one live address of service, or "" when none is
// registered. A fresh cache entry is returned without touching the
// store; a store read refreshes the key's TTL and, when caching is
// enabled, re-warms the cache with the returned address.
func (r *Registry) Get(ctx context.Context, service string) (string, error) {
	key, err := r.key(service)
	if err != nil {
		return "", err
	}
	if r.cache.Enabled() {
		if addr, ok := r.cache.Get(service); ok {
			r.metrics.cacheHit()
			return addr, nil
		}
		r.metrics.cacheMiss()
	}

	addr, err := r.store.SRandMember(ctx, key)
	if err != nil {
		return "", fmt.Errorf("get %q: %w", service, err)
	}
	r.metrics.op("get")
	if err := r.touch(ctx, key); err != nil {
		return addr, err
	}
	if addr != "" {
		r.cache.Put(service, addr)
	}
	return addr, nil
}

// All returns every live address of service, unordered; empty when the
// key is absent. When caching is enabled a random member seeds the cache
// as a warm value for subsequent Get calls.
func (r *Registry) All(ctx context.Context, service string) ([]string, error) {
	key, err := r.key(service)
	if err != nil {
		return nil, err
	}
	addrs, err := r.store.SMembers(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("all %q: %w", service, err)
	}
	r.metrics.op("all")
	if err := r.touch(ctx, key); err != nil {
		return addrs, err
	}
	if r.cache.Enabled() && len(addrs) > 0 {
		if addr, err := r.seed.Pick(addrs); err == nil {
			r.cache.Put(service, addr)
		}
	}
	return addrs, nil
}

// Services lists the names of all services with a live (non-expired)
// key, in whatever order the store reports.
func (r *Registry) Services(ctx context.Context) ([]string, error) {
	keys, err := r.store.Keys(ctx, r.codec.Pattern())
	if err != nil {
		return nil, fmt.Errorf("services: %w", err)
	}
	r.metrics.op("services")
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if name, ok := r.codec.Service(key); ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// IsCached reports whether a fresh cache entry exists for service.
// Exposed for introspection and testing; performs no I/O.
func (r *Registry) IsCached(service string) bool {
	return r.cache.Fresh(service)
}

// LocalHost returns the address used for numeric registration targets.
func (r *Registry) LocalHost() string {
	return r.localHost
}

// Close releases the store connection. Operations issued afterwards fail
// at the store boundary.
func (r *Registry) Close() error {
	return r.store.Close()
}

// key validates the service name and derives its store key. Validation
// happens before any I/O, so a bad name never reaches the store.
func (r *Registry) key(service string) (string, error) {
	if service == "" {
		return "", ErrInvalidService
	}
	return r.codec.Key(service), nil
}

// touch re-arms the key's expiry when a TTL is configured. Refresh is a
// side effect of the primary operation: a refresh failure surfaces to
// the caller but never un-does the primary result.
func (r *Registry) touch(ctx context.Context, key string) error {
	if r.expiry <= 0 {
		return nil
	}
	if err := r.store.Expire(ctx, key, r.expiry); err != nil {
		return fmt.Errorf("refresh %q: %w", key, err)
	}
	return nil
}
