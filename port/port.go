// Package port allocates TCP ports, optionally reserving them against a
// host in the shared store so processes on different machines don't race
// for the same logical allocation.
//
// Claiming is optimistic: the store's atomic add-returns-whether-new is
// the only synchronization primitive. A lost race is an expected
// steady-state event, answered by retrying from the next port up — never
// an error.
package port

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"disco/codec"
	"disco/store"
)

// ErrNoFreePort is returned when the probe exhausts the port range.
var ErrNoFreePort = errors.New("port: no free port available")

// Prober finds a locally-available port. Implementations must return a
// port >= start (any port when start is 0) that was bindable at probe
// time; the allocator handles the race between probing and claiming.
type Prober interface {
	Free(start int) (int, error)
}

// NetProber probes by actually binding. The listener is closed
// immediately, so the port is only known-free at probe time.
type NetProber struct{}

func (NetProber) Free(start int) (int, error) {
	if start <= 0 {
		l, err := net.Listen("tcp", ":0")
		if err != nil {
			return 0, err
		}
		port := l.Addr().(*net.TCPAddr).Port
		l.Close()
		return port, nil
	}
	for p := start; p <= 65535; p++ {
		l, err := net.Listen("tcp", ":"+strconv.Itoa(p))
		if err != nil {
			continue
		}
		l.Close()
		return p, nil
	}
	return 0, ErrNoFreePort
}

// Allocator claims and releases ports against per-host claim keys.
type Allocator struct {
	store     store.Store
	probe     Prober
	codec     codec.Codec
	expiry    time.Duration
	log       *zap.Logger
	conflicts prometheus.Counter
}

// AllocatorOption configures an Allocator.
type AllocatorOption func(*Allocator)

// WithProber substitutes the free-port probe (tests use a stub).
func WithProber(p Prober) AllocatorOption {
	return func(a *Allocator) { a.probe = p }
}

// WithCodec aligns the allocator's claim keys with a registry's key
// scheme. Defaults to the standard prefix and delimiter.
func WithCodec(c codec.Codec) AllocatorOption {
	return func(a *Allocator) { a.codec = c }
}

// WithExpiry re-arms the claim key's TTL on every claim and release,
// mirroring the registry's refresh semantics. Zero disables refresh.
func WithExpiry(d time.Duration) AllocatorOption {
	return func(a *Allocator) { a.expiry = d }
}

// WithLogger sets the allocator's logger.
func WithLogger(log *zap.Logger) AllocatorOption {
	return func(a *Allocator) {
		if log == nil {
			log = zap.NewNop()
		}
		a.log = log
	}
}

// WithConflictCounter counts lost claim races, typically
// prometheus.NewCounter registered by the host process.
func WithConflictCounter(c prometheus.Counter) AllocatorOption {
	return func(a *Allocator) { a.conflicts = c }
}

// NewAllocator builds an Allocator over the given store.
func NewAllocator(s store.Store, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		store: s,
		probe: NetProber{},
		codec: codec.New("", ""),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Find returns an available port >= start (any port when start is 0).
//
// With an empty host this is a pure local probe: no store traffic, no
// reservation. With a host, the candidate is added to the host's claim
// set; if the add reports the member already existed another claimant
// won that port, and the search resumes from candidate+1. The loop is
// unbounded under sustained contention; cancel ctx to bail out.
func (a *Allocator) Find(ctx context.Context, start int, host string) (int, error) {
	if host == "" {
		return a.probe.Free(start)
	}
	key := a.codec.ClaimKey(host)

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		candidate, err := a.probe.Free(start)
		if err != nil {
			return 0, err
		}
		added, err := a.store.SAdd(ctx, key, strconv.Itoa(candidate))
		if err != nil {
			return 0, fmt.Errorf("claim port %d on %s: %w", candidate, host, err)
		}
		if err := a.touch(ctx, key); err != nil {
			return 0, err
		}
		if added == 1 {
			a.log.Debug("claimed port",
				zap.String("host", host), zap.Int("port", candidate))
			return candidate, nil
		}
		// Someone else holds this exact port; step past it.
		if a.conflicts != nil {
			a.conflicts.Inc()
		}
		a.log.Debug("port claim conflict",
			zap.String("host", host), zap.Int("port", candidate))
		start = candidate + 1
	}
}

// Release drops port from host's claim set and reports how many claims
// were removed: 1 if the port was held, 0 if there was nothing to
// release.
func (a *Allocator) Release(ctx context.Context, port int, host string) (int, error) {
	key := a.codec.ClaimKey(host)
	removed, err := a.store.SRem(ctx, key, strconv.Itoa(port))
	if err != nil {
		return 0, fmt.Errorf("release port %d on %s: %w", port, host, err)
	}
	return removed, a.touch(ctx, key)
}

func (a *Allocator) touch(ctx context.Context, key string) error {
	if a.expiry <= 0 {
		return nil
	}
	if err := a.store.Expire(ctx, key, a.expiry); err != nil {
		return fmt.Errorf("refresh %q: %w", key, err)
	}
	return nil
}
