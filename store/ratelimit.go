package store

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// WithRateLimit wraps a Store with a token-bucket limiter shared by all
// operations. Useful when many processes hammer one shared store; the
// port allocator's conflict-retry loop in particular can burst.
//
// Each operation waits for a token, so a caller-supplied context is the
// way out of a saturated bucket.
func WithRateLimit(next Store, r rate.Limit, burst int) Store {
	return &rateLimitedStore{next: next, limiter: rate.NewLimiter(r, burst)}
}

type rateLimitedStore struct {
	next    Store
	limiter *rate.Limiter
}

func (s *rateLimitedStore) SAdd(ctx context.Context, key, member string) (int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return s.next.SAdd(ctx, key, member)
}

func (s *rateLimitedStore) SRem(ctx context.Context, key, member string) (int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	return s.next.SRem(ctx, key, member)
}

func (s *rateLimitedStore) SMembers(ctx context.Context, key string) ([]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.next.SMembers(ctx, key)
}

func (s *rateLimitedStore) SRandMember(ctx context.Context, key string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return s.next.SRandMember(ctx, key)
}

func (s *rateLimitedStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return s.next.Keys(ctx, pattern)
}

func (s *rateLimitedStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.next.Expire(ctx, key, ttl)
}

func (s *rateLimitedStore) Close() error {
	return s.next.Close()
}
