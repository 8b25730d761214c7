package store

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WithLogging wraps a Store so that every operation is logged at debug
// level with its key, outcome and duration. Logging never changes an
// operation's result.
func WithLogging(next Store, log *zap.Logger) Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &loggingStore{next: next, log: log}
}

type loggingStore struct {
	next Store
	log  *zap.Logger
}

func (s *loggingStore) SAdd(ctx context.Context, key, member string) (int, error) {
	start := time.Now()
	n, err := s.next.SAdd(ctx, key, member)
	s.log.Debug("sadd",
		zap.String("key", key),
		zap.String("member", member),
		zap.Int("added", n),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))
	return n, err
}

func (s *loggingStore) SRem(ctx context.Context, key, member string) (int, error) {
	start := time.Now()
	n, err := s.next.SRem(ctx, key, member)
	s.log.Debug("srem",
		zap.String("key", key),
		zap.String("member", member),
		zap.Int("removed", n),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))
	return n, err
}

func (s *loggingStore) SMembers(ctx context.Context, key string) ([]string, error) {
	start := time.Now()
	members, err := s.next.SMembers(ctx, key)
	s.log.Debug("smembers",
		zap.String("key", key),
		zap.Int("count", len(members)),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))
	return members, err
}

func (s *loggingStore) SRandMember(ctx context.Context, key string) (string, error) {
	start := time.Now()
	member, err := s.next.SRandMember(ctx, key)
	s.log.Debug("srandmember",
		zap.String("key", key),
		zap.String("member", member),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))
	return member, err
}

func (s *loggingStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	start := time.Now()
	keys, err := s.next.Keys(ctx, pattern)
	s.log.Debug("keys",
		zap.String("pattern", pattern),
		zap.Int("count", len(keys)),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))
	return keys, err
}

func (s *loggingStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	start := time.Now()
	err := s.next.Expire(ctx, key, ttl)
	s.log.Debug("expire",
		zap.String("key", key),
		zap.Duration("ttl", ttl),
		zap.Duration("took", time.Since(start)),
		zap.Error(err))
	return err
}

func (s *loggingStore) Close() error {
	err := s.next.Close()
	s.log.Debug("close", zap.Error(err))
	return err
}
