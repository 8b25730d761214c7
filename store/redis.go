package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a Redis server. Redis sets already have
// exactly the semantics the registry needs, so every method is a single
// command.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis server at addr ("host:port").
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
}

// NewRedisStoreFromClient wraps an existing client. The caller keeps
// ownership questions simple: Close closes the client either way.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SAdd(ctx context.Context, key, member string) (int, error) {
	n, err := s.client.SAdd(ctx, key, member).Result()
	return int(n), err
}

func (s *RedisStore) SRem(ctx context.Context, key, member string) (int, error) {
	n, err := s.client.SRem(ctx, key, member).Result()
	return int(n), err
}

func (s *RedisStore) SMembers(ctx context.Context, key string) ([]string, error) {
	return s.client.SMembers(ctx, key).Result()
}

func (s *RedisStore) SRandMember(ctx context.Context, key string) (string, error) {
	member, err := s.client.SRandMember(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Absent or empty key is not an error for the registry.
		return "", nil
	}
	return member, err
}

func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return s.client.Keys(ctx, pattern).Result()
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Expire(ctx, key, ttl).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
