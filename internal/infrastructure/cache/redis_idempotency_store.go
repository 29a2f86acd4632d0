package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dorahyong/buyma/internal/domain/shared"
	"github.com/dorahyong/buyma/internal/infrastructure/config"
)

// defaultKeyPrefix namespaces webhook fingerprints in Redis
const defaultKeyPrefix = "webhook:idempotency:"

// RedisIdempotencyStore implements IdempotencyStore using Redis. It is
// suitable when several receiver instances share webhook deduplication state.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// NewRedisIdempotencyStore creates a Redis-backed idempotency store
func NewRedisIdempotencyStore(cfg *config.RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}, nil
}

// NewRedisIdempotencyStoreWithClient creates a store with an existing Redis
// client, useful for testing or sharing a client across components
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// MarkProcessed marks a fingerprint as processed with a TTL. Returns true if
// it was newly marked, false if already seen. SETNX makes the check-and-set
// atomic across instances.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, fingerprint string, ttl time.Duration) (bool, error) {
	key := s.keyPrefix + fingerprint

	result, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark fingerprint as processed: %w", err)
	}
	return result, nil
}

// IsProcessed checks whether a fingerprint has already been processed
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, fingerprint string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.keyPrefix+fingerprint).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}
	return exists > 0, nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}
