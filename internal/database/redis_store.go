package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "study-data-"

// RedisStore keeps plan state blobs in Redis under study-data-<userID>
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to redisURL and checks the connection
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return NewRedisStoreFromClient(client), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// LoadPlanState returns the stored blob, or nil when there is none
func (s *RedisStore) LoadPlanState(ctx context.Context, userID string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan state: %w", err)
	}
	return data, nil
}

// SavePlanState replaces the blob of a profile
func (s *RedisStore) SavePlanState(ctx context.Context, userID string, data []byte) error {
	if err := s.client.Set(ctx, redisKeyPrefix+userID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save plan state: %w", err)
	}
	return nil
}

// DeletePlanState removes the blob of a profile
func (s *RedisStore) DeletePlanState(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("failed to delete plan state: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
