package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rsilvagit/joblist/internal/model"
)

const keyPrefix = "joblist:session:"

// RedisStore keeps sessions in Redis, shared with the identity provider.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis at the given URL and returns a RedisStore.
// URL format: redis://localhost:6379/0
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("session: invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("session: redis ping failed: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Get loads the user of a session id.
func (s *RedisStore) Get(ctx context.Context, id string) (*model.User, error) {
	data, err := s.client.Get(ctx, buildKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: redis get: %w", err)
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("session: decoding user: %w", err)
	}
	return &user, nil
}

// Put stores a user under a session id with the configured TTL.
func (s *RedisStore) Put(ctx context.Context, id string, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: marshal error: %w", err)
	}
	return s.client.Set(ctx, buildKey(id), data, s.ttl).Err()
}

// Delete removes a session.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, buildKey(id)).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func buildKey(id string) string {
	return keyPrefix + id
}
