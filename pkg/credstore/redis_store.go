package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arcanahq/arcana-go/pkg/session"
)

// RedisConfig holds the Redis credential store configuration
type RedisConfig struct {
	// ConnectionURL in the format "redis://:password@localhost:6379/0"
	ConnectionURL  string        `env:"ARCANA_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	KeyPrefix      string        `env:"ARCANA_REDIS_KEY_PREFIX" envDefault:"arcana:credentials"`
	ConnectTimeout time.Duration `env:"ARCANA_REDIS_CONNECT_TIMEOUT" envDefault:"5s"`
}

// RedisStore keeps credentials in Redis under a key prefix. It suits
// shared or headless deployments of the SDK where the local filesystem is
// not durable. Values carry no TTL; only an explicit logout removes them.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption is a functional option for configuring the RedisStore
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the default "arcana:credentials" key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// NewRedisStore wraps an existing Redis client. The server is pinged once
// so a misconfigured address fails at construction, not at first login.
func NewRedisStore(ctx context.Context, client redis.UniversalClient, opts ...RedisOption) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("credstore: redis client is required")
	}

	s := &RedisStore{
		client: client,
		prefix: "arcana:credentials",
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Join(ErrRedisNotReady, err)
	}

	return s, nil
}

// ConnectRedis dials Redis from configuration and returns a ready store.
func ConnectRedis(ctx context.Context, cfg RedisConfig, opts ...RedisOption) (*RedisStore, error) {
	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, fmt.Errorf("credstore: parse redis url: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client := redis.NewClient(opt)
	if cfg.KeyPrefix != "" {
		opts = append([]RedisOption{WithKeyPrefix(cfg.KeyPrefix)}, opts...)
	}

	store, err := NewRedisStore(ctx, client, opts...)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return store, nil
}

// Get returns the stored value for key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", session.ErrCredentialNotFound
	}
	if err != nil {
		return "", fmt.Errorf("credstore: redis get: %w", err)
	}
	return value, nil
}

// Set stores the value under key without expiry.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("credstore: redis set: %w", err)
	}
	return nil
}

// Remove deletes the key; absent keys are ignored.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("credstore: redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) redisKey(key string) string {
	return s.prefix + ":" + key
}

var _ session.CredentialStore = (*RedisStore)(nil)
