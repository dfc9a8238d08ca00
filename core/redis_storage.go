// Package core provides the shared plumbing for the marketplace
// client: configuration, errors, logging interfaces, the HTTP request
// helper, the token store and the Storage persistence port with its
// memory, file and Redis implementations.
//
// This file implements the Redis-backed Storage adapter.
//
// Purpose:
// - Persists client store state (cart, token) in Redis
// - Lets several headless client instances share one cart/session
// - Namespaces keys to prevent collisions with other applications
//
// Key layout:
// All keys are prefixed with the configured namespace, e.g.
// "campesina:cart", "campesina:token".
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStorage is a Redis-backed implementation of the Storage port
type RedisStorage struct {
	client    *redis.Client
	namespace string
	logger    Logger
}

// RedisStorageOptions configures the Redis storage
type RedisStorageOptions struct {
	RedisURL  string
	Namespace string // Key namespace, e.g. "campesina"
	Logger    Logger // Optional logger
}

// NewRedisStorage creates a Redis storage and verifies the connection
func NewRedisStorage(opts RedisStorageOptions) (*RedisStorage, error) {
	logger := opts.Logger
	if logger == nil {
		logger = &NoOpLogger{}
	}

	if opts.RedisURL == "" {
		return nil, fmt.Errorf("redis URL is required: %w", ErrInvalidConfiguration)
	}

	redisOpt, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		logger.Error("Failed to parse Redis URL", map[string]interface{}{
			"error":     err,
			"redis_url": opts.RedisURL,
		})
		return nil, fmt.Errorf("invalid Redis URL: %w", ErrInvalidConfiguration)
	}

	client := redis.NewClient(redisOpt)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", map[string]interface{}{
			"error":     err,
			"namespace": opts.Namespace,
		})
		return nil, fmt.Errorf("failed to connect to Redis: %w", ErrConnectionFailed)
	}

	namespace := opts.Namespace
	if namespace == "" {
		namespace = "campesina"
	}

	logger.Info("Redis storage connected", map[string]interface{}{
		"namespace": namespace,
	})

	return &RedisStorage{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}, nil
}

func (r *RedisStorage) key(key string) string {
	return r.namespace + ":" + key
}

// Load retrieves a value; missing keys return an empty string
func (r *RedisStorage) Load(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load %q: %w", key, err)
	}
	return value, nil
}

// Save stores a value with no expiration; store state has no natural TTL
func (r *RedisStorage) Save(ctx context.Context, key string, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %q: %w", key, err)
	}
	return nil
}

// Delete removes a value
func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying Redis connection
func (r *RedisStorage) Close() error {
	r.logger.Debug("Closing Redis storage connection", map[string]interface{}{
		"namespace": r.namespace,
	})
	return r.client.Close()
}

// NewStorage builds the Storage implementation selected by cfg.
func NewStorage(cfg *Config, logger Logger) (Storage, error) {
	switch cfg.Storage.Provider {
	case "memory":
		s := NewMemoryStorage()
		s.SetLogger(logger)
		return s, nil
	case "file":
		s, err := NewFileStorage(cfg.Storage.Dir)
		if err != nil {
			return nil, err
		}
		s.SetLogger(logger)
		return s, nil
	case "redis":
		return NewRedisStorage(RedisStorageOptions{
			RedisURL:  cfg.Storage.RedisURL,
			Namespace: cfg.Storage.Namespace,
			Logger:    logger,
		})
	default:
		return nil, fmt.Errorf("%w: unknown storage provider %q", ErrInvalidConfiguration, cfg.Storage.Provider)
	}
}
