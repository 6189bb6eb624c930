// Package redis provides the Redis client and the extraction result cache
// built on top of it.
package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/structflo/structflo-ner/internal/config"
	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

var (
	// ErrClientClosed is returned by operations on a closed client.
	ErrClientClosed = apperrors.New(apperrors.ErrCodeCacheError, "redis client is closed")
	// ErrConnectionFailed is returned when the initial ping fails.
	ErrConnectionFailed = apperrors.New(apperrors.ErrCodeCacheError, "redis connection failed")
)

// Client wraps a go-redis client with lifecycle management.
type Client struct {
	rdb    *redis.Client
	logger logging.Logger
	mu     sync.RWMutex
	closed bool
}

// NewClient dials Redis according to cfg and verifies connectivity with a
// bounded ping before returning.
func NewClient(cfg config.RedisConfig, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	client := &Client{rdb: rdb, logger: log.Named("redis")}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, ErrConnectionFailed.WithCause(err)
	}

	log.Info("redis connected", logging.String("addr", cfg.Addr), logging.Int("db", cfg.DB))
	return client, nil
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return c.rdb.Ping(ctx).Err()
}

// Get returns the value at key, or redis.Nil inside the error when absent.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrClientClosed
	}
	return c.rdb.Get(ctx, key).Bytes()
}

// Set stores value at key with the given TTL; 0 means no expiry.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Delete removes keys; missing keys are not an error.
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// IsMiss reports whether err marks a cache miss rather than a failure.
func IsMiss(err error) bool {
	return err == redis.Nil
}

// Close releases the connection pool.  Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rdb.Close()
}
