package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/profilehue/profilehue-server/internal/palette"
)

// Redis is a shared cache for multi-instance deployments.
type Redis struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
}

// NewRedis connects to addr and verifies the connection with PING.
// Keys are scoped to namespace.
func NewRedis(ctx context.Context, addr string, db int, namespace string, ttl time.Duration, logger *slog.Logger) (*Redis, error) {
	if addr == "" {
		return nil, errors.New("redis cache: address is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis (%s, db %d): %w", addr, db, err)
	}

	if logger != nil {
		logger.Info("palette cache opened", "backend", BackendRedis, "addr", addr, "db", db, "namespace", namespace)
	}
	return &Redis{rdb: rdb, namespace: namespace, ttl: ttl}, nil
}

// Get returns the cached palette for imageURL, or ErrMiss.
func (r *Redis) Get(ctx context.Context, imageURL string) (palette.Palette, error) {
	data, err := r.rdb.Get(ctx, Key(r.namespace, imageURL)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// Set caches p for imageURL with SET EX. Empty palettes are skipped.
func (r *Redis) Set(ctx context.Context, imageURL string, p palette.Palette) error {
	if len(p) == 0 {
		return nil
	}
	data, err := encode(p)
	if err != nil {
		return err
	}
	// A zero expiration keeps the key without a TTL.
	return r.rdb.Set(ctx, Key(r.namespace, imageURL), data, r.ttl).Err()
}

// Close closes the client connection pool.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
