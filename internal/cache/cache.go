// Package cache provides best effort json caching of read heavy endpoints in redis.
// Cache failures are logged and never fail a request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// Keys and lifetimes of the cached documents.
const (
	KeyBanners         = "banner_data"
	KeyDirectorMessage = "director_message"
	KeyCards           = "cards"
	KeyFoundations     = "foundation_data"
	KeyGopalPariwar    = "gopal_pariwar_data"

	// PatternFoundationPages matches every paginated foundation listing.
	PatternFoundationPages = "foundations:*"

	TTLBanners         = 600 * time.Second
	TTLDirectorMessage = 3600 * time.Second
	TTLCards           = 3600 * time.Second
	TTLFoundations     = 1800 * time.Second
	TTLGopalPariwar    = 1800 * time.Second
	TTLFoundationPage  = 600 * time.Second
)

// FoundationListKey returns the key of one page of the admin foundation listing.
func FoundationListKey(page, limit int, search, isActive string) string {
	return fmt.Sprintf("foundations:all:%d:%d:%s:%s", page, limit, search, isActive)
}

// FoundationKey returns the key of a single foundation.
func FoundationKey(id uint64) string {
	return fmt.Sprintf("foundation:%d", id)
}

// Cache stores raw documents by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
	Close() error
}

// New returns a redis backed cache if enabled, a no-op cache otherwise.
func New(cfg config.Cache) (Cache, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}

	return NewRedis(client), nil
}

// Redis implements Cache with go-redis.
type Redis struct {
	client *redis.Client
}

var _ Cache = (*Redis)(nil)

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}

	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	return val, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.SetEx(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis setex %s: %w", key, err)
	}

	return nil
}

// Delete implements Cache.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}

	return nil
}

// DeletePattern removes all keys matching pattern using SCAN.
func (r *Redis) DeletePattern(ctx context.Context, pattern string) error {
	var cursor uint64

	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result() //nolint:mnd
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", pattern, err)
		}

		if err = r.Delete(ctx, keys...); err != nil {
			return err
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close implements Cache.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Nop is used when caching is disabled. Every Get is a miss.
type Nop struct{}

var _ Cache = Nop{}

// Get implements Cache.
func (Nop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

// Set implements Cache.
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete implements Cache.
func (Nop) Delete(context.Context, ...string) error { return nil }

// DeletePattern implements Cache.
func (Nop) DeletePattern(context.Context, string) error { return nil }

// Close implements Cache.
func (Nop) Close() error { return nil }

// Remember returns the cached document under key, or calls load, caches its result and returns it.
// A failing cache degrades to calling load.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	var out T

	if raw, err := c.Get(ctx, key); err == nil {
		if err = json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}

		log.Warn().Err(err).Str("key", key).Msg("dropping undecodable cache entry")
	} else if !errors.Is(err, ErrMiss) {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	out, err := load()
	if err != nil {
		return out, err
	}

	raw, err := json.Marshal(out)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return out, nil
	}

	if err = c.Set(ctx, key, raw, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}

	return out, nil
}

// Invalidate deletes keys and logs failures.
func Invalidate(ctx context.Context, c Cache, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}

// InvalidatePattern deletes keys matching pattern and logs failures.
func InvalidatePattern(ctx context.Context, c Cache, pattern string) {
	if err := c.DeletePattern(ctx, pattern); err != nil {
		log.Warn().Err(err).Str("pattern", pattern).Msg("cache invalidation failed")
	}
}
