/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-backed read-through cache for derived
// interval counts.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultIntervalTTL bounds staleness if an invalidation is ever lost.
const DefaultIntervalTTL = 1 * time.Hour

// KeyIntervalCount is the Redis key prefix for per-program interval counts.
const KeyIntervalCount = "mimir:cache:intervals:" // + program name

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	IntervalTTL   time.Duration
}

// Cache caches interval counts keyed by program name. A nil client means
// caching is disabled and every method degrades to a no-op.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// New creates a cache. An empty Redis address or a failed ping yields a
// disabled cache rather than an error; the lineup works without Redis.
func New(cfg Config, logger zerolog.Logger) *Cache {
	c := &Cache{
		ttl:    cfg.IntervalTTL,
		logger: logger.With().Str("component", "cache").Logger(),
	}
	if c.ttl <= 0 {
		c.ttl = DefaultIntervalTTL
	}

	if cfg.RedisAddr == "" {
		return c
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		return c
	}

	c.client = client
	c.logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis interval cache initialized")
	return c
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IntervalCount returns a cached count for the program, if present.
func (c *Cache) IntervalCount(ctx context.Context, name string) (int, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}
	val, err := c.client.Get(ctx, KeyIntervalCount+name).Result()
	if err == redis.Nil {
		return 0, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("program", name).Msg("cache read failed")
		return 0, false
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return count, true
}

// SetIntervalCount stores a count for the program.
func (c *Cache) SetIntervalCount(ctx context.Context, name string, count int) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, KeyIntervalCount+name, strconv.Itoa(count), c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("program", name).Msg("cache write failed")
	}
}

// Invalidate drops any cached count for the program.
func (c *Cache) Invalidate(ctx context.Context, names ...string) {
	if c == nil || c.client == nil || len(names) == 0 {
		return
	}
	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = KeyIntervalCount + name
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Strs("programs", names).Msg("cache invalidation failed")
	}
}
