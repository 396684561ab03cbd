// Package cache caches read-mostly schedule data.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ScheduleCache stores assembled schedules by season.
type ScheduleCache interface {
	// Get returns the cached schedule and whether it was present.
	Get(ctx context.Context, seasonID uuid.UUID) (*domain.Schedule, bool, error)
	// Set stores a schedule. Entries expire on their TTL; schedule data only
	// changes through migrations.
	Set(ctx context.Context, seasonID uuid.UUID, s *domain.Schedule) error
}

// Noop never caches.
type Noop struct{}

func (Noop) Get(context.Context, uuid.UUID) (*domain.Schedule, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, uuid.UUID, *domain.Schedule) error         { return nil }

// RedisScheduleCache stores schedules as JSON strings with a TTL.
type RedisScheduleCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// NewRedisScheduleCache creates a Redis-backed schedule cache.
func NewRedisScheduleCache(client redis.UniversalClient, ttl time.Duration) *RedisScheduleCache {
	return &RedisScheduleCache{client: client, ttl: ttl, prefix: "quiniela:schedule:"}
}

func (c *RedisScheduleCache) key(seasonID uuid.UUID) string {
	return c.prefix + seasonID.String()
}

func (c *RedisScheduleCache) Get(ctx context.Context, seasonID uuid.UUID) (*domain.Schedule, bool, error) {
	data, err := c.client.Get(ctx, c.key(seasonID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var s domain.Schedule
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("decode cached schedule: %w", err)
	}
	return &s, true, nil
}

func (c *RedisScheduleCache) Set(ctx context.Context, seasonID uuid.UUID, s *domain.Schedule) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode schedule: %w", err)
	}
	if err := c.client.Set(ctx, c.key(seasonID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
