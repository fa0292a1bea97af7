package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/metrics"
)

const (
	// mappingCacheKeyPrefix is the prefix for mapping cache keys in Redis.
	mappingCacheKeyPrefix = "mapping:"
)

// mappingJSON is the JSON representation of a Mapping for caching.
// Using explicit struct avoids coupling to domain model's JSON tags.
type mappingJSON struct {
	MappingID      string `json:"mapping_id"`
	TargetID       string `json:"target_id"`
	TargetPlatform string `json:"target_platform"`
	CategoryID     string `json:"category_id"`
}

// RedisMappingCache implements MappingCache using Redis as the backing store.
type RedisMappingCache struct {
	client *redis.Client
}

// NewRedisMappingCache creates a new Redis-backed mapping cache.
func NewRedisMappingCache(client *redis.Client) *RedisMappingCache {
	return &RedisMappingCache{
		client: client,
	}
}

// Get retrieves a mapping from Redis cache.
// Returns nil, nil on cache miss.
func (c *RedisMappingCache) Get(ctx context.Context, mappingID string) (*model.Mapping, error) {
	key := c.buildKey(mappingID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
			return nil, nil // Cache miss
		}
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	mapping, err := c.deserialize(data)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, fmt.Errorf("deserialize mapping: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
	return mapping, nil
}

// Set stores a mapping in Redis cache with the specified TTL.
func (c *RedisMappingCache) Set(ctx context.Context, mapping *model.Mapping, ttl time.Duration) error {
	key := c.buildKey(mapping.MappingID)

	data, err := c.serialize(mapping)
	if err != nil {
		return fmt.Errorf("serialize mapping: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

// Delete removes a mapping from Redis cache.
func (c *RedisMappingCache) Delete(ctx context.Context, mappingID string) error {
	key := c.buildKey(mappingID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

// buildKey constructs the Redis key for a mapping.
func (c *RedisMappingCache) buildKey(mappingID string) string {
	return mappingCacheKeyPrefix + mappingID
}

// serialize converts a Mapping to JSON bytes.
func (c *RedisMappingCache) serialize(mapping *model.Mapping) ([]byte, error) {
	m := mappingJSON{
		MappingID:      mapping.MappingID,
		TargetID:       mapping.TargetID,
		TargetPlatform: string(mapping.TargetPlatform),
		CategoryID:     mapping.CategoryID,
	}
	return json.Marshal(m)
}

// deserialize converts JSON bytes to a Mapping.
func (c *RedisMappingCache) deserialize(data []byte) (*model.Mapping, error) {
	var m mappingJSON
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	return &model.Mapping{
		MappingID:      m.MappingID,
		TargetID:       m.TargetID,
		TargetPlatform: model.Platform(m.TargetPlatform),
		CategoryID:     m.CategoryID,
	}, nil
}
