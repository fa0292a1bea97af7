package cache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/metrics"
)

// cachedMappingStore wraps a MappingStore with caching capabilities.
// It implements the decorator pattern to add caching without modifying the
// underlying store. Mappings change rarely but are resolved on every platform
// call, so cache failures fall back to the store instead of failing the call.
type cachedMappingStore struct {
	delegate repository.MappingStore
	cache    MappingCache
	sfGroup  singleflight.Group

	cacheTTL time.Duration
}

var _ repository.MappingStore = (*cachedMappingStore)(nil)

// NewCachedMappingStore creates a new cached store wrapping the provided MappingStore.
func NewCachedMappingStore(
	delegate repository.MappingStore,
	mappingCache MappingCache,
	cacheTTL time.Duration,
) repository.MappingStore {
	return &cachedMappingStore{
		delegate: delegate,
		cache:    mappingCache,
		cacheTTL: cacheTTL,
	}
}

// GetByID resolves a mapping with caching.
// Uses singleflight to prevent cache stampede on concurrent requests for the same mapping.
func (s *cachedMappingStore) GetByID(ctx context.Context, mappingID string) (*model.Mapping, error) {
	// Use singleflight to coalesce concurrent requests
	result, err, shared := s.sfGroup.Do(mappingID, func() (any, error) {
		return s.getMappingWithCache(ctx, mappingID)
	})

	// Record singleflight metrics
	if shared {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
	} else {
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()
	}

	if err != nil {
		return nil, err
	}

	return result.(*model.Mapping), nil
}

// getMappingWithCache implements the cache-aside pattern.
func (s *cachedMappingStore) getMappingWithCache(ctx context.Context, mappingID string) (*model.Mapping, error) {
	// Try cache first
	mapping, err := s.cache.Get(ctx, mappingID)
	if err != nil {
		// Log cache error but continue to the store
		slog.Warn("cache get failed, falling back to store",
			"mapping_id", mappingID,
			"error", err,
		)
	}

	if mapping != nil {
		return mapping, nil // Cache hit
	}

	// Cache miss - fetch from the store
	mapping, err = s.delegate.GetByID(ctx, mappingID)
	if err != nil {
		return nil, err
	}

	// Store in cache (errors logged but not propagated)
	if err := s.cache.Set(ctx, mapping, s.cacheTTL); err != nil {
		slog.Warn("failed to cache mapping",
			"mapping_id", mappingID,
			"error", err,
		)
	}

	return mapping, nil
}
