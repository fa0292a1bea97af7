package cache

import (
	"context"
	"time"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
)

// MappingCache defines the interface for caching destination mappings.
// Implementations should handle serialization/deserialization transparently.
type MappingCache interface {
	// Get retrieves a mapping from cache by ID.
	// Returns nil, nil if the mapping is not found in cache (cache miss).
	Get(ctx context.Context, mappingID string) (*model.Mapping, error)

	// Set stores a mapping in cache with the specified TTL.
	Set(ctx context.Context, mapping *model.Mapping, ttl time.Duration) error

	// Delete removes a mapping from cache by ID.
	// Returns nil if the mapping was not in cache.
	Delete(ctx context.Context, mappingID string) error
}
