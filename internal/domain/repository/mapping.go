package repository

import (
	"context"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
)

// MappingStore resolves mapping ids to publishing destinations.
// Implementations should be provided by the infrastructure layer; a caching
// decorator may sit in front of the Mongo-backed store.
type MappingStore interface {
	// GetByID retrieves a mapping by its id.
	// Returns nil and ErrMappingNotFound if no mapping exists.
	GetByID(ctx context.Context, mappingID string) (*model.Mapping, error)
}
