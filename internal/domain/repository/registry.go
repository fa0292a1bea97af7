package repository

import (
	"context"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
)

// RegistryStore defines the interface for registry entry persistence.
// Implementations should be provided by the infrastructure layer (e.g., MongoDB).
type RegistryStore interface {
	// Load retrieves a registry entry by its id.
	// Returns nil and ErrRegistryNotFound if the entry does not exist.
	Load(ctx context.Context, registryID string) (*model.RegistryEntry, error)

	// Save upserts the full registry document keyed on the registry id.
	// It is the only mutation point: a successful Save makes the new state
	// durably visible to the next Load.
	Save(ctx context.Context, entry *model.RegistryEntry) error
}
