package repository

import (
	"context"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
)

// AssetCatalog is the read-only view of the upstream content catalog.
// Implementations should be provided by the infrastructure layer (e.g., MongoDB).
type AssetCatalog interface {
	// FetchVideo looks up the asset for videoID and builds the per-run
	// video descriptor from it.
	// Returns ErrAssetNotFound when no asset exists and ErrAssetMalformed
	// when the stored document cannot be decoded.
	FetchVideo(ctx context.Context, videoID string) (*model.VideoDescriptor, error)
}

// ThumbnailStore retrieves thumbnail blobs from the catalog's file store.
type ThumbnailStore interface {
	// Persist writes the thumbnail blob identified by imageID to path.
	// Returns ErrThumbnailUnavailable when the blob cannot be read.
	Persist(ctx context.Context, imageID, path string) error
}
