package repository

import "errors"

var (
	// ErrRegistryNotFound is returned when a registry entry cannot be found.
	ErrRegistryNotFound = errors.New("registry entry not found")

	// ErrAssetNotFound is returned when the catalog has no asset for a video id.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrAssetMalformed is returned when a catalog document cannot be decoded.
	ErrAssetMalformed = errors.New("asset document is malformed")

	// ErrMappingNotFound is returned when a mapping id cannot be resolved.
	ErrMappingNotFound = errors.New("mapping not found")

	// ErrThumbnailUnavailable is returned when a thumbnail blob cannot be read.
	ErrThumbnailUnavailable = errors.New("thumbnail unavailable")

	// ErrUnknownDestination is returned when no adapter is registered for a
	// registry entry's target platform.
	ErrUnknownDestination = errors.New("unknown destination platform")

	// ErrPrecondition is returned by adapters when the registry entry does
	// not meet the requested operation's requirements.
	ErrPrecondition = errors.New("registry entry does not meet operation preconditions")
)
