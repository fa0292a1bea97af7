package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
)

// ConnectorService triggers publishing workflow runs for registry entries.
// Each method loads the entry and picks the workflow state that the trigger
// and the persisted status call for, then runs the state machine to a
// terminal status. Pairs of trigger and status that no state is defined for
// are ignored.
type ConnectorService interface {
	// Update publishes an entry that has not been uploaded yet, syncs the
	// metadata of one that has, and resumes failed runs from the step that
	// was in flight.
	Update(ctx context.Context, registryID string) error

	// Unpublish takes the remote video private and moves the entry to
	// inactive.
	Unpublish(ctx context.Context, registryID string) error

	// Delete takes the remote video private and moves the entry to deleted.
	Delete(ctx context.Context, registryID string) error
}

type connectorService struct {
	registry   repository.RegistryStore
	catalog    repository.AssetCatalog
	thumbnails repository.ThumbnailStore
	downloader repository.SourceDownloader
	router     *PlatformRouter
}

// NewConnectorService creates a new ConnectorService instance.
func NewConnectorService(
	registry repository.RegistryStore,
	catalog repository.AssetCatalog,
	thumbnails repository.ThumbnailStore,
	downloader repository.SourceDownloader,
	router *PlatformRouter,
) ConnectorService {
	return &connectorService{
		registry:   registry,
		catalog:    catalog,
		thumbnails: thumbnails,
		downloader: downloader,
		router:     router,
	}
}

// Update dispatches an update trigger on the entry's persisted status.
func (s *connectorService) Update(ctx context.Context, registryID string) error {
	entry, err := s.registry.Load(ctx, registryID)
	if err != nil {
		return err
	}

	switch entry.Status {
	case model.StatusNotified:
		return s.runDownloading(ctx, entry)
	case model.StatusActive:
		return s.runUpdating(ctx, entry)
	case model.StatusInactive:
		return s.runReactivate(ctx, entry)
	case model.StatusError:
		return s.resume(ctx, entry)
	case model.StatusDeleted:
		s.ignore(entry, repository.EventUpdate)
		return nil
	default:
		return s.unknownStatus(entry)
	}
}

// resume re-enters the state machine after a failed run based on the
// intermediate state the failure preserved. Failed unpublish and delete runs
// are resumed by their own triggers, not by update.
func (s *connectorService) resume(ctx context.Context, entry *model.RegistryEntry) error {
	switch entry.IntermediateState {
	case model.IntermediateDownloading, model.IntermediateUploading, model.IntermediateNone:
		return s.runDownloading(ctx, entry)
	case model.IntermediateUpdating:
		return s.runUpdating(ctx, entry)
	default:
		s.ignore(entry, repository.EventUpdate)
		return nil
	}
}

// Unpublish dispatches an unpublish trigger on the entry's persisted status.
func (s *connectorService) Unpublish(ctx context.Context, registryID string) error {
	entry, err := s.registry.Load(ctx, registryID)
	if err != nil {
		return err
	}

	switch entry.Status {
	case model.StatusActive, model.StatusError:
		return s.runUnpublish(ctx, entry)
	case model.StatusNotified, model.StatusInactive, model.StatusDeleted:
		s.ignore(entry, repository.EventUnpublish)
		return nil
	default:
		return s.unknownStatus(entry)
	}
}

// Delete runs the Deleting state for every recognized status.
func (s *connectorService) Delete(ctx context.Context, registryID string) error {
	entry, err := s.registry.Load(ctx, registryID)
	if err != nil {
		return err
	}

	if !entry.Status.IsValid() {
		return s.unknownStatus(entry)
	}
	return s.runDeleting(ctx, entry)
}

func (s *connectorService) ignore(entry *model.RegistryEntry, event repository.Event) {
	slog.Info("ignoring trigger for registry entry",
		"registry_id", entry.RegistryID,
		"event", event,
		"status", entry.Status,
		"intermediate_state", entry.IntermediateState)
}

// unknownStatus rejects a trigger for an entry whose persisted status is not
// part of the workflow vocabulary. Nothing is written back; the document has
// to be repaired first.
func (s *connectorService) unknownStatus(entry *model.RegistryEntry) error {
	return model.WrapError(
		fmt.Sprintf("registry entry %s has status %q", entry.RegistryID, entry.Status),
		model.ErrUnknownStatus,
	)
}
