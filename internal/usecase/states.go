package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/metrics"
)

// Metric label for runs of the Active state, which has no intermediate state
// of its own.
const stateActive = "active"

// Past-tense verbs for the terminal success message of an Active run.
const (
	activeOutcomeUploaded    = "uploaded"
	activeOutcomeUpdated     = "updated"
	activeOutcomeReactivated = "reactivated"
)

// runDownloading stages the asset's media on local disk and hands the entry
// to the Uploading state. The metadata hash of the fetched asset is recorded
// on the entry here and becomes durable with the next persist.
func (s *connectorService) runDownloading(ctx context.Context, entry *model.RegistryEntry) error {
	entry.BeginStep(model.IntermediateDownloading)
	if err := s.registry.Save(ctx, entry); err != nil {
		return s.fail(ctx, entry, model.IntermediateDownloading.String(), model.WrapError(
			fmt.Sprintf("error persisting downloading state of registry entry %s", entry.RegistryID), err))
	}

	video, err := s.catalog.FetchVideo(ctx, entry.VideoID)
	if err != nil {
		return s.fail(ctx, entry, model.IntermediateDownloading.String(), model.WrapError(
			fmt.Sprintf("error fetching metadata of video %s from catalog", entry.VideoID), err))
	}

	if video.DownloadURL == "" {
		return s.fail(ctx, entry, model.IntermediateDownloading.String(), model.WrapError(
			fmt.Sprintf("error downloading video of registry entry %s", entry.RegistryID),
			errors.New("No flavor source url set for video "+video.VideoID)))
	}

	if err := s.downloader.Download(ctx, video.DownloadURL, video.Filename); err != nil {
		return s.fail(ctx, entry, model.IntermediateDownloading.String(), model.WrapError(
			fmt.Sprintf("error downloading video of registry entry %s", entry.RegistryID), err))
	}

	if video.ImageID != "" {
		if err := s.thumbnails.Persist(ctx, video.ImageID, video.ImageFilename); err != nil {
			return s.fail(ctx, entry, model.IntermediateDownloading.String(), model.WrapError(
				fmt.Sprintf("error staging thumbnail of registry entry %s", entry.RegistryID), err))
		}
	}

	// Captions are optional extras. A failed captions download clears the
	// staged name so the upload proceeds without them.
	if video.CaptionsURL != "" {
		if err := s.downloader.Download(ctx, video.CaptionsURL, video.CaptionsFilename); err != nil {
			slog.Warn("failed to download captions, continuing without",
				"registry_id", entry.RegistryID,
				"captions_url", video.CaptionsURL,
				"error", err)
			video.CaptionsFilename = ""
		}
	}

	entry.VideoHashCode = video.HashCode

	metrics.StateRunsTotal.WithLabelValues(model.IntermediateDownloading.String(), metrics.ResultSuccess).Inc()
	return s.runUploading(ctx, entry, video)
}

// runUploading persists the uploading step and routes the staged video to
// the entry's platform adapter. The adapter assigns the remote video id and
// persists the active status itself. A warning outcome still reaches Active
// but keeps the message the adapter recorded.
func (s *connectorService) runUploading(ctx context.Context, entry *model.RegistryEntry, video *model.VideoDescriptor) error {
	entry.BeginStep(model.IntermediateUploading)
	if err := s.registry.Save(ctx, entry); err != nil {
		return s.fail(ctx, entry, model.IntermediateUploading.String(), model.WrapError(
			fmt.Sprintf("error persisting uploading state of registry entry %s", entry.RegistryID), err))
	}

	err := s.router.Execute(ctx, repository.OperationUpload, video, entry)
	if err != nil && !errors.Is(err, model.ErrUploadWarning) {
		return s.fail(ctx, entry, model.IntermediateUploading.String(), err)
	}

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultWarning
	}
	metrics.StateRunsTotal.WithLabelValues(model.IntermediateUploading.String(), result).Inc()

	return s.runActive(ctx, entry, video, activeOutcomeUploaded, err != nil)
}

// runUpdating syncs the catalog metadata of an already published video to the
// remote platform. The adapter skips the remote write when the local hash is
// unchanged or the remote metadata was edited by hand.
func (s *connectorService) runUpdating(ctx context.Context, entry *model.RegistryEntry) error {
	entry.BeginStep(model.IntermediateUpdating)
	if err := s.registry.Save(ctx, entry); err != nil {
		return s.fail(ctx, entry, model.IntermediateUpdating.String(), model.WrapError(
			fmt.Sprintf("error persisting updating state of registry entry %s", entry.RegistryID), err))
	}

	video, err := s.catalog.FetchVideo(ctx, entry.VideoID)
	if err != nil {
		return s.fail(ctx, entry, model.IntermediateUpdating.String(), model.WrapError(
			fmt.Sprintf("error fetching metadata of video %s from catalog", entry.VideoID), err))
	}

	if err := s.router.Execute(ctx, repository.OperationUpdate, video, entry); err != nil {
		return s.fail(ctx, entry, model.IntermediateUpdating.String(), err)
	}

	metrics.StateRunsTotal.WithLabelValues(model.IntermediateUpdating.String(), metrics.ResultSuccess).Inc()
	return s.runActive(ctx, entry, video, activeOutcomeUpdated, false)
}

// runReactivate moves an unpublished entry straight back to active. No remote
// call is made; the platform video keeps the visibility it currently has.
func (s *connectorService) runReactivate(ctx context.Context, entry *model.RegistryEntry) error {
	return s.runActive(ctx, entry, nil, activeOutcomeReactivated, false)
}

// runActive finishes a successful run. The intermediate state is cleared and
// persisted first so a crash between the two writes cannot resume a step that
// already completed, then the terminal status and message are persisted and
// the staged files are removed. When the upload finished with a warning the
// adapter's message is kept instead of the success message.
func (s *connectorService) runActive(ctx context.Context, entry *model.RegistryEntry, video *model.VideoDescriptor, outcome string, warning bool) error {
	entry.IntermediateState = model.IntermediateNone
	if err := s.registry.Save(ctx, entry); err != nil {
		return s.fail(ctx, entry, stateActive, model.WrapError(
			fmt.Sprintf("error clearing intermediate state of registry entry %s", entry.RegistryID), err))
	}

	if err := entry.MarkActive(); err != nil {
		return s.fail(ctx, entry, stateActive, model.WrapError(
			fmt.Sprintf("error activating registry entry %s", entry.RegistryID), err))
	}
	if !warning {
		entry.Message = fmt.Sprintf("Successfully %s video of registry entry %s", outcome, entry.RegistryID)
	}
	if err := s.registry.Save(ctx, entry); err != nil {
		return s.fail(ctx, entry, stateActive, model.WrapError(
			fmt.Sprintf("error persisting active state of registry entry %s", entry.RegistryID), err))
	}

	if err := removeStagedFiles(video); err != nil {
		return s.fail(ctx, entry, stateActive, model.WrapError(
			fmt.Sprintf("error removing staged files of registry entry %s", entry.RegistryID), err))
	}

	metrics.StateRunsTotal.WithLabelValues(stateActive, metrics.ResultSuccess).Inc()
	slog.Info("registry entry is active",
		"registry_id", entry.RegistryID,
		"platform", entry.TargetPlatform,
		"target_video_id", entry.TargetPlatformVideoID)
	return nil
}

// runUnpublish takes the remote video private and moves the entry to
// inactive.
func (s *connectorService) runUnpublish(ctx context.Context, entry *model.RegistryEntry) error {
	entry.BeginStep(model.IntermediateUnpublishing)
	if err := s.registry.Save(ctx, entry); err != nil {
		return s.fail(ctx, entry, model.IntermediateUnpublishing.String(), model.WrapError(
			fmt.Sprintf("error persisting unpublishing state of registry entry %s", entry.RegistryID), err))
	}

	if err := s.router.Execute(ctx, repository.OperationUnpublish, nil, entry); err != nil {
		return s.fail(ctx, entry, model.IntermediateUnpublishing.String(), err)
	}

	entry.MarkInactive()
	entry.Message = fmt.Sprintf("Successfully unpublished video of registry entry %s", entry.RegistryID)
	if err := s.registry.Save(ctx, entry); err != nil {
		return s.fail(ctx, entry, model.IntermediateUnpublishing.String(), model.WrapError(
			fmt.Sprintf("error persisting inactive state of registry entry %s", entry.RegistryID), err))
	}

	metrics.StateRunsTotal.WithLabelValues(model.IntermediateUnpublishing.String(), metrics.ResultSuccess).Inc()
	slog.Info("registry entry is inactive",
		"registry_id", entry.RegistryID,
		"platform", entry.TargetPlatform)
	return nil
}

// runDeleting takes the remote video private and moves the entry to deleted.
// The remote video itself is never removed.
func (s *connectorService) runDeleting(ctx context.Context, entry *model.RegistryEntry) error {
	entry.BeginStep(model.IntermediateDeleting)
	if err := s.registry.Save(ctx, entry); err != nil {
		return s.fail(ctx, entry, model.IntermediateDeleting.String(), model.WrapError(
			fmt.Sprintf("error persisting deleting state of registry entry %s", entry.RegistryID), err))
	}

	if err := s.router.Execute(ctx, repository.OperationDelete, nil, entry); err != nil {
		return s.fail(ctx, entry, model.IntermediateDeleting.String(), err)
	}

	entry.MarkDeleted()
	entry.Message = fmt.Sprintf("Successfully deleted video of registry entry %s", entry.RegistryID)
	if err := s.registry.Save(ctx, entry); err != nil {
		return s.fail(ctx, entry, model.IntermediateDeleting.String(), model.WrapError(
			fmt.Sprintf("error persisting deleted state of registry entry %s", entry.RegistryID), err))
	}

	metrics.StateRunsTotal.WithLabelValues(model.IntermediateDeleting.String(), metrics.ResultSuccess).Inc()
	slog.Info("registry entry is deleted",
		"registry_id", entry.RegistryID,
		"platform", entry.TargetPlatform)
	return nil
}

// fail records a failed run: the status becomes error, the intermediate state
// is kept for a later resume, and the flattened error chain becomes the
// message. The write uses a detached context so a cancelled run still leaves
// its error record behind.
func (s *connectorService) fail(ctx context.Context, entry *model.RegistryEntry, state string, err error) error {
	message := model.FlattenError(err)
	if errors.Is(err, context.Canceled) {
		message = "cancelled"
	}
	entry.MarkFailed(message)

	if saveErr := s.registry.Save(context.WithoutCancel(ctx), entry); saveErr != nil {
		slog.Error("failed to persist error state of registry entry",
			"registry_id", entry.RegistryID,
			"error", saveErr)
	}

	metrics.StateRunsTotal.WithLabelValues(state, metrics.ResultError).Inc()
	slog.Error("workflow run failed",
		"registry_id", entry.RegistryID,
		"state", state,
		"error", err)
	return err
}

// removeStagedFiles deletes the files a run staged locally. Files that were
// never created are not errors.
func removeStagedFiles(video *model.VideoDescriptor) error {
	if video == nil {
		return nil
	}
	var errs []error
	for _, name := range []string{video.Filename, video.ImageFilename, video.CaptionsFilename} {
		if name == "" {
			continue
		}
		if err := os.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
