package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
	"github.com/JungesAngebot/platform-connectors/internal/infrastructure/metrics"
)

// adapterCall is one routed platform operation. Unpublish and Delete ignore
// the descriptor so every table cell shares the same shape.
type adapterCall func(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error

type routeKey struct {
	platform  model.Platform
	operation repository.Operation
}

// PlatformRouter resolves a registry entry's target platform and the
// requested operation to one adapter call. A single router instance is shared
// by every workflow run.
type PlatformRouter struct {
	routes map[routeKey]adapterCall
}

// NewPlatformRouter builds the routing table over the production adapters.
func NewPlatformRouter(facebook, youtubeMCN, youtubeDirect repository.PlatformAdapter) *PlatformRouter {
	r := &PlatformRouter{routes: make(map[routeKey]adapterCall)}
	r.register(model.PlatformFacebook, facebook)
	r.register(model.PlatformYouTube, youtubeMCN)
	r.register(model.PlatformYouTubeDirect, youtubeDirect)
	return r
}

func (r *PlatformRouter) register(platform model.Platform, adapter repository.PlatformAdapter) {
	r.routes[routeKey{platform, repository.OperationUpload}] = adapter.Upload
	r.routes[routeKey{platform, repository.OperationUpdate}] = adapter.Update
	r.routes[routeKey{platform, repository.OperationUnpublish}] = func(ctx context.Context, _ *model.VideoDescriptor, entry *model.RegistryEntry) error {
		return adapter.Unpublish(ctx, entry)
	}
	r.routes[routeKey{platform, repository.OperationDelete}] = func(ctx context.Context, _ *model.VideoDescriptor, entry *model.RegistryEntry) error {
		return adapter.Delete(ctx, entry)
	}
}

// Execute runs operation against entry's target platform.
// Returns repository.ErrUnknownDestination when no adapter is registered for
// the entry's platform.
func (r *PlatformRouter) Execute(ctx context.Context, operation repository.Operation, video *model.VideoDescriptor, entry *model.RegistryEntry) error {
	call, ok := r.routes[routeKey{entry.TargetPlatform, operation}]
	if !ok {
		return model.WrapError(
			fmt.Sprintf("no adapter registered for target platform %q of registry entry %s", entry.TargetPlatform, entry.RegistryID),
			repository.ErrUnknownDestination,
		)
	}

	err := call(ctx, video, entry)

	result := metrics.ResultSuccess
	switch {
	case err == nil:
	case errors.Is(err, model.ErrUploadWarning):
		result = metrics.ResultWarning
	default:
		result = metrics.ResultError
	}
	metrics.PlatformCallsTotal.WithLabelValues(entry.TargetPlatform.String(), operation.String(), result).Inc()

	return err
}

// NewDryRunRouter builds a routing table whose cells only log the call they
// would have made. The upload cell still assigns a placeholder video id and
// persists the active status so a workflow run completes the same way it does
// in production. Selected at startup via the TEST_MODE setting.
func NewDryRunRouter(registry repository.RegistryStore) *PlatformRouter {
	platforms := []model.Platform{model.PlatformFacebook, model.PlatformYouTube, model.PlatformYouTubeDirect}
	operations := []repository.Operation{repository.OperationUpdate, repository.OperationUnpublish, repository.OperationDelete}

	r := &PlatformRouter{routes: make(map[routeKey]adapterCall)}
	for _, platform := range platforms {
		r.routes[routeKey{platform, repository.OperationUpload}] = dryRunUpload(registry)
		for _, operation := range operations {
			r.routes[routeKey{platform, operation}] = dryRunCall(operation)
		}
	}
	return r
}

func dryRunUpload(registry repository.RegistryStore) adapterCall {
	return func(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error {
		slog.Info("dry run, skipping upload",
			"registry_id", entry.RegistryID,
			"platform", entry.TargetPlatform,
			"title", video.Title)

		entry.TargetPlatformVideoID = "dry-run"
		if err := entry.MarkActive(); err != nil {
			return err
		}
		return registry.Save(ctx, entry)
	}
}

func dryRunCall(operation repository.Operation) adapterCall {
	return func(_ context.Context, _ *model.VideoDescriptor, entry *model.RegistryEntry) error {
		slog.Info("dry run, skipping platform call",
			"registry_id", entry.RegistryID,
			"platform", entry.TargetPlatform,
			"operation", operation)
		return nil
	}
}
