package youtube

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
)

// DirectAdapter publishes videos straight into a single channel. The
// mapping's target id is the channel's OAuth refresh token, so credentials
// are per mapping and the data service is rebuilt for every operation. No
// content owner is involved and uploads are not claimed.
type DirectAdapter struct {
	config   ClientConfig
	mappings repository.MappingStore
	registry repository.RegistryStore

	newService func(ctx context.Context, refreshToken string) (*youtube.Service, error)
}

// Compile-time verification that DirectAdapter implements repository.PlatformAdapter.
var _ repository.PlatformAdapter = (*DirectAdapter)(nil)

// NewDirectAdapter creates a direct channel adapter exchanging refresh tokens
// against the configured OAuth endpoint.
func NewDirectAdapter(cfg ClientConfig, mappings repository.MappingStore, registry repository.RegistryStore) *DirectAdapter {
	a := &DirectAdapter{
		config:   cfg,
		mappings: mappings,
		registry: registry,
	}
	a.newService = a.exchangeService
	return a
}

// exchangeService trades the channel's refresh token for a data service. The
// token source refreshes access tokens on demand, so a service stays valid
// for however long one operation runs.
func (a *DirectAdapter) exchangeService(ctx context.Context, refreshToken string) (*youtube.Service, error) {
	oauthConfig := oauth2.Config{
		ClientID:     a.config.ClientID,
		ClientSecret: a.config.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: a.config.TokenURI},
	}
	source := oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	svc, err := youtube.NewService(ctx, option.WithTokenSource(source))
	if err != nil {
		return nil, fmt.Errorf("create youtube data service: %w", err)
	}
	return svc, nil
}

// channelService resolves the entry's mapping and builds a data service
// authorized for that channel.
func (a *DirectAdapter) channelService(ctx context.Context, entry *model.RegistryEntry) (*youtube.Service, error) {
	mapping, err := a.mappings.GetByID(ctx, entry.MappingID)
	if err != nil {
		return nil, err
	}
	return a.newService(ctx, mapping.TargetID)
}

// Upload pushes the staged video into the mapped channel, persists the remote
// video id with the active status and attaches the thumbnail best-effort.
func (a *DirectAdapter) Upload(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error {
	if entry.TargetPlatformVideoID != "" || entry.IntermediateState != model.IntermediateUploading {
		return model.WrapError(
			fmt.Sprintf("upload not triggered because registry entry %s is not in correct state", entry.RegistryID),
			repository.ErrPrecondition,
		)
	}

	svc, err := a.channelService(ctx, entry)
	if err != nil {
		return model.WrapError(fmt.Sprintf("error uploading video of registry entry %s to youtube", entry.RegistryID), err)
	}

	videoID, err := insertVideo(ctx, svc, a.config, video, "", "")
	if err != nil {
		return model.WrapError(fmt.Sprintf("error uploading video of registry entry %s to youtube", entry.RegistryID), err)
	}

	entry.TargetPlatformVideoID = videoID
	if err := entry.MarkActive(); err != nil {
		return model.WrapError(fmt.Sprintf("error activating registry entry %s after youtube upload", entry.RegistryID), err)
	}
	if err := a.registry.Save(ctx, entry); err != nil {
		return model.WrapError(fmt.Sprintf("error persisting registry entry %s after youtube upload", entry.RegistryID), err)
	}

	setThumbnail(ctx, svc, video, videoID, "")
	return nil
}

// Update syncs title, description and tags to the channel video under the
// same tamper rules as the network adapter.
func (a *DirectAdapter) Update(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error {
	if entry.TargetPlatformVideoID == "" || entry.IntermediateState != model.IntermediateUpdating {
		return model.WrapError(
			fmt.Sprintf("update not triggered because registry entry %s is not in correct state", entry.RegistryID),
			repository.ErrPrecondition,
		)
	}

	if video.HashCode == entry.VideoHashCode {
		slog.Info("metadata of registry entry not changed, no update needed",
			"registry_id", entry.RegistryID,
		)
		return nil
	}

	svc, err := a.channelService(ctx, entry)
	if err != nil {
		return model.WrapError(fmt.Sprintf("error updating video of registry entry %s on youtube", entry.RegistryID), err)
	}
	if err := updateVideo(ctx, svc, video, entry, ""); err != nil {
		return model.WrapError(fmt.Sprintf("error updating video of registry entry %s on youtube", entry.RegistryID), err)
	}
	return nil
}

// Unpublish makes the channel video private.
func (a *DirectAdapter) Unpublish(ctx context.Context, entry *model.RegistryEntry) error {
	if entry.TargetPlatformVideoID == "" ||
		(entry.IntermediateState != model.IntermediateUnpublishing && entry.IntermediateState != model.IntermediateDeleting) {
		return model.WrapError(
			fmt.Sprintf("unpublishing not triggered because registry entry %s is not in correct state", entry.RegistryID),
			repository.ErrPrecondition,
		)
	}

	svc, err := a.channelService(ctx, entry)
	if err != nil {
		return model.WrapError(fmt.Sprintf("error unpublishing video of registry entry %s on youtube", entry.RegistryID), err)
	}
	if err := unpublishVideo(ctx, svc, entry, ""); err != nil {
		return model.WrapError(fmt.Sprintf("error unpublishing video of registry entry %s on youtube", entry.RegistryID), err)
	}
	return nil
}

// Delete forwards to Unpublish. Remote content is never removed, only made
// private.
func (a *DirectAdapter) Delete(ctx context.Context, entry *model.RegistryEntry) error {
	return a.Unpublish(ctx, entry)
}
