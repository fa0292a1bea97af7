package youtube

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
	"google.golang.org/api/youtubepartner/v1"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
)

// MCNAdapter publishes videos into a multi-channel network. All calls run on
// behalf of the content owner behind the configured service account; the
// mapping's target id selects the channel inside the network. After a
// successful upload the video is claimed against the network's match policy
// through the partner API.
type MCNAdapter struct {
	config   ClientConfig
	data     *youtube.Service
	partner  *youtubepartner.Service
	mappings repository.MappingStore
	registry repository.RegistryStore
}

// Compile-time verification that MCNAdapter implements repository.PlatformAdapter.
var _ repository.PlatformAdapter = (*MCNAdapter)(nil)

// NewMCNAdapter creates a network adapter authenticating with the service
// account key file named in the config. Construction does not hit the
// network; a bad key surfaces on the first call.
func NewMCNAdapter(ctx context.Context, cfg ClientConfig, mappings repository.MappingStore, registry repository.RegistryStore) (*MCNAdapter, error) {
	opts := []option.ClientOption{
		option.WithCredentialsFile(cfg.ServiceAccountFile),
		option.WithScopes(youtubeScopes...),
	}

	data, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube data service: %w", err)
	}
	partner, err := youtubepartner.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube partner service: %w", err)
	}
	return newMCNAdapter(cfg, data, partner, mappings, registry), nil
}

func newMCNAdapter(cfg ClientConfig, data *youtube.Service, partner *youtubepartner.Service, mappings repository.MappingStore, registry repository.RegistryStore) *MCNAdapter {
	return &MCNAdapter{
		config:   cfg,
		data:     data,
		partner:  partner,
		mappings: mappings,
		registry: registry,
	}
}

// contentOwnerID resolves the content owner linked to the authenticated
// account. Every data and partner call of this adapter runs on its behalf.
func (a *MCNAdapter) contentOwnerID(ctx context.Context) (string, error) {
	response, err := a.partner.ContentOwners.List().FetchMine(true).Context(ctx).Do()
	if err != nil {
		return "", model.WrapError("request not authorized by an account linked to a youtube content owner", err)
	}
	if len(response.Items) == 0 {
		return "", errors.New("no content owner linked to the authenticated account")
	}
	return response.Items[0].Id, nil
}

// Upload pushes the staged video into the network channel bound to the
// entry's mapping, persists the remote video id with the active status,
// attaches the thumbnail best-effort and finally claims the video for the
// content owner. A failed claim does not revoke the upload: the entry stays
// active and the claim warning is recorded in its message.
func (a *MCNAdapter) Upload(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error {
	if entry.TargetPlatformVideoID != "" || entry.IntermediateState != model.IntermediateUploading {
		return model.WrapError(
			fmt.Sprintf("upload not triggered because registry entry %s is not in correct state", entry.RegistryID),
			repository.ErrPrecondition,
		)
	}

	mapping, err := a.mappings.GetByID(ctx, entry.MappingID)
	if err != nil {
		return model.WrapError(fmt.Sprintf("error uploading video of registry entry %s to youtube", entry.RegistryID), err)
	}

	owner, err := a.contentOwnerID(ctx)
	if err != nil {
		return model.WrapError(fmt.Sprintf("error uploading video of registry entry %s to youtube", entry.RegistryID), err)
	}

	videoID, err := insertVideo(ctx, a.data, a.config, video, owner, mapping.TargetID)
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

	setThumbnail(ctx, a.data, video, videoID, owner)

	if err := a.claimVideo(ctx, owner, videoID, video); err != nil {
		entry.Message = fmt.Sprintf("Warning while setting policies for video of registry entry %s: %s", entry.RegistryID, model.FlattenError(err))
		if saveErr := a.registry.Save(ctx, entry); saveErr != nil {
			slog.Warn("failed to persist claim warning",
				"registry_id", entry.RegistryID,
				"error", saveErr,
			)
		}
		return model.WrapError(entry.Message, model.ErrUploadWarning)
	}
	return nil
}

// claimVideo runs the partner claim pipeline: register a web asset carrying
// the video metadata, grant the content owner exclusive worldwide ownership,
// then claim the uploaded video against the configured match policy.
func (a *MCNAdapter) claimVideo(ctx context.Context, contentOwner, videoID string, video *model.VideoDescriptor) error {
	asset, err := a.partner.Assets.Insert(&youtubepartner.Asset{
		Type: "web",
		Metadata: &youtubepartner.Metadata{
			Title:       video.Title,
			Description: video.Description,
		},
	}).OnBehalfOfContentOwner(contentOwner).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}

	ownership := &youtubepartner.RightsOwnership{
		General: []*youtubepartner.TerritoryOwners{{
			Owner: contentOwner,
			Ratio: 100,
			Type:  "exclude",
		}},
	}
	if _, err := a.partner.Ownership.Update(asset.Id, ownership).OnBehalfOfContentOwner(contentOwner).Context(ctx).Do(); err != nil {
		return fmt.Errorf("update ownership of asset %s: %w", asset.Id, err)
	}

	claim := &youtubepartner.Claim{
		AssetId:     asset.Id,
		VideoId:     videoID,
		ContentType: "audiovisual",
		Policy:      &youtubepartner.Policy{Id: a.config.ClaimPolicyID},
	}
	if _, err := a.partner.Claims.Insert(claim).OnBehalfOfContentOwner(contentOwner).Context(ctx).Do(); err != nil {
		return fmt.Errorf("insert claim for asset %s: %w", asset.Id, err)
	}
	return nil
}

// Update syncs title, description and tags to the network video. Unchanged
// local metadata skips the remote roundtrip entirely; metadata edited
// directly on the platform refuses the update.
func (a *MCNAdapter) Update(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error {
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

	owner, err := a.contentOwnerID(ctx)
	if err != nil {
		return model.WrapError(fmt.Sprintf("error updating video of registry entry %s on youtube", entry.RegistryID), err)
	}
	if err := updateVideo(ctx, a.data, video, entry, owner); err != nil {
		return model.WrapError(fmt.Sprintf("error updating video of registry entry %s on youtube", entry.RegistryID), err)
	}
	return nil
}

// Unpublish makes the network video private.
func (a *MCNAdapter) Unpublish(ctx context.Context, entry *model.RegistryEntry) error {
	if entry.TargetPlatformVideoID == "" ||
		(entry.IntermediateState != model.IntermediateUnpublishing && entry.IntermediateState != model.IntermediateDeleting) {
		return model.WrapError(
			fmt.Sprintf("unpublishing not triggered because registry entry %s is not in correct state", entry.RegistryID),
			repository.ErrPrecondition,
		)
	}

	owner, err := a.contentOwnerID(ctx)
	if err != nil {
		return model.WrapError(fmt.Sprintf("error unpublishing video of registry entry %s on youtube", entry.RegistryID), err)
	}
	if err := unpublishVideo(ctx, a.data, entry, owner); err != nil {
		return model.WrapError(fmt.Sprintf("error unpublishing video of registry entry %s on youtube", entry.RegistryID), err)
	}
	return nil
}

// Delete forwards to Unpublish. Remote content is never removed, only made
// private.
func (a *MCNAdapter) Delete(ctx context.Context, entry *model.RegistryEntry) error {
	return a.Unpublish(ctx, entry)
}
