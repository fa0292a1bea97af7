// Package youtube implements the publishing adapters for both YouTube
// destination flavors: networks whose videos are claimed through the partner
// API, and direct channel uploads authorized by a per-mapping refresh token.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"net"
	"net/http"
	"os"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
)

const (
	defaultTokenURI = "https://accounts.google.com/o/oauth2/token"

	// uploadCategoryID is the fixed YouTube category every upload lands in
	// (22, "People & Blogs").
	uploadCategoryID = "22"
)

// youtubeScopes covers data API uploads and the partner API claim pipeline.
var youtubeScopes = []string{
	youtube.YoutubeScope,
	youtube.YoutubeUploadScope,
	youtube.YoutubepartnerScope,
	youtube.YoutubeForceSslScope,
}

// ErrRemoteMissing is returned when the remote video id recorded in the
// registry no longer resolves on YouTube.
var ErrRemoteMissing = errors.New("video not found on youtube")

// ClientConfig holds configuration shared by both YouTube adapters.
type ClientConfig struct {
	ClientID           string        // OAuth client id for refresh token exchange
	ClientSecret       string        // OAuth client secret for refresh token exchange
	TokenURI           string        // Token endpoint for refresh token exchange
	ServiceAccountFile string        // Service account key file for the network account
	ClaimPolicyID      string        // Match policy applied to partner claims
	ChunkSize          int           // Resumable upload chunk size in bytes
	MaxRetries         int           // Upload retries after the first attempt
	RetryBackoffUnit   time.Duration // Scale of the randomized retry backoff
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		TokenURI:         defaultTokenURI,
		ChunkSize:        512 * 1024 * 1024,
		MaxRetries:       10,
		RetryBackoffUnit: time.Second,
	}
}

// retriableUploadError reports whether an upload attempt failed in a way that
// a later attempt can recover from: a server-side 5xx or a transport error.
// Anything else (quota, auth, invalid metadata) fails the upload immediately.
func retriableUploadError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// resumableInsert runs insert until it succeeds, retrying retriable failures
// with a randomized exponential backoff. The sleep before retry n is uniform
// in [0, 2^n) backoff units, so concurrent uploads hitting the same outage
// spread out instead of stampeding.
func resumableInsert(ctx context.Context, cfg ClientConfig, insert func() (*youtube.Video, error)) (*youtube.Video, error) {
	retry := 0
	for {
		uploaded, err := insert()
		if err == nil {
			return uploaded, nil
		}
		if !retriableUploadError(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		retry++
		if retry > cfg.MaxRetries {
			return nil, fmt.Errorf("no longer attempting to retry upload: %w", err)
		}

		sleep := time.Duration(rand.Float64() * math.Pow(2, float64(retry)) * float64(cfg.RetryBackoffUnit))
		slog.Info("retriable error during youtube upload, sleeping before retry",
			"retry", retry,
			"max_retries", cfg.MaxRetries,
			"sleep", sleep.String(),
			"error", err,
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// insertVideo uploads the staged file as a private video and returns the id
// YouTube assigned. The staged file is reopened on every attempt because a
// failed resumable upload consumes the reader. A non-empty contentOwner adds
// the network parameters to the call; channelID is only sent alongside it.
func insertVideo(ctx context.Context, svc *youtube.Service, cfg ClientConfig, video *model.VideoDescriptor, contentOwner, channelID string) (string, error) {
	insert := func() (*youtube.Video, error) {
		f, err := os.Open(video.Filename)
		if err != nil {
			return nil, fmt.Errorf("open staged video: %w", err)
		}
		defer f.Close()

		call := svc.Videos.Insert([]string{"snippet", "status"}, &youtube.Video{
			Snippet: &youtube.VideoSnippet{
				Title:       video.Title,
				Description: video.Description,
				Tags:        video.Keywords,
				CategoryId:  uploadCategoryID,
			},
			Status: &youtube.VideoStatus{PrivacyStatus: "private"},
		})
		if contentOwner != "" {
			call = call.OnBehalfOfContentOwner(contentOwner).OnBehalfOfContentOwnerChannel(channelID)
		}
		return call.Media(f, googleapi.ChunkSize(cfg.ChunkSize)).Context(ctx).Do()
	}

	uploaded, err := resumableInsert(ctx, cfg, insert)
	if err != nil {
		return "", err
	}
	if uploaded.Id == "" {
		return "", errors.New("upload finished but no video id was assigned")
	}
	return uploaded.Id, nil
}

// updateVideo syncs title, description and tags to the remote video. The
// remote snippet is fetched first: a video that disappeared fails with
// ErrRemoteMissing, and a snippet whose hash no longer matches the one
// recorded at upload time was edited on the platform, so the update is
// refused and the remote version wins. Fields this connector does not manage
// are carried over unchanged from the fetched snippet.
func updateVideo(ctx context.Context, svc *youtube.Service, video *model.VideoDescriptor, entry *model.RegistryEntry, contentOwner string) error {
	listCall := svc.Videos.List([]string{"snippet"}).Id(entry.TargetPlatformVideoID).Context(ctx)
	if contentOwner != "" {
		listCall = listCall.OnBehalfOfContentOwner(contentOwner)
	}
	remote, err := listCall.Do()
	if err != nil {
		return fmt.Errorf("fetch remote snippet: %w", err)
	}
	if len(remote.Items) == 0 {
		return fmt.Errorf("%w for id %s", ErrRemoteMissing, entry.TargetPlatformVideoID)
	}

	snippet := remote.Items[0].Snippet
	if model.MetadataHash(snippet.Title, snippet.Description) != entry.VideoHashCode {
		slog.Info("metadata of video was changed on youtube, no update allowed",
			"registry_id", entry.RegistryID,
			"target_platform_video_id", entry.TargetPlatformVideoID,
		)
		return nil
	}

	snippet.Title = video.Title
	snippet.Description = video.Description
	snippet.Tags = video.Keywords

	updateCall := svc.Videos.Update([]string{"snippet"}, &youtube.Video{
		Id:      entry.TargetPlatformVideoID,
		Snippet: snippet,
	}).Context(ctx)
	if contentOwner != "" {
		updateCall = updateCall.OnBehalfOfContentOwner(contentOwner)
	}
	if _, err := updateCall.Do(); err != nil {
		return fmt.Errorf("update remote snippet: %w", err)
	}
	return nil
}

// unpublishVideo flips the remote video to private. YouTube has no expiry
// concept, so private is as unpublished as a video gets without deleting it.
func unpublishVideo(ctx context.Context, svc *youtube.Service, entry *model.RegistryEntry, contentOwner string) error {
	listCall := svc.Videos.List([]string{"status"}).Id(entry.TargetPlatformVideoID).Context(ctx)
	if contentOwner != "" {
		listCall = listCall.OnBehalfOfContentOwner(contentOwner)
	}
	remote, err := listCall.Do()
	if err != nil {
		return fmt.Errorf("fetch remote status: %w", err)
	}
	if len(remote.Items) == 0 {
		return fmt.Errorf("%w for id %s", ErrRemoteMissing, entry.TargetPlatformVideoID)
	}

	status := remote.Items[0].Status
	status.PrivacyStatus = "private"

	updateCall := svc.Videos.Update([]string{"status"}, &youtube.Video{
		Id:     entry.TargetPlatformVideoID,
		Status: status,
	}).Context(ctx)
	if contentOwner != "" {
		updateCall = updateCall.OnBehalfOfContentOwner(contentOwner)
	}
	if _, err := updateCall.Do(); err != nil {
		return fmt.Errorf("set privacy status: %w", err)
	}
	return nil
}

// setThumbnail uploads the staged thumbnail for the remote video. Thumbnails
// never fail an upload: every failure path is logged and swallowed.
func setThumbnail(ctx context.Context, svc *youtube.Service, video *model.VideoDescriptor, videoID, contentOwner string) {
	if video.ImageFilename == "" {
		return
	}

	f, err := os.Open(video.ImageFilename)
	if err != nil {
		slog.Warn("thumbnail not staged, skipping thumbnail upload",
			"target_platform_video_id", videoID,
			"error", err,
		)
		return
	}
	defer f.Close()

	call := svc.Thumbnails.Set(videoID).Media(f).Context(ctx)
	if contentOwner != "" {
		call = call.OnBehalfOfContentOwner(contentOwner)
	}
	if _, err := call.Do(); err != nil {
		slog.Warn("thumbnail upload to youtube failed",
			"target_platform_video_id", videoID,
			"error", err,
		)
	}
}
