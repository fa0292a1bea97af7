package facebook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
)

const defaultGraphURL = "https://graph.facebook.com/v2.7/"

// ClientConfig holds configuration for the Facebook Graph API client.
type ClientConfig struct {
	GraphURL        string        // Base URL of the Graph API, must end with a slash
	RequestTimeout  time.Duration // Per-request timeout, covers one chunk transfer
	ChunkRetries    int           // Retries per chunk transfer after the first attempt
	ChunkRetryDelay time.Duration // Flat delay between chunk transfer attempts
	PublishDelay    time.Duration // Scheduled publish time offset for fresh uploads
}

// DefaultClientConfig returns a ClientConfig with sensible defaults.
// Uploads are scheduled far in the future and published=false so that a video
// only becomes visible through an editorial action on the page itself.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		GraphURL:        defaultGraphURL,
		RequestTimeout:  45 * time.Second,
		ChunkRetries:    5,
		ChunkRetryDelay: 2 * time.Second,
		PublishDelay:    150 * 24 * time.Hour,
	}
}

// Adapter implements repository.PlatformAdapter against the Facebook Graph
// API. The access token of the target page is the mapping's target id.
type Adapter struct {
	config   ClientConfig
	client   *http.Client
	mappings repository.MappingStore
	registry repository.RegistryStore
	now      func() time.Time
}

// Compile-time verification that Adapter implements repository.PlatformAdapter.
var _ repository.PlatformAdapter = (*Adapter)(nil)

// NewAdapter creates a Facebook adapter resolving credentials through the
// given mapping store and persisting progress through the registry store.
func NewAdapter(cfg ClientConfig, mappings repository.MappingStore, registry repository.RegistryStore) *Adapter {
	return &Adapter{
		config:   cfg,
		client:   &http.Client{Timeout: cfg.RequestTimeout},
		mappings: mappings,
		registry: registry,
		now:      time.Now,
	}
}

// Upload pushes the staged video file to the page bound to the entry's
// mapping using the resumable upload protocol, persists the remote video id
// with the active status, and finally attaches captions best-effort.
func (a *Adapter) Upload(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error {
	if entry.TargetPlatformVideoID != "" || entry.IntermediateState != model.IntermediateUploading {
		return model.WrapError(
			fmt.Sprintf("upload not triggered because registry entry %s is not in correct state", entry.RegistryID),
			repository.ErrPrecondition,
		)
	}

	mapping, err := a.mappings.GetByID(ctx, entry.MappingID)
	if err != nil {
		return model.WrapError(fmt.Sprintf("error uploading video of registry entry %s to facebook", entry.RegistryID), err)
	}

	videoID, err := a.uploadChunked(ctx, video, mapping.TargetID)
	if err != nil {
		return model.WrapError(fmt.Sprintf("error uploading video of registry entry %s to facebook", entry.RegistryID), err)
	}

	entry.TargetPlatformVideoID = videoID
	if err := entry.MarkActive(); err != nil {
		return model.WrapError(fmt.Sprintf("error activating registry entry %s after facebook upload", entry.RegistryID), err)
	}
	if err := a.registry.Save(ctx, entry); err != nil {
		return model.WrapError(fmt.Sprintf("error persisting registry entry %s after facebook upload", entry.RegistryID), err)
	}

	a.uploadCaptions(ctx, video, entry, mapping.TargetID)
	return nil
}

// Update syncs title and description to the remote video. The update is
// skipped when the local metadata is unchanged, and refused when the remote
// metadata no longer matches the hash recorded at upload time: an edit made
// directly on the platform wins over the catalog.
func (a *Adapter) Update(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error {
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

	mapping, err := a.mappings.GetByID(ctx, entry.MappingID)
	if err != nil {
		return model.WrapError(fmt.Sprintf("error updating video of registry entry %s on facebook", entry.RegistryID), err)
	}

	remote, err := a.fetchMetadata(ctx, mapping.TargetID, entry.TargetPlatformVideoID)
	if err != nil {
		return model.WrapError(fmt.Sprintf("error updating video of registry entry %s on facebook", entry.RegistryID), err)
	}

	if model.MetadataHash(remote.Title, remote.Description) != entry.VideoHashCode {
		slog.Info("metadata of video was changed on facebook, no update allowed",
			"registry_id", entry.RegistryID,
			"target_platform_video_id", entry.TargetPlatformVideoID,
		)
		return nil
	}

	form := url.Values{
		"access_token": {mapping.TargetID},
		"name":         {video.Title},
		"description":  {video.Description},
	}
	if err := a.postForm(ctx, entry.TargetPlatformVideoID, form, nil); err != nil {
		return model.WrapError(fmt.Sprintf("error updating video of registry entry %s on facebook", entry.RegistryID), err)
	}
	return nil
}

// Unpublish expires the remote video immediately. The video stays on the
// platform's backend, it just stops being served.
func (a *Adapter) Unpublish(ctx context.Context, entry *model.RegistryEntry) error {
	if entry.TargetPlatformVideoID == "" ||
		(entry.IntermediateState != model.IntermediateUnpublishing && entry.IntermediateState != model.IntermediateDeleting) {
		return model.WrapError(
			fmt.Sprintf("unpublishing not triggered because registry entry %s is not in correct state", entry.RegistryID),
			repository.ErrPrecondition,
		)
	}

	mapping, err := a.mappings.GetByID(ctx, entry.MappingID)
	if err != nil {
		return model.WrapError(fmt.Sprintf("error unpublishing video of registry entry %s on facebook", entry.RegistryID), err)
	}

	form := url.Values{
		"access_token": {mapping.TargetID},
		"expire_now":   {"true"},
	}
	if err := a.postForm(ctx, entry.TargetPlatformVideoID, form, nil); err != nil {
		return model.WrapError(fmt.Sprintf("error unpublishing video of registry entry %s on facebook", entry.RegistryID), err)
	}
	return nil
}

// Delete forwards to Unpublish. Remote content is never removed, only
// expired.
func (a *Adapter) Delete(ctx context.Context, entry *model.RegistryEntry) error {
	return a.Unpublish(ctx, entry)
}

// uploadSession mirrors the Graph API resumable upload envelope. Offsets
// travel as decimal strings on the wire.
type uploadSession struct {
	SessionID   string `json:"upload_session_id"`
	VideoID     string `json:"video_id"`
	StartOffset string `json:"start_offset"`
	EndOffset   string `json:"end_offset"`
}

func (s *uploadSession) offsets() (int64, int64, error) {
	start, err := strconv.ParseInt(s.StartOffset, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse start_offset %q: %w", s.StartOffset, err)
	}
	end, err := strconv.ParseInt(s.EndOffset, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse end_offset %q: %w", s.EndOffset, err)
	}
	return start, end, nil
}

// uploadChunked drives the three-phase resumable upload: start a session,
// transfer byte ranges until the advertised offsets converge, then finish
// with the video metadata. Returns the remote video id assigned at session
// start.
func (a *Adapter) uploadChunked(ctx context.Context, video *model.VideoDescriptor, token string) (string, error) {
	f, err := os.Open(video.Filename)
	if err != nil {
		return "", fmt.Errorf("open staged video: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat staged video: %w", err)
	}

	session, err := a.startSession(ctx, token, info.Size())
	if err != nil {
		return "", err
	}

	start, end, err := session.offsets()
	if err != nil {
		return "", err
	}

	for end > start {
		chunk := make([]byte, end-start)
		n, err := f.ReadAt(chunk, start)
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read chunk at offset %d: %w", start, err)
		}
		chunk = chunk[:n]

		next, err := a.transferChunk(ctx, token, session.SessionID, start, chunk)
		if err != nil {
			return "", err
		}

		start, end, err = next.offsets()
		if err != nil {
			return "", err
		}
	}

	if err := a.finishSession(ctx, token, session.SessionID, video); err != nil {
		return "", err
	}

	return session.VideoID, nil
}

func (a *Adapter) startSession(ctx context.Context, token string, fileSize int64) (*uploadSession, error) {
	form := url.Values{
		"access_token": {token},
		"upload_phase": {"start"},
		"file_size":    {strconv.FormatInt(fileSize, 10)},
	}

	var session uploadSession
	if err := a.postForm(ctx, "me/videos", form, &session); err != nil {
		return nil, fmt.Errorf("start upload session: %w", err)
	}
	return &session, nil
}

// transferChunk sends one byte range of the session. Transfers are retried a
// fixed number of times with a flat delay between attempts; the Graph API
// re-advertises the expected offsets on every response, so a retried chunk
// is sent again from the same offset.
func (a *Adapter) transferChunk(ctx context.Context, token, sessionID string, offset int64, chunk []byte) (*uploadSession, error) {
	var lastErr error
	for attempt := 0; attempt <= a.config.ChunkRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.config.ChunkRetryDelay):
			}
		}

		session, err := a.postChunk(ctx, token, sessionID, offset, chunk)
		if err == nil {
			return session, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("chunk transfer at offset %d failed after %d attempts: %w", offset, a.config.ChunkRetries+1, lastErr)
}

func (a *Adapter) postChunk(ctx context.Context, token, sessionID string, offset int64, chunk []byte) (*uploadSession, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("access_token", token)
	_ = writer.WriteField("upload_phase", "transfer")
	_ = writer.WriteField("upload_session_id", sessionID)
	_ = writer.WriteField("start_offset", strconv.FormatInt(offset, 10))

	part, err := writer.CreateFormFile("video_file_chunk", "chunk")
	if err != nil {
		return nil, fmt.Errorf("build chunk part: %w", err)
	}
	if _, err := part.Write(chunk); err != nil {
		return nil, fmt.Errorf("write chunk part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize chunk body: %w", err)
	}

	var session uploadSession
	if err := a.postMultipart(ctx, "me/videos", writer.FormDataContentType(), body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (a *Adapter) finishSession(ctx context.Context, token, sessionID string, video *model.VideoDescriptor) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("access_token", token)
	_ = writer.WriteField("upload_phase", "finish")
	_ = writer.WriteField("upload_session_id", sessionID)
	_ = writer.WriteField("title", video.Title)
	_ = writer.WriteField("description", video.Description)
	_ = writer.WriteField("published", "false")
	_ = writer.WriteField("scheduled_publish_time", strconv.FormatInt(a.now().Add(a.config.PublishDelay).Unix(), 10))

	if video.ImageFilename != "" {
		if err := attachFile(writer, "thumb", video.ImageFilename); err != nil {
			// A missing thumbnail never fails the upload
			slog.Warn("thumbnail not attached to facebook upload",
				"video_id", video.VideoID,
				"error", err,
			)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize finish body: %w", err)
	}

	if err := a.postMultipart(ctx, "me/videos", writer.FormDataContentType(), body, nil); err != nil {
		return fmt.Errorf("finish upload session: %w", err)
	}
	return nil
}

// uploadCaptions attaches the staged captions file to the uploaded video and
// records the result on the entry. Captions are best-effort: failures are
// logged and never fail the upload.
func (a *Adapter) uploadCaptions(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry, token string) {
	if video.CaptionsFilename == "" {
		return
	}
	if _, err := os.Stat(video.CaptionsFilename); err != nil {
		slog.Warn("captions file not staged, skipping captions upload",
			"registry_id", entry.RegistryID,
			"error", err,
		)
		return
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	_ = writer.WriteField("access_token", token)
	if err := attachFile(writer, "captions_file", video.CaptionsFilename); err != nil {
		slog.Warn("captions file could not be read, skipping captions upload",
			"registry_id", entry.RegistryID,
			"error", err,
		)
		return
	}
	if err := writer.Close(); err != nil {
		slog.Warn("captions upload body could not be finalized",
			"registry_id", entry.RegistryID,
			"error", err,
		)
		return
	}

	path := entry.TargetPlatformVideoID + "/captions"
	if err := a.postMultipart(ctx, path, writer.FormDataContentType(), body, nil); err != nil {
		slog.Warn("captions upload to facebook failed",
			"registry_id", entry.RegistryID,
			"error", err,
		)
		return
	}

	entry.CaptionsUploaded = true
	if err := a.registry.Save(ctx, entry); err != nil {
		slog.Warn("failed to persist captions flag",
			"registry_id", entry.RegistryID,
			"error", err,
		)
	}
}

// remoteMetadata is the subset of remote video fields fetched for tamper
// detection.
type remoteMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (a *Adapter) fetchMetadata(ctx context.Context, token, videoID string) (*remoteMetadata, error) {
	u := fmt.Sprintf("%s%s?access_token=%s&fields=description,content_tags,title", a.config.GraphURL, videoID, url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build metadata request: %w", err)
	}

	var remote remoteMetadata
	if err := a.do(req, &remote); err != nil {
		return nil, err
	}
	return &remote, nil
}

func (a *Adapter) postForm(ctx context.Context, path string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.GraphURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req, out)
}

func (a *Adapter) postMultipart(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.GraphURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return a.do(req, out)
}

func (a *Adapter) do(req *http.Request, out any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("facebook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("facebook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode facebook response: %w", err)
	}
	return nil
}

func attachFile(writer *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	part, err := writer.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}
