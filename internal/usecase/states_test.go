package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
)

const (
	testRegistryID = "59676d3b8cd4c23d4fe1b3a8"
	testVideoID    = "video-1"
	testMappingID  = "mapping-1"
)

func notifiedEntry() *model.RegistryEntry {
	return &model.RegistryEntry{
		RegistryID:     testRegistryID,
		VideoID:        testVideoID,
		MappingID:      testMappingID,
		TargetPlatform: model.PlatformFacebook,
		Status:         model.StatusNotified,
	}
}

func publishedEntry() *model.RegistryEntry {
	entry := notifiedEntry()
	entry.Status = model.StatusActive
	entry.TargetPlatformVideoID = "567"
	entry.VideoHashCode = model.MetadataHash("Old-Title", "Old-Description")
	return entry
}

// stagedDescriptor returns a descriptor whose file names point into a fresh
// temp directory, so cleanup assertions operate on real files.
func stagedDescriptor(t *testing.T) *model.VideoDescriptor {
	t.Helper()
	dir := t.TempDir()
	return &model.VideoDescriptor{
		VideoID:       testVideoID,
		Title:         "Test-Title",
		Description:   "Test-Description",
		Keywords:      []string{"tag1", "tag2"},
		DownloadURL:   "http://catalog.example.com/flavors/video-1.mpeg",
		ImageID:       "image-1",
		Filename:      filepath.Join(dir, "video-1.mpeg"),
		ImageFilename: filepath.Join(dir, "image-1.png"),
		HashCode:      model.MetadataHash("Test-Title", "Test-Description"),
	}
}

// fixture wires a connector service over mocks. The registry serves entry on
// every load, downloads and thumbnails write real files to the descriptor's
// staged paths, and a single adapter backs all platforms.
type fixture struct {
	registry   *mockRegistryStore
	catalog    *mockAssetCatalog
	thumbnails *mockThumbnailStore
	downloader *mockDownloader
	adapter    *mockAdapter
	service    ConnectorService
}

func newFixture(entry *model.RegistryEntry, video *model.VideoDescriptor) *fixture {
	f := &fixture{
		registry:   &mockRegistryStore{},
		catalog:    &mockAssetCatalog{},
		thumbnails: &mockThumbnailStore{},
		downloader: &mockDownloader{},
		adapter:    &mockAdapter{},
	}
	f.registry.loadFn = func(ctx context.Context, registryID string) (*model.RegistryEntry, error) {
		if registryID != entry.RegistryID {
			return nil, repository.ErrRegistryNotFound
		}
		return entry, nil
	}
	if video != nil {
		f.catalog.fetchVideoFn = func(ctx context.Context, videoID string) (*model.VideoDescriptor, error) {
			return video, nil
		}
	}
	f.downloader.downloadFn = func(ctx context.Context, url, path string) error {
		return os.WriteFile(path, []byte("media"), 0o644)
	}
	f.thumbnails.persistFn = func(ctx context.Context, imageID, path string) error {
		return os.WriteFile(path, []byte("png"), 0o644)
	}
	f.service = NewConnectorService(f.registry, f.catalog, f.thumbnails, f.downloader,
		NewPlatformRouter(f.adapter, f.adapter, f.adapter))
	return f
}

// activateOnUpload configures the adapter's upload the way production
// adapters behave: assign the remote id, mark the entry active and persist it.
func (f *fixture) activateOnUpload(videoID string) *int {
	calls := new(int)
	f.adapter.uploadFn = func(ctx context.Context, _ *model.VideoDescriptor, entry *model.RegistryEntry) error {
		*calls++
		entry.TargetPlatformVideoID = videoID
		if err := entry.MarkActive(); err != nil {
			return err
		}
		return f.registry.Save(ctx, entry)
	}
	return calls
}

func TestConnectorService_Update_PublishesNotifiedEntry(t *testing.T) {
	entry := notifiedEntry()
	video := stagedDescriptor(t)
	f := newFixture(entry, video)
	uploadCalls := f.activateOnUpload("567")

	var downloadedURLs []string
	f.downloader.downloadFn = func(ctx context.Context, url, path string) error {
		downloadedURLs = append(downloadedURLs, url)
		return os.WriteFile(path, []byte("media"), 0o644)
	}
	var thumbnailIDs []string
	f.thumbnails.persistFn = func(ctx context.Context, imageID, path string) error {
		thumbnailIDs = append(thumbnailIDs, imageID)
		return os.WriteFile(path, []byte("png"), 0o644)
	}

	if err := f.service.Update(context.Background(), testRegistryID); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	saved := f.registry.saved()
	if len(saved) != 5 {
		t.Fatalf("Save called %d times, want 5", len(saved))
	}

	wantIntermediates := []model.IntermediateState{
		model.IntermediateDownloading,
		model.IntermediateUploading,
		model.IntermediateNone,
		model.IntermediateNone,
		model.IntermediateNone,
	}
	for i, want := range wantIntermediates {
		if saved[i].IntermediateState != want {
			t.Errorf("save %d intermediate state = %q, want %q", i, saved[i].IntermediateState, want)
		}
	}

	if saved[0].VideoHashCode != "" {
		t.Errorf("downloading persist already carries hash %q", saved[0].VideoHashCode)
	}
	if saved[1].VideoHashCode != video.HashCode {
		t.Errorf("uploading persist hash = %q, want %q", saved[1].VideoHashCode, video.HashCode)
	}
	if saved[2].Status != model.StatusActive {
		t.Errorf("adapter persist status = %q, want %q", saved[2].Status, model.StatusActive)
	}

	final := saved[len(saved)-1]
	if final.Status != model.StatusActive {
		t.Errorf("final status = %q, want %q", final.Status, model.StatusActive)
	}
	if final.TargetPlatformVideoID != "567" {
		t.Errorf("final target video id = %q, want %q", final.TargetPlatformVideoID, "567")
	}
	wantMessage := "Successfully uploaded video of registry entry " + testRegistryID
	if final.Message != wantMessage {
		t.Errorf("final message = %q, want %q", final.Message, wantMessage)
	}

	if *uploadCalls != 1 {
		t.Errorf("adapter upload called %d times, want 1", *uploadCalls)
	}
	if len(downloadedURLs) != 1 || downloadedURLs[0] != video.DownloadURL {
		t.Errorf("downloaded urls = %v, want [%s]", downloadedURLs, video.DownloadURL)
	}
	if len(thumbnailIDs) != 1 || thumbnailIDs[0] != "image-1" {
		t.Errorf("persisted thumbnail ids = %v, want [image-1]", thumbnailIDs)
	}

	for _, name := range []string{video.Filename, video.ImageFilename} {
		if _, err := os.Stat(name); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("staged file %s still exists after the run", name)
		}
	}
}

func TestConnectorService_Update_CaptionsFailureIsNotFatal(t *testing.T) {
	entry := notifiedEntry()
	video := stagedDescriptor(t)
	video.CaptionsURL = "http://catalog.example.com/captions/video-1.srt"
	video.CaptionsFilename = filepath.Join(filepath.Dir(video.Filename), "video-1.srt")
	f := newFixture(entry, video)
	f.activateOnUpload("567")

	var downloadedURLs []string
	f.downloader.downloadFn = func(ctx context.Context, url, path string) error {
		downloadedURLs = append(downloadedURLs, url)
		if url == video.CaptionsURL {
			return errors.New("404 Not Found")
		}
		return os.WriteFile(path, []byte("media"), 0o644)
	}

	if err := f.service.Update(context.Background(), testRegistryID); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	final := f.registry.saved()[len(f.registry.saved())-1]
	if final.Status != model.StatusActive {
		t.Errorf("final status = %q, want %q", final.Status, model.StatusActive)
	}
	if len(downloadedURLs) != 2 {
		t.Errorf("downloader called %d times, want 2 (media and captions)", len(downloadedURLs))
	}
	if video.CaptionsFilename != "" {
		t.Errorf("captions filename = %q, want cleared after failed download", video.CaptionsFilename)
	}
}

func TestConnectorService_Update_NoSourceURL(t *testing.T) {
	entry := notifiedEntry()
	video := stagedDescriptor(t)
	video.DownloadURL = ""
	f := newFixture(entry, video)

	downloadCalls := 0
	f.downloader.downloadFn = func(ctx context.Context, url, path string) error {
		downloadCalls++
		return nil
	}
	uploadCalls := f.activateOnUpload("567")

	if err := f.service.Update(context.Background(), testRegistryID); err == nil {
		t.Fatal("Update() error = nil, want source url failure")
	}

	saved := f.registry.saved()
	if len(saved) != 2 {
		t.Fatalf("Save called %d times, want 2", len(saved))
	}
	final := saved[len(saved)-1]
	if final.Status != model.StatusError {
		t.Errorf("final status = %q, want %q", final.Status, model.StatusError)
	}
	if final.IntermediateState != model.IntermediateDownloading {
		t.Errorf("final intermediate state = %q, want %q", final.IntermediateState, model.IntermediateDownloading)
	}
	if !strings.Contains(final.Message, "No flavor source url") {
		t.Errorf("final message = %q, want it to name the missing source url", final.Message)
	}
	if downloadCalls != 0 {
		t.Errorf("downloader called %d times, want 0", downloadCalls)
	}
	if *uploadCalls != 0 {
		t.Errorf("adapter upload called %d times, want 0", *uploadCalls)
	}
}

func TestConnectorService_Update_ThumbnailFailureRecordsError(t *testing.T) {
	entry := notifiedEntry()
	video := stagedDescriptor(t)
	f := newFixture(entry, video)
	uploadCalls := f.activateOnUpload("567")

	f.thumbnails.persistFn = func(ctx context.Context, imageID, path string) error {
		return fmt.Errorf("thumbnail %s: %w", imageID, repository.ErrThumbnailUnavailable)
	}

	err := f.service.Update(context.Background(), testRegistryID)
	if !errors.Is(err, repository.ErrThumbnailUnavailable) {
		t.Fatalf("Update() error = %v, want ErrThumbnailUnavailable", err)
	}

	final := f.registry.saved()[len(f.registry.saved())-1]
	if final.Status != model.StatusError {
		t.Errorf("final status = %q, want %q", final.Status, model.StatusError)
	}
	if final.IntermediateState != model.IntermediateDownloading {
		t.Errorf("final intermediate state = %q, want %q", final.IntermediateState, model.IntermediateDownloading)
	}
	if !strings.Contains(final.Message, "error staging thumbnail") {
		t.Errorf("final message = %q, want a thumbnail staging error", final.Message)
	}
	if *uploadCalls != 0 {
		t.Errorf("adapter upload called %d times, want 0", *uploadCalls)
	}
}

func TestConnectorService_Update_SyncsActiveEntry(t *testing.T) {
	entry := publishedEntry()
	video := stagedDescriptor(t)
	f := newFixture(entry, video)

	updateCalls := 0
	f.adapter.updateFn = func(ctx context.Context, gotVideo *model.VideoDescriptor, gotEntry *model.RegistryEntry) error {
		updateCalls++
		if gotVideo != video {
			t.Error("adapter update received a different descriptor than the catalog produced")
		}
		return nil
	}

	if err := f.service.Update(context.Background(), testRegistryID); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	saved := f.registry.saved()
	if len(saved) != 3 {
		t.Fatalf("Save called %d times, want 3", len(saved))
	}
	if saved[0].IntermediateState != model.IntermediateUpdating {
		t.Errorf("first save intermediate state = %q, want %q", saved[0].IntermediateState, model.IntermediateUpdating)
	}

	final := saved[len(saved)-1]
	if final.Status != model.StatusActive {
		t.Errorf("final status = %q, want %q", final.Status, model.StatusActive)
	}
	wantMessage := "Successfully updated video of registry entry " + testRegistryID
	if final.Message != wantMessage {
		t.Errorf("final message = %q, want %q", final.Message, wantMessage)
	}
	if final.VideoHashCode != entry.VideoHashCode {
		t.Errorf("final hash = %q, want stored hash %q untouched", final.VideoHashCode, entry.VideoHashCode)
	}
	if updateCalls != 1 {
		t.Errorf("adapter update called %d times, want 1", updateCalls)
	}
}

func TestConnectorService_Update_ReactivatesInactiveEntry(t *testing.T) {
	entry := publishedEntry()
	entry.Status = model.StatusInactive
	f := newFixture(entry, nil)

	adapterCalls := 0
	f.adapter.updateFn = func(ctx context.Context, _ *model.VideoDescriptor, _ *model.RegistryEntry) error {
		adapterCalls++
		return nil
	}
	uploadCalls := f.activateOnUpload("567")

	if err := f.service.Update(context.Background(), testRegistryID); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	saved := f.registry.saved()
	if len(saved) != 2 {
		t.Fatalf("Save called %d times, want 2", len(saved))
	}
	if saved[0].Status != model.StatusInactive {
		t.Errorf("first save status = %q, want %q", saved[0].Status, model.StatusInactive)
	}

	final := saved[len(saved)-1]
	if final.Status != model.StatusActive {
		t.Errorf("final status = %q, want %q", final.Status, model.StatusActive)
	}
	wantMessage := "Successfully reactivated video of registry entry " + testRegistryID
	if final.Message != wantMessage {
		t.Errorf("final message = %q, want %q", final.Message, wantMessage)
	}
	if adapterCalls != 0 || *uploadCalls != 0 {
		t.Errorf("adapter called %d update / %d upload times, want none", adapterCalls, *uploadCalls)
	}
}

func TestConnectorService_Update_KeepsUploadWarningMessage(t *testing.T) {
	entry := notifiedEntry()
	video := stagedDescriptor(t)
	f := newFixture(entry, video)

	warning := "Warning while setting policies for video of registry entry " + testRegistryID
	f.adapter.uploadFn = func(ctx context.Context, _ *model.VideoDescriptor, gotEntry *model.RegistryEntry) error {
		gotEntry.TargetPlatformVideoID = "567"
		if err := gotEntry.MarkActive(); err != nil {
			return err
		}
		gotEntry.Message = warning
		if err := f.registry.Save(ctx, gotEntry); err != nil {
			return err
		}
		return model.WrapError(warning, model.ErrUploadWarning)
	}

	if err := f.service.Update(context.Background(), testRegistryID); err != nil {
		t.Fatalf("Update() error = %v, want nil for a warning run", err)
	}

	final := f.registry.saved()[len(f.registry.saved())-1]
	if final.Status != model.StatusActive {
		t.Errorf("final status = %q, want %q", final.Status, model.StatusActive)
	}
	if final.Message != warning {
		t.Errorf("final message = %q, want the adapter warning %q", final.Message, warning)
	}
	if strings.Contains(final.Message, "Successfully") {
		t.Errorf("final message = %q, must not be overwritten by the success message", final.Message)
	}
}

func TestConnectorService_Update_UploadFailureRecordsError(t *testing.T) {
	entry := notifiedEntry()
	video := stagedDescriptor(t)
	f := newFixture(entry, video)

	f.adapter.uploadFn = func(ctx context.Context, _ *model.VideoDescriptor, gotEntry *model.RegistryEntry) error {
		return model.WrapError(
			fmt.Sprintf("error uploading video of registry entry %s to facebook", gotEntry.RegistryID),
			errors.New("session start failed"))
	}

	if err := f.service.Update(context.Background(), testRegistryID); err == nil {
		t.Fatal("Update() error = nil, want upload failure")
	}

	saved := f.registry.saved()
	if len(saved) != 3 {
		t.Fatalf("Save called %d times, want 3", len(saved))
	}
	final := saved[len(saved)-1]
	if final.Status != model.StatusError {
		t.Errorf("final status = %q, want %q", final.Status, model.StatusError)
	}
	if final.IntermediateState != model.IntermediateUploading {
		t.Errorf("final intermediate state = %q, want %q", final.IntermediateState, model.IntermediateUploading)
	}
	wantMessage := "error uploading video of registry entry " + testRegistryID + " to facebook | session start failed"
	if final.Message != wantMessage {
		t.Errorf("final message = %q, want %q", final.Message, wantMessage)
	}
}

func TestConnectorService_Update_CancelledRunRecordsCancelled(t *testing.T) {
	entry := notifiedEntry()
	video := stagedDescriptor(t)
	f := newFixture(entry, video)

	f.downloader.downloadFn = func(ctx context.Context, url, path string) error {
		return context.Canceled
	}

	err := f.service.Update(context.Background(), testRegistryID)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Update() error = %v, want context.Canceled", err)
	}

	final := f.registry.saved()[len(f.registry.saved())-1]
	if final.Status != model.StatusError {
		t.Errorf("final status = %q, want %q", final.Status, model.StatusError)
	}
	if final.Message != "cancelled" {
		t.Errorf("final message = %q, want %q", final.Message, "cancelled")
	}
	if final.IntermediateState != model.IntermediateDownloading {
		t.Errorf("final intermediate state = %q, want %q", final.IntermediateState, model.IntermediateDownloading)
	}
}

func TestConnectorService_Update_CleanupFailureRecordsError(t *testing.T) {
	entry := notifiedEntry()
	video := stagedDescriptor(t)

	// Point the staged name at a non-empty directory so its removal fails.
	blocked := filepath.Join(t.TempDir(), "staging")
	if err := os.MkdirAll(blocked, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(blocked, "partial"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	video.Filename = blocked
	video.ImageID = ""
	video.ImageFilename = ""

	f := newFixture(entry, video)
	f.activateOnUpload("567")
	f.downloader.downloadFn = func(ctx context.Context, url, path string) error {
		return nil
	}

	if err := f.service.Update(context.Background(), testRegistryID); err == nil {
		t.Fatal("Update() error = nil, want cleanup failure")
	}

	final := f.registry.saved()[len(f.registry.saved())-1]
	if final.Status != model.StatusError {
		t.Errorf("final status = %q, want %q", final.Status, model.StatusError)
	}
	if !strings.Contains(final.Message, "error removing staged files") {
		t.Errorf("final message = %q, want a staged file removal error", final.Message)
	}
}

func TestConnectorService_Unpublish_TakesEntryInactive(t *testing.T) {
	entry := publishedEntry()
	f := newFixture(entry, nil)

	unpublishCalls := 0
	f.adapter.unpublishFn = func(ctx context.Context, gotEntry *model.RegistryEntry) error {
		unpublishCalls++
		if gotEntry.IntermediateState != model.IntermediateUnpublishing {
			t.Errorf("adapter saw intermediate state %q, want %q", gotEntry.IntermediateState, model.IntermediateUnpublishing)
		}
		return nil
	}

	if err := f.service.Unpublish(context.Background(), testRegistryID); err != nil {
		t.Fatalf("Unpublish() error = %v", err)
	}

	saved := f.registry.saved()
	if len(saved) != 2 {
		t.Fatalf("Save called %d times, want 2", len(saved))
	}
	if saved[0].IntermediateState != model.IntermediateUnpublishing {
		t.Errorf("first save intermediate state = %q, want %q", saved[0].IntermediateState, model.IntermediateUnpublishing)
	}

	final := saved[len(saved)-1]
	if final.Status != model.StatusInactive {
		t.Errorf("final status = %q, want %q", final.Status, model.StatusInactive)
	}
	if final.IntermediateState != model.IntermediateNone {
		t.Errorf("final intermediate state = %q, want cleared", final.IntermediateState)
	}
	wantMessage := "Successfully unpublished video of registry entry " + testRegistryID
	if final.Message != wantMessage {
		t.Errorf("final message = %q, want %q", final.Message, wantMessage)
	}
	if unpublishCalls != 1 {
		t.Errorf("adapter unpublish called %d times, want 1", unpublishCalls)
	}
}

func TestConnectorService_Unpublish_AdapterFailureRecordsError(t *testing.T) {
	entry := publishedEntry()
	f := newFixture(entry, nil)

	f.adapter.unpublishFn = func(ctx context.Context, gotEntry *model.RegistryEntry) error {
		return model.WrapError(
			fmt.Sprintf("error unpublishing video of registry entry %s on youtube", gotEntry.RegistryID),
			errors.New("list failed"))
	}

	if err := f.service.Unpublish(context.Background(), testRegistryID); err == nil {
		t.Fatal("Unpublish() error = nil, want adapter failure")
	}

	final := f.registry.saved()[len(f.registry.saved())-1]
	if final.Status != model.StatusError {
		t.Errorf("final status = %q, want %q", final.Status, model.StatusError)
	}
	if final.IntermediateState != model.IntermediateUnpublishing {
		t.Errorf("final intermediate state = %q, want %q", final.IntermediateState, model.IntermediateUnpublishing)
	}
}

func TestConnectorService_Delete_TakesEntryDeleted(t *testing.T) {
	entry := publishedEntry()
	f := newFixture(entry, nil)

	deleteCalls := 0
	f.adapter.deleteFn = func(ctx context.Context, gotEntry *model.RegistryEntry) error {
		deleteCalls++
		return nil
	}

	if err := f.service.Delete(context.Background(), testRegistryID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	saved := f.registry.saved()
	if len(saved) != 2 {
		t.Fatalf("Save called %d times, want 2", len(saved))
	}
	if saved[0].IntermediateState != model.IntermediateDeleting {
		t.Errorf("first save intermediate state = %q, want %q", saved[0].IntermediateState, model.IntermediateDeleting)
	}

	final := saved[len(saved)-1]
	if final.Status != model.StatusDeleted {
		t.Errorf("final status = %q, want %q", final.Status, model.StatusDeleted)
	}
	if final.TargetPlatformVideoID != "567" {
		t.Errorf("final target video id = %q, want %q kept for the audit trail", final.TargetPlatformVideoID, "567")
	}
	wantMessage := "Successfully deleted video of registry entry " + testRegistryID
	if final.Message != wantMessage {
		t.Errorf("final message = %q, want %q", final.Message, wantMessage)
	}
	if deleteCalls != 1 {
		t.Errorf("adapter delete called %d times, want 1", deleteCalls)
	}
}
