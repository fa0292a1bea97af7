package usecase

import (
	"context"
	"sync"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
)

// mockRegistryStore records a snapshot of every saved entry so tests can
// assert the exact persisted sequence.
type mockRegistryStore struct {
	mu     sync.Mutex
	loadFn func(ctx context.Context, registryID string) (*model.RegistryEntry, error)
	saveFn func(ctx context.Context, entry *model.RegistryEntry) error
	saves  []model.RegistryEntry
}

func (m *mockRegistryStore) Load(ctx context.Context, registryID string) (*model.RegistryEntry, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, registryID)
	}
	return nil, repository.ErrRegistryNotFound
}

func (m *mockRegistryStore) Save(ctx context.Context, entry *model.RegistryEntry) error {
	m.mu.Lock()
	m.saves = append(m.saves, *entry)
	m.mu.Unlock()
	if m.saveFn != nil {
		return m.saveFn(ctx, entry)
	}
	return nil
}

func (m *mockRegistryStore) saved() []model.RegistryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.RegistryEntry(nil), m.saves...)
}

// mockAssetCatalog provides a configurable mock for AssetCatalog.
type mockAssetCatalog struct {
	fetchVideoFn func(ctx context.Context, videoID string) (*model.VideoDescriptor, error)
}

func (m *mockAssetCatalog) FetchVideo(ctx context.Context, videoID string) (*model.VideoDescriptor, error) {
	if m.fetchVideoFn != nil {
		return m.fetchVideoFn(ctx, videoID)
	}
	return nil, repository.ErrAssetNotFound
}

// mockThumbnailStore provides a configurable mock for ThumbnailStore.
type mockThumbnailStore struct {
	persistFn func(ctx context.Context, imageID, path string) error
}

func (m *mockThumbnailStore) Persist(ctx context.Context, imageID, path string) error {
	if m.persistFn != nil {
		return m.persistFn(ctx, imageID, path)
	}
	return nil
}

// mockDownloader provides a configurable mock for SourceDownloader.
type mockDownloader struct {
	downloadFn func(ctx context.Context, url, path string) error
}

func (m *mockDownloader) Download(ctx context.Context, url, path string) error {
	if m.downloadFn != nil {
		return m.downloadFn(ctx, url, path)
	}
	return nil
}

// mockAdapter provides a configurable mock for PlatformAdapter.
type mockAdapter struct {
	uploadFn    func(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error
	updateFn    func(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error
	unpublishFn func(ctx context.Context, entry *model.RegistryEntry) error
	deleteFn    func(ctx context.Context, entry *model.RegistryEntry) error
}

func (m *mockAdapter) Upload(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, video, entry)
	}
	return nil
}

func (m *mockAdapter) Update(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, video, entry)
	}
	return nil
}

func (m *mockAdapter) Unpublish(ctx context.Context, entry *model.RegistryEntry) error {
	if m.unpublishFn != nil {
		return m.unpublishFn(ctx, entry)
	}
	return nil
}

func (m *mockAdapter) Delete(ctx context.Context, entry *model.RegistryEntry) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, entry)
	}
	return nil
}
