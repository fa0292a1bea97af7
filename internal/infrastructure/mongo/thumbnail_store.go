package mongo

import (
	"context"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"

	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
)

// ThumbnailStore implements repository.ThumbnailStore using the catalog's
// GridFS bucket.
type ThumbnailStore struct {
	bucket *gridfs.Bucket
}

// Compile-time verification that ThumbnailStore implements repository.ThumbnailStore.
var _ repository.ThumbnailStore = (*ThumbnailStore)(nil)

// NewThumbnailStore opens the GridFS bucket on the asset database.
func NewThumbnailStore(db *mongo.Database) (*ThumbnailStore, error) {
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, fmt.Errorf("failed to open GridFS bucket: %w", err)
	}
	return &ThumbnailStore{bucket: bucket}, nil
}

// Persist writes the thumbnail blob stored under imageID to path. Legacy
// blobs are keyed by the raw string id, newer ones by ObjectId; both forms
// are tried in that order.
func (s *ThumbnailStore) Persist(ctx context.Context, imageID, path string) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = s.bucket.SetReadDeadline(deadline)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create thumbnail file %s: %w", path, err)
	}
	defer file.Close()

	if _, err := s.bucket.DownloadToStream(imageID, file); err == nil {
		return nil
	}

	oid, err := primitive.ObjectIDFromHex(imageID)
	if err != nil {
		return fmt.Errorf("thumbnail %s: %w", imageID, repository.ErrThumbnailUnavailable)
	}

	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("failed to reset thumbnail file %s: %w", path, err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to reset thumbnail file %s: %w", path, err)
	}

	if _, err := s.bucket.DownloadToStream(oid, file); err != nil {
		return fmt.Errorf("thumbnail %s: %w", imageID, repository.ErrThumbnailUnavailable)
	}
	return nil
}
