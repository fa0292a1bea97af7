package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
)

// registryDoc is the BSON shape of a registry entry. The field names are
// part of the on-disk contract shared with the notifying systems;
// video_hash_code predates the camel case convention and stays as is.
type registryDoc struct {
	RegistryID            string `bson:"_id"`
	VideoID               string `bson:"videoId"`
	CategoryID            string `bson:"categoryId"`
	MappingID             string `bson:"mappingId"`
	TargetPlatform        string `bson:"targetPlatform"`
	TargetPlatformVideoID string `bson:"targetPlatformVideoId"`
	Status                string `bson:"status"`
	IntermediateState     string `bson:"intermediateState"`
	Message               string `bson:"message"`
	VideoHashCode         string `bson:"video_hash_code"`
	CaptionsUploaded      bool   `bson:"captionsUploaded"`
}

func registryDocFromModel(entry *model.RegistryEntry) registryDoc {
	return registryDoc{
		RegistryID:            entry.RegistryID,
		VideoID:               entry.VideoID,
		CategoryID:            entry.CategoryID,
		MappingID:             entry.MappingID,
		TargetPlatform:        entry.TargetPlatform.String(),
		TargetPlatformVideoID: entry.TargetPlatformVideoID,
		Status:                entry.Status.String(),
		IntermediateState:     entry.IntermediateState.String(),
		Message:               entry.Message,
		VideoHashCode:         entry.VideoHashCode,
		CaptionsUploaded:      entry.CaptionsUploaded,
	}
}

func (d registryDoc) toModel() *model.RegistryEntry {
	return &model.RegistryEntry{
		RegistryID:            d.RegistryID,
		VideoID:               d.VideoID,
		CategoryID:            d.CategoryID,
		MappingID:             d.MappingID,
		TargetPlatform:        model.Platform(d.TargetPlatform),
		TargetPlatformVideoID: d.TargetPlatformVideoID,
		Status:                model.Status(d.Status),
		IntermediateState:     model.IntermediateState(d.IntermediateState),
		Message:               d.Message,
		VideoHashCode:         d.VideoHashCode,
		CaptionsUploaded:      d.CaptionsUploaded,
	}
}

// RegistryStore implements repository.RegistryStore using MongoDB.
type RegistryStore struct {
	collection *mongo.Collection
}

// Compile-time verification that RegistryStore implements repository.RegistryStore.
var _ repository.RegistryStore = (*RegistryStore)(nil)

// NewRegistryStore creates a new RegistryStore on the given collection.
func NewRegistryStore(db *mongo.Database, collection string) *RegistryStore {
	return &RegistryStore{collection: db.Collection(collection)}
}

// Load retrieves a registry entry by its id.
func (s *RegistryStore) Load(ctx context.Context, registryID string) (*model.RegistryEntry, error) {
	var doc registryDoc
	if err := s.collection.FindOne(ctx, bson.M{"_id": registryID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrRegistryNotFound
		}
		return nil, fmt.Errorf("failed to load registry entry %s: %w", registryID, err)
	}
	return doc.toModel(), nil
}

// Save upserts the full registry document keyed on the registry id. Fields
// are only overwritten, never removed.
func (s *RegistryStore) Save(ctx context.Context, entry *model.RegistryEntry) error {
	doc := registryDocFromModel(entry)
	opts := options.Replace().SetUpsert(true)

	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": doc.RegistryID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save registry entry %s: %w", entry.RegistryID, err)
	}
	return nil
}
