package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
)

type mappingDoc struct {
	TargetID       string `bson:"target_id"`
	TargetPlatform string `bson:"target_platform"`
	CategoryID     string `bson:"category_id"`
}

// MappingStore implements repository.MappingStore using MongoDB.
type MappingStore struct {
	collection *mongo.Collection
}

// Compile-time verification that MappingStore implements repository.MappingStore.
var _ repository.MappingStore = (*MappingStore)(nil)

// NewMappingStore creates a new MappingStore on the given collection.
func NewMappingStore(db *mongo.Database, collection string) *MappingStore {
	return &MappingStore{collection: db.Collection(collection)}
}

// GetByID retrieves a mapping by its id. Mapping documents written by the
// management tooling are keyed by ObjectId, older ones by the raw string;
// both forms are tried in that order of likelihood.
func (s *MappingStore) GetByID(ctx context.Context, mappingID string) (*model.Mapping, error) {
	var doc mappingDoc

	filter := bson.M{"_id": mappingID}
	if oid, err := primitive.ObjectIDFromHex(mappingID); err == nil {
		filter = bson.M{"_id": oid}
	}

	if err := s.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("mapping %s: %w", mappingID, repository.ErrMappingNotFound)
		}
		return nil, fmt.Errorf("failed to load mapping %s: %w", mappingID, err)
	}

	return &model.Mapping{
		MappingID:      mappingID,
		TargetID:       doc.TargetID,
		TargetPlatform: model.Platform(doc.TargetPlatform),
		CategoryID:     doc.CategoryID,
	}, nil
}
