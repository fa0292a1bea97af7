package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
	"github.com/JungesAngebot/platform-connectors/internal/domain/repository"
)

// assetDoc decodes the catalog fields the connector needs. Both the current
// flavourSourceUrl and the legacy downloadUrl spelling of the source
// location are accepted.
type assetDoc struct {
	Name             string `bson:"name"`
	Text             string `bson:"text"`
	Tags             string `bson:"tags"`
	FlavourSourceURL string `bson:"flavourSourceUrl"`
	DownloadURL      string `bson:"downloadUrl"`
	ImageID          string `bson:"imageid"`
	CaptionsURL      string `bson:"captionsUrl"`
}

func (d assetDoc) toMetadata(videoID string) model.AssetMetadata {
	downloadURL := d.FlavourSourceURL
	if downloadURL == "" {
		downloadURL = d.DownloadURL
	}
	return model.AssetMetadata{
		VideoID:     videoID,
		Title:       d.Name,
		Description: d.Text,
		Tags:        d.Tags,
		DownloadURL: downloadURL,
		ImageID:     d.ImageID,
		CaptionsURL: d.CaptionsURL,
	}
}

// AssetCatalog implements repository.AssetCatalog using the content database.
type AssetCatalog struct {
	collection *mongo.Collection
	stagingDir string
}

// Compile-time verification that AssetCatalog implements repository.AssetCatalog.
var _ repository.AssetCatalog = (*AssetCatalog)(nil)

// NewAssetCatalog creates a new AssetCatalog. Descriptor files are staged
// under stagingDir.
func NewAssetCatalog(db *mongo.Database, collection, stagingDir string) *AssetCatalog {
	return &AssetCatalog{
		collection: db.Collection(collection),
		stagingDir: stagingDir,
	}
}

// FetchVideo looks up the asset published under videoID and builds the
// per-run video descriptor from it.
func (c *AssetCatalog) FetchVideo(ctx context.Context, videoID string) (*model.VideoDescriptor, error) {
	result := c.collection.FindOne(ctx, bson.M{"sourceId": videoID})
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("asset %s: %w", videoID, repository.ErrAssetNotFound)
		}
		return nil, fmt.Errorf("failed to fetch asset %s: %w", videoID, err)
	}

	var doc assetDoc
	if err := result.Decode(&doc); err != nil {
		return nil, fmt.Errorf("asset %s: %w", videoID, repository.ErrAssetMalformed)
	}

	return model.NewVideoDescriptor(doc.toMetadata(videoID), c.stagingDir), nil
}
