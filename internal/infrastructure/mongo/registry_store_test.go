package mongo

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
)

func TestRegistryDoc_RoundTrip(t *testing.T) {
	entry := &model.RegistryEntry{
		RegistryID:            "reg-1",
		VideoID:               "video-1",
		CategoryID:            "5678",
		MappingID:             "map-1",
		TargetPlatform:        model.PlatformYouTube,
		TargetPlatformVideoID: "567",
		Status:                model.StatusActive,
		IntermediateState:     model.IntermediateNone,
		Message:               "Successfully uploaded video of registry entry reg-1",
		VideoHashCode:         "3cce31b945bb49b24633e7d3009a6b4b",
		CaptionsUploaded:      true,
	}

	got := registryDocFromModel(entry).toModel()

	if !reflect.DeepEqual(got, entry) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, entry)
	}
}

// The document keys are shared with the notifying systems and must not
// drift, including the snake case video_hash_code.
func TestRegistryDoc_FieldNames(t *testing.T) {
	doc := registryDocFromModel(&model.RegistryEntry{RegistryID: "reg-1"})

	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("bson.Marshal() error = %v", err)
	}

	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatalf("bson.Unmarshal() error = %v", err)
	}

	want := []string{
		"_id", "videoId", "categoryId", "mappingId", "targetPlatform",
		"targetPlatformVideoId", "status", "intermediateState", "message",
		"video_hash_code", "captionsUploaded",
	}
	if len(m) != len(want) {
		t.Errorf("document has %d fields, want %d: %v", len(m), len(want), m)
	}
	for _, key := range want {
		if _, ok := m[key]; !ok {
			t.Errorf("document is missing field %q", key)
		}
	}
}
