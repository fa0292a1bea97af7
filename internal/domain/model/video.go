package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// AssetMetadata is the raw catalog view of a video from which a descriptor
// is built.
type AssetMetadata struct {
	VideoID     string
	Title       string
	Description string
	Tags        string
	DownloadURL string
	ImageID     string
	CaptionsURL string
}

// VideoDescriptor is the in-memory snapshot of one catalog asset for a
// single workflow run. It carries the staged file locations and the metadata
// hash used for tamper detection. A descriptor has no identity beyond the
// run that built it.
type VideoDescriptor struct {
	VideoID          string
	Title            string
	Description      string
	Keywords         []string
	DownloadURL      string
	ImageID          string
	CaptionsURL      string
	Filename         string
	ImageFilename    string
	CaptionsFilename string
	HashCode         string
}

// NewVideoDescriptor builds the per-run snapshot of an asset. Staged file
// names carry a random suffix so concurrent runs for different registry
// entries never collide on disk. The image and captions file names are only
// assigned when the corresponding source exists.
func NewVideoDescriptor(meta AssetMetadata, stagingDir string) *VideoDescriptor {
	d := &VideoDescriptor{
		VideoID:     meta.VideoID,
		Title:       meta.Title,
		Description: meta.Description,
		Keywords:    SplitKeywords(meta.Tags),
		DownloadURL: meta.DownloadURL,
		ImageID:     meta.ImageID,
		CaptionsURL: meta.CaptionsURL,
		Filename:    stagedName(stagingDir, meta.VideoID, "mpeg"),
		HashCode:    MetadataHash(meta.Title, meta.Description),
	}
	if meta.ImageID != "" {
		d.ImageFilename = stagedName(stagingDir, meta.ImageID, "png")
	}
	if meta.CaptionsURL != "" {
		d.CaptionsFilename = stagedName(stagingDir, meta.VideoID, "srt")
	}
	return d
}

func stagedName(dir, id, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%s.%s", id, uuid.New().String(), ext))
}

// SplitKeywords turns the catalog's comma separated tag string into a list
// of trimmed keywords. Interior whitespace is preserved; elements that trim
// to nothing are dropped, so an empty tag string yields an empty list.
func SplitKeywords(tags string) []string {
	parts := strings.Split(tags, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if keyword := strings.TrimSpace(part); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}

// MetadataHash is the tamper-detection hash over the remote-visible metadata
// of a video: the hex md5 of the title immediately followed by the
// description. Registry entries persist this value and adapters recompute it
// from remote metadata, so field set and order are part of the contract.
func MetadataHash(title, description string) string {
	sum := md5.Sum([]byte(title + description))
	return hex.EncodeToString(sum[:])
}
