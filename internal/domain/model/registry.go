package model

import "errors"

// Status is the persisted workflow status of a registry entry.
type Status string

const (
	StatusNotified Status = "notified"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
	StatusError    Status = "error"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusNotified, StatusActive, StatusInactive, StatusDeleted, StatusError:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// IntermediateState names the side-effecting step a workflow is currently
// executing. It is persisted before the step starts and cleared when the
// workflow reaches a terminal status, so a crashed run can be resumed from
// the step that was in flight.
type IntermediateState string

const (
	IntermediateNone         IntermediateState = ""
	IntermediateDownloading  IntermediateState = "downloading"
	IntermediateUploading    IntermediateState = "uploading"
	IntermediateUpdating     IntermediateState = "updating"
	IntermediateUnpublishing IntermediateState = "unpublishing"
	IntermediateDeleting     IntermediateState = "deleting"
)

func (i IntermediateState) String() string {
	return string(i)
}

// Platform identifies the remote destination type of a registry entry.
type Platform string

const (
	PlatformFacebook      Platform = "facebook"
	PlatformYouTube       Platform = "youtube"
	PlatformYouTubeDirect Platform = "youtube_direct"
)

func (p Platform) IsValid() bool {
	switch p {
	case PlatformFacebook, PlatformYouTube, PlatformYouTubeDirect:
		return true
	default:
		return false
	}
}

func (p Platform) String() string {
	return string(p)
}

var (
	ErrUnknownStatus        = errors.New("registry entry has an unrecognized status")
	ErrMissingTargetVideoID = errors.New("registry entry has no target platform video id")
)

// RegistryEntry is the durable record of one (asset, destination) workflow.
// Every mutation becomes visible through a full-document upsert keyed on
// RegistryID; fields are only ever overwritten, never removed.
type RegistryEntry struct {
	RegistryID            string
	VideoID               string
	CategoryID            string
	MappingID             string
	TargetPlatform        Platform
	TargetPlatformVideoID string
	Status                Status
	IntermediateState     IntermediateState
	Message               string
	VideoHashCode         string
	CaptionsUploaded      bool
}

// BeginStep records the side-effecting step that is about to run.
func (r *RegistryEntry) BeginStep(step IntermediateState) {
	r.IntermediateState = step
}

// MarkActive moves the entry into the active status and clears the
// intermediate state. An entry can only be active once the remote platform
// has assigned it a video id.
func (r *RegistryEntry) MarkActive() error {
	if r.TargetPlatformVideoID == "" {
		return ErrMissingTargetVideoID
	}
	r.Status = StatusActive
	r.IntermediateState = IntermediateNone
	return nil
}

// MarkInactive records a successful unpublish.
func (r *RegistryEntry) MarkInactive() {
	r.Status = StatusInactive
	r.IntermediateState = IntermediateNone
}

// MarkDeleted records a successful delete. The target platform video id is
// kept: the remote side is only ever unpublished, never removed.
func (r *RegistryEntry) MarkDeleted() {
	r.Status = StatusDeleted
	r.IntermediateState = IntermediateNone
}

// MarkFailed records a failed run. The intermediate state is kept so a later
// trigger can resume from the step that failed.
func (r *RegistryEntry) MarkFailed(message string) {
	r.Status = StatusError
	r.Message = message
}
