package repository

import (
	"context"

	"github.com/JungesAngebot/platform-connectors/internal/domain/model"
)

// Operation names one of the four actions an adapter performs against its
// remote platform.
type Operation string

const (
	OperationUpload    Operation = "upload"
	OperationUpdate    Operation = "update"
	OperationUnpublish Operation = "unpublish"
	OperationDelete    Operation = "delete"
)

func (o Operation) String() string {
	return string(o)
}

// PlatformAdapter implements the four publishing operations against one
// remote video platform. Adapters enforce their own preconditions on the
// registry entry, retry their own transient errors, and persist the entry
// themselves at the points the upload protocol requires (setting the remote
// video id and the active status). Upload and Update need the staged video
// descriptor; Unpublish and Delete operate on the registry entry alone.
//
// A nil return means full success. Returning an error that wraps
// model.ErrUploadWarning means the upload stands but a secondary step failed
// and its warning is already recorded in the registry message. Any other
// error fails the run.
type PlatformAdapter interface {
	Upload(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error
	Update(ctx context.Context, video *model.VideoDescriptor, entry *model.RegistryEntry) error
	Unpublish(ctx context.Context, entry *model.RegistryEntry) error
	Delete(ctx context.Context, entry *model.RegistryEntry) error
}
