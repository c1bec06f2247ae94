package driven

import (
	"context"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

// DocumentSource is a remote file store.
//
// Implementations handle pagination and authentication transparently;
// callers see complete listings and opaque bytes.
type DocumentSource interface {
	// Name returns the source identifier (e.g., "onedrive").
	Name() string

	// List returns the items under folderPath. An empty folderPath
	// means the drive root. With recursive set, files from every
	// subfolder are returned depth-first with RelativePath populated;
	// a failing subfolder is logged and skipped.
	List(ctx context.Context, folderPath string, recursive bool) ([]domain.RemoteItem, error)

	// Download returns the full content of a file item.
	Download(ctx context.Context, item domain.RemoteItem) ([]byte, error)

	// Upload writes data as name inside folderPath, creating missing
	// folders one segment at a time.
	Upload(ctx context.Context, data []byte, folderPath, name string) (*domain.UploadResult, error)
}
