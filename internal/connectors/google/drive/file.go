package drive

import (
	"strings"

	"google.golang.org/api/drive/v3"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

// Google Workspace MIME types.
const (
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"
	MimeTypeFolder       = "application/vnd.google-apps.folder"
	mimeTypeGoogleApps   = "application/vnd.google-apps."
)

// export is the Office format a Workspace file is downloaded as.
type export struct {
	mime string
	ext  string
}

// exports maps Workspace types to the Office format the extractors read.
var exports = map[string]export{
	MimeTypeGoogleDoc: {
		mime: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		ext:  ".docx",
	},
	MimeTypeGoogleSheet: {
		mime: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		ext:  ".xlsx",
	},
	MimeTypeGoogleSlides: {
		mime: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		ext:  ".pptx",
	},
}

// listFields is the partial response requested for listings.
const listFields = "nextPageToken, files(id, name, mimeType, size, modifiedTime)"

// isWorkspace reports a native Google file with no binary content.
func isWorkspace(mimeType string) bool {
	return strings.HasPrefix(mimeType, mimeTypeGoogleApps) && mimeType != MimeTypeFolder
}

// toRemote converts a Drive file. Exportable Workspace files get the
// extension of their export format so extraction dispatches correctly.
// Their size is left unknown since Drive reports none.
func toRemote(f *drive.File, rel string) domain.RemoteItem {
	item := domain.RemoteItem{
		ID:           f.Id,
		Name:         f.Name,
		IsFolder:     f.MimeType == MimeTypeFolder,
		RelativePath: rel,
		Size:         f.Size,
		MIMEType:     f.MimeType,
	}
	if exp, ok := exports[f.MimeType]; ok {
		if !strings.HasSuffix(strings.ToLower(item.Name), exp.ext) {
			item.Name += exp.ext
		}
		item.Size = 0
	}
	if f.ModifiedTime != "" {
		if t, err := parseTime(f.ModifiedTime); err == nil {
			item.LastModified = t
		}
	}
	return item
}

// quote escapes a value for a Drive query string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
