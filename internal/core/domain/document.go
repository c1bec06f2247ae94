package domain

import "time"

// RemoteItem is a file or folder as reported by a document source.
// Items are enumerated per listing call and never persisted.
type RemoteItem struct {
	// ID is the source-assigned unique identifier.
	ID string

	// Name is the display name of the file or folder.
	Name string

	// LastModified is the remote modification timestamp.
	LastModified time.Time

	// IsFolder is true for folders.
	IsFolder bool

	// RelativePath is the slash-separated path of the parent folder
	// relative to the listing root. Empty for items in the root itself.
	RelativePath string

	// Size is the remote size in bytes, when known.
	Size int64

	// MIMEType is the source-reported content type. Sources that export
	// native formats use it to pick the export on download.
	MIMEType string
}

// UploadResult describes a file created by an upload.
type UploadResult struct {
	// ID is the identifier of the uploaded item.
	ID string

	// WebURL is a browser link to the uploaded item.
	WebURL string
}

// LocalDocument is a staged copy of a remote item.
type LocalDocument struct {
	// Path is the absolute path on disk.
	Path string

	// RelativePath is the path relative to the staging root.
	RelativePath string

	// Format is the extraction format selected from the extension.
	Format Format
}

// ProcessedText is the extracted text of one local document.
type ProcessedText struct {
	// Key is the filesystem-safe basename, without the .txt suffix.
	Key string

	// Content is the extracted plain text.
	Content string
}

// Chunk is a contiguous, overlapping slice of a processed text.
// Its position in the index is the join key to its embedding vector.
type Chunk struct {
	// ID is derived deterministically from Source and Position.
	ID string `json:"id"`

	// Source is the processed text key the chunk came from.
	Source string `json:"source"`

	// Position is the ordinal position within the source.
	Position int `json:"position"`

	// Text is the chunk content.
	Text string `json:"text"`
}

// SearchHit is a chunk returned by a similarity search.
type SearchHit struct {
	Chunk Chunk
	Score float32
}

// VectorStats summarises an index.
type VectorStats struct {
	Count     int
	Dimension int
	Type      string
}
