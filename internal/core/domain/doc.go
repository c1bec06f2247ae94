// Package domain defines the core business entities for docpilot.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RemoteItem: A file or folder in the document source
//   - LocalDocument: A staged copy of a remote file
//   - ProcessedText: Extracted plain text for one local document
//   - Chunk: A retrievable unit of processed text
//   - Settings: Resolved runtime configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
