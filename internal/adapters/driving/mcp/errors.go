// Package mcp provides an MCP (Model Context Protocol) server adapter for docpilot.
// It lets AI assistants ask questions over the document index, read processed
// documents and trigger a rebuild.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")
