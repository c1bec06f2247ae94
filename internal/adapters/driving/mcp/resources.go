package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

const (
	docScheme  = "doc://"
	statsURI   = "vector://stats"
	textPlain  = "text/plain"
	missingMsg = "Vector store missing. Run the reindex tool."
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         statsURI,
		Name:        "vector-stats",
		Description: "Basic statistics about the vector index",
		MIMEType:    textPlain,
	}, s.handleStatsResource)

	if s.ports.Documents != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: docScheme + "{name}",
			Name:        "document",
			Description: "Contents of a processed text document by file name",
			MIMEType:    textPlain,
		}, s.handleDocResource)
	}
}

// handleStatsResource renders the index statistics.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Answer.Stats(ctx)
	if errors.Is(err, domain.ErrIndexNotBuilt) {
		return textResult(req.Params.URI, missingMsg), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index stats: %w", err)
	}
	return textResult(req.Params.URI, FormatStats(stats)), nil
}

// handleDocResource returns the content of a processed document.
func (s *Server) handleDocResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractDocName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	content, err := s.ports.Documents.Get(ctx, name)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidInput) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return textResult(req.Params.URI, content), nil
}

// FormatStats renders stats as "chunks=N, dim=D, type=T".
func FormatStats(stats domain.VectorStats) string {
	return fmt.Sprintf("chunks=%d, dim=%d, type=%s", stats.Count, stats.Dimension, stats.Type)
}

func textResult(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: textPlain,
			Text:     text,
		}},
	}
}

// extractDocName extracts the file name from a URI like doc://{name}.
func extractDocName(uri string) string {
	if !strings.HasPrefix(uri, docScheme) {
		return ""
	}
	return strings.TrimPrefix(uri, docScheme)
}
