package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer string `json:"answer"`
}

// ListDocsInput is the empty input schema for the list_docs tool.
type ListDocsInput struct{}

// ListDocsOutput is the output schema for the list_docs tool.
type ListDocsOutput struct {
	Documents []string `json:"documents"`
	Count     int      `json:"count"`
}

// ReindexInput is the empty input schema for the reindex tool.
type ReindexInput struct{}

// ReindexOutput is the output schema for the reindex tool.
type ReindexOutput struct {
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Chunks    int    `json:"chunks"`
	Dimension int    `json:"dimension"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the current vector index and documents",
	}, s.handleAsk)

	if s.ports.Documents != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_docs",
			Description: "List the available processed text documents",
		}, s.handleListDocs)
	}

	if s.ports.Maintenance != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "reindex",
			Description: "Re-extract texts and rebuild the index, then refresh in-memory state",
		}, s.handleReindex)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Answer(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: answer}, nil
}

// handleListDocs handles the list_docs tool invocation.
func (s *Server) handleListDocs(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocsInput,
) (*mcp.CallToolResult, ListDocsOutput, error) {
	names, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, ListDocsOutput{}, fmt.Errorf("listing documents: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return nil, ListDocsOutput{Documents: names, Count: len(names)}, nil
}

// handleReindex handles the reindex tool invocation.
func (s *Server) handleReindex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ReindexInput,
) (*mcp.CallToolResult, ReindexOutput, error) {
	result, err := s.ports.Maintenance.Reindex(ctx)
	if err != nil {
		return nil, ReindexOutput{}, err
	}
	return nil, ReindexOutput{
		Message:   "Reindex complete.",
		Processed: result.Extract.Processed,
		Chunks:    result.Index.Chunks,
		Dimension: result.Index.Dimension,
	}, nil
}
