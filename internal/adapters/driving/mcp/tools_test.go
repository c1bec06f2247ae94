package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the raw answer", func(t *testing.T) {
		answers := &mockAnswerService{answer: "Not found in docs"}
		server, err := NewServer(&Ports{Answer: answers})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "what is the refund policy?"})

		require.NoError(t, err)
		assert.Equal(t, "Not found in docs", output.Answer)
		assert.Equal(t, []string{"what is the refund policy?"}, answers.questions)
	})

	t.Run("propagates index not built", func(t *testing.T) {
		server, err := NewServer(&Ports{Answer: &mockAnswerService{err: domain.ErrIndexNotBuilt}})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})
		assert.ErrorIs(t, err, domain.ErrIndexNotBuilt)
	})
}

func TestServer_handleListDocs(t *testing.T) {
	ctx := context.Background()

	t.Run("lists documents", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Answer:    &mockAnswerService{},
			Documents: &mockDocumentService{names: []string{"handbook", "policy"}},
		})
		require.NoError(t, err)

		_, output, err := server.handleListDocs(ctx, nil, ListDocsInput{})
		require.NoError(t, err)
		assert.Equal(t, 2, output.Count)
		assert.Equal(t, []string{"handbook", "policy"}, output.Documents)
	})

	t.Run("empty list is not nil", func(t *testing.T) {
		server, err := NewServer(&Ports{Answer: &mockAnswerService{}, Documents: &mockDocumentService{}})
		require.NoError(t, err)

		_, output, err := server.handleListDocs(ctx, nil, ListDocsInput{})
		require.NoError(t, err)
		assert.NotNil(t, output.Documents)
		assert.Equal(t, 0, output.Count)
	})

	t.Run("returns error on failure", func(t *testing.T) {
		server, err := NewServer(&Ports{
			Answer:    &mockAnswerService{},
			Documents: &mockDocumentService{err: errors.New("disk gone")},
		})
		require.NoError(t, err)

		_, _, err = server.handleListDocs(ctx, nil, ListDocsInput{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk gone")
	})
}

func TestServer_handleReindex(t *testing.T) {
	ctx := context.Background()

	t.Run("reports rebuild stats", func(t *testing.T) {
		maint := &mockMaintenance{result: &domain.ReindexResult{
			Extract: domain.ExtractStats{Processed: 3},
			Index:   domain.IndexStats{Chunks: 42, Dimension: 1536},
		}}
		server, err := NewServer(&Ports{Answer: &mockAnswerService{}, Maintenance: maint})
		require.NoError(t, err)

		_, output, err := server.handleReindex(ctx, nil, ReindexInput{})
		require.NoError(t, err)
		assert.Equal(t, "Reindex complete.", output.Message)
		assert.Equal(t, 3, output.Processed)
		assert.Equal(t, 42, output.Chunks)
		assert.Equal(t, 1536, output.Dimension)
		assert.Equal(t, 1, maint.calls)
	})

	t.Run("busy maintenance", func(t *testing.T) {
		maint := &mockMaintenance{err: domain.ErrMaintenanceInProgress}
		server, err := NewServer(&Ports{Answer: &mockAnswerService{}, Maintenance: maint})
		require.NoError(t, err)

		_, _, err = server.handleReindex(ctx, nil, ReindexInput{})
		assert.ErrorIs(t, err, domain.ErrMaintenanceInProgress)
	})
}
