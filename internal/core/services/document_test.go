package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

func TestDocumentService_List(t *testing.T) {
	dir := t.TempDir()
	writeProcessed(t, dir, map[string]string{"beta": "b", "alpha": "a"})

	names, err := NewDocumentService(dir).List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, names)
}

func TestDocumentService_ListMissingDir(t *testing.T) {
	names, err := NewDocumentService(filepath.Join(t.TempDir(), "none")).List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, names)
	assert.NotNil(t, names)
}

func TestDocumentService_Get(t *testing.T) {
	dir := t.TempDir()
	writeProcessed(t, dir, map[string]string{"hr__policy": "leave rules"})
	svc := NewDocumentService(dir)

	content, err := svc.Get(context.Background(), "hr__policy")
	require.NoError(t, err)
	assert.Equal(t, "leave rules", content)

	content, err = svc.Get(context.Background(), "hr__policy.txt")
	require.NoError(t, err)
	assert.Equal(t, "leave rules", content)
}

func TestDocumentService_GetErrors(t *testing.T) {
	svc := NewDocumentService(t.TempDir())

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	for _, name := range []string{"", "..", "../etc/passwd", `..\secret`, "a/b"} {
		_, err := svc.Get(context.Background(), name)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}
}
