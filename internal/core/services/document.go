package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService exposes the processed text directory read-only.
type DocumentService struct {
	processedDir string
}

// NewDocumentService creates a document service over processedDir.
func NewDocumentService(processedDir string) *DocumentService {
	return &DocumentService{processedDir: processedDir}
}

// List returns processed document names without the .txt suffix.
func (s *DocumentService) List(_ context.Context) ([]string, error) {
	names, err := processedNames(s.processedDir)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Get returns the content of a processed document. The name may carry
// the .txt suffix. Names that would escape the processed directory are
// rejected.
func (s *DocumentService) Get(_ context.Context, name string) (string, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".txt")
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: document name %q", domain.ErrInvalidInput, name)
	}

	data, err := os.ReadFile(filepath.Join(s.processedDir, name+".txt"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return "", fmt.Errorf("read %s: %w", name, err)
	}
	return string(data), nil
}
