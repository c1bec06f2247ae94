package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
	"github.com/custodia-labs/docpilot/internal/logger"
)

// Ensure Consolidator implements the interface.
var _ driving.ConsolidateService = (*Consolidator)(nil)

// DefaultConsolidatedName is the file name of the combined document.
const DefaultConsolidatedName = "consolidated_documents.txt"

var rule = strings.Repeat("=", 80)

// Consolidator joins every processed document into one file and can
// publish it to the document source.
type Consolidator struct {
	docs         driving.DocumentService
	source       driven.DocumentSource
	outputDir    string
	uploadFolder string
	name         string
	now          func() time.Time
}

// NewConsolidator creates a consolidator writing into outputDir.
// source may be nil when only local consolidation is needed.
func NewConsolidator(
	docs driving.DocumentService,
	source driven.DocumentSource,
	outputDir, uploadFolder string,
) *Consolidator {
	return &Consolidator{
		docs:         docs,
		source:       source,
		outputDir:    outputDir,
		uploadFolder: uploadFolder,
		name:         DefaultConsolidatedName,
		now:          time.Now,
	}
}

// Consolidate writes the combined document and returns its path.
func (c *Consolidator) Consolidate(ctx context.Context) (string, error) {
	names, err := c.docs.List(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no processed documents to consolidate", domain.ErrNotFound)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nCONSOLIDATED DOCUMENT COLLECTION\n", rule)
	fmt.Fprintf(&b, "Generated: %s\n", c.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Total Documents: %d\n%s\n\n", len(names), rule)

	for n, name := range names {
		content, err := c.docs.Get(ctx, name)
		if err != nil {
			logger.Warn("Could not read %s: %v", name, err)
			fmt.Fprintf(&b, "\n[ERROR: Could not read %s: %v]\n\n", name, err)
			continue
		}
		fmt.Fprintf(&b, "\n%s\n=== %s ===\n", rule, name)
		fmt.Fprintf(&b, "Document %d/%d | %d characters\n%s\n\n", n+1, len(names), len([]rune(content)), rule)
		b.WriteString(content)
		b.WriteString("\n\n")
	}

	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(c.outputDir, c.name)
	if err := writeText(path, b.String()); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info("Consolidated %d documents into %s", len(names), path)
	return path, nil
}

// Publish consolidates and uploads the result to the upload folder.
func (c *Consolidator) Publish(ctx context.Context) (*domain.UploadResult, error) {
	if c.source == nil {
		return nil, errors.New("publish: no document source configured")
	}

	path, err := c.Consolidate(ctx)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	result, err := c.source.Upload(ctx, data, c.uploadFolder, c.name)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", c.name, err)
	}
	logger.Info("Uploaded %s to %s/%s", c.name, c.uploadFolder, c.name)
	return result, nil
}
