package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
	"github.com/custodia-labs/docpilot/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driving.ExtractionService = (*Extractor)(nil)

// Extractor converts staged documents into processed text files.
type Extractor struct {
	registry     driven.NormaliserRegistry
	docsDir      string
	processedDir string
}

// NewExtractor creates an extractor reading docsDir and writing processedDir.
func NewExtractor(registry driven.NormaliserRegistry, docsDir, processedDir string) *Extractor {
	return &Extractor{
		registry:     registry,
		docsDir:      docsDir,
		processedDir: processedDir,
	}
}

// Extract processes every staged document that has no processed text yet.
// Unknown formats are skipped and extraction errors are counted as
// failures; neither stops the batch.
func (e *Extractor) Extract(ctx context.Context, progress domain.ProgressFunc) (*domain.ExtractStats, error) {
	defer logger.Timer("extract")()

	if err := os.MkdirAll(e.processedDir, 0o755); err != nil {
		return nil, fmt.Errorf("create processed dir: %w", err)
	}

	docs, err := e.stagedDocuments()
	if err != nil {
		return nil, err
	}

	stats := &domain.ExtractStats{}
	for n, doc := range docs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		switch err := e.extractOne(ctx, doc); {
		case err == nil:
			stats.Processed++
		case errors.Is(err, errAlreadyProcessed):
			logger.Debug("Skipping (already processed): %s", doc.RelativePath)
			stats.Skipped++
		case errors.Is(err, domain.ErrExtractionUnsupported):
			logger.Debug("Skipping (unsupported): %s", doc.RelativePath)
			stats.Skipped++
		default:
			logger.Warn("Extraction failed for %s: %v", doc.RelativePath, err)
			stats.Failed++
		}

		if progress != nil {
			progress(n+1, len(docs), doc.RelativePath)
		}
	}

	logger.Info("Extraction complete: %d processed, %d skipped, %d failed",
		stats.Processed, stats.Skipped, stats.Failed)
	return stats, nil
}

var errAlreadyProcessed = errors.New("already processed")

func (e *Extractor) extractOne(ctx context.Context, doc domain.LocalDocument) error {
	out := filepath.Join(e.processedDir, ProcessedKey(doc.RelativePath)+".txt")
	if _, err := os.Stat(out); err == nil {
		return errAlreadyProcessed
	}

	normaliser, err := e.registry.Get(doc.Format)
	if err != nil {
		return err
	}

	text, err := normaliser.Normalise(ctx, doc.Path)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return domain.ErrExtractionEmpty
	}

	return writeText(out, text)
}

// stagedDocuments lists staged files in lexical order of relative path.
func (e *Extractor) stagedDocuments() ([]domain.LocalDocument, error) {
	var docs []domain.LocalDocument
	err := filepath.WalkDir(e.docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(e.docsDir, path)
		if err != nil {
			return err
		}
		docs = append(docs, domain.LocalDocument{
			Path:         path,
			RelativePath: filepath.ToSlash(rel),
			Format:       domain.FormatFromPath(path),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan staging dir: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].RelativePath < docs[j].RelativePath })
	return docs, nil
}

// writeText writes content to path through a temp file so readers never
// observe a partial file.
func writeText(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".write-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
