package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/custodia-labs/docpilot/internal/core/domain"
	"github.com/custodia-labs/docpilot/internal/core/ports/driven"
	"github.com/custodia-labs/docpilot/internal/core/ports/driving"
	"github.com/custodia-labs/docpilot/internal/logger"
	"github.com/custodia-labs/docpilot/internal/retry"
)

// Ensure Ingester implements the interface.
var _ driving.IngestService = (*Ingester)(nil)

// TempFilePatterns match download leftovers and Office lock files.
var TempFilePatterns = []string{
	"**/*.tmp",
	"**/*.temp",
	"**/~$*",
	"**/*.crdownload",
}

// Ingester mirrors a document source folder into the staging area.
type Ingester struct {
	source    driven.DocumentSource
	checker   driven.IntegrityChecker
	docsDir   string
	folder    string
	recursive bool
	excludes  []string
	policy    retry.Policy
}

// IngestOption configures an Ingester.
type IngestOption func(*Ingester)

// WithFolder sets the remote folder to mirror. Empty means the drive root.
func WithFolder(folder string) IngestOption {
	return func(i *Ingester) {
		i.folder = folder
	}
}

// WithRecursive enables traversal of subfolders.
func WithRecursive(recursive bool) IngestOption {
	return func(i *Ingester) {
		i.recursive = recursive
	}
}

// WithExcludes skips remote paths matching any of the doublestar globs.
func WithExcludes(patterns ...string) IngestOption {
	return func(i *Ingester) {
		i.excludes = append(i.excludes, patterns...)
	}
}

// WithRetryPolicy replaces the download retry policy.
func WithRetryPolicy(p retry.Policy) IngestOption {
	return func(i *Ingester) {
		i.policy = p
	}
}

// NewIngester creates an ingester writing into docsDir.
func NewIngester(
	source driven.DocumentSource,
	checker driven.IntegrityChecker,
	docsDir string,
	opts ...IngestOption,
) *Ingester {
	i := &Ingester{
		source:    source,
		checker:   checker,
		docsDir:   docsDir,
		recursive: true,
		policy: retry.Policy{
			MaxAttempts: retry.DefaultMaxAttempts,
			ShouldRetry: isTransient,
		},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// isTransient reports whether a download error is worth another attempt.
func isTransient(err error) bool {
	return !errors.Is(err, domain.ErrAuthRequired) &&
		!errors.Is(err, domain.ErrNotFound) &&
		!errors.Is(err, domain.ErrExtractionUnsupported) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

// Ingest downloads every new, changed or corrupted file.
func (i *Ingester) Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestStats, error) {
	if i.source == nil {
		return nil, fmt.Errorf("ingest: %w: no document source", domain.ErrInvalidInput)
	}
	start := time.Now()

	if err := os.MkdirAll(i.docsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	logger.Info("Listing %s folder %q (recursive=%t)", i.source.Name(), i.folder, i.recursive)
	items, err := i.source.List(ctx, i.folder, i.recursive)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", i.folder, err)
	}

	files := make([]domain.RemoteItem, 0, len(items))
	for _, item := range items {
		if item.IsFolder {
			continue
		}
		if isVault(item.RelativePath, item.Name) {
			logger.Debug("Skipping protected item: %s", remotePath(item.RelativePath, item.Name))
			continue
		}
		files = append(files, item)
	}

	stats := &domain.IngestStats{}
	folders := make(map[string]struct{})

	for n, item := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		rel := remotePath(item.RelativePath, item.Name)
		stats.Total++
		if item.RelativePath != "" {
			folders[item.RelativePath] = struct{}{}
		}

		switch {
		case i.excluded(rel):
			logger.Debug("Excluded: %s", rel)
			stats.Skipped++
		default:
			i.ingestItem(ctx, item, opts.Force, stats)
		}

		if opts.Progress != nil {
			opts.Progress(n+1, len(files), rel)
		}
	}

	stats.FoldersProcessed = len(folders)
	stats.Duration = time.Since(start)
	logger.Info("Ingest complete: %d total, %d downloaded, %d skipped, %d failed",
		stats.Total, stats.Downloaded, stats.Skipped, stats.Failed)
	return stats, nil
}

func (i *Ingester) ingestItem(ctx context.Context, item domain.RemoteItem, force bool, stats *domain.IngestStats) {
	dest := localPath(i.docsDir, item.RelativePath, item.Name)
	rel := remotePath(item.RelativePath, item.Name)

	redownload := false
	if !force {
		if info, err := os.Stat(dest); err == nil {
			if !info.ModTime().Before(item.LastModified) {
				if err := i.checker.Check(dest); err == nil {
					logger.Debug("Skipping (up to date): %s", rel)
					stats.Skipped++
					return
				}
				logger.Warn("Local copy corrupted, re-downloading: %s", rel)
				redownload = true
			}
		}
	}

	logger.Debug("Downloading: %s", rel)
	if err := i.download(ctx, item, dest); err != nil {
		logger.Error("Failed to download %s: %v", rel, err)
		stats.Failed++
		return
	}

	if redownload {
		stats.Redownloaded++
	} else {
		stats.Downloaded++
	}
}

// download fetches item into dest, verifying integrity after each
// attempt. dest never survives a failed attempt.
func (i *Ingester) download(ctx context.Context, item domain.RemoteItem, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create folder: %w", err)
	}

	policy := i.policy
	policy.OnRetry = func(attempt int, err error) {
		logger.Warn("Attempt %d/%d for %s failed: %v", attempt, policy.MaxAttempts, item.Name, err)
	}

	err := retry.Do(ctx, policy, func(ctx context.Context, _ int) error {
		_ = os.Remove(dest)

		data, err := i.source.Download(ctx, item)
		if err != nil {
			return err
		}
		if item.Size > 0 && int64(len(data)) != item.Size {
			return fmt.Errorf("%w: got %d of %d bytes", domain.ErrDownloadCorrupted, len(data), item.Size)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dest, err)
		}
		if err := i.checker.Check(dest); err != nil {
			_ = os.Remove(dest)
			return err
		}
		return nil
	})
	if err != nil {
		_ = os.Remove(dest)
		return err
	}

	if !item.LastModified.IsZero() {
		if err := os.Chtimes(dest, item.LastModified, item.LastModified); err != nil {
			logger.Debug("Could not set mtime on %s: %v", dest, err)
		}
	}
	return nil
}

func (i *Ingester) excluded(rel string) bool {
	for _, pattern := range i.excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Repair deletes every staged file that fails its integrity check and
// ingests again so the missing copies are fetched.
func (i *Ingester) Repair(ctx context.Context) (*domain.RepairStats, error) {
	stats := &domain.RepairStats{}
	var corrupted []string

	err := filepath.WalkDir(i.docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		stats.Checked++
		if cerr := i.checker.Check(path); cerr != nil {
			logger.Warn("Found corrupted file: %v", cerr)
			corrupted = append(corrupted, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan staging dir: %w", err)
	}

	stats.Corrupted = len(corrupted)
	if len(corrupted) == 0 {
		return stats, nil
	}

	for _, path := range corrupted {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to remove %s: %v", path, err)
		}
	}

	if _, err := i.Ingest(ctx, domain.IngestOptions{}); err != nil {
		return stats, err
	}

	for _, path := range corrupted {
		if i.checker.Check(path) == nil {
			stats.Repaired++
		} else {
			stats.Failed++
		}
	}
	return stats, nil
}

// Cleanup removes files matching TempFilePatterns from the staging area.
func (i *Ingester) Cleanup(ctx context.Context) (int, error) {
	removed := 0
	err := filepath.WalkDir(i.docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(i.docsDir, path)
		if err != nil {
			return err
		}
		if !isTempFile(filepath.ToSlash(rel)) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			logger.Warn("Failed to remove %s: %v", rel, err)
			return nil
		}
		logger.Debug("Removed temp file: %s", rel)
		removed++
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("cleanup: %w", err)
	}
	return removed, nil
}

func isTempFile(rel string) bool {
	lower := strings.ToLower(rel)
	for _, pattern := range TempFilePatterns {
		if ok, _ := doublestar.Match(pattern, lower); ok {
			return true
		}
	}
	return false
}
