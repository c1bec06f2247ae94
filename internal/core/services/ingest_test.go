package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docpilot/internal/core/domain"
)

var remoteTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func file(id, name, dir string) domain.RemoteItem {
	return domain.RemoteItem{ID: id, Name: name, RelativePath: dir, LastModified: remoteTime}
}

func TestIngest_DownloadsNewFiles(t *testing.T) {
	docs := t.TempDir()
	src := newMockSource()
	src.add(file("1", "a.txt", ""), []byte("alpha"))
	src.add(file("2", "b.txt", "Team/Q1"), []byte("bravo"))
	src.items = append(src.items, domain.RemoteItem{ID: "f", Name: "Team", IsFolder: true})

	var progress []string
	stats, err := NewIngester(src, mockChecker{}, docs).Ingest(context.Background(), domain.IngestOptions{
		Progress: func(_, _ int, item string) { progress = append(progress, item) },
	})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.Downloaded)
	assert.Equal(t, 1, stats.FoldersProcessed)
	assert.Equal(t, []string{"a.txt", "Team/Q1/b.txt"}, progress)

	data, err := os.ReadFile(filepath.Join(docs, "Team", "Q1", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bravo", string(data))

	info, err := os.Stat(filepath.Join(docs, "a.txt"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(remoteTime))
}

func TestIngest_SkipsUpToDate(t *testing.T) {
	docs := t.TempDir()
	src := newMockSource()
	src.add(file("1", "a.txt", ""), []byte("alpha"))
	ing := NewIngester(src, mockChecker{}, docs)

	_, err := ing.Ingest(context.Background(), domain.IngestOptions{})
	require.NoError(t, err)
	stats, err := ing.Ingest(context.Background(), domain.IngestOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Downloaded)
	assert.Equal(t, 1, src.downloads("1"))
}

func TestIngest_RemoteNewer(t *testing.T) {
	docs := t.TempDir()
	src := newMockSource()
	src.add(file("1", "a.txt", ""), []byte("v2"))
	path := filepath.Join(docs, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))
	old := remoteTime.Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	stats, err := NewIngester(src, mockChecker{}, docs).Ingest(context.Background(), domain.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Downloaded)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "v2", string(data))
}

func TestIngest_CorruptedLocalCopyIsRedownloaded(t *testing.T) {
	docs := t.TempDir()
	src := newMockSource()
	src.add(file("1", "a.txt", ""), []byte("good"))
	path := filepath.Join(docs, "a.txt")
	require.NoError(t, os.WriteFile(path, append(corruptMarker, 'x'), 0o644))
	newer := remoteTime.Add(time.Hour)
	require.NoError(t, os.Chtimes(path, newer, newer))

	stats, err := NewIngester(src, mockChecker{}, docs).Ingest(context.Background(), domain.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Redownloaded)
	assert.Equal(t, 0, stats.Downloaded)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "good", string(data))
}

func TestIngest_TransientFailureWithinBound(t *testing.T) {
	docs := t.TempDir()
	src := newMockSource()
	src.add(file("1", "a.txt", ""), []byte("alpha"))
	src.failFirst["1"] = 2

	stats, err := NewIngester(src, mockChecker{}, docs).Ingest(context.Background(), domain.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Downloaded)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 3, src.downloads("1"))
	assert.NoError(t, mockChecker{}.Check(filepath.Join(docs, "a.txt")))
}

func TestIngest_FailureBeyondBoundLeavesNoFile(t *testing.T) {
	docs := t.TempDir()
	src := newMockSource()
	src.add(file("1", "a.txt", ""), []byte("alpha"))
	src.add(file("2", "b.txt", ""), []byte("bravo"))
	src.failFirst["1"] = 5

	stats, err := NewIngester(src, mockChecker{}, docs).Ingest(context.Background(), domain.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Downloaded)
	assert.Equal(t, 3, src.downloads("1"))
	assert.NoFileExists(t, filepath.Join(docs, "a.txt"))
	assert.FileExists(t, filepath.Join(docs, "b.txt"))
}

func TestIngest_CorruptedDownloadIsRetriedAndRemoved(t *testing.T) {
	docs := t.TempDir()
	src := newMockSource()
	src.add(file("1", "a.pdf", ""), append(corruptMarker, []byte(" body")...))

	stats, err := NewIngester(src, mockChecker{}, docs).Ingest(context.Background(), domain.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 3, src.downloads("1"))
	assert.NoFileExists(t, filepath.Join(docs, "a.pdf"))
}

func TestIngest_SizeMismatchIsCorruption(t *testing.T) {
	docs := t.TempDir()
	src := newMockSource()
	item := file("1", "a.txt", "")
	item.Size = 100
	src.add(item, []byte("short"))

	stats, err := NewIngester(src, mockChecker{}, docs).Ingest(context.Background(), domain.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.NoFileExists(t, filepath.Join(docs, "a.txt"))
}

func TestIngest_NotFoundIsNotRetried(t *testing.T) {
	docs := t.TempDir()
	src := newMockSource()
	src.items = append(src.items, file("gone", "gone.txt", ""))

	stats, err := NewIngester(src, mockChecker{}, docs).Ingest(context.Background(), domain.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, src.downloads("gone"))
}

func TestIngest_SkipsVaultAndExcluded(t *testing.T) {
	docs := t.TempDir()
	src := newMockSource()
	src.add(file("1", "Personal Vault", ""), []byte("x"))
	src.add(file("2", "secret.txt", "Vault"), []byte("x"))
	src.add(file("3", "draft.txt", "Drafts"), []byte("x"))
	src.add(file("4", "final.txt", ""), []byte("x"))

	stats, err := NewIngester(src, mockChecker{}, docs, WithExcludes("Drafts/**")).
		Ingest(context.Background(), domain.IngestOptions{})

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Downloaded)
	assert.Zero(t, src.downloads("1"))
	assert.Zero(t, src.downloads("2"))
	assert.Zero(t, src.downloads("3"))
}

func TestIngest_Force(t *testing.T) {
	docs := t.TempDir()
	src := newMockSource()
	src.add(file("1", "a.txt", ""), []byte("alpha"))
	ing := NewIngester(src, mockChecker{}, docs)

	_, err := ing.Ingest(context.Background(), domain.IngestOptions{})
	require.NoError(t, err)
	stats, err := ing.Ingest(context.Background(), domain.IngestOptions{Force: true})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Downloaded)
	assert.Equal(t, 2, src.downloads("1"))
}

func TestIngest_ListError(t *testing.T) {
	src := newMockSource()
	src.listErr = domain.ErrSourceUnavailable

	_, err := NewIngester(src, mockChecker{}, t.TempDir()).Ingest(context.Background(), domain.IngestOptions{})

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestIngest_SafeNames(t *testing.T) {
	docs := t.TempDir()
	src := newMockSource()
	src.add(file("1", "What?.txt", "Q:A"), []byte("x"))

	_, err := NewIngester(src, mockChecker{}, docs).Ingest(context.Background(), domain.IngestOptions{})

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(docs, "QA", "What.txt"))
}

func TestCleanup(t *testing.T) {
	docs := t.TempDir()
	for _, name := range []string{"a.tmp", "sub/b.TEMP", "~$report.docx", "sub/c.crdownload", "keep.txt", "sub/keep.pdf"} {
		path := filepath.Join(docs, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}

	removed, err := NewIngester(newMockSource(), mockChecker{}, docs).Cleanup(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, removed)
	assert.FileExists(t, filepath.Join(docs, "keep.txt"))
	assert.FileExists(t, filepath.Join(docs, "sub", "keep.pdf"))
	assert.NoFileExists(t, filepath.Join(docs, "~$report.docx"))
}

func TestCleanup_MissingDir(t *testing.T) {
	removed, err := NewIngester(newMockSource(), mockChecker{}, filepath.Join(t.TempDir(), "none")).
		Cleanup(context.Background())

	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestRepair(t *testing.T) {
	docs := t.TempDir()
	src := newMockSource()
	src.add(file("1", "a.txt", ""), []byte("good"))
	src.add(file("2", "b.txt", ""), []byte("fine"))
	ing := NewIngester(src, mockChecker{}, docs)

	_, err := ing.Ingest(context.Background(), domain.IngestOptions{})
	require.NoError(t, err)

	path := filepath.Join(docs, "a.txt")
	require.NoError(t, os.WriteFile(path, corruptMarker, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "orphan.txt"), corruptMarker, 0o644))

	stats, err := ing.Repair(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Checked)
	assert.Equal(t, 2, stats.Corrupted)
	assert.Equal(t, 1, stats.Repaired)
	assert.Equal(t, 1, stats.Failed)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "good", string(data))
}
