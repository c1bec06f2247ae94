package domain

import "time"

// IngestStats counts the outcome of an ingest run.
type IngestStats struct {
	Total            int
	Downloaded       int
	Skipped          int
	Failed           int
	Redownloaded     int
	FoldersProcessed int
	Duration         time.Duration
}

// ExtractStats counts the outcome of an extraction run.
type ExtractStats struct {
	Processed int
	Skipped   int
	Failed    int
}

// IndexStats describes a completed index build.
type IndexStats struct {
	Documents int
	Chunks    int
	Dimension int
	Provider  string
}

// RepairStats counts the outcome of a corrupted-file scan.
type RepairStats struct {
	Checked   int
	Corrupted int
	Repaired  int
	Failed    int
}

// ReindexResult combines the stages of a full rebuild.
type ReindexResult struct {
	Extract ExtractStats
	Index   IndexStats
}

// ProgressFunc receives progress updates from batch operations.
// total is -1 while it is still unknown.
type ProgressFunc func(done, total int, item string)

// IngestOptions controls an ingest run.
type IngestOptions struct {
	// Force re-downloads every item regardless of the skip policy.
	Force bool

	// Progress is called after each item. May be nil.
	Progress ProgressFunc
}
