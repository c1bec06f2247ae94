package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or source type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Pipeline Errors.

	// ErrSourceUnavailable indicates the document source could not be reached
	// or returned an unexpected response.
	ErrSourceUnavailable = errors.New("document source unavailable")

	// ErrDownloadCorrupted indicates a downloaded file failed its integrity check.
	ErrDownloadCorrupted = errors.New("download corrupted")

	// ErrExtractionUnsupported indicates no normaliser handles the file format.
	ErrExtractionUnsupported = errors.New("extraction unsupported")

	// ErrExtractionEmpty indicates extraction produced no usable text.
	ErrExtractionEmpty = errors.New("extraction produced no text")

	// ErrEmbeddingProviderFailure indicates every eligible embedding provider failed.
	ErrEmbeddingProviderFailure = errors.New("embedding provider failure")

	// ErrIndexNotBuilt indicates the persisted index artifacts are missing.
	// Callers should run ingestion before querying.
	ErrIndexNotBuilt = errors.New("index not built")

	// ErrIndexCorrupt indicates the index and chunk artifacts disagree.
	ErrIndexCorrupt = errors.New("index artifacts inconsistent")

	// ErrQueryFailure indicates the answer path failed after the index loaded.
	ErrQueryFailure = errors.New("query failure")

	// ErrUploadFailed indicates every upload strategy was rejected.
	ErrUploadFailed = errors.New("upload failed")

	// ErrMaintenanceInProgress indicates a rebuild is already running.
	ErrMaintenanceInProgress = errors.New("maintenance in progress")

	// Authentication Errors.

	// ErrAuthRequired indicates the source requires authentication but none is configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthExpired indicates the credential has expired and refresh failed.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
