package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users still get a readable message.
var (
	// ErrNoDBDir is returned when no database directory is configured.
	ErrNoDBDir = errors.New("no database directory: set db_dir or --db-dir")

	// ErrInvalidMaxUploadSize is returned when the upload limit is not positive.
	ErrInvalidMaxUploadSize = errors.New("invalid max upload size: must be positive")

	// ErrNoSignatures is returned when no usable file signature is configured.
	// Accepting every file would let anything be staged as a deliverable.
	ErrNoSignatures = errors.New("no accepted signatures: at least one non-empty signature is required")

	// ErrInvalidTimeout is returned when the classifier timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid classifier timeout: must be positive")

	// ErrInvalidAttempts is returned when the classifier would never be called.
	ErrInvalidAttempts = errors.New("invalid classifier max attempts: must be positive")

	// ErrInvalidBackoff is returned when the classifier backoff is negative.
	ErrInvalidBackoff = errors.New("invalid classifier backoff: must be non-negative")

	// ErrInvalidRedisDB is returned when the Redis database index is negative.
	ErrInvalidRedisDB = errors.New("invalid redis db: must be non-negative")

	// ErrInvalidConcurrency is returned when outline concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid outline concurrency: must be positive")
)
