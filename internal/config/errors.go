package config

import "errors"

// Configuration validation errors returned by Config.Validate.
// Callers match them with errors.Is.
var (
	// ErrNoTargetsFile is returned when no targets file is given.
	ErrNoTargetsFile = errors.New("no targets file specified")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDepth is returned when the crawl depth is negative.
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidProbeConcurrency is returned when the probe concurrency is not positive.
	ErrInvalidProbeConcurrency = errors.New("invalid probe concurrency: must be positive")

	// ErrInvalidParallel is returned when the target parallelism is not positive.
	ErrInvalidParallel = errors.New("invalid parallel: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrNoScannerBinary is returned when scanning is enabled without a binary.
	ErrNoScannerBinary = errors.New("external scanner enabled but no binary configured")

	// ErrInvalidScannerTimeout is returned when the scanner timeout is not positive.
	ErrInvalidScannerTimeout = errors.New("invalid scanner timeout: must be positive")
)

// Configuration file errors.
var (
	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidConfigFile is returned when a value in the file cannot be used.
	ErrInvalidConfigFile = errors.New("invalid configuration file")
)
