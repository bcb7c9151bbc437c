package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "leakscan"

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultCrawlDepth is the maximum link depth followed from a target.
	// Depth 0 fetches only the target page.
	DefaultCrawlDepth = 2

	// DefaultProbeConcurrency is the number of sensitive path probes in flight per origin.
	DefaultProbeConcurrency = 4

	// DefaultParallel is the number of targets scanned at once.
	DefaultParallel = 1

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "LeakScanner/1.0"

	// DefaultMaxBodySize limits the response body size read per request.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultJSONReport is the findings array written after every run.
	DefaultJSONReport = "report.json"

	// DefaultTextReport is the findings text report written after every run.
	DefaultTextReport = "report.txt"

	// DefaultScannerBinary is the external vulnerability scanner executable.
	DefaultScannerBinary = "nuclei"

	// DefaultScannerTimeout bounds one external scanner invocation.
	DefaultScannerTimeout = 10 * time.Minute
)

// DefaultScannerSeverities are passed to the external scanner.
func DefaultScannerSeverities() []string {
	return []string{"medium", "high", "critical"}
}

// Config holds all configuration options for a scan.
// It is populated from the config file and CLI flags and passed down
// explicitly; nothing reads it from global state.
type Config struct {
	// TargetsFile is the path to the file listing targets, one per line.
	TargetsFile string

	// Targets is the normalized target list read from TargetsFile.
	Targets []string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// CrawlDepth is the maximum link depth. Depth 0 means only fetch the target page.
	CrawlDepth int

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// VerifyTLS enables TLS certificate verification. Off by default so that
	// hosts with self-signed or expired certificates are still scanned.
	VerifyTLS bool

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// ProbeConcurrency is the number of sensitive path probes in flight per origin.
	ProbeConcurrency int

	// Parallel is the number of targets scanned at once.
	Parallel int

	// IgnorePatterns are URL path globs never crawled.
	IgnorePatterns []string

	// ScannerEnabled runs the external vulnerability scanner once per target.
	ScannerEnabled bool

	// ScannerBinary is the external scanner executable name or path.
	ScannerBinary string

	// ScannerSeverities are the severities requested from the scanner.
	ScannerSeverities []string

	// ScannerTimeout bounds one scanner invocation.
	ScannerTimeout time.Duration

	// ScannerArgs are extra scanner arguments.
	ScannerArgs []string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON selects JSON log output.
	LogJSON bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .leakscan is searched in the current and home directories.
	ConfigFilePath string

	// File is the loaded configuration file, nil when none was found.
	File *File

	// JSONOut is the path of the findings JSON array.
	JSONOut string

	// TextOut is the path of the findings text report.
	TextOut string

	// MarkdownOut is an optional Markdown report path.
	MarkdownOut string

	// JSONStdout prints the full run document to stdout instead of the summary.
	JSONStdout bool

	// DBDir is the directory of the run history database.
	DBDir string

	// SaveToDB stores the run in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:           DefaultTimeout,
		CrawlDepth:        DefaultCrawlDepth,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		ProbeConcurrency:  DefaultProbeConcurrency,
		Parallel:          DefaultParallel,
		ScannerBinary:     DefaultScannerBinary,
		ScannerSeverities: DefaultScannerSeverities(),
		ScannerTimeout:    DefaultScannerTimeout,
		JSONOut:           DefaultJSONReport,
		TextOut:           DefaultTextReport,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// XDGDataDir returns the XDG data directory for leakscan.
// On Linux: ~/.local/share/leakscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for leakscan.
// On Linux: ~/.config/leakscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.TargetsFile == "" {
		return ErrNoTargetsFile
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlDepth < 0 {
		return ErrInvalidDepth
	}
	if c.ProbeConcurrency <= 0 {
		return ErrInvalidProbeConcurrency
	}
	if c.Parallel <= 0 {
		return ErrInvalidParallel
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.ScannerEnabled {
		if c.ScannerBinary == "" {
			return ErrNoScannerBinary
		}
		if c.ScannerTimeout <= 0 {
			return ErrInvalidScannerTimeout
		}
	}
	return nil
}
