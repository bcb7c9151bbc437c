package config

import (
	"fmt"
	"time"

	"github.com/nao1215/leakscan/internal/detect"
)

// Flag names that a config file value can be overridden by.
const (
	FlagDepth            = "depth"
	FlagTimeout          = "timeout"
	FlagUserAgent        = "user-agent"
	FlagVerifyTLS        = "verify-tls"
	FlagProxy            = "proxy"
	FlagProbeConcurrency = "probe-concurrency"
	FlagParallel         = "parallel"
	FlagNuclei           = "nuclei"
	FlagNucleiBinary     = "nuclei-binary"
)

// File represents the structure of the .leakscan configuration file.
// Unset fields leave the corresponding defaults in place.
type File struct {
	Depth            *int              `yaml:"depth,omitempty"`
	Timeout          string            `yaml:"timeout,omitempty"`
	UserAgent        string            `yaml:"userAgent,omitempty"`
	VerifyTLS        *bool             `yaml:"verifyTLS,omitempty"`
	Proxy            string            `yaml:"proxy,omitempty"`
	ProbeConcurrency *int              `yaml:"probeConcurrency,omitempty"`
	Parallel         *int              `yaml:"parallel,omitempty"`
	Headers          map[string]string `yaml:"headers,omitempty"`

	// Cookie is sent as the Cookie header. Format: "name=value; name2=value2".
	Cookie string `yaml:"cookie,omitempty"`

	Patterns       PatternsConfig `yaml:"patterns,omitempty"`
	SensitivePaths PathsConfig    `yaml:"sensitivePaths,omitempty"`
	Crawl          CrawlConfig    `yaml:"crawl,omitempty"`
	Scanner        ScannerConfig  `yaml:"scanner,omitempty"`
}

// PatternsConfig extends or replaces the leak pattern catalogue.
type PatternsConfig struct {
	// ReplaceDefaults drops the built-in patterns.
	ReplaceDefaults bool `yaml:"replaceDefaults,omitempty"`

	// Entries are appended after the built-in patterns.
	Entries []PatternConfig `yaml:"entries,omitempty"`
}

// PatternConfig is one named leak pattern.
type PatternConfig struct {
	Name  string `yaml:"name"`
	Regex string `yaml:"regex"`
}

// PathsConfig extends or replaces the sensitive path catalogue.
type PathsConfig struct {
	ReplaceDefaults bool     `yaml:"replaceDefaults,omitempty"`
	Entries         []string `yaml:"entries,omitempty"`
}

// CrawlConfig holds crawl settings.
type CrawlConfig struct {
	// IgnorePatterns are URL path globs never crawled (e.g. "/logout*").
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`
}

// ScannerConfig configures the external vulnerability scanner.
type ScannerConfig struct {
	Enabled  *bool    `yaml:"enabled,omitempty"`
	Binary   string   `yaml:"binary,omitempty"`
	Severity []string `yaml:"severity,omitempty"`
	Timeout  string   `yaml:"timeout,omitempty"`

	// Args are appended to the scanner command line.
	Args []string `yaml:"args,omitempty"`
}

// PatternEntries returns the leak pattern catalogue described by the file.
// A nil File yields the built-in catalogue.
func (f *File) PatternEntries() []detect.PatternEntry {
	var entries []detect.PatternEntry
	if f == nil || !f.Patterns.ReplaceDefaults {
		entries = detect.DefaultPatterns()
	}
	if f == nil {
		return entries
	}
	for _, p := range f.Patterns.Entries {
		entries = append(entries, detect.PatternEntry{Name: p.Name, Expr: p.Regex})
	}
	return entries
}

// SensitivePathList returns the sensitive path catalogue described by the file.
// A nil File yields the built-in catalogue.
func (f *File) SensitivePathList() []string {
	paths := make([]string, 0)
	if f == nil || !f.SensitivePaths.ReplaceDefaults {
		paths = detect.DefaultSensitivePaths()
	}
	if f == nil {
		return paths
	}
	return append(paths, f.SensitivePaths.Entries...)
}

// ApplyFile copies file values into c. A value is skipped when isSet reports
// that its flag was given explicitly on the command line.
func (c *Config) ApplyFile(f *File, isSet func(flag string) bool) error {
	if f == nil {
		return nil
	}
	if isSet == nil {
		isSet = func(string) bool { return false }
	}
	c.File = f

	if f.Depth != nil && !isSet(FlagDepth) {
		c.CrawlDepth = *f.Depth
	}
	if f.Timeout != "" && !isSet(FlagTimeout) {
		d, err := parseDuration("timeout", f.Timeout)
		if err != nil {
			return err
		}
		c.Timeout = d
	}
	if f.UserAgent != "" && !isSet(FlagUserAgent) {
		c.UserAgent = f.UserAgent
	}
	if f.VerifyTLS != nil && !isSet(FlagVerifyTLS) {
		c.VerifyTLS = *f.VerifyTLS
	}
	if f.Proxy != "" && !isSet(FlagProxy) {
		c.ProxyAddress = f.Proxy
	}
	if f.ProbeConcurrency != nil && !isSet(FlagProbeConcurrency) {
		c.ProbeConcurrency = *f.ProbeConcurrency
	}
	if f.Parallel != nil && !isSet(FlagParallel) {
		c.Parallel = *f.Parallel
	}

	if len(f.Headers) > 0 || f.Cookie != "" {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(f.Headers)+1)
		}
		for k, v := range f.Headers {
			c.Headers[k] = v
		}
		if f.Cookie != "" {
			c.Headers["Cookie"] = f.Cookie
		}
	}

	c.IgnorePatterns = append(c.IgnorePatterns, f.Crawl.IgnorePatterns...)

	if f.Scanner.Enabled != nil && !isSet(FlagNuclei) {
		c.ScannerEnabled = *f.Scanner.Enabled
	}
	if f.Scanner.Binary != "" && !isSet(FlagNucleiBinary) {
		c.ScannerBinary = f.Scanner.Binary
	}
	if len(f.Scanner.Severity) > 0 {
		c.ScannerSeverities = f.Scanner.Severity
	}
	if len(f.Scanner.Args) > 0 {
		c.ScannerArgs = f.Scanner.Args
	}
	if f.Scanner.Timeout != "" {
		d, err := parseDuration("scanner.timeout", f.Scanner.Timeout)
		if err != nil {
			return err
		}
		c.ScannerTimeout = d
	}

	return nil
}

func parseDuration(field, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidConfigFile, field, err)
	}
	return d, nil
}
