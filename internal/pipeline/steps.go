package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/leakscan/internal/crawler"
	"github.com/nao1215/leakscan/internal/detect"
	"github.com/nao1215/leakscan/internal/model"
	"github.com/nao1215/leakscan/internal/scanner"
	"github.com/nao1215/leakscan/internal/transport"
)

// Step names.
const (
	StepProbe        = "sensitive_probe"
	StepCrawl        = "crawl"
	StepExternalScan = "external_scan"
)

// ProbeStep requests the sensitive path catalogue on the target origin.
type ProbeStep struct {
	prober *detect.Prober
	logger *slog.Logger
}

// NewProbeStep creates a sensitive path probing step.
func NewProbeStep(prober *detect.Prober, logger *slog.Logger) *ProbeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProbeStep{prober: prober, logger: logger}
}

// Name returns the step name.
func (s *ProbeStep) Name() string {
	return StepProbe
}

// Do executes the probe step.
func (s *ProbeStep) Do(ctx context.Context, session *model.Session, report *model.TargetReport) error {
	report.SensitiveFiles = s.prober.Probe(ctx, session, report.Target)
	s.logger.Debug("sensitive probe finished",
		"target", report.Target,
		"findings", report.SensitiveFiles,
	)
	return nil
}

// CrawlStep walks the target site and scans pages for leaks.
type CrawlStep struct {
	spider *crawler.Spider
	logger *slog.Logger
}

// NewCrawlStep creates a crawling step.
func NewCrawlStep(spider *crawler.Spider, logger *slog.Logger) *CrawlStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &CrawlStep{spider: spider, logger: logger}
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return StepCrawl
}

// Do executes the crawl step.
func (s *CrawlStep) Do(ctx context.Context, session *model.Session, report *model.TargetReport) error {
	stats := s.spider.Crawl(ctx, session, report.Target)
	report.PagesFetched = stats.Fetched
	report.PagesFailed = stats.Failed
	report.LeakFindings = stats.Findings

	s.logger.Debug("crawl finished",
		"target", report.Target,
		"fetched", stats.Fetched,
		"failed", stats.Failed,
		"parse_failures", stats.ParseFailures,
		"skipped_depth", stats.SkippedDepth,
		"skipped_visited", stats.SkippedVisited,
		"findings", stats.Findings,
	)
	return nil
}

// ExternalScanStep runs the external vulnerability scanner once per target
// and records non-empty output as a single finding.
type ExternalScanStep struct {
	scanner scanner.Scanner
	logger  *slog.Logger
}

// NewExternalScanStep creates an external scan step.
func NewExternalScanStep(s scanner.Scanner, logger *slog.Logger) *ExternalScanStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExternalScanStep{scanner: s, logger: logger}
}

// Name returns the step name.
func (s *ExternalScanStep) Name() string {
	return StepExternalScan
}

// Do executes the external scan step.
func (s *ExternalScanStep) Do(ctx context.Context, session *model.Session, report *model.TargetReport) error {
	out := s.scanner.Run(ctx, report.Target)
	if out == "" {
		return nil
	}
	session.Findings.Add(model.Finding{
		Kind:     model.KindExternalScan,
		URL:      report.Target,
		Evidence: out,
	})
	report.ExternalScanReported = true
	return nil
}

// DefaultConfig holds the settings used to assemble the default pipeline.
type DefaultConfig struct {
	// Registry is the leak pattern catalogue. Nil means the built-in one.
	Registry *detect.Registry

	// SensitivePaths replaces the probe catalogue when non-nil.
	SensitivePaths []string

	// ProbeConcurrency is the number of probes in flight per origin.
	ProbeConcurrency int

	// CrawlDepth is the maximum crawl depth.
	CrawlDepth int

	// IgnorePatterns are URL path globs never crawled.
	IgnorePatterns []string

	// Scanner is the external scanner. Nil means no external scan.
	Scanner scanner.Scanner
}

// DefaultOption configures a DefaultConfig.
type DefaultOption func(*DefaultConfig)

// WithRegistry sets the leak pattern catalogue.
func WithRegistry(r *detect.Registry) DefaultOption {
	return func(c *DefaultConfig) {
		c.Registry = r
	}
}

// WithSensitivePaths sets the probe catalogue.
func WithSensitivePaths(paths []string) DefaultOption {
	return func(c *DefaultConfig) {
		c.SensitivePaths = paths
	}
}

// WithProbeConcurrency sets the probe concurrency.
func WithProbeConcurrency(n int) DefaultOption {
	return func(c *DefaultConfig) {
		c.ProbeConcurrency = n
	}
}

// WithCrawlDepth sets the maximum crawl depth.
func WithCrawlDepth(depth int) DefaultOption {
	return func(c *DefaultConfig) {
		c.CrawlDepth = depth
	}
}

// WithIgnorePatterns sets crawl ignore patterns.
func WithIgnorePatterns(patterns []string) DefaultOption {
	return func(c *DefaultConfig) {
		c.IgnorePatterns = patterns
	}
}

// WithScanner sets the external scanner.
func WithScanner(s scanner.Scanner) DefaultOption {
	return func(c *DefaultConfig) {
		c.Scanner = s
	}
}

// DefaultPipeline creates the probe, crawl and external scan pipeline.
// All network access goes through f.
func DefaultPipeline(f transport.Fetcher, pipelineOpts []Option, configOpts ...DefaultOption) *Pipeline {
	p := New(pipelineOpts...)

	cfg := &DefaultConfig{
		ProbeConcurrency: detect.DefaultProbeConcurrency,
		CrawlDepth:       crawler.DefaultMaxDepth,
	}
	for _, opt := range configOpts {
		opt(cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = detect.DefaultRegistry()
	}
	if cfg.Scanner == nil {
		cfg.Scanner = scanner.Noop{}
	}

	proberOpts := []detect.ProberOption{
		detect.WithProbeConcurrency(cfg.ProbeConcurrency),
		detect.WithProberLogger(p.logger),
	}
	if cfg.SensitivePaths != nil {
		proberOpts = append(proberOpts, detect.WithPaths(cfg.SensitivePaths))
	}

	spider := crawler.NewSpider(f, cfg.Registry,
		crawler.WithMaxDepth(cfg.CrawlDepth),
		crawler.WithIgnorePatterns(cfg.IgnorePatterns),
		crawler.WithSpiderLogger(p.logger),
	)

	p.AddSteps(
		NewProbeStep(detect.NewProber(f, proberOpts...), p.logger),
		NewCrawlStep(spider, p.logger),
		NewExternalScanStep(cfg.Scanner, p.logger),
	)

	return p
}
