package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/nao1215/leakscan/internal/config"
	"github.com/nao1215/leakscan/internal/database"
	"github.com/nao1215/leakscan/internal/detect"
	"github.com/nao1215/leakscan/internal/model"
	"github.com/nao1215/leakscan/internal/pipeline"
	"github.com/nao1215/leakscan/internal/report"
	"github.com/nao1215/leakscan/internal/scanner"
	"github.com/nao1215/leakscan/internal/transport"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <targets-file>",
		Short: "Scan the targets listed in a file for leaks",
		Long: `Scan reads one target per line from the given file and scans each one.

A target without a scheme gets "http://" prefixed. For each target leakscan:
- probes the sensitive path catalogue on its origin
- crawls links on the same registrable domain up to --depth, scanning every
  page for leak patterns
- runs nuclei once when --nuclei is set

Findings are written to report.json and report.txt and stored in the run
history unless --no-db is given.

Examples:
  # Scan targets with default settings
  leakscan scan targets.txt

  # Crawl deeper and run nuclei
  leakscan scan --depth 3 --nuclei targets.txt

  # Scan four targets at once through a SOCKS5 proxy
  leakscan scan --parallel 4 --proxy 127.0.0.1:9050 targets.txt

  # Also write a Markdown report and print the run as JSON
  leakscan scan --markdown-out report.md --json targets.txt`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	// Request flags
	cmd.Flags().IntP(config.FlagDepth, "d", config.DefaultCrawlDepth,
		"Maximum crawl depth (0 = target page only)")
	cmd.Flags().DurationP(config.FlagTimeout, "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String(config.FlagUserAgent, config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().Bool(config.FlagVerifyTLS, false,
		"Verify TLS certificates")
	cmd.Flags().String(config.FlagProxy, "",
		"SOCKS5 proxy address (e.g., 127.0.0.1:9050)")

	// Concurrency flags
	cmd.Flags().IntP(config.FlagParallel, "p", config.DefaultParallel,
		"Number of targets scanned at once")
	cmd.Flags().Int(config.FlagProbeConcurrency, config.DefaultProbeConcurrency,
		"Sensitive path probes in flight per target")

	// External scanner flags
	cmd.Flags().Bool(config.FlagNuclei, false,
		"Run nuclei once per target")
	cmd.Flags().String(config.FlagNucleiBinary, config.DefaultScannerBinary,
		"nuclei executable name or path")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .leakscan in current or home directory)")

	// Report flags
	cmd.Flags().String("json-out", config.DefaultJSONReport,
		"Path of the JSON findings report")
	cmd.Flags().String("text-out", config.DefaultTextReport,
		"Path of the text findings report")
	cmd.Flags().StringP("markdown-out", "m", "",
		"Also write a Markdown report to this path")
	cmd.Flags().BoolP("json", "j", false,
		"Print the run as JSON to stdout instead of the summary")

	// History flags
	cmd.Flags().Bool("no-db", false,
		"Do not store the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cmd, cfg, logger)
}

// buildConfig creates a Config from defaults, the config file and flags.
// Flags given explicitly win over file values.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()
	var err error

	cfg.TargetsFile = args[0]
	cfg.Verbose = getBoolFlag(cmd, "verbose")
	cfg.LogJSON = getBoolFlag(cmd, "log-json")

	if cfg.CrawlDepth, err = flags.GetInt(config.FlagDepth); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration(config.FlagTimeout); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString(config.FlagUserAgent); err != nil {
		return nil, err
	}
	if cfg.VerifyTLS, err = flags.GetBool(config.FlagVerifyTLS); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString(config.FlagProxy); err != nil {
		return nil, err
	}
	if cfg.Parallel, err = flags.GetInt(config.FlagParallel); err != nil {
		return nil, err
	}
	if cfg.ProbeConcurrency, err = flags.GetInt(config.FlagProbeConcurrency); err != nil {
		return nil, err
	}
	if cfg.ScannerEnabled, err = flags.GetBool(config.FlagNuclei); err != nil {
		return nil, err
	}
	if cfg.ScannerBinary, err = flags.GetString(config.FlagNucleiBinary); err != nil {
		return nil, err
	}
	if cfg.JSONOut, err = flags.GetString("json-out"); err != nil {
		return nil, err
	}
	if cfg.TextOut, err = flags.GetString("text-out"); err != nil {
		return nil, err
	}
	if cfg.MarkdownOut, err = flags.GetString("markdown-out"); err != nil {
		return nil, err
	}
	if cfg.JSONStdout, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}
	noDB, err := flags.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	// A missing file is only an error when the user named it.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		if err := cfg.ApplyFile(file, flags.Changed); err != nil {
			return nil, err
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	return cfg, nil
}

// runScan reads the targets and runs the pipeline over all of them.
func runScan(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	targets, err := config.ReadTargets(cfg.TargetsFile)
	if err != nil {
		return err
	}
	cfg.Targets = targets

	p, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	// Progress goes to stderr when stdout carries JSON.
	progress := cmd.OutOrStdout()
	if cfg.JSONStdout {
		progress = cmd.ErrOrStderr()
	}

	var mu sync.Mutex
	runner := pipeline.NewRunner(p,
		pipeline.WithRunnerLogger(logger),
		pipeline.WithConcurrency(cfg.Parallel),
		pipeline.WithOnStart(func(target string, _, _ int) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(progress, "[*] Scanning %s\n", target)
		}),
	)

	session := model.NewSession()
	startedAt := time.Now()
	reports, runErr := runner.Run(ctx, session, cfg.Targets)
	result := report.NewResult(session, reports, startedAt)

	// Partial results are still written after an interrupt.
	saved, err := writeReports(cfg, result)
	if err != nil {
		return err
	}

	var runID int64
	if cfg.SaveToDB {
		runID, err = saveRun(context.WithoutCancel(ctx), cfg.DBDir, result)
		if err != nil {
			logger.Error("failed to save run", "error", err)
		}
	}

	out := cmd.OutOrStdout()
	if cfg.JSONStdout {
		if _, err := report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint()).Write(result); err != nil {
			return err
		}
	} else {
		if _, err := report.NewSummaryWriter(out, report.WithVerbose(cfg.Verbose)).Write(result); err != nil {
			return err
		}
	}

	fmt.Fprintf(progress, "Saved: %s\n", strings.Join(saved, ", "))
	if runID > 0 {
		fmt.Fprintf(progress, "Run ID: %d (see 'leakscan history --run %d')\n", runID, runID)
	}

	if runErr != nil {
		return fmt.Errorf("scan interrupted: %w", runErr)
	}
	return nil
}

// buildPipeline wires the fetcher, catalogues and scanner from cfg.
func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	clientOpts := []transport.Option{
		transport.WithTimeout(cfg.Timeout),
		transport.WithUserAgent(cfg.UserAgent),
		transport.WithVerifyTLS(cfg.VerifyTLS),
		transport.WithProxy(cfg.ProxyAddress),
		transport.WithHeaders(cfg.Headers),
	}
	if cfg.MaxBodySize > 0 {
		clientOpts = append(clientOpts, transport.WithMaxBodySize(cfg.MaxBodySize))
	}
	client, err := transport.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	registry, err := detect.NewRegistry(cfg.File.PatternEntries())
	if err != nil {
		return nil, fmt.Errorf("invalid leak pattern: %w", err)
	}

	var s scanner.Scanner = scanner.Noop{}
	if cfg.ScannerEnabled {
		s = scanner.NewNuclei(
			scanner.WithBinary(cfg.ScannerBinary),
			scanner.WithSeverities(cfg.ScannerSeverities),
			scanner.WithTimeout(cfg.ScannerTimeout),
			scanner.WithExtraArgs(cfg.ScannerArgs),
			scanner.WithLogger(logger),
		)
	}

	return pipeline.DefaultPipeline(client,
		[]pipeline.Option{
			pipeline.WithLogger(logger),
			pipeline.WithContinueOnError(true),
		},
		pipeline.WithRegistry(registry),
		pipeline.WithSensitivePaths(cfg.File.SensitivePathList()),
		pipeline.WithProbeConcurrency(cfg.ProbeConcurrency),
		pipeline.WithCrawlDepth(cfg.CrawlDepth),
		pipeline.WithIgnorePatterns(cfg.IgnorePatterns),
		pipeline.WithScanner(s),
	), nil
}

// writeReports writes the report files and returns their paths.
func writeReports(cfg *config.Config, result *report.Result) ([]string, error) {
	outputs := []struct {
		path    string
		newFunc func(io.Writer) report.Writer
	}{
		{cfg.JSONOut, func(w io.Writer) report.Writer { return report.NewJSONWriter(w, report.WithPrettyPrint()) }},
		{cfg.TextOut, func(w io.Writer) report.Writer { return report.NewTextWriter(w) }},
		{cfg.MarkdownOut, func(w io.Writer) report.Writer { return report.NewMarkdownWriter(w) }},
	}

	var saved []string
	for _, o := range outputs {
		if o.path == "" {
			continue
		}
		if err := writeReportFile(o.path, o.newFunc, result); err != nil {
			return saved, err
		}
		saved = append(saved, o.path)
	}
	return saved, nil
}

// writeReportFile creates path (and its directory) and writes result to it.
func writeReportFile(path string, newFunc func(io.Writer) report.Writer, result *report.Result) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports point at leaked secrets; keep them owner-readable only.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if _, err := newFunc(f).Write(result); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// saveRun stores the run in the history database and returns its ID.
func saveRun(ctx context.Context, dbDir string, result *report.Result) (int64, error) {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	return db.SaveRun(ctx, &database.Run{
		Version:    getVersion(),
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Targets:    result.Targets,
		Findings:   result.Findings,
	})
}
