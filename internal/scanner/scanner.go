// Package scanner runs an external vulnerability scanner against a target
// origin and returns its textual output.
//
// The crawl and probe engine depends only on the Scanner interface, so tests
// and runs with scanning disabled use Noop or a fake instead of a real binary.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Default nuclei invocation settings.
const (
	// DefaultBinary is the scanner executable looked up in PATH.
	DefaultBinary = "nuclei"

	// DefaultTimeout bounds one scanner run.
	DefaultTimeout = 10 * time.Minute
)

// DefaultSeverities are the nuclei severities reported by default.
var DefaultSeverities = []string{"medium", "high", "critical"}

// Scanner runs an external scan against origin and returns its output.
// An empty string means nothing to report, including when the scan failed.
type Scanner interface {
	Run(ctx context.Context, origin string) string
}

// Noop is a Scanner that never reports anything.
type Noop struct{}

// Run implements Scanner.
func (Noop) Run(context.Context, string) string {
	return ""
}

// Reason classifies why a scanner process produced no output.
type Reason string

const (
	// ReasonMissingBinary means the executable was not found.
	ReasonMissingBinary Reason = "missing-binary"

	// ReasonTimeout means the run exceeded its deadline.
	ReasonTimeout Reason = "timeout"

	// ReasonExitFailure means the process could not start or exited non-zero.
	ReasonExitFailure Reason = "exit-failure"
)

// ProcessError describes a failed scanner run.
type ProcessError struct {
	// Binary is the executable that was run.
	Binary string

	// Reason classifies the failure.
	Reason Reason

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *ProcessError) Error() string {
	return fmt.Sprintf("scanner %s: %s: %v", e.Binary, e.Reason, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Nuclei invokes the nuclei binary.
type Nuclei struct {
	binary     string
	severities []string
	timeout    time.Duration
	extraArgs  []string
	logger     *slog.Logger
}

// Option configures a Nuclei scanner.
type Option func(*Nuclei)

// WithBinary sets the executable name or path.
func WithBinary(binary string) Option {
	return func(n *Nuclei) {
		if binary != "" {
			n.binary = binary
		}
	}
}

// WithSeverities sets the severities passed to -severity.
func WithSeverities(severities []string) Option {
	return func(n *Nuclei) {
		if len(severities) > 0 {
			n.severities = severities
		}
	}
}

// WithTimeout sets the per-run timeout.
func WithTimeout(d time.Duration) Option {
	return func(n *Nuclei) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithExtraArgs appends arguments after the default ones.
func WithExtraArgs(args []string) Option {
	return func(n *Nuclei) {
		n.extraArgs = args
	}
}

// WithLogger sets the logger used for failed runs.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Nuclei) {
		n.logger = logger
	}
}

// NewNuclei creates a nuclei Scanner.
func NewNuclei(opts ...Option) *Nuclei {
	n := &Nuclei{
		binary:     DefaultBinary,
		severities: DefaultSeverities,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = slog.Default()
	}
	return n
}

// Args returns the command line arguments used for origin.
func (n *Nuclei) Args(origin string) []string {
	args := []string{"-u", origin, "-severity", strings.Join(n.severities, ",")}
	return append(args, n.extraArgs...)
}

// Run implements Scanner. Failures are logged and yield "".
func (n *Nuclei) Run(ctx context.Context, origin string) string {
	out, err := n.Exec(ctx, origin)
	if err != nil {
		var procErr *ProcessError
		reason := Reason("")
		if errors.As(err, &procErr) {
			reason = procErr.Reason
		}
		n.logger.Warn("external scan failed",
			"origin", origin,
			"error_class", string(reason),
			"error", err,
		)
		return ""
	}
	return out
}

// Exec runs the scanner and returns its trimmed stdout. Stderr is discarded.
// Failures are returned as *ProcessError.
func (n *Nuclei) Exec(ctx context.Context, origin string) (string, error) {
	path, err := exec.LookPath(n.binary)
	if err != nil {
		return "", &ProcessError{Binary: n.binary, Reason: ReasonMissingBinary, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, path, n.Args(origin)...)
	cmd.Stdout = &stdout
	cmd.Stderr = io.Discard
	// Do not wait for grandchildren holding the pipes after a kill.
	cmd.WaitDelay = time.Second

	n.logger.Debug("running external scanner", "binary", path, "origin", origin)

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &ProcessError{Binary: n.binary, Reason: ReasonTimeout, Err: ctx.Err()}
		}
		return "", &ProcessError{Binary: n.binary, Reason: ReasonExitFailure, Err: err}
	}

	return strings.TrimSpace(stdout.String()), nil
}
