package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/leakscan/internal/model"
	"golang.org/x/sync/errgroup"
)

// Runner processes a list of targets against one shared session.
// Targets run one at a time unless a higher concurrency is configured;
// the session's visited set and findings are safe for concurrent steps.
type Runner struct {
	// pipeline is run once per target. Steps hold no per-target state.
	pipeline *Pipeline

	// concurrency is the maximum number of targets processed at once.
	concurrency int

	// onStart is called before a target is processed.
	onStart func(target string, index, total int)

	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRunnerLogger sets a custom logger for target-level logging.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithConcurrency sets the maximum number of targets processed at once.
// Default is 1 (sequential, input order).
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithOnStart registers a callback invoked before each target starts.
// With concurrency above 1 it may be called from several goroutines.
func WithOnStart(fn func(target string, index, total int)) RunnerOption {
	return func(r *Runner) {
		r.onStart = fn
	}
}

// NewRunner creates a Runner for p.
func NewRunner(p *Pipeline, opts ...RunnerOption) *Runner {
	r := &Runner{
		pipeline:    p,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run processes every target and returns one report per target in input
// order. A failing target never stops the others. The returned error is
// non-nil only when ctx was cancelled; reports for targets that never
// started are nil.
func (r *Runner) Run(ctx context.Context, session *model.Session, targets []string) ([]*model.TargetReport, error) {
	r.logger.Info("starting run",
		"total_targets", len(targets),
		"concurrency", r.concurrency,
	)
	startTime := time.Now()

	// Each goroutine owns one slot.
	reports := make([]*model.TargetReport, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, target := range targets {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if r.onStart != nil {
				r.onStart(target, i, len(targets))
			}

			report := model.NewTargetReport(target)
			reports[i] = report

			if err := r.pipeline.Execute(gctx, session, report); err != nil {
				r.logger.Warn("target failed",
					"target", target,
					"error", err,
				)
				// Other targets keep running.
				return nil
			}

			r.logger.Info("target completed",
				"target", target,
				"findings", report.FindingCount(),
			)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	r.logger.Info("run complete",
		"total_targets", len(targets),
		"elapsed", time.Since(startTime),
	)

	return reports, err
}
