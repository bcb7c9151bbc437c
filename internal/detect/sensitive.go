package detect

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/nao1215/leakscan/internal/model"
	"github.com/nao1215/leakscan/internal/transport"
	"golang.org/x/sync/errgroup"
)

// minSensitiveBodyLen is the body length a 200 response must exceed to count
// as an exposed file. Shorter bodies are usually placeholder error pages.
const minSensitiveBodyLen = 50

// DefaultProbeConcurrency is the number of probe requests in flight per origin.
const DefaultProbeConcurrency = 4

// DefaultSensitivePaths returns the built-in catalogue of sensitive path
// suffixes in probe order.
func DefaultSensitivePaths() []string {
	return []string{
		".env",
		".git/config",
		"backup.sql",
		"db.sql",
		"dump.sql",
		"config.php",
		"wp-config.php",
		"settings.py",
		"web.config",
		"id_rsa",
		".htpasswd",
		"error.log",
	}
}

// Prober requests each catalogue path relative to an origin and records the
// ones that are served.
type Prober struct {
	fetcher     transport.Fetcher
	paths       []string
	concurrency int
	logger      *slog.Logger
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithPaths replaces the sensitive path catalogue.
func WithPaths(paths []string) ProberOption {
	return func(p *Prober) {
		p.paths = append([]string(nil), paths...)
	}
}

// WithProbeConcurrency sets how many probes run at once. Values below 1 are ignored.
func WithProbeConcurrency(n int) ProberOption {
	return func(p *Prober) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithProberLogger sets the logger used for skipped probes.
func WithProberLogger(logger *slog.Logger) ProberOption {
	return func(p *Prober) {
		p.logger = logger
	}
}

// NewProber creates a Prober that fetches through f.
func NewProber(f transport.Fetcher, opts ...ProberOption) *Prober {
	p := &Prober{
		fetcher:     f,
		paths:       DefaultSensitivePaths(),
		concurrency: DefaultProbeConcurrency,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Paths returns the catalogue in probe order.
func (p *Prober) Paths() []string {
	return append([]string(nil), p.paths...)
}

// Probe fetches every catalogue path resolved against origin and appends a
// "Sensitive File" finding for each response with status 200 and a body
// longer than 50 bytes. Failures are skipped. Findings are appended in
// catalogue order after all probes have finished.
//
// It returns the number of findings appended.
func (p *Prober) Probe(ctx context.Context, session *model.Session, origin string) int {
	base, err := url.Parse(origin)
	if err != nil {
		p.logger.Debug("skipping probe of unparseable origin", "origin", origin, "error", err)
		return 0
	}

	// Each probe owns one slot.
	hits := make([]*model.Finding, len(p.paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, path := range p.paths {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			ref, err := url.Parse(path)
			if err != nil {
				p.logger.Debug("skipping unparseable sensitive path", "path", path, "error", err)
				return nil
			}
			target := base.ResolveReference(ref).String()

			resp, err := p.fetcher.Fetch(ctx, target)
			if err == nil {
				err = transport.CheckStatus(resp)
			}
			if err != nil {
				p.logger.Debug("probe skipped",
					"url", target,
					"error_class", transport.ErrorClass(err),
					"error", err,
				)
				return nil
			}
			if len(resp.Body) <= minSensitiveBodyLen {
				p.logger.Debug("probe body below threshold", "url", target, "length", len(resp.Body))
				return nil
			}

			hits[i] = &model.Finding{
				Kind:     model.KindSensitiveFile,
				URL:      target,
				Evidence: path,
			}
			return nil
		})
	}

	// Probe goroutines never return errors.
	_ = g.Wait() //nolint:errcheck

	count := 0
	for _, f := range hits {
		if f != nil {
			session.Findings.Add(*f)
			count++
		}
	}
	return count
}
