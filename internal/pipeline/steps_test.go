package pipeline

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/leakscan/internal/model"
	"github.com/nao1215/leakscan/internal/scanner"
	"github.com/nao1215/leakscan/internal/transport"
)

// fakeFetcher serves canned bodies; unknown URLs are 404 and hosts listed
// in down fail at the transport level.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	down  map[string]bool
	hits  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (*transport.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits = append(f.hits, rawURL)

	for host := range f.down {
		if strings.HasPrefix(rawURL, host) {
			return nil, &transport.TransportError{URL: rawURL, Err: errors.New("no such host")}
		}
	}
	body, ok := f.pages[rawURL]
	if !ok {
		return &transport.Response{URL: rawURL, StatusCode: http.StatusNotFound}, nil
	}
	return &transport.Response{URL: rawURL, StatusCode: http.StatusOK, Body: body}, nil
}

// fakeScanner returns fixed output per origin and records calls.
type fakeScanner struct {
	mu     sync.Mutex
	output map[string]string
	calls  []string
}

func (s *fakeScanner) Run(_ context.Context, origin string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, origin)
	return s.output[origin]
}

func leakySite() *fakeFetcher {
	return &fakeFetcher{
		pages: map[string]string{
			"http://example.com":       `<a href="/about">about</a>`,
			"http://example.com/about": `API_KEY=abc`,
			"http://example.com/.env":  strings.Repeat("SECRET=1\n", 20),
		},
		down: map[string]bool{"http://down.example.net": true},
	}
}

// TestDefaultPipeline tests the assembled probe, crawl and scan steps.
func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("step order", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(leakySite(), nil)
		want := []string{StepProbe, StepCrawl, StepExternalScan}
		if diff := cmp.Diff(want, p.StepNames()); diff != "" {
			t.Errorf("steps mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("findings from every step", func(t *testing.T) {
		t.Parallel()

		fs := &fakeScanner{output: map[string]string{"http://example.com": "[CVE-2024-0001] high"}}
		p := DefaultPipeline(leakySite(), nil, WithScanner(fs))

		session := model.NewSession()
		report := model.NewTargetReport("http://example.com")
		if err := p.Execute(context.Background(), session, report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []model.Finding{
			{Kind: model.KindSensitiveFile, URL: "http://example.com/.env", Evidence: ".env"},
			{Kind: ".env File", URL: "http://example.com/about", Evidence: `DB_PASSWORD|SECRET_KEY|API_KEY`},
			{Kind: model.KindExternalScan, URL: "http://example.com", Evidence: "[CVE-2024-0001] high"},
		}
		if diff := cmp.Diff(want, session.Findings.All()); diff != "" {
			t.Errorf("findings mismatch (-want +got):\n%s", diff)
		}
		if report.SensitiveFiles != 1 || report.LeakFindings != 1 || !report.ExternalScanReported {
			t.Errorf("unexpected report counters %+v", report)
		}
		if report.FindingCount() != 3 {
			t.Errorf("expected 3 findings, got %d", report.FindingCount())
		}
	})

	t.Run("custom catalogues and depth", func(t *testing.T) {
		t.Parallel()

		site := leakySite()
		p := DefaultPipeline(site, nil,
			WithSensitivePaths([]string{"backup.zip"}),
			WithCrawlDepth(0),
			WithProbeConcurrency(1),
		)
		session := model.NewSession()
		if err := p.Execute(context.Background(), session, model.NewTargetReport("http://example.com")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"http://example.com/backup.zip", "http://example.com"}
		if diff := cmp.Diff(want, site.hits); diff != "" {
			t.Errorf("requests mismatch (-want +got):\n%s", diff)
		}
		if session.Findings.Len() != 0 {
			t.Errorf("expected no findings, got %v", session.Findings.All())
		}
	})
}

// TestRunner tests multi-target runs.
func TestRunner(t *testing.T) {
	t.Parallel()

	t.Run("transport failure does not abort later targets", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(leakySite(), nil)
		session := model.NewSession()
		reports, err := NewRunner(p).Run(context.Background(), session,
			[]string{"http://down.example.net", "http://example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(reports) != 2 {
			t.Fatalf("expected 2 reports, got %d", len(reports))
		}
		if reports[0].FindingCount() != 0 || reports[0].PagesFailed != 1 {
			t.Errorf("unexpected report for unreachable target %+v", reports[0])
		}
		if reports[1].FindingCount() != 2 {
			t.Errorf("expected 2 findings on reachable target, got %+v", reports[1])
		}
		for _, f := range session.Findings.All() {
			if strings.Contains(f.URL, "down.example.net") {
				t.Errorf("unexpected finding for unreachable target %v", f)
			}
		}
	})

	t.Run("missing scanner binary changes nothing else", func(t *testing.T) {
		t.Parallel()

		targets := []string{"http://example.com"}

		baseline := model.NewSession()
		if _, err := NewRunner(DefaultPipeline(leakySite(), nil)).Run(context.Background(), baseline, targets); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		missing := scanner.NewNuclei(scanner.WithBinary(filepath.Join(t.TempDir(), "nuclei")))
		session := model.NewSession()
		reports, err := NewRunner(DefaultPipeline(leakySite(), nil, WithScanner(missing))).
			Run(context.Background(), session, targets)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, f := range session.Findings.All() {
			if f.Kind == model.KindExternalScan {
				t.Errorf("unexpected external scan finding %v", f)
			}
		}
		if diff := cmp.Diff(baseline.Findings.All(), session.Findings.All()); diff != "" {
			t.Errorf("findings differ from run without scanner (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([]string{StepProbe, StepCrawl, StepExternalScan}, reports[0].PerformedSteps); diff != "" {
			t.Errorf("performed steps mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("scanner runs once per target", func(t *testing.T) {
		t.Parallel()

		fs := &fakeScanner{}
		p := DefaultPipeline(leakySite(), nil, WithScanner(fs))
		targets := []string{"http://example.com", "http://down.example.net"}
		if _, err := NewRunner(p).Run(context.Background(), model.NewSession(), targets); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff(targets, fs.calls); diff != "" {
			t.Errorf("scanner calls mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("visited set is shared across targets", func(t *testing.T) {
		t.Parallel()

		site := leakySite()
		p := DefaultPipeline(site, nil)
		session := model.NewSession()
		targets := []string{"http://example.com", "http://example.com"}
		if _, err := NewRunner(p).Run(context.Background(), session, targets); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		count := 0
		for _, h := range site.hits {
			if h == "http://example.com/about" {
				count++
			}
		}
		if count != 1 {
			t.Errorf("expected /about fetched once, got %d", count)
		}
	})

	t.Run("reports keep input order with concurrency", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "noop"})

		targets := []string{"http://a.example.com", "http://b.example.com", "http://c.example.com", "http://d.example.com"}
		var mu sync.Mutex
		started := 0
		reports, err := NewRunner(p, WithConcurrency(3), WithOnStart(func(string, int, int) {
			mu.Lock()
			started++
			mu.Unlock()
		})).Run(context.Background(), model.NewSession(), targets)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for i, r := range reports {
			if r.Target != targets[i] {
				t.Errorf("report[%d]: got %q, want %q", i, r.Target, targets[i])
			}
		}
		if started != len(targets) {
			t.Errorf("expected %d start callbacks, got %d", len(targets), started)
		}
	})

	t.Run("failing target does not stop the run", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddStep(&mockStep{name: "fails-on-b", doFunc: func(_ context.Context, _ *model.Session, r *model.TargetReport) error {
			if r.Target == "b" {
				return errors.New("boom")
			}
			return nil
		}})

		reports, err := NewRunner(p).Run(context.Background(), model.NewSession(), []string{"a", "b", "c"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if reports[1].ErrorMessage != "boom" || reports[2] == nil || reports[2].ErrorMessage != "" {
			t.Errorf("unexpected reports %+v", reports)
		}
	})

	t.Run("cancelled run returns context error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		p := New()
		p.AddStep(&mockStep{name: "noop"})
		_, err := NewRunner(p).Run(ctx, model.NewSession(), []string{"a"})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
