package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nao1215/leakscan/internal/detect"
	"github.com/nao1215/leakscan/internal/model"
	"github.com/nao1215/leakscan/internal/scope"
	"github.com/nao1215/leakscan/internal/transport"
)

// DefaultMaxDepth is the deepest link level followed from the start URL.
const DefaultMaxDepth = 2

// Spider walks a site depth-first within the start URL's registrable domain
// and scans every successfully fetched page for leaks.
type Spider struct {
	fetcher  transport.Fetcher
	registry *detect.Registry

	// maxDepth limits how deep to crawl from the starting URL.
	// 0 means only the starting page, 1 means one level of links, etc.
	maxDepth int

	// ignorePatterns are URL path globs that are never scheduled.
	ignorePatterns []string

	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth. Negative values are ignored.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		if depth >= 0 {
			s.maxDepth = depth
		}
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/logout*", "*.pdf").
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithSpiderLogger sets the logger used for dropped nodes.
func WithSpiderLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		s.logger = logger
	}
}

// NewSpider creates a Spider that fetches through f and scans pages with registry.
func NewSpider(f transport.Fetcher, registry *detect.Registry, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:  f,
		registry: registry,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// MaxDepth returns the configured depth bound.
func (s *Spider) MaxDepth() int {
	return s.maxDepth
}

// Stats summarizes one crawl.
type Stats struct {
	// Fetched is the number of pages fetched with status 200 and scanned.
	Fetched int

	// Failed is the number of nodes dropped by transport or status errors.
	Failed int

	// ParseFailures is the number of scanned pages whose links could not be extracted.
	ParseFailures int

	// SkippedDepth is the number of scheduled links beyond the depth bound.
	SkippedDepth int

	// SkippedVisited is the number of scheduled links already in the visited set.
	SkippedVisited int

	// Findings is the number of leak findings appended.
	Findings int
}

// frame is one entry of the crawl frontier.
type frame struct {
	url   string
	depth int
}

// Crawl traverses from start and appends leak findings to session.
//
// Each URL is marked visited before it is fetched and is never retried, even
// if the fetch fails and another target later links to it. Only absolute
// http(s) links in the same registrable domain as start are followed.
// Fetch and parse failures terminate that branch and are never returned;
// cancellation of ctx stops the traversal with the findings already recorded.
func (s *Spider) Crawl(ctx context.Context, session *model.Session, start string) Stats {
	var stats Stats
	stack := []frame{{url: start, depth: 0}}

	for len(stack) > 0 {
		if ctx.Err() != nil {
			s.logger.Debug("crawl cancelled", "start", start, "pending", len(stack))
			return stats
		}

		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.depth > s.maxDepth {
			stats.SkippedDepth++
			continue
		}
		if !session.Visited.MarkVisited(item.url) {
			stats.SkippedVisited++
			continue
		}

		resp, err := s.fetcher.Fetch(ctx, item.url)
		if err == nil {
			err = transport.CheckStatus(resp)
		}
		if err != nil {
			stats.Failed++
			s.logger.Debug("crawl node dropped",
				"url", item.url,
				"depth", item.depth,
				"error_class", transport.ErrorClass(err),
				"error", err,
			)
			continue
		}

		stats.Fetched++
		stats.Findings += s.registry.ScanInto(session, item.url, resp.Body)

		links, err := ExtractLinks(item.url, resp.Body)
		if err != nil {
			stats.ParseFailures++
			s.logger.Debug("link extraction failed", "url", item.url, "error_class", "parse", "error", err)
			continue
		}

		next := make([]frame, 0, len(links))
		for _, link := range links {
			if s.shouldFollow(start, link) {
				next = append(next, frame{url: link, depth: item.depth + 1})
			}
		}
		// Push in reverse so the first link in the document is popped first.
		slices.Reverse(next)
		stack = append(stack, next...)
	}

	return stats
}

// shouldFollow reports whether link is an absolute http(s) URL in the same
// scope as start and not excluded by an ignore pattern.
func (s *Spider) shouldFollow(start, link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !scope.SameScope(start, link) {
		return false
	}
	return !s.isIgnored(u)
}

// isIgnored reports whether the URL path matches an ignore pattern.
func (s *Spider) isIgnored(u *url.URL) bool {
	path := u.Path
	if path == "" {
		path = "/"
	}
	for _, pattern := range s.ignorePatterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// matchPattern checks if a path matches a glob pattern.
// Patterns can use:
//   - * to match any sequence of non-separator characters
//   - ? to match any single character
//   - a trailing /* to match everything below a directory
//
// Examples:
//   - "/admin/*" matches "/admin/dashboard", "/admin/users/1"
//   - "*.pdf" matches "/docs/file.pdf"
//   - "/api/v?" matches "/api/v1", "/api/v2"
func matchPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/*") {
		prefix := strings.TrimSuffix(pattern, "/*")
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}

	if strings.HasPrefix(pattern, "*.") {
		if strings.HasSuffix(path, strings.TrimPrefix(pattern, "*")) {
			return true
		}
	}

	matched, err := filepath.Match(pattern, path)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Patterns without a slash also match the last path element.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
	}

	return false
}
