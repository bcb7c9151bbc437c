// Package crawler discovers the pages of a target site and hands each one to
// the leak pattern matcher.
//
// # Traversal
//
// Spider.Crawl runs a depth-first walk over an explicit stack of (url, depth)
// frames. Links are followed in document order. A frame is dropped when:
//   - its depth exceeds the configured bound (default 2)
//   - its URL is already in the run-wide visited set
//   - the fetch fails or the status is not 200
//
// Only absolute http(s) links whose registrable domain equals that of the
// crawl start URL are scheduled. Subdomains of the start domain are in scope.
//
// # Failure handling
//
// Crawl never returns an error. A failed node yields no content and its
// branch ends there; errors are classified and logged at debug level.
// URLs are marked visited before they are fetched and are not retried.
//
// # Usage
//
//	spider := crawler.NewSpider(client, detect.DefaultRegistry(), crawler.WithMaxDepth(3))
//	stats := spider.Crawl(ctx, session, "https://example.com")
package crawler
