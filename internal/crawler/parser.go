package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ParseError is returned when a page cannot be parsed for links.
type ParseError struct {
	// URL is the page being parsed.
	URL string

	// Err is the underlying cause.
	Err error
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExtractLinks returns the href of every <a> element in body, in document
// order, resolved against base with the fragment removed.
//
// Non-navigational references (javascript:, mailto:, tel:, data:) and
// hrefs that do not parse are dropped. Scheme and scope filtering is left
// to the caller. Duplicates are kept.
func ExtractLinks(base, body string) ([]string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, &ParseError{URL: base, Err: err}
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, &ParseError{URL: base, Err: err}
	}

	links := make([]string, 0)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href, ok := getAttr(n, "href"); ok {
				if link := resolveURL(baseURL, href); link != "" {
					links = append(links, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return links, nil
}

// resolveURL resolves href against base and strips the fragment.
// It returns "" for references that never point at a fetchable page.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}
