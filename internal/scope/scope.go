// Package scope normalizes operator-supplied targets and decides whether two
// URLs belong to the same registrable domain.
//
// Scope is the only authority the crawler consults before following a link.
// Subdomains, ports and schemes are ignored: www.example.com, shop.example.com
// and example.com are one scope, example.com and example.org are two.
package scope

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// defaultScheme is prefixed to targets that carry no scheme.
const defaultScheme = "http://"

// ErrNoHost is returned when a URL has no host component.
var ErrNoHost = errors.New("url has no host")

// NormalizeTarget canonicalizes a raw target string into an absolute URL.
// Whitespace is trimmed and "http://" is prefixed when the value does not
// start with the "http" token. No further validation is done here;
// malformed results surface later as fetch failures.
func NormalizeTarget(raw string) string {
	target := strings.TrimSpace(raw)
	if !strings.HasPrefix(target, "http") {
		return defaultScheme + target
	}
	return target
}

// RegistrableDomain returns the effective top-level domain plus one label
// for the host of rawURL, lowercased.
//
// IP literals have no registrable domain; the address itself is returned so
// that two URLs on the same address compare equal. Hosts for which no eTLD+1
// exists (single-label names, bare public suffixes) return an error.
func RegistrableDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, err)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return "", fmt.Errorf("%q: %w", rawURL, ErrNoHost)
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", fmt.Errorf("registrable domain of %q: %w", host, err)
	}
	return domain, nil
}

// SameScope reports whether a and b share a registrable domain.
// If either domain cannot be extracted the URLs are not in scope.
func SameScope(a, b string) bool {
	da, err := RegistrableDomain(a)
	if err != nil {
		return false
	}
	db, err := RegistrableDomain(b)
	if err != nil {
		return false
	}
	return da == db
}
