// Package transport provides the HTTP fetcher used by the prober and crawler.
//
// A Client sends a fixed header set, follows redirects, enforces a
// request-level timeout and, by default, does not verify TLS certificates.
// Requests can optionally be routed through a SOCKS5 proxy.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/text/encoding/htmlindex"
)

// Default client settings.
const (
	// DefaultTimeout bounds every request, including redirects and body read.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent identifies the scanner in HTTP requests.
	DefaultUserAgent = "LeakScanner/1.0"

	// DefaultMaxBodySize caps the number of body bytes read per response.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// maxRedirects stops redirect loops.
	maxRedirects = 10
)

// Fetcher performs a GET request and returns the response.
// Implementations must honor ctx cancellation.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Response, error)
}

// Response is a fetched resource with its body decoded to text.
type Response struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status of the final response after redirects.
	StatusCode int

	// ContentType is the Content-Type header of the final response.
	ContentType string

	// Body is the response body decoded to UTF-8 when a charset is declared.
	Body string
}

// CheckStatus returns an *HTTPStatusError unless the response status is 200.
func CheckStatus(resp *Response) error {
	if resp.StatusCode != http.StatusOK {
		return &HTTPStatusError{URL: resp.URL, StatusCode: resp.StatusCode}
	}
	return nil
}

// Client is the default Fetcher backed by net/http.
type Client struct {
	httpClient  *http.Client
	maxBodySize int64
}

// clientOptions collects Option values before the client is built.
type clientOptions struct {
	timeout            time.Duration
	userAgent          string
	insecureSkipVerify bool
	proxyAddress       string
	maxBodySize        int64
	headers            map[string]string
}

// Option configures a Client.
type Option func(*clientOptions)

// WithTimeout sets the request-level timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		o.userAgent = ua
	}
}

// WithVerifyTLS enables or disables TLS certificate verification.
// Verification is disabled by default.
func WithVerifyTLS(verify bool) Option {
	return func(o *clientOptions) {
		o.insecureSkipVerify = !verify
	}
}

// WithProxy routes all connections through the SOCKS5 proxy at address (host:port).
// An empty address means direct connections.
func WithProxy(address string) Option {
	return func(o *clientOptions) {
		o.proxyAddress = address
	}
}

// WithMaxBodySize caps the number of body bytes read per response.
func WithMaxBodySize(size int64) Option {
	return func(o *clientOptions) {
		o.maxBodySize = size
	}
}

// WithHeaders adds extra headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(o *clientOptions) {
		o.headers = headers
	}
}

// NewClient creates a Client. It fails only when the proxy address is invalid.
func NewClient(opts ...Option) (*Client, error) {
	o := &clientOptions{
		timeout:            DefaultTimeout,
		userAgent:          DefaultUserAgent,
		insecureSkipVerify: true,
		maxBodySize:        DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(o)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   o.timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: o.insecureSkipVerify, //nolint:gosec // Recon targets often use self-signed certificates
		},
		TLSHandshakeTimeout: o.timeout,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     30 * time.Second,
	}

	if o.proxyAddress != "" {
		dialer, err := socksDialer(o.proxyAddress)
		if err != nil {
			return nil, err
		}
		transport.Proxy = nil
		transport.DialContext = dialer.DialContext
	}

	headers := map[string]string{
		"User-Agent": o.userAgent,
		"Accept":     "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	}
	for k, v := range o.headers {
		headers[k] = v
	}

	return &Client{
		httpClient: &http.Client{
			Transport: &headerInjectingTransport{base: transport, headers: headers},
			Timeout:   o.timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		maxBodySize: o.maxBodySize,
	}, nil
}

// socksDialer creates a SOCKS5 dialer for the given proxy address.
func socksDialer(address string) (proxy.ContextDialer, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" || port == "" {
		return nil, ErrInvalidProxyAddress
	}

	d, err := proxy.SOCKS5("tcp", address, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, fmt.Errorf("SOCKS5 dialer for %s does not support contexts", address)
	}
	return cd, nil
}

// Fetch performs a GET request for rawURL. Any status code yields a
// Response; only failures to obtain one return a *TransportError.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	return &Response{
		URL:         rawURL,
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        decodeBody(body, contentType),
	}, nil
}

// decodeBody converts body to UTF-8 using the charset declared in
// contentType. Unknown or missing charsets leave the bytes untouched.
func decodeBody(body []byte, contentType string) string {
	if contentType == "" {
		return string(body)
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body)
	}
	name := strings.ToLower(strings.TrimSpace(params["charset"]))
	if name == "" || name == "utf-8" || name == "utf8" {
		return string(body)
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return string(body)
	}
	decoded, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(body)))
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

// headerInjectingTransport sets a fixed header set on every request,
// including those issued while following redirects.
type headerInjectingTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}
	return t.base.RoundTrip(clone)
}
