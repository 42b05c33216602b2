// Package fetch provides the HTTP transport layer: a Chrome-fingerprint
// client, retry with exponential backoff, and the shared per-domain rate
// limiter that paces every outbound request in a run.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36"

// Request describes one HTTP call.
type Request struct {
	Method string
	URL    string

	// Params are merged into the query string (GET) or sent as a form
	// body (POST).
	Params map[string]string

	// Timeout overrides the client default when non-zero.
	Timeout time.Duration
}

// Response is the result of one HTTP call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	FinalURL   string
	ElapsedMs  int64
}

// Client is the abstract HTTP collaborator consumed by the analyzer,
// strategies, and extractor.
type Client interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Replace h2 with http/1.1 only in the ALPN extension so the server
	// never negotiates HTTP/2 (which Go's http.Transport cannot handle
	// over a utls connection).
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// HTTPClient issues requests with a Chrome-like TLS fingerprint and
// browser-like headers. Safe for concurrent use.
type HTTPClient struct {
	client         *http.Client
	defaultTimeout time.Duration
	maxBodyBytes   int64
}

// Option customizes a new HTTPClient.
type Option func(*HTTPClient)

// WithTimeout sets the default per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.defaultTimeout = d }
}

// WithMaxBodyBytes caps response body reads.
func WithMaxBodyBytes(n int64) Option {
	return func(c *HTTPClient) { c.maxBodyBytes = n }
}

// NewHTTPClient creates an HTTPClient. ALPN is locked to http/1.1 to avoid
// the HTTP/2 framing mismatch that occurs when utls negotiates h2 but Go's
// http.Transport only speaks h1.
func NewHTTPClient(proxy string, opts ...Option) *HTTPClient {
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("fetch: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2: false,
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil &&
			(proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	c := &HTTPClient{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		defaultTimeout: 30 * time.Second,
		maxBodyBytes:   10 << 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do issues the request and reads the (size-capped) body. A non-2xx status
// is not an error here; retry and call-site policy decide what to do with it.
func (c *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := req.URL
	var body io.Reader
	headers := map[string]string{}

	if len(req.Params) > 0 {
		values := url.Values{}
		for k, v := range req.Params {
			values.Set(k, v)
		}
		if method == http.MethodPost {
			body = strings.NewReader(values.Encode())
			headers["Content-Type"] = "application/x-www-form-urlencoded"
		} else {
			u, err := url.Parse(req.URL)
			if err != nil {
				return nil, fmt.Errorf("fetch: parse url: %w", err)
			}
			q := u.Query()
			for k, v := range req.Params {
				q.Set(k, v)
			}
			u.RawQuery = q.Encode()
			target = u.String()
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}

	httpReq.Header.Set("User-Agent", chromeUA)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")
	httpReq.Header.Set("Accept-Encoding", "identity")
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch: do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		FinalURL:   resp.Request.URL.String(),
		ElapsedMs:  time.Since(start).Milliseconds(),
	}, nil
}

// Domain parses the hostname from a URL string.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}

// IsHTML reports whether a content-type header looks like HTML.
func IsHTML(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
