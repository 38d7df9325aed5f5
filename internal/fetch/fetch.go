// Package fetch downloads upstream archives and mirror indexes.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/zjrosen/darkpan/internal/fileutil"
	"github.com/zjrosen/darkpan/internal/log"
	"github.com/zjrosen/darkpan/internal/repository/domain"
)

const (
	// DefaultTimeout bounds one whole download.
	DefaultTimeout = 60 * time.Second

	// DefaultUserAgent is sent when no other is configured.
	DefaultUserAgent = "darkpan"

	// DefaultMaxBytes caps a single download (1 GiB).
	DefaultMaxBytes = 1 << 30
)

// ErrTooLarge is returned when a download exceeds the configured cap.
var ErrTooLarge = errors.New("download too large")

// HTTPFetcher implements domain.Fetcher over HTTP(S) and file:// URLs.
type HTTPFetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	maxBytes   int64
}

var _ domain.Fetcher = (*HTTPFetcher)(nil)

// Option configures an HTTPFetcher during construction.
type Option func(*HTTPFetcher)

// WithHTTPClient sets a custom HTTP client, useful for tests or proxies.
func WithHTTPClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.httpClient = c
	}
}

// WithTimeout bounds each Fetch call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBytes caps the size of a single download. Larger bodies fail
// with ErrTooLarge and leave nothing at dest.
func WithMaxBytes(n int64) Option {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// New creates an HTTPFetcher. Defaults: http.DefaultClient, 60s timeout,
// User-Agent "darkpan", 1 GiB cap.
func New(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		userAgent:  DefaultUserAgent,
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL to dest, replacing dest atomically. Every failure
// is a *domain.FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL, dest string) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	body, err := f.open(ctx, rawURL)
	if err != nil {
		return &domain.FetchError{URL: rawURL, Err: err}
	}
	defer func() { _ = body.Close() }()

	n, err := fileutil.WriteAtomic(dest, &cappedReader{r: body, remaining: f.maxBytes, limit: f.maxBytes}, 0o644) //nolint:gosec // G302: archives are served to package clients
	if err != nil {
		return &domain.FetchError{URL: rawURL, Err: err}
	}

	log.Debug(log.CatFetch, "fetched", "url", domain.RedactURL(rawURL), "bytes", n, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// open returns a reader over the content at rawURL.
func (f *HTTPFetcher) open(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing url: %w", err)
	}

	switch u.Scheme {
	case "file":
		file, err := os.Open(u.Path) //nolint:gosec // G304: file:// mirrors are configured by the operator
		if err != nil {
			return nil, err
		}
		return file, nil
	case "http", "https":
		return f.get(ctx, u.String())
	default:
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

// cappedReader fails once more than limit bytes have been read.
type cappedReader struct {
	r         io.Reader
	remaining int64
	limit     int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, c.limit)
	}
	// Allow one byte past the limit so an exact-size body still succeeds.
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, c.limit)
	}
	return n, err
}

// StatusError reports a non-200 HTTP response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
