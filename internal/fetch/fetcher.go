// Package fetch retrieves a single HTML page over HTTP.
package fetch

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/sirupsen/logrus"
)

// DefaultUserAgent identifies the scraper to site operators.
const DefaultUserAgent = "BrandProfilerBot/1.0 (+https://brandprofiler.app/bot)"

// ErrFetchFailed is returned for network failures, deadline expiry and non-2xx responses.
var ErrFetchFailed = errors.New("fetch failed")

// Page is a fetched HTML document.
type Page struct {
	URL         *url.URL
	FinalURL    *url.URL
	Body        []byte
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
	Latency     time.Duration
}

// Options controls HTTP fetching behaviour.
type Options struct {
	UserAgent     string
	Timeout       time.Duration
	MaxBodyBytes  int64
	RespectRobots bool
	Client        *http.Client
}

// HTTPFetcher performs a single GET per call. It holds no per-request state.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	timeout      time.Duration
	maxBodyBytes int64
	robots       *RobotsGate
}

// NewHTTPFetcher constructs a fetcher from opts, filling in defaults.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 * 1024 * 1024
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				ExpectContinueTimeout: time.Second,
			},
		}
	}

	f := &HTTPFetcher{
		client:       client,
		userAgent:    opts.UserAgent,
		timeout:      opts.Timeout,
		maxBodyBytes: opts.MaxBodyBytes,
	}
	if opts.RespectRobots {
		f.robots = NewRobotsGate(client, opts.UserAgent)
	}
	return f
}

// Fetch downloads target. The call is bounded by the configured timeout in
// addition to any deadline already on ctx.
func (f *HTTPFetcher) Fetch(ctx context.Context, target *url.URL) (*Page, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: nil url", ErrFetchFailed)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if f.robots != nil && !f.robots.Allowed(ctx, target) {
		return nil, fmt.Errorf("%w: disallowed by robots.txt", ErrFetchFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrFetchFailed, resp.Status)
	}

	body, err := f.readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	page := &Page{
		URL:         target,
		FinalURL:    finalURL,
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		FetchedAt:   time.Now(),
		Latency:     time.Since(start),
	}
	logrus.WithFields(logrus.Fields{
		"url":        target.String(),
		"final_url":  finalURL.String(),
		"status":     resp.StatusCode,
		"bytes":      len(body),
		"elapsed_ms": page.Latency.Milliseconds(),
	}).Debug("page fetched")
	return page, nil
}

func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, errors.New("empty response body")
	}

	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	body, err := io.ReadAll(io.LimitReader(reader, f.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, fmt.Errorf("response body exceeds limit of %d bytes", f.maxBodyBytes)
	}
	return body, nil
}
