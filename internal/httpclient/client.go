// Package httpclient is the scanner's sole HTTP egress point:
// throttle slot, breaker gate, retries with linear backoff, default
// headers, and redirect policy, shared by the crawler and every active
// detector.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/scntm/scanner/internal/breaker"
	"github.com/scntm/scanner/internal/config"
	"github.com/scntm/scanner/internal/model"
	"github.com/scntm/scanner/internal/throttle"
)

// Response is the normalized shape detectors and the crawler work with.
type Response struct {
	StatusCode int
	Headers    model.Header
	Body       []byte
	FinalURL   string
}

// Client is a thin wrapper over net/http carrying the egress policy.
type Client struct {
	http          *http.Client
	config        config.HTTPConfig
	logger        zerolog.Logger
	followRedirs  bool
}

// New builds a Client with a throttle/breaker/retry transport shared by
// every request issued through it — including the one colly's Collector
// uses once wired via StdClient.
func New(cfg config.HTTPConfig, logger zerolog.Logger) *Client {
	base := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // target cert validity is a finding, not a fatal dial error
	}

	egress := &egressTransport{
		base:       base,
		throttle:   throttle.New(cfg.Delay()),
		breaker:    breaker.New(cfg.BreakerThreshold, cfg.BreakerCooldown),
		maxRetries: cfg.MaxRetries,
		logger:     logger.With().Str("component", "httpclient").Logger(),
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := &http.Client{
		Transport: egress,
		Timeout:   timeout,
	}

	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 5
	}
	httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}

	return &Client{
		http:         httpClient,
		config:       cfg,
		logger:       logger,
		followRedirs: true,
	}
}

// StdClient exposes the underlying *http.Client so the crawler's colly
// collector can be pointed at the same egress path via SetClient.
func (c *Client) StdClient() *http.Client { return c.http }

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	return c.Request(ctx, http.MethodGet, rawURL, nil, "")
}

// Post issues a POST request with the given body and content type.
func (c *Client) Post(ctx context.Context, rawURL string, body []byte, contentType string) (*Response, error) {
	return c.Request(ctx, http.MethodPost, rawURL, body, contentType)
}

// Request sends method to rawURL with an optional body and Content-Type
// and no other extra headers; detectors needing custom headers (CORS Origin
// probes, etc.) use RequestWithHeaders.
func (c *Client) Request(ctx context.Context, method, rawURL string, body []byte, contentType string) (*Response, error) {
	headers := map[string]string{}
	if contentType != "" {
		headers["Content-Type"] = contentType
	}
	return c.RequestWithHeaders(ctx, method, rawURL, headers, body)
}

// RequestWithHeaders sends method to rawURL with extra headers merged on
// top of the default browser-like headers and any configured custom
// headers.
func (c *Client) RequestWithHeaders(ctx context.Context, method, rawURL string, headers map[string]string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, err
	}

	c.applyDefaultHeaders(req)
	for k, v := range c.config.CustomHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    model.Header(resp.Header),
		Body:       bodyBytes,
		FinalURL:   resp.Request.URL.String(),
	}, nil
}

// RequestNoRedirect performs a request but does not follow redirects,
// matching the open_redirect oracle's need to inspect the first
// Location header.
func (c *Client) RequestNoRedirect(ctx context.Context, method, rawURL string) (*Response, error) {
	noRedirectClient := &http.Client{
		Transport:     c.http.Transport,
		Timeout:       c.http.Timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	c.applyDefaultHeaders(req)

	resp, err := noRedirectClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    model.Header(resp.Header),
		Body:       bodyBytes,
		FinalURL:   resp.Request.URL.String(),
	}, nil
}

func (c *Client) applyDefaultHeaders(req *http.Request) {
	ua := c.config.UserAgent
	if ua == "" {
		ua = "Mozilla/5.0 (compatible; ScntmScanner/1.0)"
	}
	req.Header.Set("User-Agent", ua)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}
}
