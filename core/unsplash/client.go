// Package unsplash wraps the three Unsplash endpoints the bot consumes:
// random photo, photo search, and the download-tracking ping. Every call is
// admitted through the shared sliding-window limiter before it leaves the
// process.
package unsplash

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"splashbot/core/logger"
	"splashbot/core/netutil"
	"splashbot/core/outbound"
	"splashbot/core/ratelimit"

	"log/slog"
)

const (
	// DefaultBaseURL is the public Unsplash API host.
	DefaultBaseURL = "https://api.unsplash.com"
	// DefaultTimeout bounds one API round trip.
	DefaultTimeout = 30 * time.Second

	acceptVersion = "v1"
)

// Config holds client construction settings.
type Config struct {
	AccessKey string
	BaseURL   string
	Timeout   time.Duration
}

// Client issues Unsplash API calls through the quota limiter. The underlying
// HTTP client is created lazily on first use and reused for the process
// lifetime.
type Client struct {
	cfg     Config
	limiter *ratelimit.Limiter
	bg      *outbound.Dispatcher

	httpOnce sync.Once
	http     *http.Client
}

// NewClient wires a client to its limiter and the background dispatcher used
// for download-tracking pings. bg may be nil; tracking then degrades to a
// synchronous best-effort call.
func NewClient(cfg Config, limiter *ratelimit.Limiter, bg *outbound.Dispatcher) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if limiter == nil {
		limiter = ratelimit.New(0, 0)
	}
	return &Client{
		cfg:     cfg,
		limiter: limiter,
		bg:      bg,
	}
}

// Limiter exposes the admission window for quota reporting.
func (c *Client) Limiter() *ratelimit.Limiter {
	return c.limiter
}

// Close releases pooled connections. Safe to call before first use.
func (c *Client) Close() {
	if c.http != nil {
		c.http.CloseIdleConnections()
	}
}

func (c *Client) httpClient() *http.Client {
	c.httpOnce.Do(func() {
		transport := &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       30 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
		c.http = &http.Client{
			Timeout:   c.cfg.Timeout,
			Transport: transport,
		}
	})
	return c.http
}

// RandomPhoto fetches one random photo, optionally constrained by a query
// and orientation.
func (c *Client) RandomPhoto(ctx context.Context, query, orientation string) (Photo, error) {
	params := url.Values{}
	if query != "" {
		params.Set("query", query)
	}
	if orientation != "" {
		params.Set("orientation", orientation)
	}

	var photo Photo
	if err := c.get(ctx, "/photos/random", params, &photo); err != nil {
		return Photo{}, err
	}
	return photo, nil
}

// SearchPhotos queries /search/photos. Zero upstream matches yield an empty
// Results slice, not an error.
func (c *Client) SearchPhotos(ctx context.Context, p SearchParams) (SearchResult, error) {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = 10
	}

	params := url.Values{}
	params.Set("query", p.Query)
	params.Set("page", strconv.Itoa(p.Page))
	params.Set("per_page", strconv.Itoa(p.PerPage))
	if p.Orientation != "" {
		params.Set("orientation", p.Orientation)
	}
	if p.Color != "" {
		params.Set("color", p.Color)
	}

	var result SearchResult
	if err := c.get(ctx, "/search/photos", params, &result); err != nil {
		return SearchResult{}, err
	}
	return result, nil
}

// TrackDownload registers photo usage against the opaque download location,
// as the API terms require. The ping is fire-and-forget: it runs on the
// background dispatcher, is never retried, and failures are swallowed. It
// spends a quota slot like any other call; with the window full the ping is
// dropped instead of refused loudly.
func (c *Client) TrackDownload(ctx context.Context, location string) {
	if location == "" {
		return
	}

	// The handler's context ends with the reply; the ping should not.
	bgCtx := context.WithoutCancel(ctx)
	run := func() error {
		return c.ping(bgCtx, location)
	}

	if c.bg == nil {
		_ = run()
		return
	}
	if err := c.bg.EnqueueOnce(bgCtx, "unsplash.track_download", "download_location", run); err != nil {
		logger.Debug(ctx, "unsplash", "track.dropped",
			slog.String("err", err.Error()),
		)
	}
}

func (c *Client) ping(ctx context.Context, location string) error {
	ok, _, eta := c.limiter.Admit()
	if !ok {
		logger.Debug(ctx, "unsplash", "track.refused",
			slog.Int64("reset_in_ms", logger.RoundMS(eta).Milliseconds()),
		)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// get is the single choke point every API read funnels through: admission,
// request, status classification. The limiter lock covers only the
// check-and-record step; the round trip happens outside it.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	ok, remaining, eta := c.limiter.Admit()
	if !ok {
		logger.Warn(ctx, "unsplash", "quota.refused",
			slog.String("endpoint", path),
			slog.Int64("reset_in_ms", logger.RoundMS(eta).Milliseconds()),
		)
		return &QuotaError{ResetIn: eta}
	}

	start := time.Now()
	endpoint := c.cfg.BaseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("unsplash: build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		if netutil.IsTimeout(err) {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("unsplash: %s: %w", path, err)
	}
	defer resp.Body.Close()

	logger.Debug(ctx, "unsplash", "api.response",
		slog.String("endpoint", path),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("quota_remaining", remaining),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrThrottled
	case resp.StatusCode >= 400:
		_, _ = io.Copy(io.Discard, resp.Body)
		return &APIError{Status: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unsplash: decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Client-ID "+c.cfg.AccessKey)
	req.Header.Set("Accept-Version", acceptVersion)
}
