package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/staylens/internal/logger"
)

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	UserAgent        string
	Timeout          time.Duration
	RespectRobotsTxt bool
	MaxBodySize      int // bytes; 0 keeps the colly default
}

// DefaultStaticConfig returns sensible defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent:        DefaultUserAgent,
		Timeout:          30 * time.Second,
		RespectRobotsTxt: true,
		MaxBodySize:      20 << 20,
	}
}

// DefaultUserAgent is a desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// StaticFetcher issues plain HTTP requests through Colly.
type StaticFetcher struct {
	config StaticConfig
}

// NewStatic creates a new static fetcher.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultStaticConfig().Timeout
	}
	return &StaticFetcher{config: cfg}
}

// Fetch performs a GET or POST using a fresh collector.
func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string, opts Options) (Content, error) {
	method := opts.method()
	if method != http.MethodGet && method != http.MethodPost {
		return Content{URL: targetURL}, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	result := Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	userAgent := coalesce(opts.UserAgent, f.config.UserAgent)
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.StdlibContext(ctx),
	)
	c.IgnoreRobotsTxt = !f.config.RespectRobotsTxt
	c.ParseHTTPErrorResponse = true
	if f.config.MaxBodySize > 0 {
		c.MaxBodySize = f.config.MaxBodySize
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	c.SetRequestTimeout(timeout)

	c.OnResponse(func(r *colly.Response) {
		result.StatusCode = r.StatusCode
		result.ContentType = r.Headers.Get("Content-Type")
		result.Body = r.Body
		logger.Debug("static fetch response received",
			"status", r.StatusCode,
			"content_type", result.ContentType,
			"body_size", len(r.Body))
	})

	var fetchErr error
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.StatusCode = r.StatusCode
		}
		fetchErr = err
	})

	hdr := http.Header{}
	for k, v := range opts.Headers {
		hdr.Set(k, v)
	}

	var body *bytes.Reader
	if len(opts.Body) > 0 {
		body = bytes.NewReader(opts.Body)
	}

	logger.Debug("static fetch", "method", method, "url", targetURL, "timeout", timeout)
	var err error
	if body != nil {
		err = c.Request(method, targetURL, body, nil, hdr)
	} else {
		err = c.Request(method, targetURL, nil, nil, hdr)
	}
	if err != nil {
		if errors.Is(err, colly.ErrRobotsTxtBlocked) {
			return result, fmt.Errorf("%w: %s", ErrBlockedByRobots, targetURL)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, fmt.Errorf("request failed: %w", err)
	}
	if fetchErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, fmt.Errorf("request failed: %w", fetchErr)
	}

	if result.StatusCode < 200 || result.StatusCode > 299 {
		return result, &StatusError{URL: targetURL, StatusCode: result.StatusCode}
	}

	if strings.Contains(result.ContentType, "html") {
		result.Title = pageTitle(result.Body)
	}
	return result, nil
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}

func pageTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
