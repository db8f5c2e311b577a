// Package fetcher defines the transport used by the raw-source clients.
// A Fetcher turns a request description into the raw response body and
// status; it knows nothing about listings or parsing.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Fetcher abstracts page and API fetching strategies.
type Fetcher interface {
	// Fetch performs one request. A non-2xx response yields a *StatusError
	// alongside whatever content was received.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "dynamic").
	Type() string
}

// Options controls a single request.
type Options struct {
	Method          string // defaults to GET
	Body            []byte // request body for POST
	UserAgent       string
	Timeout         time.Duration
	WaitForSelector string        // CSS selector to wait for (dynamic fetchers)
	WaitDuration    time.Duration // Additional wait after load
	Headers         map[string]string
}

func (o Options) method() string {
	if o.Method == "" {
		return http.MethodGet
	}
	return o.Method
}

// Content is a fetched response.
type Content struct {
	URL         string
	Body        []byte
	Title       string // HTML <title>, empty for non-HTML responses
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
}

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// StatusCode extracts the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

var (
	// ErrBlockedByRobots indicates robots.txt disallows the URL.
	ErrBlockedByRobots = errors.New("blocked by robots.txt")
	// ErrUnsupportedMethod indicates the fetcher cannot issue the request method.
	ErrUnsupportedMethod = errors.New("unsupported request method")
)
