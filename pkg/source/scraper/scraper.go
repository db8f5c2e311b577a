// Package scraper is the HTML raw source: it fetches listing and search
// pages and parses the state embedded in them.
package scraper

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/staylens/internal/logger"
	"github.com/jmylchreest/staylens/pkg/cache"
	"github.com/jmylchreest/staylens/pkg/fetcher"
	"github.com/jmylchreest/staylens/pkg/parse/embedded"
	"github.com/jmylchreest/staylens/pkg/ratelimit"
	"github.com/jmylchreest/staylens/pkg/source"
	"github.com/jmylchreest/staylens/pkg/stay"
)

const name = "html"

// Config holds the scraper settings.
type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration // multiplied by the attempt number
	TTLs       source.TTLs
}

// Chrome user agent for better compatibility with bot-protected sites
const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:    "https://www.airbnb.com",
		UserAgent:  defaultUserAgent,
		Timeout:    30 * time.Second,
		MaxRetries: 2,
		RetryDelay: 2 * time.Second,
		TTLs:       source.DefaultTTLs(),
	}
}

// Option configures a Client.
type Option func(*Client)

// WithConfig replaces the scraper settings.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithCache sets the response cache. Keys are written unprefixed.
func WithCache(rc cache.Cache) Option {
	return func(c *Client) {
		c.cache = rc
	}
}

// WithLimiter sets the request pacer.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// Client implements source.Client over listing pages.
type Client struct {
	fetcher fetcher.Fetcher
	cache   cache.Cache
	limiter *ratelimit.Limiter
	config  Config
}

// New returns a scraper that fetches through f.
func New(f fetcher.Fetcher, opts ...Option) *Client {
	c := &Client{
		fetcher: f,
		cache:   cache.Nop{},
		config:  DefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.limiter == nil {
		c.limiter = ratelimit.New(0)
	}
	c.config.BaseURL = strings.TrimRight(c.config.BaseURL, "/")
	return c
}

// Name implements source.Client.
func (c *Client) Name() string { return name }

// Search implements source.Client.
func (c *Client) Search(ctx context.Context, params stay.SearchParams) (*stay.SearchResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return source.Cached(ctx, c.cache, cache.SearchKey(params), c.config.TTLs.Search, func() (*stay.SearchResult, error) {
		body, err := c.fetch(ctx, "search", SearchURL(c.config.BaseURL, params))
		if err != nil {
			return nil, err
		}
		return embedded.Search(body, c.config.BaseURL)
	})
}

// Detail implements source.Client.
func (c *Client) Detail(ctx context.Context, id string) (*stay.ListingDetail, error) {
	if err := source.ValidateID(id); err != nil {
		return nil, err
	}
	return source.Cached(ctx, c.cache, cache.DetailKey(id), c.config.TTLs.Detail, func() (*stay.ListingDetail, error) {
		body, err := c.fetch(ctx, "detail", c.roomURL(id, nil))
		if err != nil {
			return nil, err
		}
		return embedded.Detail(body, id, c.config.BaseURL)
	})
}

// Calendar implements source.Client.
func (c *Client) Calendar(ctx context.Context, id string, months int) (*stay.PriceCalendar, error) {
	if err := source.ValidateID(id); err != nil {
		return nil, err
	}
	months = source.ClampMonths(months)
	return source.Cached(ctx, c.cache, cache.CalendarKey(id, months), c.config.TTLs.Calendar, func() (*stay.PriceCalendar, error) {
		q := url.Values{"calendar_months": {strconv.Itoa(months)}}
		body, err := c.fetch(ctx, "calendar", c.roomURL(id, q))
		if err != nil {
			return nil, err
		}
		return embedded.Calendar(body, id)
	})
}

// Reviews implements source.Client.
func (c *Client) Reviews(ctx context.Context, id, cursor string) (*stay.ReviewsPage, error) {
	if err := source.ValidateID(id); err != nil {
		return nil, err
	}
	return source.Cached(ctx, c.cache, cache.ReviewsKey(id, cursor), c.config.TTLs.Reviews, func() (*stay.ReviewsPage, error) {
		var q url.Values
		if cursor != "" {
			q = url.Values{"review_cursor": {cursor}}
		}
		body, err := c.fetch(ctx, "reviews", c.roomURL(id, q))
		if err != nil {
			return nil, err
		}
		return embedded.Reviews(body, id)
	})
}

// Host implements source.Client.
func (c *Client) Host(ctx context.Context, id string) (*stay.HostProfile, error) {
	if err := source.ValidateID(id); err != nil {
		return nil, err
	}
	return source.Cached(ctx, c.cache, cache.HostKey(id), c.config.TTLs.Host, func() (*stay.HostProfile, error) {
		body, err := c.fetch(ctx, "host", c.roomURL(id, nil))
		if err != nil {
			return nil, err
		}
		return embedded.Host(body)
	})
}

func (c *Client) roomURL(id string, q url.Values) string {
	u := c.config.BaseURL + "/rooms/" + id
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// fetch GETs target, retrying transport failures with a linearly growing
// delay. Rate limiting and missing listings are returned immediately.
func (c *Client) fetch(ctx context.Context, stage, target string) ([]byte, error) {
	opts := fetcher.Options{
		UserAgent: c.config.UserAgent,
		Timeout:   c.config.Timeout,
		Headers: map[string]string{
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.config.RetryDelay
			logger.Debug("retrying request", "source", name, "op", stage, "attempt", attempt, "delay", delay)
			if err := sleep(ctx, delay); err != nil {
				return nil, stay.Transport(name, stage, err)
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, stay.Transport(name, stage, err)
		}

		logger.Debug("fetching page", "source", name, "op", stage, "url", target)
		content, err := c.fetcher.Fetch(ctx, target, opts)
		if err == nil {
			return content.Body, nil
		}
		lastErr = source.StatusError(name, stage, err)
		if source.Terminal(lastErr) {
			return nil, lastErr
		}
		logger.Warn("request failed", "source", name, "op", stage, "attempt", attempt, "error", err)
	}
	return nil, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SearchURL builds the search page URL for params. Spaces in the location
// become dashes in the path; filters go in the query.
func SearchURL(base string, p stay.SearchParams) string {
	u := strings.TrimRight(base, "/") + "/s/" + url.PathEscape(strings.ReplaceAll(strings.TrimSpace(p.Location), " ", "-")) + "/homes"

	q := url.Values{}
	addStr := func(key string, v *string) {
		if v != nil {
			q.Set(key, *v)
		}
	}
	addInt := func(key string, v *int) {
		if v != nil {
			q.Set(key, strconv.Itoa(*v))
		}
	}
	addFloat := func(key string, v *float64) {
		if v != nil {
			q.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
		}
	}
	addStr("checkin", p.Checkin)
	addStr("checkout", p.Checkout)
	addInt("adults", p.Adults)
	addInt("children", p.Children)
	addInt("infants", p.Infants)
	addInt("pets", p.Pets)
	addFloat("price_min", p.MinPrice)
	addFloat("price_max", p.MaxPrice)
	addStr("property_type", p.PropertyType)
	addStr("cursor", p.Cursor)

	if len(q) == 0 {
		return u
	}
	return u + "?" + q.Encode()
}
