// Package graphql is the API raw source: it calls the site's persisted
// GraphQL queries with a scraped API key.
package graphql

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/staylens/internal/logger"
	"github.com/jmylchreest/staylens/pkg/cache"
	"github.com/jmylchreest/staylens/pkg/fetcher"
	gql "github.com/jmylchreest/staylens/pkg/parse/graphql"
	"github.com/jmylchreest/staylens/pkg/ratelimit"
	"github.com/jmylchreest/staylens/pkg/source"
	"github.com/jmylchreest/staylens/pkg/stay"
)

const (
	name      = "graphql"
	keyPrefix = "gql:"
)

// Credentials hands out the API key and forgets it once rejected.
type Credentials interface {
	Key(ctx context.Context) (string, error)
	Invalidate()
}

// Hashes are the persisted-query hashes per operation.
type Hashes struct {
	StaysSearch      string `mapstructure:"stays_search" yaml:"stays_search" validate:"required,hexadecimal,len=64"`
	StaysPdpSections string `mapstructure:"stays_pdp_sections" yaml:"stays_pdp_sections" validate:"required,hexadecimal,len=64"`
	Reviews          string `mapstructure:"stays_pdp_reviews" yaml:"stays_pdp_reviews" validate:"required,hexadecimal,len=64"`
	Calendar         string `mapstructure:"pdp_availability_calendar" yaml:"pdp_availability_calendar" validate:"required,hexadecimal,len=64"`
}

// DefaultHashes returns the hashes known to work at the time of writing.
func DefaultHashes() Hashes {
	return Hashes{
		StaysSearch:      "d4d9503616dc72ab220ed8dcf17f166816dccb2593e7b4625c91c3fce3a3b3d6",
		StaysPdpSections: "80c7889b4b0027d99ffea830f6c0d4911a6e863a957cbe1044823f0fc746bf1f",
		Reviews:          "dec1c8061483e78373602047450322fd474e79ba9afa8d3dbbc27f504030f91d",
		Calendar:         "8f08e03c7bd16fcad3c92a3592c19a8b559a0d0855a84028d1163d4733ed9ade",
	}
}

// Config holds the GraphQL client settings.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Hashes    Hashes
	TTLs      source.TTLs
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://www.airbnb.com",
		Timeout: 30 * time.Second,
		Hashes:  DefaultHashes(),
		TTLs:    source.DefaultTTLs(),
	}
}

// Option configures a Client.
type Option func(*Client)

// WithConfig replaces the client settings.
func WithConfig(cfg Config) Option {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithCache sets the response cache. Keys are prefixed with "gql:".
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

// Client implements source.Client over the persisted-query API.
type Client struct {
	fetcher fetcher.Fetcher
	creds   Credentials
	cache   cache.Cache
	limiter *ratelimit.Limiter
	config  Config
	now     func() time.Time
}

// New returns a client that fetches through f and authenticates with creds.
func New(f fetcher.Fetcher, creds Credentials, opts ...Option) *Client {
	c := &Client{
		fetcher: f,
		creds:   creds,
		cache:   cache.Nop{},
		config:  DefaultConfig(),
		now:     time.Now,
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
	return source.Cached(ctx, c.cache, keyPrefix+cache.SearchKey(params), c.config.TTLs.Search, func() (*stay.SearchResult, error) {
		vars, err := gql.SearchVariables(params)
		if err != nil {
			return nil, err
		}
		body, err := c.post(ctx, "search", gql.OpStaysSearch, c.config.Hashes.StaysSearch, vars)
		if err != nil {
			return nil, err
		}
		return gql.Search(body, c.config.BaseURL)
	})
}

// Detail implements source.Client.
func (c *Client) Detail(ctx context.Context, id string) (*stay.ListingDetail, error) {
	if err := source.ValidateID(id); err != nil {
		return nil, err
	}
	return source.Cached(ctx, c.cache, keyPrefix+cache.DetailKey(id), c.config.TTLs.Detail, func() (*stay.ListingDetail, error) {
		body, err := c.pdpSections(ctx, "detail", id)
		if err != nil {
			return nil, err
		}
		return gql.Detail(body, id, c.config.BaseURL)
	})
}

// Calendar implements source.Client. The span starts at the current month.
func (c *Client) Calendar(ctx context.Context, id string, months int) (*stay.PriceCalendar, error) {
	if err := source.ValidateID(id); err != nil {
		return nil, err
	}
	months = source.ClampMonths(months)
	return source.Cached(ctx, c.cache, keyPrefix+cache.CalendarKey(id, months), c.config.TTLs.Calendar, func() (*stay.PriceCalendar, error) {
		now := c.now().UTC()
		vars, err := gql.CalendarVariables(id, int(now.Month()), now.Year(), months)
		if err != nil {
			return nil, err
		}
		body, err := c.get(ctx, "calendar", gql.OpCalendar, c.config.Hashes.Calendar, vars)
		if err != nil {
			return nil, err
		}
		return gql.Calendar(body, id)
	})
}

// Reviews implements source.Client. The cursor is a review offset; any
// other cursor is reported as unusable here so that a fallback source may
// interpret it.
func (c *Client) Reviews(ctx context.Context, id, cursor string) (*stay.ReviewsPage, error) {
	if err := source.ValidateID(id); err != nil {
		return nil, err
	}
	if cursor != "" {
		if n, err := strconv.Atoi(cursor); err != nil || n < 0 {
			return nil, stay.Parse(name, "reviews.cursor", "cursor "+strconv.Quote(cursor)+" is not a review offset")
		}
	}
	return source.Cached(ctx, c.cache, keyPrefix+cache.ReviewsKey(id, cursor), c.config.TTLs.Reviews, func() (*stay.ReviewsPage, error) {
		vars, err := gql.ReviewsVariables(id, cursor)
		if err != nil {
			return nil, err
		}
		body, err := c.get(ctx, "reviews", gql.OpReviews, c.config.Hashes.Reviews, vars)
		if err != nil {
			return nil, err
		}
		return gql.Reviews(body, id)
	})
}

// Host implements source.Client through the listing's detail sections.
func (c *Client) Host(ctx context.Context, id string) (*stay.HostProfile, error) {
	if err := source.ValidateID(id); err != nil {
		return nil, err
	}
	return source.Cached(ctx, c.cache, keyPrefix+cache.HostKey(id), c.config.TTLs.Host, func() (*stay.HostProfile, error) {
		body, err := c.pdpSections(ctx, "host", id)
		if err != nil {
			return nil, err
		}
		return gql.Host(body)
	})
}

func (c *Client) pdpSections(ctx context.Context, stage, id string) ([]byte, error) {
	vars, err := gql.DetailVariables(id)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, stage, gql.OpStaysPdpSections, c.config.Hashes.StaysPdpSections, vars)
}

func (c *Client) endpoint(op, hash string) string {
	return c.config.BaseURL + "/api/v3/" + op + "/" + hash
}

func (c *Client) get(ctx context.Context, stage, op, hash, vars string) ([]byte, error) {
	ext, err := gql.Extensions(hash)
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"operationName": {op},
		"locale":        {"en"},
		"currency":      {"USD"},
		"variables":     {vars},
		"extensions":    {ext},
	}
	return c.do(ctx, stage, c.endpoint(op, hash)+"?"+q.Encode(), fetcher.Options{Method: http.MethodGet})
}

func (c *Client) post(ctx context.Context, stage, op, hash, vars string) ([]byte, error) {
	ext, err := gql.Extensions(hash)
	if err != nil {
		return nil, err
	}
	body, err := gql.Body(op, vars, ext)
	if err != nil {
		return nil, err
	}
	q := url.Values{
		"operationName": {op},
		"locale":        {"en"},
		"currency":      {"USD"},
	}
	return c.do(ctx, stage, c.endpoint(op, hash)+"?"+q.Encode(), fetcher.Options{
		Method: http.MethodPost,
		Body:   []byte(body),
	})
}

// do sends one authenticated request. A 401 or 403 drops the cached key
// so the next call derives a fresh one.
func (c *Client) do(ctx context.Context, stage, target string, opts fetcher.Options) ([]byte, error) {
	key, err := c.creds.Key(ctx)
	if err != nil {
		return nil, stay.WithSource(err, name)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, stay.Transport(name, stage, err)
	}

	opts.UserAgent = c.config.UserAgent
	opts.Timeout = c.config.Timeout
	opts.Headers = map[string]string{
		"X-Airbnb-Api-Key": key,
		"Accept":           "application/json",
		"Content-Type":     "application/json",
		"Accept-Language":  "en-US,en;q=0.9",
	}

	logger.Debug("graphql request", "source", name, "op", stage, "method", opts.Method)
	content, err := c.fetcher.Fetch(ctx, target, opts)
	if err != nil {
		switch fetcher.StatusCode(err) {
		case http.StatusUnauthorized, http.StatusForbidden:
			c.creds.Invalidate()
			return nil, stay.Credential(name, stage, fmt.Errorf("api key rejected: %w", err))
		}
		return nil, source.StatusError(name, stage, err)
	}
	logger.Debug("graphql response", "source", name, "op", stage, "bytes", len(content.Body))
	return content.Body, nil
}
