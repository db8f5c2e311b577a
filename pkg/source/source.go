// Package source defines the raw-source client contract, the fallback
// orchestrator that combines two sources, and the insight helpers built on
// top of any client.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmylchreest/staylens/internal/logger"
	"github.com/jmylchreest/staylens/pkg/cache"
	"github.com/jmylchreest/staylens/pkg/fetcher"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// Client fetches normalized listing data from one upstream source.
type Client interface {
	Search(ctx context.Context, params stay.SearchParams) (*stay.SearchResult, error)
	Detail(ctx context.Context, id string) (*stay.ListingDetail, error)
	Calendar(ctx context.Context, id string, months int) (*stay.PriceCalendar, error)
	Reviews(ctx context.Context, id, cursor string) (*stay.ReviewsPage, error)
	Host(ctx context.Context, id string) (*stay.HostProfile, error)
	Name() string
}

// DefaultMonths is the calendar span used when none is requested.
const DefaultMonths = 3

// ClampMonths maps a requested calendar span onto 1..12; zero or less
// means DefaultMonths.
func ClampMonths(months int) int {
	switch {
	case months <= 0:
		return DefaultMonths
	case months > 12:
		return 12
	default:
		return months
	}
}

// TTLs are the cache lifetimes per operation.
type TTLs struct {
	Search   time.Duration `mapstructure:"search_ttl" yaml:"search_ttl" validate:"gte=0"`
	Detail   time.Duration `mapstructure:"detail_ttl" yaml:"detail_ttl" validate:"gte=0"`
	Reviews  time.Duration `mapstructure:"reviews_ttl" yaml:"reviews_ttl" validate:"gte=0"`
	Calendar time.Duration `mapstructure:"calendar_ttl" yaml:"calendar_ttl" validate:"gte=0"`
	Host     time.Duration `mapstructure:"host_ttl" yaml:"host_ttl" validate:"gte=0"`
}

// DefaultTTLs returns the stock cache lifetimes.
func DefaultTTLs() TTLs {
	return TTLs{
		Search:   15 * time.Minute,
		Detail:   time.Hour,
		Reviews:  time.Hour,
		Calendar: 30 * time.Minute,
		Host:     time.Hour,
	}
}

// ValidateID rejects listing ids that are blank or would escape the URL
// path they are placed in.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return stay.Validationf("listing id is required")
	}
	if strings.ContainsAny(id, "/?#% \t\r\n") {
		return stay.Validationf("listing id %q contains invalid characters", id)
	}
	return nil
}

// Cached serves key from c when it holds a decodable value, and otherwise
// runs load and stores its result for ttl. A value that no longer decodes
// is treated as a miss.
func Cached[T any](ctx context.Context, c cache.Cache, key string, ttl time.Duration, load func() (*T, error)) (*T, error) {
	if raw, ok := c.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			logger.Debug("cache hit", "key", key)
			return &v, nil
		}
		logger.Debug("discarding undecodable cache entry", "key", key)
	}

	v, err := load()
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(v); err == nil {
		c.Set(ctx, key, string(raw), ttl)
	} else {
		logger.Debug("cache encode failed", "key", key, "error", err)
	}
	return v, nil
}

// StatusError translates a fetch failure into the typed error for source.
// 429 and 404 map onto their sentinels; every other failure is transport.
func StatusError(source, stage string, err error) error {
	switch fetcher.StatusCode(err) {
	case http.StatusTooManyRequests:
		return stay.Transport(source, stage, fmt.Errorf("%w: %w", stay.ErrRateLimited, err))
	case http.StatusNotFound:
		return stay.Transport(source, stage, fmt.Errorf("%w: %w", stay.ErrListingNotFound, err))
	default:
		return stay.Transport(source, stage, err)
	}
}

// Terminal reports whether err should end a retry loop: anything that is
// not a transport failure, plus rate limiting and missing listings.
func Terminal(err error) bool {
	return stay.KindOf(err) != stay.KindTransport ||
		errors.Is(err, stay.ErrRateLimited) ||
		errors.Is(err, stay.ErrListingNotFound) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
