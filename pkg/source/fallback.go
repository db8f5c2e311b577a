package source

import (
	"context"

	"github.com/jmylchreest/staylens/internal/logger"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// Fallback tries a primary client and, when it fails with anything other
// than a validation error, asks the secondary once. Calls are sequential.
type Fallback struct {
	primary   Client
	secondary Client
}

// NewFallback returns a client preferring primary over secondary.
func NewFallback(primary, secondary Client) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

// Name implements Client.
func (f *Fallback) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

// attempt runs call against the primary and, on a retryable error, the
// secondary. The secondary result is final.
func attempt[T any](ctx context.Context, f *Fallback, op string, call func(Client) (T, error)) (T, error) {
	v, err := call(f.primary)
	if err == nil || !stay.IsRetryable(err) {
		return v, err
	}
	logger.WarnContext(ctx, "primary source failed, falling back",
		"op", op,
		"source", f.primary.Name(),
		"kind", stay.KindOf(err).String(),
		"error", err)
	return call(f.secondary)
}

// Search implements Client.
func (f *Fallback) Search(ctx context.Context, params stay.SearchParams) (*stay.SearchResult, error) {
	return attempt(ctx, f, "search", func(c Client) (*stay.SearchResult, error) {
		return c.Search(ctx, params)
	})
}

// Detail implements Client. A primary result missing key fields is
// completed from one secondary call; if that call fails the primary
// result is returned as is.
func (f *Fallback) Detail(ctx context.Context, id string) (*stay.ListingDetail, error) {
	d, err := f.primary.Detail(ctx, id)
	if err != nil {
		if !stay.IsRetryable(err) {
			return nil, err
		}
		logger.WarnContext(ctx, "primary source failed, falling back",
			"op", "detail", "source", f.primary.Name(), "kind", stay.KindOf(err).String(), "error", err)
		return f.secondary.Detail(ctx, id)
	}
	if !d.Incomplete() {
		return d, nil
	}

	extra, err := f.secondary.Detail(ctx, id)
	if err != nil {
		logger.DebugContext(ctx, "detail enrichment failed", "id", id, "source", f.secondary.Name(), "error", err)
		return d, nil
	}
	d.FillFrom(extra)
	return d, nil
}

// Calendar implements Client.
func (f *Fallback) Calendar(ctx context.Context, id string, months int) (*stay.PriceCalendar, error) {
	return attempt(ctx, f, "calendar", func(c Client) (*stay.PriceCalendar, error) {
		return c.Calendar(ctx, id, months)
	})
}

// Reviews implements Client. When the primary page has no reviews, the
// secondary page replaces it if it has reviews, or if it carries a summary
// the primary lacks.
func (f *Fallback) Reviews(ctx context.Context, id, cursor string) (*stay.ReviewsPage, error) {
	page, err := f.primary.Reviews(ctx, id, cursor)
	if err != nil {
		if !stay.IsRetryable(err) {
			return nil, err
		}
		logger.WarnContext(ctx, "primary source failed, falling back",
			"op", "reviews", "source", f.primary.Name(), "kind", stay.KindOf(err).String(), "error", err)
		return f.secondary.Reviews(ctx, id, cursor)
	}
	if len(page.Reviews) > 0 {
		return page, nil
	}

	other, err := f.secondary.Reviews(ctx, id, cursor)
	switch {
	case err != nil:
		logger.DebugContext(ctx, "reviews enrichment failed", "id", id, "source", f.secondary.Name(), "error", err)
	case len(other.Reviews) > 0:
		return other, nil
	case page.Summary == nil && other.Summary != nil:
		return other, nil
	}
	return page, nil
}

// Host implements Client.
func (f *Fallback) Host(ctx context.Context, id string) (*stay.HostProfile, error) {
	return attempt(ctx, f, "host", func(c Client) (*stay.HostProfile, error) {
		return c.Host(ctx, id)
	})
}
