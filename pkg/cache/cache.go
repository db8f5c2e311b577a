// Package cache stores serialized acquisition results keyed by a request
// fingerprint. Caching is an optimization only: every backend degrades to
// a miss or a skipped write rather than returning an error.
package cache

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/staylens/pkg/stay"
)

// Cache is a TTL-aware key/value store for serialized payloads.
type Cache interface {
	// Get returns the value for key if present and unexpired.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores value under key until ttl elapses.
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (string, bool) { return "", false }

func (Nop) Set(context.Context, string, string, time.Duration) {}

// SearchKey fingerprints a search. Location and property type are trimmed
// and lower-cased; every field has a fixed slot so parameter order never
// matters.
func SearchKey(p stay.SearchParams) string {
	var b strings.Builder
	b.WriteString("search:")
	b.WriteString(strings.ToLower(strings.TrimSpace(p.Location)))
	slot(&b, "ci", str(p.Checkin))
	slot(&b, "co", str(p.Checkout))
	slot(&b, "a", num(p.Adults))
	slot(&b, "ch", num(p.Children))
	slot(&b, "inf", num(p.Infants))
	slot(&b, "p", num(p.Pets))
	slot(&b, "min", money(p.MinPrice))
	slot(&b, "max", money(p.MaxPrice))
	slot(&b, "pt", strings.ToLower(str(p.PropertyType)))
	slot(&b, "cur", str(p.Cursor))
	return b.String()
}

// DetailKey fingerprints a listing detail lookup.
func DetailKey(id string) string {
	return "detail:" + id
}

// ReviewsKey fingerprints a reviews page; the first page has no cursor.
func ReviewsKey(id, cursor string) string {
	if cursor == "" {
		cursor = "first"
	}
	return "reviews:" + id + ":" + cursor
}

// CalendarKey fingerprints a calendar lookup of the given span.
func CalendarKey(id string, months int) string {
	return "calendar:" + id + ":m=" + strconv.Itoa(months)
}

// HostKey fingerprints a host profile lookup.
func HostKey(id string) string {
	return "host:" + id
}

// PriceKey names the nightly price last seen for id in search results.
func PriceKey(id string) string {
	return "price:" + id
}

func slot(b *strings.Builder, name, value string) {
	b.WriteByte(':')
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(value)
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func num(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func money(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
