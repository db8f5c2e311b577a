// Package output handles output formatting and writing.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/jmylchreest/staylens/pkg/analytics"
	"github.com/jmylchreest/staylens/pkg/source"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
	FormatText  Format = "text"
)

// Formats lists every supported format.
var Formats = []Format{FormatJSON, FormatJSONL, FormatYAML, FormatText}

// ParseFormat maps a flag value onto a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

// Writer handles output serialization.
type Writer interface {
	// Write outputs a single result.
	Write(data any) error

	// WriteAll outputs multiple results.
	WriteAll(data []any) error

	// Flush ensures all data is written.
	Flush() error

	// Close releases resources.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	indent string
}

// WithCompact drops indentation from JSON output.
func WithCompact() WriterOption {
	return func(c *writerConfig) {
		c.indent = ""
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{indent: "  "}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return NewJSONWriter(w, cfg.indent != "", cfg.indent), nil
	case FormatJSONL:
		return NewJSONLWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatText:
		return NewTextWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Describe names the entity in item for headers and comments, for example
// "listing 123: Harbour loft" or "search: 18 listings". Unknown types get
// an empty label.
func Describe(item any) string {
	switch v := item.(type) {
	case *stay.SearchResult:
		return fmt.Sprintf("search: %d listings", len(v.Listings))
	case *stay.ListingDetail:
		return labelled("listing "+v.ID, v.Name)
	case stay.Listing:
		return labelled("listing "+v.ID, v.Name)
	case *stay.PriceCalendar:
		return fmt.Sprintf("calendar %s: %d days", v.ListingID, len(v.Days))
	case *stay.ReviewsPage:
		return fmt.Sprintf("reviews %s: %d reviews", v.ListingID, len(v.Reviews))
	case *stay.HostProfile:
		return labelled("host", v.Name)
	case *analytics.NeighborhoodStats:
		return fmt.Sprintf("neighborhood %s: %d listings", v.Location, v.TotalListings)
	case *analytics.OccupancyEstimate:
		return fmt.Sprintf("occupancy %s: %d days", v.ListingID, v.TotalDays)
	case source.DetailResult:
		if v.Err != nil {
			return "listing " + v.ID + ": failed"
		}
		if v.Detail != nil {
			return labelled("listing "+v.ID, v.Detail.Name)
		}
		return "listing " + v.ID
	}
	return ""
}

func labelled(head, name string) string {
	if name == "" {
		return head
	}
	return head + ": " + name
}
