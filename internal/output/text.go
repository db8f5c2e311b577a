package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/staylens/pkg/analytics"
	"github.com/jmylchreest/staylens/pkg/source"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// TextWriter renders results as short human-readable summaries. Types it
// does not know are written as indented JSON.
type TextWriter struct {
	w   *bufio.Writer
	now func() time.Time
	n   int
}

// NewTextWriter creates a text writer.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: bufio.NewWriter(w), now: time.Now}
}

// Write renders a single item, separated from the previous one by a blank
// line.
func (w *TextWriter) Write(data any) error {
	if w.n > 0 {
		w.line("")
	}
	w.n++

	switch v := data.(type) {
	case *stay.SearchResult:
		w.search(v)
	case *stay.ListingDetail:
		w.detail(v)
	case *stay.PriceCalendar:
		w.calendar(v)
	case *stay.ReviewsPage:
		w.reviews(v)
	case *stay.HostProfile:
		w.host(v)
	case *analytics.NeighborhoodStats:
		w.neighborhood(v)
	case *analytics.OccupancyEstimate:
		w.occupancy(v)
	case source.DetailResult:
		if v.Err != nil {
			w.line("%s: error: %v", v.ID, v.Err)
			break
		}
		w.detail(v.Detail)
	default:
		if err := newEncoder(w.w, "  ").Encode(data); err != nil {
			return err
		}
	}
	return w.w.Flush()
}

// WriteAll renders multiple items.
func (w *TextWriter) WriteAll(data []any) error {
	for _, item := range data {
		if err := w.Write(item); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *TextWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *TextWriter) Close() error {
	return w.Flush()
}

func (w *TextWriter) line(format string, args ...any) {
	fmt.Fprintf(w.w, format+"\n", args...)
}

func (w *TextWriter) search(r *stay.SearchResult) {
	total := len(r.Listings)
	if r.TotalCount != nil {
		total = *r.TotalCount
	}
	w.line("%s of %s listings", humanize.Comma(int64(len(r.Listings))), humanize.Comma(int64(total)))
	for _, l := range r.Listings {
		w.line("  %-12s %s  %s  %s", l.ID, price(l.PricePerNight, l.Currency), rating(l.Rating, l.ReviewCount), l.Name)
	}
	if r.NextCursor != nil {
		w.line("next cursor: %s", *r.NextCursor)
	}
}

func (w *TextWriter) detail(d *stay.ListingDetail) {
	if d == nil {
		return
	}
	w.line("%s (%s)", orDash(d.Name), d.ID)
	w.line("  location:  %s", orDash(d.Location))
	w.line("  price:     %s / night", price(d.PricePerNight, d.Currency))
	w.line("  rating:    %s", rating(d.Rating, d.ReviewCount))
	if d.HostName != nil {
		w.line("  host:      %s", *d.HostName)
	}
	var rooms []string
	if d.MaxGuests != nil {
		rooms = append(rooms, humanize.Comma(int64(*d.MaxGuests))+" guests")
	}
	if d.Bedrooms != nil {
		rooms = append(rooms, humanize.Comma(int64(*d.Bedrooms))+" bedrooms")
	}
	if d.Beds != nil {
		rooms = append(rooms, humanize.Comma(int64(*d.Beds))+" beds")
	}
	if d.Bathrooms != nil {
		rooms = append(rooms, humanize.Ftoa(*d.Bathrooms)+" baths")
	}
	if len(rooms) > 0 {
		w.line("  rooms:     %s", strings.Join(rooms, ", "))
	}
	w.line("  amenities: %s, photos: %s", humanize.Comma(int64(len(d.Amenities))), humanize.Comma(int64(len(d.Photos))))
	w.line("  url:       %s", d.URL)
}

func (w *TextWriter) calendar(c *stay.PriceCalendar) {
	w.line("calendar for %s: %s days", c.ListingID, humanize.Comma(int64(len(c.Days))))
	if c.OccupancyRate != nil {
		w.line("  occupancy: %s%%", humanize.FtoaWithDigits(*c.OccupancyRate, 1))
	}
	if c.AveragePrice != nil && c.MinPrice != nil && c.MaxPrice != nil {
		w.line("  price:     avg %s, min %s, max %s",
			price(*c.AveragePrice, c.Currency), price(*c.MinPrice, c.Currency), price(*c.MaxPrice, c.Currency))
	}
}

func (w *TextWriter) reviews(p *stay.ReviewsPage) {
	if s := p.Summary; s != nil {
		w.line("%s overall from %s reviews", humanize.FtoaWithDigits(s.OverallRating, 2), humanize.Comma(int64(s.TotalReviews)))
	}
	for _, r := range p.Reviews {
		w.line("  %s, %s: %s", orDash(r.Author), w.when(r.Date), truncate(r.Comment, 120))
	}
	if p.NextCursor != nil {
		w.line("next cursor: %s", *p.NextCursor)
	}
}

func (w *TextWriter) host(h *stay.HostProfile) {
	w.line("%s", h.Name)
	if h.IsSuperhost != nil && *h.IsSuperhost {
		w.line("  superhost")
	}
	if h.ResponseRate != nil {
		w.line("  response rate: %s", *h.ResponseRate)
	}
	if h.MemberSince != nil {
		w.line("  member since:  %s", *h.MemberSince)
	}
	if h.TotalListings != nil {
		w.line("  listings:      %s", humanize.Comma(int64(*h.TotalListings)))
	}
	if len(h.Languages) > 0 {
		w.line("  languages:     %s", strings.Join(h.Languages, ", "))
	}
}

func (w *TextWriter) neighborhood(s *analytics.NeighborhoodStats) {
	w.line("%s: %s listings", s.Location, humanize.Comma(int64(s.TotalListings)))
	if s.AveragePrice != nil && s.MedianPrice != nil {
		w.line("  price:     avg %s, median %s", humanize.CommafWithDigits(*s.AveragePrice, 2), humanize.CommafWithDigits(*s.MedianPrice, 2))
	}
	if s.PriceRange != nil {
		w.line("  range:     %s to %s", humanize.CommafWithDigits(s.PriceRange.Min, 2), humanize.CommafWithDigits(s.PriceRange.Max, 2))
	}
	if s.AverageRating != nil {
		w.line("  rating:    %s", humanize.FtoaWithDigits(*s.AverageRating, 2))
	}
	if s.SuperhostPercentage != nil {
		w.line("  superhost: %s%%", humanize.FtoaWithDigits(*s.SuperhostPercentage, 1))
	}
	for _, b := range s.PropertyTypeDistribution {
		w.line("  %-24s %s (%s%%)", b.PropertyType, humanize.Comma(int64(b.Count)), humanize.FtoaWithDigits(b.Percentage, 1))
	}
}

func (w *TextWriter) occupancy(e *analytics.OccupancyEstimate) {
	w.line("occupancy for %s: %s%% of %s days", e.ListingID, humanize.FtoaWithDigits(e.OccupancyRate, 1), humanize.Comma(int64(e.TotalDays)))
	if e.PeriodStart != "" {
		w.line("  period:  %s to %s", e.PeriodStart, e.PeriodEnd)
	}
	if e.WeekendAvgPrice != nil {
		w.line("  weekend: %s", humanize.CommafWithDigits(*e.WeekendAvgPrice, 2))
	}
	if e.WeekdayAvgPrice != nil {
		w.line("  weekday: %s", humanize.CommafWithDigits(*e.WeekdayAvgPrice, 2))
	}
	for _, m := range e.MonthlyBreakdown {
		w.line("  %s  %s%% (%d/%d)", m.Month, humanize.FtoaWithDigits(m.OccupancyRate, 1), m.OccupiedDays, m.TotalDays)
	}
}

// when renders an ISO date relative to now and leaves anything else as is.
func (w *TextWriter) when(date string) string {
	t, err := time.Parse(stay.DateLayout, date)
	if err != nil {
		return orDash(date)
	}
	return humanize.RelTime(t, w.now(), "ago", "from now")
}

func price(amount float64, currency string) string {
	if amount <= 0 {
		return "-"
	}
	return strings.TrimSpace(currency + " " + humanize.CommafWithDigits(amount, 2))
}

func rating(r *float64, count int) string {
	if r == nil {
		return "unrated"
	}
	return fmt.Sprintf("%s (%s)", humanize.FtoaWithDigits(*r, 2), humanize.Comma(int64(count)))
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
