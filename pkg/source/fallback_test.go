package source

import (
	"context"
	"errors"
	"testing"

	"github.com/jmylchreest/staylens/pkg/stay"
)

func completeDetail(id string) *stay.ListingDetail {
	return &stay.ListingDetail{
		ID:            id,
		Name:          "Loft",
		Location:      "Lisbon",
		Description:   "Bright loft",
		PricePerNight: 100,
		Currency:      "EUR",
		Rating:        stay.Ptr(4.8),
		Amenities:     []string{"Wifi"},
		Photos:        []string{"https://img/1.jpg"},
		HouseRules:    []string{"No parties"},
	}
}

// --- Fallback Tests ---

func TestFallback_Name(t *testing.T) {
	f := NewFallback(&fakeClient{name: "graphql"}, &fakeClient{name: "html"})
	if got := f.Name(); got != "graphql+html" {
		t.Errorf("Name() = %q", got)
	}
}

func TestFallback_PrimarySucceeds(t *testing.T) {
	primary := &fakeClient{name: "graphql", host: func(string) (*stay.HostProfile, error) {
		return &stay.HostProfile{Name: "Ana"}, nil
	}}
	secondary := &fakeClient{name: "html"}

	h, err := NewFallback(primary, secondary).Host(context.Background(), "1")
	if err != nil || h.Name != "Ana" {
		t.Fatalf("Host() = %v, %v", h, err)
	}
	if secondary.callCount() != 0 {
		t.Errorf("secondary called %d times", secondary.callCount())
	}
}

func TestFallback_RetryableErrorsFallBack(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"transport", stay.Transport("graphql", "search", errors.New("timeout"))},
		{"credential", stay.Credential("graphql", "search", errors.New("no key"))},
		{"parse", stay.Parse("graphql", "search", "empty")},
		{"rate limited", stay.Transport("graphql", "search", stay.ErrRateLimited)},
		{"untyped", errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &fakeClient{name: "graphql", search: func(stay.SearchParams) (*stay.SearchResult, error) {
				return nil, tt.err
			}}
			secondary := &fakeClient{name: "html", search: func(stay.SearchParams) (*stay.SearchResult, error) {
				return &stay.SearchResult{Listings: []stay.Listing{{ID: "1"}}}, nil
			}}
			res, err := NewFallback(primary, secondary).Search(context.Background(), stay.SearchParams{Location: "Lisbon"})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(res.Listings) != 1 {
				t.Errorf("got %d listings from secondary", len(res.Listings))
			}
		})
	}
}

func TestFallback_ValidationNotRetried(t *testing.T) {
	verr := stay.Validationf("location is required")
	primary := &fakeClient{name: "graphql", calendar: func(string, int) (*stay.PriceCalendar, error) {
		return nil, verr
	}}
	secondary := &fakeClient{name: "html"}

	_, err := NewFallback(primary, secondary).Calendar(context.Background(), "1", 3)
	if !errors.Is(err, verr) {
		t.Fatalf("error = %v, want %v", err, verr)
	}
	if secondary.callCount() != 0 {
		t.Error("secondary should not be called for validation errors")
	}
}

func TestFallback_SecondaryErrorIsFinal(t *testing.T) {
	primary := &fakeClient{name: "graphql"}
	secondary := &fakeClient{name: "html", host: func(string) (*stay.HostProfile, error) {
		return nil, stay.Transport("html", "host", stay.ErrListingNotFound)
	}}

	_, err := NewFallback(primary, secondary).Host(context.Background(), "1")
	if !errors.Is(err, stay.ErrListingNotFound) {
		t.Fatalf("error = %v, want secondary error", err)
	}
}

func TestFallback_DetailComplete(t *testing.T) {
	primary := &fakeClient{name: "graphql", detail: func(id string) (*stay.ListingDetail, error) {
		return completeDetail(id), nil
	}}
	secondary := &fakeClient{name: "html"}

	if _, err := NewFallback(primary, secondary).Detail(context.Background(), "1"); err != nil {
		t.Fatal(err)
	}
	if secondary.callCount() != 0 {
		t.Error("complete detail should not be enriched")
	}
}

func TestFallback_DetailEnriched(t *testing.T) {
	primary := &fakeClient{name: "graphql", detail: func(id string) (*stay.ListingDetail, error) {
		d := completeDetail(id)
		d.Description = ""
		d.HouseRules = []string{}
		return d, nil
	}}
	secondary := &fakeClient{name: "html", detail: func(id string) (*stay.ListingDetail, error) {
		d := completeDetail(id)
		d.Name = "Other name"
		d.Description = "From the page"
		d.HouseRules = []string{"Quiet hours"}
		return d, nil
	}}

	d, err := NewFallback(primary, secondary).Detail(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "Loft" {
		t.Errorf("Name = %q, primary value must win", d.Name)
	}
	if d.Description != "From the page" {
		t.Errorf("Description = %q", d.Description)
	}
	if len(d.HouseRules) != 1 || d.HouseRules[0] != "Quiet hours" {
		t.Errorf("HouseRules = %v", d.HouseRules)
	}
}

func TestFallback_DetailEnrichmentFailureKeepsPrimary(t *testing.T) {
	primary := &fakeClient{name: "graphql", detail: func(id string) (*stay.ListingDetail, error) {
		return &stay.ListingDetail{ID: id, Name: "Partial", Amenities: []string{}, Photos: []string{}, HouseRules: []string{}}, nil
	}}
	secondary := &fakeClient{name: "html", detail: func(string) (*stay.ListingDetail, error) {
		return nil, stay.Transport("html", "detail", errors.New("timeout"))
	}}

	d, err := NewFallback(primary, secondary).Detail(context.Background(), "1")
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if d.Name != "Partial" {
		t.Errorf("Name = %q", d.Name)
	}
	if secondary.callCount() != 1 {
		t.Errorf("secondary called %d times, want 1", secondary.callCount())
	}
}

func TestFallback_DetailPrimaryFails(t *testing.T) {
	primary := &fakeClient{name: "graphql"}
	secondary := &fakeClient{name: "html", detail: func(id string) (*stay.ListingDetail, error) {
		return completeDetail(id), nil
	}}

	d, err := NewFallback(primary, secondary).Detail(context.Background(), "7")
	if err != nil || d.ID != "7" {
		t.Fatalf("Detail() = %v, %v", d, err)
	}
}

func TestFallback_Reviews(t *testing.T) {
	summary := &stay.ReviewsSummary{OverallRating: 4.9, TotalReviews: 10}
	withReviews := &stay.ReviewsPage{ListingID: "1", Reviews: []stay.Review{{Author: "Bo"}}}
	emptyWithSummary := &stay.ReviewsPage{ListingID: "1", Summary: summary, Reviews: []stay.Review{}}
	empty := &stay.ReviewsPage{ListingID: "1", Reviews: []stay.Review{}}

	tests := []struct {
		name      string
		primary   *stay.ReviewsPage
		secondary *stay.ReviewsPage
		secErr    error
		want      *stay.ReviewsPage
		secCalls  int
	}{
		{"primary has reviews", withReviews, nil, nil, withReviews, 0},
		{"secondary has reviews", emptyWithSummary, withReviews, nil, withReviews, 1},
		{"secondary adds summary", empty, emptyWithSummary, nil, emptyWithSummary, 1},
		{"both summaries keeps primary", emptyWithSummary, &stay.ReviewsPage{Summary: summary, Reviews: []stay.Review{}}, nil, emptyWithSummary, 1},
		{"secondary fails keeps primary", empty, nil, stay.Parse("html", "reviews", "none"), empty, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			primary := &fakeClient{name: "graphql", reviews: func(string, string) (*stay.ReviewsPage, error) {
				return tt.primary, nil
			}}
			secondary := &fakeClient{name: "html", reviews: func(string, string) (*stay.ReviewsPage, error) {
				return tt.secondary, tt.secErr
			}}
			got, err := NewFallback(primary, secondary).Reviews(context.Background(), "1", "")
			if err != nil {
				t.Fatalf("Reviews() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Reviews() returned the wrong page: %+v", got)
			}
			if secondary.callCount() != tt.secCalls {
				t.Errorf("secondary calls = %d, want %d", secondary.callCount(), tt.secCalls)
			}
		})
	}
}

func TestFallback_ReviewsPrimaryError(t *testing.T) {
	primary := &fakeClient{name: "graphql", reviews: func(_, cursor string) (*stay.ReviewsPage, error) {
		return nil, stay.Parse("graphql", "reviews.cursor", "cursor "+cursor+" is not a review offset")
	}}
	var gotCursor string
	secondary := &fakeClient{name: "html", reviews: func(_, cursor string) (*stay.ReviewsPage, error) {
		gotCursor = cursor
		return &stay.ReviewsPage{Reviews: []stay.Review{}}, nil
	}}

	if _, err := NewFallback(primary, secondary).Reviews(context.Background(), "1", "abc"); err != nil {
		t.Fatal(err)
	}
	if gotCursor != "abc" {
		t.Errorf("secondary cursor = %q", gotCursor)
	}
}
