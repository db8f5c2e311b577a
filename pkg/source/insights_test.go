package source

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmylchreest/staylens/pkg/stay"
)

// --- Insight Tests ---

func TestNeighborhoodStats(t *testing.T) {
	c := &fakeClient{name: "html", search: func(p stay.SearchParams) (*stay.SearchResult, error) {
		return &stay.SearchResult{Listings: []stay.Listing{
			{ID: "1", PricePerNight: 100, IsSuperhost: stay.Ptr(true)},
			{ID: "2", PricePerNight: 200, IsSuperhost: stay.Ptr(false)},
		}}, nil
	}}

	stats, err := NeighborhoodStats(context.Background(), c, stay.SearchParams{Location: "Lisbon"})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Location != "Lisbon" || stats.TotalListings != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.AveragePrice == nil || *stats.AveragePrice != 150 {
		t.Errorf("AveragePrice = %v, want 150", stats.AveragePrice)
	}
}

func TestNeighborhoodStats_Error(t *testing.T) {
	c := &fakeClient{name: "html"}
	if _, err := NeighborhoodStats(context.Background(), c, stay.SearchParams{Location: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestOccupancyEstimate(t *testing.T) {
	var gotMonths int
	c := &fakeClient{name: "html", calendar: func(id string, months int) (*stay.PriceCalendar, error) {
		gotMonths = months
		return &stay.PriceCalendar{ListingID: id, Days: []stay.CalendarDay{
			{Date: "2030-06-07", Available: true, Price: stay.Ptr(100.0)},
			{Date: "2030-06-08", Available: false},
			{Date: "2030-06-09", Available: true, Price: stay.Ptr(80.0)},
			{Date: "2030-06-10", Available: false},
		}}, nil
	}}

	est, err := OccupancyEstimate(context.Background(), c, "9", 2)
	if err != nil {
		t.Fatal(err)
	}
	if gotMonths != 2 {
		t.Errorf("months = %d", gotMonths)
	}
	if est.ListingID != "9" || est.TotalDays != 4 || est.OccupiedDays != 2 {
		t.Errorf("estimate = %+v", est)
	}
	if est.OccupancyRate != 50 {
		t.Errorf("OccupancyRate = %v, want 50", est.OccupancyRate)
	}
}

func TestDetailMany_KeepsOrderAndErrors(t *testing.T) {
	c := &fakeClient{name: "html", detail: func(id string) (*stay.ListingDetail, error) {
		if id == "bad" {
			return nil, stay.Transport("html", "detail", stay.ErrListingNotFound)
		}
		// Later ids finish first.
		if id == "1" {
			time.Sleep(20 * time.Millisecond)
		}
		return &stay.ListingDetail{ID: id}, nil
	}}

	ids := []string{"1", "bad", "3", "4"}
	results := DetailMany(context.Background(), c, ids, 4)
	if len(results) != len(ids) {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r.ID != ids[i] {
			t.Errorf("results[%d].ID = %q, want %q", i, r.ID, ids[i])
		}
		switch r.ID {
		case "bad":
			if r.Err == nil || r.Detail != nil {
				t.Errorf("bad id result = %+v", r)
			}
		default:
			if r.Err != nil || r.Detail == nil || r.Detail.ID != r.ID {
				t.Errorf("result %d = %+v", i, r)
			}
		}
	}
}

func TestDetailMany_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	c := &fakeClient{name: "html", detail: func(id string) (*stay.ListingDetail, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return &stay.ListingDetail{ID: id}, nil
	}}

	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprint(i)
	}
	DetailMany(context.Background(), c, ids, 2)
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestDetailMany_Empty(t *testing.T) {
	if got := DetailMany(context.Background(), &fakeClient{}, nil, 0); len(got) != 0 {
		t.Errorf("got %d results", len(got))
	}
}

func TestDetailResult_JSON(t *testing.T) {
	ok, _ := json.Marshal(DetailResult{ID: "1", Detail: &stay.ListingDetail{ID: "1"}})
	if strings.Contains(string(ok), "error") || !strings.Contains(string(ok), `"detail":{`) {
		t.Errorf("ok result = %s", ok)
	}
	failed, _ := json.Marshal(DetailResult{ID: "2", Err: stay.Transport("html", "detail", stay.ErrListingNotFound)})
	if !strings.Contains(string(failed), `"error":"html: detail: listing not found"`) || !strings.Contains(string(failed), `"kind":"transport"`) {
		t.Errorf("failed result = %s", failed)
	}
}
