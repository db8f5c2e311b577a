package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmylchreest/staylens/pkg/cache"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// --- PriceMemo Tests ---

func priceSource(detailPrice float64) *fakeClient {
	return &fakeClient{
		name: "html",
		search: func(stay.SearchParams) (*stay.SearchResult, error) {
			return &stay.SearchResult{Listings: []stay.Listing{
				{ID: "1", PricePerNight: 120, Currency: "EUR"},
				{ID: "2", PricePerNight: 0, Currency: "EUR"},
			}}, nil
		},
		detail: func(id string) (*stay.ListingDetail, error) {
			return &stay.ListingDetail{ID: id, Name: "Loft", PricePerNight: detailPrice, Currency: "USD"}, nil
		},
	}
}

func TestPriceMemo_DetailUsesSearchPrice(t *testing.T) {
	ctx := context.Background()
	m := NewPriceMemo(priceSource(0), cache.NewMemory(10), time.Hour)

	if _, err := m.Search(ctx, stay.SearchParams{Location: "Porto"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	d, err := m.Detail(ctx, "1")
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if d.PricePerNight != 120 || d.Currency != "EUR" {
		t.Errorf("Detail() price = %v %s, want 120 EUR", d.PricePerNight, d.Currency)
	}
}

func TestPriceMemo_DetailPriceWins(t *testing.T) {
	ctx := context.Background()
	m := NewPriceMemo(priceSource(95), cache.NewMemory(10), time.Hour)

	if _, err := m.Search(ctx, stay.SearchParams{Location: "Porto"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	d, err := m.Detail(ctx, "1")
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if d.PricePerNight != 95 || d.Currency != "USD" {
		t.Errorf("Detail() price = %v %s, want the detail's own 95 USD", d.PricePerNight, d.Currency)
	}
}

func TestPriceMemo_UnknownOrUnpricedListing(t *testing.T) {
	ctx := context.Background()
	prices := cache.NewMemory(10)
	m := NewPriceMemo(priceSource(0), prices, time.Hour)

	if _, err := m.Search(ctx, stay.SearchParams{Location: "Porto"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if prices.Len() != 1 {
		t.Errorf("stored prices = %d, want 1 (zero prices are skipped)", prices.Len())
	}

	for _, id := range []string{"2", "3"} {
		d, err := m.Detail(ctx, id)
		if err != nil {
			t.Fatalf("Detail(%s) error = %v", id, err)
		}
		if d.PricePerNight != 0 {
			t.Errorf("Detail(%s) price = %v, want 0", id, d.PricePerNight)
		}
	}
}

func TestPriceMemo_DetailErrorPassesThrough(t *testing.T) {
	want := stay.Transport("html", "detail", errors.New("reset"))
	c := &fakeClient{name: "html", detail: func(string) (*stay.ListingDetail, error) { return nil, want }}
	m := NewPriceMemo(c, cache.NewMemory(10), 0)

	if _, err := m.Detail(context.Background(), "1"); !errors.Is(err, want) {
		t.Errorf("Detail() error = %v, want %v", err, want)
	}
	if m.ttl != DefaultPriceTTL {
		t.Errorf("ttl = %v, want DefaultPriceTTL", m.ttl)
	}
	if m.Name() != "html" {
		t.Errorf("Name() = %q, want the wrapped client's name", m.Name())
	}
}
