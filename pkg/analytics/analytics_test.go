package analytics

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/jmylchreest/staylens/pkg/stay"
)

func listing(id string, price float64, pt *string, superhost *bool, rating *float64) stay.Listing {
	return stay.Listing{
		ID:            id,
		PricePerNight: price,
		PropertyType:  pt,
		IsSuperhost:   superhost,
		Rating:        rating,
	}
}

// --- Neighborhood Tests ---

func TestNeighborhood_Empty(t *testing.T) {
	stats := Neighborhood("Nowhere", nil)

	if stats.TotalListings != 0 {
		t.Errorf("TotalListings = %d, want 0", stats.TotalListings)
	}
	if stats.AveragePrice != nil || stats.MedianPrice != nil || stats.PriceRange != nil {
		t.Error("price aggregates should be absent for empty input")
	}
	if stats.SuperhostPercentage != nil {
		t.Error("superhost percentage should be absent for empty input")
	}
	if stats.PropertyTypeDistribution == nil || len(stats.PropertyTypeDistribution) != 0 {
		t.Errorf("distribution = %v, want empty non-nil slice", stats.PropertyTypeDistribution)
	}
}

func TestNeighborhood_Aggregates(t *testing.T) {
	listings := []stay.Listing{
		listing("1", 100, stay.Ptr("Entire home"), stay.Ptr(true), stay.Ptr(4.8)),
		listing("2", 200, stay.Ptr("Entire home"), stay.Ptr(false), stay.Ptr(4.6)),
		listing("3", 0, stay.Ptr("Private room"), nil, nil),
		listing("4", 50, nil, stay.Ptr(true), stay.Ptr(4.4)),
		listing("5", 400, stay.Ptr("  "), nil, stay.Ptr(12.0)),
	}

	stats := Neighborhood("Paris", listings)

	if stats.TotalListings != 5 {
		t.Errorf("TotalListings = %d, want 5", stats.TotalListings)
	}
	if got := *stats.AveragePrice; got != 187.5 {
		t.Errorf("AveragePrice = %v, want 187.5 (zero price excluded)", got)
	}
	if got := *stats.MedianPrice; got != 150 {
		t.Errorf("MedianPrice = %v, want 150", got)
	}
	if stats.PriceRange.Min != 50 || stats.PriceRange.Max != 400 {
		t.Errorf("PriceRange = %+v, want {50 400}", *stats.PriceRange)
	}
	if got := *stats.AverageRating; fmt.Sprintf("%.2f", got) != "4.60" {
		t.Errorf("AverageRating = %v, want 4.6 (out-of-range rating dropped)", got)
	}
	if got := *stats.SuperhostPercentage; got != 40 {
		t.Errorf("SuperhostPercentage = %v, want 40", got)
	}

	want := []PropertyTypeCount{
		{"Entire home", 2, 40},
		{UnknownPropertyType, 2, 40},
		{"Private room", 1, 20},
	}
	if len(stats.PropertyTypeDistribution) != len(want) {
		t.Fatalf("distribution = %+v, want %+v", stats.PropertyTypeDistribution, want)
	}
	for i, w := range want {
		if stats.PropertyTypeDistribution[i] != w {
			t.Errorf("distribution[%d] = %+v, want %+v", i, stats.PropertyTypeDistribution[i], w)
		}
	}
}

func TestNeighborhood_AllPricesMissing(t *testing.T) {
	stats := Neighborhood("X", []stay.Listing{listing("1", 0, nil, nil, nil), listing("2", 0, nil, nil, nil)})
	if stats.AveragePrice != nil || stats.PriceRange != nil {
		t.Error("price aggregates should be absent when no listing has a price")
	}
	if stats.TotalListings != 2 {
		t.Errorf("TotalListings = %d, want 2", stats.TotalListings)
	}
}

func TestNeighborhood_Invariants(t *testing.T) {
	types := []*string{nil, stay.Ptr("Entire home"), stay.Ptr("Hotel"), stay.Ptr("")}
	rng := rand.New(rand.NewSource(11))

	for iter := 0; iter < 300; iter++ {
		n := rng.Intn(40)
		var listings []stay.Listing
		for i := 0; i < n; i++ {
			var sh *bool
			if rng.Intn(3) > 0 {
				sh = stay.Ptr(rng.Intn(2) == 0)
			}
			listings = append(listings, listing(fmt.Sprint(i), float64(rng.Intn(3))*rng.Float64()*500, types[rng.Intn(len(types))], sh, nil))
		}

		stats := Neighborhood("L", listings)
		if stats.TotalListings != len(listings) {
			t.Fatalf("iter %d: TotalListings = %d, want %d", iter, stats.TotalListings, len(listings))
		}
		sum := 0
		for _, b := range stats.PropertyTypeDistribution {
			sum += b.Count
		}
		if sum != len(listings) {
			t.Fatalf("iter %d: bucket sum = %d, want %d", iter, sum, len(listings))
		}
		if p := stats.SuperhostPercentage; p != nil && (*p < 0 || *p > 100) {
			t.Fatalf("iter %d: superhost percentage %v out of range", iter, *p)
		}
		if stats.AveragePrice != nil && (*stats.AveragePrice < stats.PriceRange.Min || *stats.AveragePrice > stats.PriceRange.Max) {
			t.Fatalf("iter %d: average %v outside range %+v", iter, *stats.AveragePrice, *stats.PriceRange)
		}
	}
}

// --- Occupancy Tests ---

func TestOccupancy_EmptyCalendar(t *testing.T) {
	for _, cal := range []*stay.PriceCalendar{nil, {ListingID: "1"}} {
		est := Occupancy("1", cal)
		if est.TotalDays != 0 || est.OccupiedDays != 0 || est.AvailableDays != 0 {
			t.Errorf("counts = %d/%d/%d, want zeros", est.TotalDays, est.OccupiedDays, est.AvailableDays)
		}
		if est.OccupancyRate != 0 {
			t.Errorf("OccupancyRate = %v, want 0", est.OccupancyRate)
		}
	}
}

func TestOccupancy_Breakdown(t *testing.T) {
	cal := &stay.PriceCalendar{
		ListingID: "9",
		Days: []stay.CalendarDay{
			{Date: "2026-01-30", Available: true, Price: stay.Ptr(300.0)}, // Friday
			{Date: "2026-01-31", Available: false, Price: stay.Ptr(310.0)},
			{Date: "2026-02-02", Available: true, Price: stay.Ptr(100.0)}, // Monday
			{Date: "2026-02-03", Available: true},
			{Date: "bad", Available: true, Price: stay.Ptr(50.0)},
		},
	}

	est := Occupancy("9", cal)

	if est.TotalDays != 5 || est.OccupiedDays != 1 || est.AvailableDays != 4 {
		t.Fatalf("counts = %d/%d/%d, want 5/1/4", est.TotalDays, est.OccupiedDays, est.AvailableDays)
	}
	if est.OccupancyRate != 20 {
		t.Errorf("OccupancyRate = %v, want 20", est.OccupancyRate)
	}
	if est.PeriodStart != "2026-01-30" || est.PeriodEnd != "bad" {
		t.Errorf("period = %s..%s", est.PeriodStart, est.PeriodEnd)
	}
	if *est.AverageAvailablePrice != 150 {
		t.Errorf("AverageAvailablePrice = %v, want 150", *est.AverageAvailablePrice)
	}
	if *est.WeekendAvgPrice != 300 || *est.WeekdayAvgPrice != 100 {
		t.Errorf("weekend/weekday = %v/%v, want 300/100", *est.WeekendAvgPrice, *est.WeekdayAvgPrice)
	}

	months := []string{"2026-01", "2026-02", "unknown"}
	if len(est.MonthlyBreakdown) != len(months) {
		t.Fatalf("breakdown = %+v", est.MonthlyBreakdown)
	}
	for i, m := range months {
		if est.MonthlyBreakdown[i].Month != m {
			t.Errorf("breakdown[%d].Month = %s, want %s", i, est.MonthlyBreakdown[i].Month, m)
		}
	}
	jan := est.MonthlyBreakdown[0]
	if jan.OccupancyRate != 50 || *jan.AveragePrice != 300 {
		t.Errorf("january = %+v", jan)
	}
}

func TestOccupancy_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for iter := 0; iter < 300; iter++ {
		cal := &stay.PriceCalendar{}
		for i := 0; i < rng.Intn(90); i++ {
			cal.Days = append(cal.Days, stay.CalendarDay{
				Date:      fmt.Sprintf("2026-%02d-%02d", rng.Intn(12)+1, rng.Intn(28)+1),
				Available: rng.Intn(2) == 0,
			})
		}

		est := Occupancy("x", cal)
		if est.OccupiedDays+est.AvailableDays != est.TotalDays || est.TotalDays != len(cal.Days) {
			t.Fatalf("iter %d: %d + %d != %d (len %d)", iter, est.OccupiedDays, est.AvailableDays, est.TotalDays, len(cal.Days))
		}
		if est.OccupancyRate < 0 || est.OccupancyRate > 100 {
			t.Fatalf("iter %d: rate %v out of range", iter, est.OccupancyRate)
		}
	}
}
