package stay

import (
	"fmt"
	"math/rand"
	"testing"
)

func day(date string, available bool, price *float64) CalendarDay {
	return CalendarDay{Date: date, Available: available, Price: price}
}

// --- ComputeStats Tests ---

func TestComputeStats_Empty(t *testing.T) {
	c := PriceCalendar{ListingID: "1", AveragePrice: Ptr(9.0), OccupancyRate: Ptr(9.0)}
	c.ComputeStats()

	if c.AveragePrice != nil || c.OccupancyRate != nil || c.MinPrice != nil || c.MaxPrice != nil {
		t.Errorf("empty calendar should clear derived fields, got %+v", c)
	}
}

func TestComputeStats_Mixed(t *testing.T) {
	c := PriceCalendar{
		ListingID: "42",
		Days: []CalendarDay{
			day("2026-07-01", true, Ptr(100.0)),
			day("2026-07-02", false, Ptr(200.0)),
			day("2026-07-03", false, nil),
			day("2026-07-04", true, Ptr(150.0)),
		},
	}
	c.ComputeStats()

	if got := *c.OccupancyRate; got != 50 {
		t.Errorf("OccupancyRate = %v, want 50", got)
	}
	if got := *c.AveragePrice; got != 150 {
		t.Errorf("AveragePrice = %v, want 150", got)
	}
	if *c.MinPrice != 100 || *c.MaxPrice != 200 {
		t.Errorf("range = [%v, %v], want [100, 200]", *c.MinPrice, *c.MaxPrice)
	}
}

func TestComputeStats_NoPrices(t *testing.T) {
	c := PriceCalendar{Days: []CalendarDay{day("2026-01-01", false, nil), day("2026-01-02", true, nil)}}
	c.ComputeStats()

	if c.AveragePrice != nil || c.MinPrice != nil || c.MaxPrice != nil {
		t.Error("price aggregates should be absent without priced days")
	}
	if c.OccupancyRate == nil || *c.OccupancyRate != 50 {
		t.Errorf("OccupancyRate = %v, want 50", c.OccupancyRate)
	}
}

func TestComputeStats_OccupancyExtremes(t *testing.T) {
	tests := []struct {
		name      string
		available bool
		want      float64
	}{
		{"all available", true, 0},
		{"all unavailable", false, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c PriceCalendar
			for i := 1; i <= 30; i++ {
				c.Days = append(c.Days, day(fmt.Sprintf("2026-09-%02d", i), tt.available, Ptr(80.0)))
			}
			c.ComputeStats()
			if *c.OccupancyRate != tt.want {
				t.Errorf("OccupancyRate = %v, want %v", *c.OccupancyRate, tt.want)
			}
		})
	}
}

func TestComputeStats_Overwrites(t *testing.T) {
	c := PriceCalendar{Days: []CalendarDay{day("2026-01-01", true, Ptr(10.0))}}
	c.ComputeStats()
	c.Days = append(c.Days, day("2026-01-02", false, Ptr(30.0)))
	c.ComputeStats()

	if *c.AveragePrice != 20 || *c.OccupancyRate != 50 {
		t.Errorf("recompute = avg %v occ %v, want 20 and 50", *c.AveragePrice, *c.OccupancyRate)
	}
}

func TestComputeStats_OrderingInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for iter := 0; iter < 500; iter++ {
		var c PriceCalendar
		n := rng.Intn(60)
		for i := 0; i < n; i++ {
			var price *float64
			if rng.Intn(4) != 0 {
				price = Ptr(rng.Float64() * 1e6)
			}
			c.Days = append(c.Days, day("2026-01-01", rng.Intn(2) == 0, price))
		}
		c.ComputeStats()

		if c.AveragePrice != nil && c.MinPrice != nil && c.MaxPrice != nil {
			if !(*c.MinPrice <= *c.AveragePrice && *c.AveragePrice <= *c.MaxPrice) {
				t.Fatalf("iter %d: min %v <= avg %v <= max %v violated", iter, *c.MinPrice, *c.AveragePrice, *c.MaxPrice)
			}
		}
		if c.OccupancyRate != nil && (*c.OccupancyRate < 0 || *c.OccupancyRate > 100) {
			t.Fatalf("iter %d: occupancy %v out of range", iter, *c.OccupancyRate)
		}
		if n == 0 && c.OccupancyRate != nil {
			t.Fatalf("iter %d: empty calendar produced occupancy", iter)
		}
	}
}

func TestComputeStats_IdenticalPrices(t *testing.T) {
	c := PriceCalendar{}
	for i := 0; i < 7; i++ {
		c.Days = append(c.Days, day("2026-01-01", true, Ptr(0.1)))
	}
	c.ComputeStats()
	if *c.AveragePrice < *c.MinPrice || *c.AveragePrice > *c.MaxPrice {
		t.Errorf("average %v escaped [%v, %v]", *c.AveragePrice, *c.MinPrice, *c.MaxPrice)
	}
}
