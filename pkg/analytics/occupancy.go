package analytics

import (
	"slices"
	"strings"
	"time"

	"github.com/jmylchreest/staylens/pkg/stay"
)

// MonthlyOccupancy is the occupancy of one calendar month.
type MonthlyOccupancy struct {
	Month         string   `json:"month" yaml:"month"`
	TotalDays     int      `json:"total_days" yaml:"total_days"`
	OccupiedDays  int      `json:"occupied_days" yaml:"occupied_days"`
	AvailableDays int      `json:"available_days" yaml:"available_days"`
	OccupancyRate float64  `json:"occupancy_rate" yaml:"occupancy_rate"`
	AveragePrice  *float64 `json:"average_price,omitempty" yaml:"average_price,omitempty"`
}

// OccupancyEstimate summarizes how booked a listing's calendar is.
type OccupancyEstimate struct {
	ListingID             string             `json:"listing_id" yaml:"listing_id"`
	PeriodStart           string             `json:"period_start" yaml:"period_start"`
	PeriodEnd             string             `json:"period_end" yaml:"period_end"`
	TotalDays             int                `json:"total_days" yaml:"total_days"`
	OccupiedDays          int                `json:"occupied_days" yaml:"occupied_days"`
	AvailableDays         int                `json:"available_days" yaml:"available_days"`
	OccupancyRate         float64            `json:"occupancy_rate" yaml:"occupancy_rate"`
	AverageAvailablePrice *float64           `json:"average_available_price,omitempty" yaml:"average_available_price,omitempty"`
	WeekendAvgPrice       *float64           `json:"weekend_avg_price,omitempty" yaml:"weekend_avg_price,omitempty"`
	WeekdayAvgPrice       *float64           `json:"weekday_avg_price,omitempty" yaml:"weekday_avg_price,omitempty"`
	MonthlyBreakdown      []MonthlyOccupancy `json:"monthly_breakdown" yaml:"monthly_breakdown"`
}

const unknownMonth = "unknown"

// Occupancy estimates occupancy for listingID from its calendar. Price
// averages cover available days that carry a price; Friday and Saturday
// nights count as weekend.
func Occupancy(listingID string, cal *stay.PriceCalendar) OccupancyEstimate {
	est := OccupancyEstimate{ListingID: listingID, MonthlyBreakdown: []MonthlyOccupancy{}}
	if cal == nil || len(cal.Days) == 0 {
		return est
	}
	days := cal.Days

	est.TotalDays = len(days)
	est.PeriodStart = days[0].Date
	est.PeriodEnd = days[len(days)-1].Date

	var available, weekend, weekday []float64
	type bucket struct {
		total, occupied int
		prices          []float64
	}
	months := make(map[string]*bucket)

	for _, d := range days {
		key := unknownMonth
		if len(d.Date) >= 7 && strings.Count(d.Date[:7], "-") == 1 {
			key = d.Date[:7]
		}
		b := months[key]
		if b == nil {
			b = &bucket{}
			months[key] = b
		}
		b.total++

		if !d.Available {
			est.OccupiedDays++
			b.occupied++
			continue
		}
		est.AvailableDays++
		if d.Price == nil {
			continue
		}
		p := *d.Price
		available = append(available, p)
		b.prices = append(b.prices, p)
		if t, err := time.Parse(stay.DateLayout, d.Date); err == nil {
			if wd := t.Weekday(); wd == time.Friday || wd == time.Saturday {
				weekend = append(weekend, p)
			} else {
				weekday = append(weekday, p)
			}
		}
	}

	est.OccupancyRate = percent(est.OccupiedDays, est.TotalDays)
	est.AverageAvailablePrice = meanOf(available)
	est.WeekendAvgPrice = meanOf(weekend)
	est.WeekdayAvgPrice = meanOf(weekday)

	for month, b := range months {
		est.MonthlyBreakdown = append(est.MonthlyBreakdown, MonthlyOccupancy{
			Month:         month,
			TotalDays:     b.total,
			OccupiedDays:  b.occupied,
			AvailableDays: b.total - b.occupied,
			OccupancyRate: percent(b.occupied, b.total),
			AveragePrice:  meanOf(b.prices),
		})
	}
	slices.SortFunc(est.MonthlyBreakdown, func(a, b MonthlyOccupancy) int {
		return strings.Compare(a.Month, b.Month)
	})
	return est
}

func meanOf(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return clampedMean(sorted)
}
