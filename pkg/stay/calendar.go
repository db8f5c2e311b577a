package stay

// UnavailabilityReason explains why a calendar day cannot be booked.
type UnavailabilityReason string

const (
	ReasonUnknown             UnavailabilityReason = "unknown"
	ReasonBooked              UnavailabilityReason = "booked"
	ReasonBlockedByHost       UnavailabilityReason = "blocked_by_host"
	ReasonPastDate            UnavailabilityReason = "past_date"
	ReasonMinNightRestriction UnavailabilityReason = "min_night_restriction"
)

// CalendarDay is one date in a listing's availability calendar.
type CalendarDay struct {
	Date                 string                `json:"date" yaml:"date"`
	Price                *float64              `json:"price,omitempty" yaml:"price,omitempty"`
	Available            bool                  `json:"available" yaml:"available"`
	MinNights            *int                  `json:"min_nights,omitempty" yaml:"min_nights,omitempty"`
	MaxNights            *int                  `json:"max_nights,omitempty" yaml:"max_nights,omitempty"`
	ClosedToArrival      *bool                 `json:"closed_to_arrival,omitempty" yaml:"closed_to_arrival,omitempty"`
	ClosedToDeparture    *bool                 `json:"closed_to_departure,omitempty" yaml:"closed_to_departure,omitempty"`
	UnavailabilityReason *UnavailabilityReason `json:"unavailability_reason,omitempty" yaml:"unavailability_reason,omitempty"`
}

// PriceCalendar holds the days of a listing's calendar. The four derived
// fields are only ever written by ComputeStats.
type PriceCalendar struct {
	ListingID     string        `json:"listing_id" yaml:"listing_id"`
	Currency      string        `json:"currency" yaml:"currency"`
	Days          []CalendarDay `json:"days" yaml:"days"`
	AveragePrice  *float64      `json:"average_price,omitempty" yaml:"average_price,omitempty"`
	OccupancyRate *float64      `json:"occupancy_rate,omitempty" yaml:"occupancy_rate,omitempty"`
	MinPrice      *float64      `json:"min_price,omitempty" yaml:"min_price,omitempty"`
	MaxPrice      *float64      `json:"max_price,omitempty" yaml:"max_price,omitempty"`
}

// ComputeStats overwrites the derived fields from Days. Price aggregates
// cover only days with a price; occupancy covers every day. With no days
// all four fields are cleared.
func (c *PriceCalendar) ComputeStats() {
	c.AveragePrice, c.OccupancyRate, c.MinPrice, c.MaxPrice = nil, nil, nil, nil
	if len(c.Days) == 0 {
		return
	}

	unavailable := 0
	var sum, lo, hi float64
	priced := 0
	for _, d := range c.Days {
		if !d.Available {
			unavailable++
		}
		if d.Price == nil {
			continue
		}
		p := *d.Price
		if priced == 0 || p < lo {
			lo = p
		}
		if priced == 0 || p > hi {
			hi = p
		}
		sum += p
		priced++
	}

	rate := float64(unavailable) / float64(len(c.Days)) * 100
	c.OccupancyRate = &rate

	if priced > 0 {
		// Summation error can push the mean a hair outside [lo, hi].
		avg := min(max(sum/float64(priced), lo), hi)
		c.AveragePrice = &avg
		c.MinPrice = &lo
		c.MaxPrice = &hi
	}
}
