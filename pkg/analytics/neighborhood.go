// Package analytics computes derived statistics over normalized listings and
// calendars. Every function is pure and total: empty or degenerate input
// yields well-defined output rather than NaN or a panic.
package analytics

import (
	"cmp"
	"slices"
	"strings"

	"github.com/jmylchreest/staylens/pkg/stay"
)

// UnknownPropertyType buckets listings that carry no property type.
const UnknownPropertyType = "Unknown"

// PriceRange is an inclusive price interval.
type PriceRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// PropertyTypeCount is one bucket of the property-type distribution.
type PropertyTypeCount struct {
	PropertyType string  `json:"property_type" yaml:"property_type"`
	Count        int     `json:"count" yaml:"count"`
	Percentage   float64 `json:"percentage" yaml:"percentage"`
}

// NeighborhoodStats aggregates a set of listings in one location.
type NeighborhoodStats struct {
	Location                 string              `json:"location" yaml:"location"`
	TotalListings            int                 `json:"total_listings" yaml:"total_listings"`
	AveragePrice             *float64            `json:"average_price,omitempty" yaml:"average_price,omitempty"`
	MedianPrice              *float64            `json:"median_price,omitempty" yaml:"median_price,omitempty"`
	PriceRange               *PriceRange         `json:"price_range,omitempty" yaml:"price_range,omitempty"`
	AverageRating            *float64            `json:"average_rating,omitempty" yaml:"average_rating,omitempty"`
	PropertyTypeDistribution []PropertyTypeCount `json:"property_type_distribution" yaml:"property_type_distribution"`
	SuperhostPercentage      *float64            `json:"superhost_percentage,omitempty" yaml:"superhost_percentage,omitempty"`
}

// Neighborhood computes NeighborhoodStats for listings.
//
// Price aggregates use only listings with a price. The property-type
// buckets always sum to len(listings).
func Neighborhood(location string, listings []stay.Listing) NeighborhoodStats {
	stats := NeighborhoodStats{
		Location:                 location,
		TotalListings:            len(listings),
		PropertyTypeDistribution: []PropertyTypeCount{},
	}

	var prices, ratings []float64
	counts := make(map[string]int)
	superhosts := 0
	for _, l := range listings {
		if l.HasPrice() {
			prices = append(prices, l.PricePerNight)
		}
		if r := stay.NormalizeRating(l.Rating); r != nil {
			ratings = append(ratings, *r)
		}
		pt := UnknownPropertyType
		if l.PropertyType != nil && strings.TrimSpace(*l.PropertyType) != "" {
			pt = strings.TrimSpace(*l.PropertyType)
		}
		counts[pt]++
		if l.IsSuperhost != nil && *l.IsSuperhost {
			superhosts++
		}
	}

	if len(prices) > 0 {
		slices.Sort(prices)
		stats.AveragePrice = clampedMean(prices)
		stats.MedianPrice = median(prices)
		stats.PriceRange = &PriceRange{Min: prices[0], Max: prices[len(prices)-1]}
	}
	if len(ratings) > 0 {
		slices.Sort(ratings)
		stats.AverageRating = clampedMean(ratings)
	}

	for pt, n := range counts {
		stats.PropertyTypeDistribution = append(stats.PropertyTypeDistribution, PropertyTypeCount{
			PropertyType: pt,
			Count:        n,
			Percentage:   percent(n, len(listings)),
		})
	}
	slices.SortFunc(stats.PropertyTypeDistribution, func(a, b PropertyTypeCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.PropertyType, b.PropertyType)
	})

	if len(listings) > 0 {
		stats.SuperhostPercentage = stay.Ptr(percent(superhosts, len(listings)))
	}
	return stats
}

// clampedMean returns the mean of sorted, non-empty values pinned to
// [first, last].
func clampedMean(sorted []float64) *float64 {
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	m := min(max(sum/float64(len(sorted)), sorted[0]), sorted[len(sorted)-1])
	return &m
}

func median(sorted []float64) *float64 {
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return stay.Ptr(sorted[mid])
	}
	return stay.Ptr(sorted[mid-1]/2 + sorted[mid]/2)
}

// percent returns part/whole*100 bounded to [0, 100]; zero when whole is 0.
func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return min(max(float64(part)/float64(whole)*100, 0), 100)
}
