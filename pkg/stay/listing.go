// Package stay defines the canonical listing model shared by both raw
// sources, the analytics layer and every output surface.
package stay

import "math"

// Rating bounds for listing quality scores.
const (
	MinRating = 1.0
	MaxRating = 5.0
)

// Listing is one search result.
type Listing struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	Location        string   `json:"location" yaml:"location"`
	URL             string   `json:"url" yaml:"url"`
	ThumbnailURL    *string  `json:"thumbnail_url,omitempty" yaml:"thumbnail_url,omitempty"`
	Photos          []string `json:"photos,omitempty" yaml:"photos,omitempty"`
	PricePerNight   float64  `json:"price_per_night" yaml:"price_per_night"`
	Currency        string   `json:"currency" yaml:"currency"`
	TotalPrice      *float64 `json:"total_price,omitempty" yaml:"total_price,omitempty"`
	Rating          *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	ReviewCount     int      `json:"review_count" yaml:"review_count"`
	IsSuperhost     *bool    `json:"is_superhost,omitempty" yaml:"is_superhost,omitempty"`
	IsGuestFavorite *bool    `json:"is_guest_favorite,omitempty" yaml:"is_guest_favorite,omitempty"`
	InstantBook     *bool    `json:"instant_book,omitempty" yaml:"instant_book,omitempty"`
	PropertyType    *string  `json:"property_type,omitempty" yaml:"property_type,omitempty"`
	HostName        *string  `json:"host_name,omitempty" yaml:"host_name,omitempty"`
	Latitude        *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
}

// HasPrice reports whether the parser found a nightly price.
// A zero price means the upstream payload did not carry one.
func (l Listing) HasPrice() bool {
	return l.PricePerNight > 0
}

// SearchResult is one page of search results.
type SearchResult struct {
	Listings   []Listing `json:"listings" yaml:"listings"`
	TotalCount *int      `json:"total_count,omitempty" yaml:"total_count,omitempty"`
	NextCursor *string   `json:"next_cursor,omitempty" yaml:"next_cursor,omitempty"`
}

// ListingDetail is the full record for a single listing.
type ListingDetail struct {
	ID                 string   `json:"id" yaml:"id"`
	Name               string   `json:"name" yaml:"name"`
	Location           string   `json:"location" yaml:"location"`
	Description        string   `json:"description" yaml:"description"`
	PricePerNight      float64  `json:"price_per_night" yaml:"price_per_night"`
	Currency           string   `json:"currency" yaml:"currency"`
	Rating             *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	ReviewCount        int      `json:"review_count" yaml:"review_count"`
	PropertyType       *string  `json:"property_type,omitempty" yaml:"property_type,omitempty"`
	HostName           *string  `json:"host_name,omitempty" yaml:"host_name,omitempty"`
	URL                string   `json:"url" yaml:"url"`
	Amenities          []string `json:"amenities" yaml:"amenities"`
	HouseRules         []string `json:"house_rules" yaml:"house_rules"`
	Latitude           *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude          *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	Photos             []string `json:"photos" yaml:"photos"`
	Bedrooms           *int     `json:"bedrooms,omitempty" yaml:"bedrooms,omitempty"`
	Beds               *int     `json:"beds,omitempty" yaml:"beds,omitempty"`
	Bathrooms          *float64 `json:"bathrooms,omitempty" yaml:"bathrooms,omitempty"`
	MaxGuests          *int     `json:"max_guests,omitempty" yaml:"max_guests,omitempty"`
	CheckInTime        *string  `json:"check_in_time,omitempty" yaml:"check_in_time,omitempty"`
	CheckOutTime       *string  `json:"check_out_time,omitempty" yaml:"check_out_time,omitempty"`
	HostID             *string  `json:"host_id,omitempty" yaml:"host_id,omitempty"`
	HostIsSuperhost    *bool    `json:"host_is_superhost,omitempty" yaml:"host_is_superhost,omitempty"`
	HostResponseRate   *string  `json:"host_response_rate,omitempty" yaml:"host_response_rate,omitempty"`
	HostResponseTime   *string  `json:"host_response_time,omitempty" yaml:"host_response_time,omitempty"`
	HostJoined         *string  `json:"host_joined,omitempty" yaml:"host_joined,omitempty"`
	HostTotalListings  *int     `json:"host_total_listings,omitempty" yaml:"host_total_listings,omitempty"`
	HostLanguages      []string `json:"host_languages,omitempty" yaml:"host_languages,omitempty"`
	CancellationPolicy *string  `json:"cancellation_policy,omitempty" yaml:"cancellation_policy,omitempty"`
	InstantBook        *bool    `json:"instant_book,omitempty" yaml:"instant_book,omitempty"`
	CleaningFee        *float64 `json:"cleaning_fee,omitempty" yaml:"cleaning_fee,omitempty"`
	ServiceFee         *float64 `json:"service_fee,omitempty" yaml:"service_fee,omitempty"`
	Neighborhood       *string  `json:"neighborhood,omitempty" yaml:"neighborhood,omitempty"`
}

// Incomplete reports whether d is missing any field the HTML source can
// usually supply.
func (d *ListingDetail) Incomplete() bool {
	return d.Name == "" || d.Location == "" || d.Description == "" ||
		len(d.Amenities) == 0 || len(d.Photos) == 0 || len(d.HouseRules) == 0 ||
		d.PricePerNight == 0 || d.Rating == nil
}

// FillFrom copies fields from other into d wherever d has none.
func (d *ListingDetail) FillFrom(other *ListingDetail) {
	if other == nil {
		return
	}
	if d.Name == "" {
		d.Name = other.Name
	}
	if d.Location == "" {
		d.Location = other.Location
	}
	if d.Description == "" {
		d.Description = other.Description
	}
	if len(d.Amenities) == 0 && len(other.Amenities) > 0 {
		d.Amenities = other.Amenities
	}
	if len(d.Photos) == 0 && len(other.Photos) > 0 {
		d.Photos = other.Photos
	}
	if len(d.HouseRules) == 0 && len(other.HouseRules) > 0 {
		d.HouseRules = other.HouseRules
	}
	if d.HostName == nil {
		d.HostName = other.HostName
	}
	if d.HostID == nil {
		d.HostID = other.HostID
	}
	if d.PricePerNight == 0 && other.PricePerNight > 0 {
		d.PricePerNight = other.PricePerNight
		d.Currency = other.Currency
	}
	if d.Rating == nil {
		d.Rating = other.Rating
	}
	if d.ReviewCount == 0 {
		d.ReviewCount = other.ReviewCount
	}
}

// NormalizeRating returns r when it is a finite score within
// [MinRating, MaxRating] and nil otherwise.
func NormalizeRating(r *float64) *float64 {
	if r == nil || math.IsNaN(*r) || math.IsInf(*r, 0) {
		return nil
	}
	if *r < MinRating || *r > MaxRating {
		return nil
	}
	return r
}

// NormalizePrice clamps non-finite and negative amounts to zero.
func NormalizePrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
