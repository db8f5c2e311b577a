package tree

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/pkg/stay"
)

// IsNiobeResult reports whether a search result uses the StaysSearch
// shape shared by the GraphQL API and the pages' cached niobe entries.
func IsNiobeResult(r gjson.Result) bool {
	return r.Get("demandStayListing").Exists() || r.Get("structuredDisplayPrice").Exists()
}

// NiobeListing builds a listing from a StaysSearch result. The encoded
// demandStayListing.id is essential.
func NiobeListing(s gjson.Result, baseURL string) (stay.Listing, bool) {
	encoded, ok := Str(s, "demandStayListing.id")
	if !ok {
		return stay.Listing{}, false
	}
	id, ok := NiobeID(encoded)
	if !ok {
		return stay.Listing{}, false
	}

	title := s.Get("title").String()
	rating, count := RatingLocalized(s.Get("avgRatingLocalized").String())

	l := stay.Listing{
		ID:            id,
		Name:          StrOr(s, "Unknown listing", "subtitle", "nameLocalized.localizedStringWithTranslationPreference", "title"),
		Location:      LocationFromTitle(title),
		URL:           ListingURL(baseURL, id),
		PricePerNight: stay.NormalizePrice(niobePrice(s)),
		Currency:      CurrencySymbol(s.Get("structuredDisplayPrice.primaryLine.price").String()),
		Rating:        stay.NormalizeRating(rating),
		ReviewCount:   count,
		PropertyType:  PropertyTypeFromTitle(title),
		Latitude:      FloatPtr(s, "demandStayListing.location.coordinate.latitude"),
		Longitude:     FloatPtr(s, "demandStayListing.location.coordinate.longitude"),
		InstantBook:   Bool(s, "demandStayListing.instantBookEnabled"),
	}

	for _, pic := range Array(s, "contextualPictures") {
		if u, ok := Str(pic, "picture"); ok {
			l.Photos = append(l.Photos, Resolve(baseURL, u))
		}
	}
	if len(l.Photos) > 0 {
		l.ThumbnailURL = stay.Ptr(l.Photos[0])
	}

	primaryLine := Array(s, "structuredContent.primaryLine")
	for _, item := range primaryLine {
		if item.Get("type").String() != "HOSTINFO" {
			continue
		}
		if body, ok := Str(item, "body"); ok {
			l.HostName = &body
			break
		}
	}

	badges := Array(s, "badges")
	if badgeContains(badges, "SUPERHOST") || bodyContains(primaryLine, "Superhost") {
		l.IsSuperhost = stay.Ptr(true)
	}
	l.IsGuestFavorite = Bool(s, "guestFavorite")
	if l.IsGuestFavorite == nil && badgeContains(badges, "GUEST_FAVORITE") {
		l.IsGuestFavorite = stay.Ptr(true)
	}
	if total, ok := Str(s, "structuredDisplayPrice.secondaryLine.price"); ok {
		if f, ok := ParsePrice(total); ok {
			l.TotalPrice = &f
		}
	}
	return l, true
}

// niobePrice prefers the per-night figure in "5 nights x € 45.14" over the
// primary display price, which is often the stay total.
func niobePrice(s gjson.Result) float64 {
	desc := s.Get("structuredDisplayPrice.explanationData.priceDetails.0.items.0.description").String()
	if _, after, ok := strings.Cut(desc, " x "); ok {
		if f, ok := ParsePrice(after); ok {
			return f
		}
	}
	if f, ok := ParsePrice(s.Get("structuredDisplayPrice.primaryLine.price").String()); ok {
		return f
	}
	return 0
}

// LocationFromTitle turns "Apartment in Paris, France" into "Paris, France".
func LocationFromTitle(title string) string {
	if i := strings.LastIndex(title, " in "); i >= 0 {
		return title[i+len(" in "):]
	}
	return title
}

// PropertyTypeFromTitle maps a result title prefix to a coarse type.
func PropertyTypeFromTitle(title string) *string {
	lower := strings.ToLower(title)
	switch {
	case hasAnyPrefix(lower, "room in", "place to stay"):
		return stay.Ptr("Private room")
	case hasAnyPrefix(lower, "apartment in", "home in", "condo in", "loft in", "townhouse in", "villa in", "rental unit in"):
		return stay.Ptr("Entire home")
	case strings.HasPrefix(lower, "hotel"):
		return stay.Ptr("Hotel")
	}
	return nil
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func badgeContains(badges []gjson.Result, marker string) bool {
	for _, b := range badges {
		if strings.Contains(b.Get("type").String(), marker) {
			return true
		}
	}
	return false
}

func bodyContains(items []gjson.Result, marker string) bool {
	for _, item := range items {
		if strings.Contains(item.Get("body").String(), marker) {
			return true
		}
	}
	return false
}
