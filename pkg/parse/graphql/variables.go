package graphql

import (
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/jmylchreest/staylens/pkg/parse/internal/tree"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// Operation names of the persisted queries.
const (
	OpStaysSearch      = "StaysSearch"
	OpStaysPdpSections = "StaysPdpSections"
	OpReviews          = "StaysPdpReviewsQuery"
	OpCalendar         = "PdpAvailabilityCalendar"
)

// ReviewsPageSize is the number of reviews requested per page.
const ReviewsPageSize = 50

type rawParam struct {
	FilterName   string   `json:"filterName"`
	FilterValues []string `json:"filterValues"`
}

// builder accumulates sjson writes and keeps the first error.
type builder struct {
	json string
	err  error
}

func newBuilder() *builder { return &builder{json: "{}"} }

func (b *builder) set(path string, value any) *builder {
	if b.err == nil {
		b.json, b.err = sjson.Set(b.json, path, value)
	}
	return b
}

func (b *builder) setRaw(path, raw string) *builder {
	if b.err == nil {
		b.json, b.err = sjson.SetRaw(b.json, path, raw)
	}
	return b
}

func (b *builder) done() (string, error) {
	if b.err != nil {
		return "", stay.Validationf("building variables: %v", b.err)
	}
	return b.json, nil
}

// SearchVariables builds StaysSearch variables. The same request is sent
// for the list and the map view.
func SearchVariables(p stay.SearchParams) (string, error) {
	params := []rawParam{
		{"cdnCacheSafe", []string{"false"}},
		{"channel", []string{"EXPLORE"}},
		{"placeId", []string{p.Location}},
		{"source", []string{"structured_search_input_header"}},
		{"searchType", []string{"filter_change"}},
	}
	addStr := func(name string, v *string) {
		if v != nil {
			params = append(params, rawParam{name, []string{*v}})
		}
	}
	addInt := func(name string, v *int) {
		if v != nil {
			params = append(params, rawParam{name, []string{strconv.Itoa(*v)}})
		}
	}
	addFloat := func(name string, v *float64) {
		if v != nil {
			params = append(params, rawParam{name, []string{strconv.FormatFloat(*v, 'f', -1, 64)}})
		}
	}
	addStr("checkin", p.Checkin)
	addStr("checkout", p.Checkout)
	addInt("adults", p.Adults)
	addInt("children", p.Children)
	addInt("infants", p.Infants)
	addInt("pets", p.Pets)
	addFloat("priceMin", p.MinPrice)
	addFloat("priceMax", p.MaxPrice)
	addStr("room_types", p.PropertyType)

	req := newBuilder().
		set("requestedPageType", "STAYS_SEARCH").
		set("metadataOnly", false).
		set("searchType", "filter_change").
		set("treatmentFlags", []string{"decompose_stays_search_m2_treatment"}).
		set("rawParams", params)
	if p.Cursor != nil {
		req.set("cursor", *p.Cursor)
	}
	request, err := req.done()
	if err != nil {
		return "", err
	}
	return newBuilder().
		setRaw("staysSearchRequest", request).
		setRaw("staysMapSearchRequestV2", request).
		done()
}

// DetailVariables builds StaysPdpSections variables. Host lookups use the
// same query.
func DetailVariables(id string) (string, error) {
	return newBuilder().
		set("id", tree.StayListingID(id)).
		set("demandStayListingId", tree.DemandStayListingID(id)).
		setRaw("pdpSectionsRequest", `{"adults":"1","bypassTargetings":false,"categoryTag":null,"children":null,"infants":null,"pets":0,"preview":false,"previousStateCheckIn":null,"previousStateCheckOut":null,"privateBooking":false}`).
		set("pdpSectionsRequest.layouts", []string{"SIDEBAR", "SINGLE_COLUMN"}).
		set("pdpSectionsRequest.staysBookingMigrationEnabled", false).
		set("pdpSectionsRequest.useNewSectionWrapperApi", false).
		done()
}

// ReviewsVariables builds StaysPdpReviewsQuery variables for the page
// starting at cursor, a review offset. A blank or malformed cursor starts
// at zero.
func ReviewsVariables(id, cursor string) (string, error) {
	offset, err := strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		offset = 0
	}
	return newBuilder().
		set("id", id).
		setRaw("pdpReviewsRequest", `{"fieldSelector":"for_p3_translation_only","forPreview":false,"showingTranslationButton":false,"sortingPreference":"MOST_RECENT","numberOfAdults":"1","numberOfChildren":"0","numberOfInfants":"0","numberOfPets":"0","after":null}`).
		set("pdpReviewsRequest.limit", ReviewsPageSize).
		set("pdpReviewsRequest.first", ReviewsPageSize).
		set("pdpReviewsRequest.offset", strconv.Itoa(offset)).
		done()
}

// CalendarVariables builds PdpAvailabilityCalendar variables for count
// months starting at month/year.
func CalendarVariables(id string, month, year, count int) (string, error) {
	return newBuilder().
		set("request.count", count).
		set("request.listingId", id).
		set("request.month", month).
		set("request.year", year).
		done()
}

// Extensions is the persisted-query marker for hash.
func Extensions(hash string) (string, error) {
	return newBuilder().
		set("persistedQuery.version", 1).
		set("persistedQuery.sha256Hash", hash).
		done()
}

// Body is the POST payload for operation.
func Body(operation, variables, extensions string) (string, error) {
	if !gjson.Valid(variables) || !gjson.Valid(extensions) {
		return "", stay.Validationf("%s: variables and extensions must be JSON", operation)
	}
	return newBuilder().
		set("operationName", operation).
		setRaw("variables", variables).
		setRaw("extensions", extensions).
		done()
}
