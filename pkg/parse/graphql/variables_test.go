package graphql

import (
	"testing"

	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/pkg/stay"
)

// rawParams flattens the filter list into name -> first value.
func rawParams(t *testing.T, vars, request string) map[string]string {
	t.Helper()
	out := map[string]string{}
	gjson.Get(vars, request+".rawParams").ForEach(func(_, p gjson.Result) bool {
		out[p.Get("filterName").String()] = p.Get("filterValues.0").String()
		return true
	})
	return out
}

// --- Variables Tests ---

func TestSearchVariables(t *testing.T) {
	t.Run("minimal", func(t *testing.T) {
		vars, err := SearchVariables(stay.SearchParams{Location: "Lisbon, Portugal"})
		if err != nil {
			t.Fatalf("SearchVariables() error = %v", err)
		}
		params := rawParams(t, vars, "staysSearchRequest")
		if params["placeId"] != "Lisbon, Portugal" || params["channel"] != "EXPLORE" || params["cdnCacheSafe"] != "false" {
			t.Errorf("base params = %v", params)
		}
		if _, ok := params["checkin"]; ok {
			t.Error("absent filters must not be sent")
		}
		if gjson.Get(vars, "staysSearchRequest.cursor").Exists() {
			t.Error("cursor should be absent")
		}
		if gjson.Get(vars, "staysSearchRequest.rawParams").Raw != gjson.Get(vars, "staysMapSearchRequestV2.rawParams").Raw {
			t.Error("list and map requests should carry the same filters")
		}
		if gjson.Get(vars, "staysSearchRequest.treatmentFlags.0").String() != "decompose_stays_search_m2_treatment" {
			t.Errorf("treatmentFlags = %s", gjson.Get(vars, "staysSearchRequest.treatmentFlags").Raw)
		}
	})

	t.Run("all filters", func(t *testing.T) {
		p := stay.SearchParams{
			Location:     "Paris",
			Checkin:      stay.Ptr("2030-06-01"),
			Checkout:     stay.Ptr("2030-06-05"),
			Adults:       stay.Ptr(2),
			Children:     stay.Ptr(1),
			Infants:      stay.Ptr(0),
			Pets:         stay.Ptr(1),
			MinPrice:     stay.Ptr(50.0),
			MaxPrice:     stay.Ptr(199.5),
			PropertyType: stay.Ptr("Entire home/apt"),
			Cursor:       stay.Ptr("abc"),
		}
		vars, err := SearchVariables(p)
		if err != nil {
			t.Fatalf("SearchVariables() error = %v", err)
		}
		want := map[string]string{
			"checkin":    "2030-06-01",
			"checkout":   "2030-06-05",
			"adults":     "2",
			"children":   "1",
			"infants":    "0",
			"pets":       "1",
			"priceMin":   "50",
			"priceMax":   "199.5",
			"room_types": "Entire home/apt",
		}
		got := rawParams(t, vars, "staysMapSearchRequestV2")
		for k, v := range want {
			if got[k] != v {
				t.Errorf("%s = %q, want %q", k, got[k], v)
			}
		}
		if gjson.Get(vars, "staysSearchRequest.cursor").String() != "abc" {
			t.Error("cursor not forwarded")
		}
	})
}

func TestDetailVariables(t *testing.T) {
	vars, err := DetailVariables("42")
	if err != nil {
		t.Fatalf("DetailVariables() error = %v", err)
	}
	if got := gjson.Get(vars, "id").String(); got != "U3RheUxpc3Rpbmc6NDI=" {
		t.Errorf("id = %q", got)
	}
	if got := gjson.Get(vars, "demandStayListingId").String(); got != "RGVtYW5kU3RheUxpc3Rpbmc6NDI=" {
		t.Errorf("demandStayListingId = %q", got)
	}
	if gjson.Get(vars, "pdpSectionsRequest.adults").String() != "1" {
		t.Error("adults should be the string 1")
	}
	if gjson.Get(vars, "pdpSectionsRequest.layouts.#").Int() != 2 {
		t.Errorf("layouts = %s", gjson.Get(vars, "pdpSectionsRequest.layouts").Raw)
	}
}

func TestReviewsVariables(t *testing.T) {
	tests := []struct {
		cursor string
		want   string
	}{
		{"", "0"},
		{"50", "50"},
		{"-3", "0"},
		{"abc", "0"},
	}
	for _, tt := range tests {
		t.Run("cursor="+tt.cursor, func(t *testing.T) {
			vars, err := ReviewsVariables("42", tt.cursor)
			if err != nil {
				t.Fatalf("ReviewsVariables() error = %v", err)
			}
			if got := gjson.Get(vars, "pdpReviewsRequest.offset").String(); got != tt.want {
				t.Errorf("offset = %q, want %q", got, tt.want)
			}
			if gjson.Get(vars, "pdpReviewsRequest.limit").Int() != ReviewsPageSize {
				t.Error("limit should be the page size")
			}
			if gjson.Get(vars, "pdpReviewsRequest.sortingPreference").String() != "MOST_RECENT" {
				t.Error("reviews should be sorted most recent first")
			}
		})
	}
}

func TestCalendarVariables(t *testing.T) {
	vars, err := CalendarVariables("42", 6, 2030, 3)
	if err != nil {
		t.Fatalf("CalendarVariables() error = %v", err)
	}
	req := gjson.Get(vars, "request")
	if req.Get("listingId").String() != "42" || req.Get("month").Int() != 6 ||
		req.Get("year").Int() != 2030 || req.Get("count").Int() != 3 {
		t.Errorf("request = %s", req.Raw)
	}
}

func TestBody(t *testing.T) {
	vars, _ := DetailVariables("42")
	ext, err := Extensions("deadbeef")
	if err != nil {
		t.Fatalf("Extensions() error = %v", err)
	}
	body, err := Body(OpStaysPdpSections, vars, ext)
	if err != nil {
		t.Fatalf("Body() error = %v", err)
	}
	if gjson.Get(body, "operationName").String() != OpStaysPdpSections {
		t.Errorf("operationName = %s", gjson.Get(body, "operationName").Raw)
	}
	if gjson.Get(body, "extensions.persistedQuery.sha256Hash").String() != "deadbeef" ||
		gjson.Get(body, "extensions.persistedQuery.version").Int() != 1 {
		t.Errorf("extensions = %s", gjson.Get(body, "extensions").Raw)
	}
	if gjson.Get(body, "variables.id").String() != "U3RheUxpc3Rpbmc6NDI=" {
		t.Error("variables should be embedded as an object")
	}

	if _, err := Body(OpStaysSearch, "{not json", ext); stay.KindOf(err) != stay.KindValidation {
		t.Errorf("expected validation error for broken variables, got %v", err)
	}
}
