package graphql

import (
	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/pkg/parse/internal/tree"
	"github.com/jmylchreest/staylens/pkg/stay"
)

const (
	resultsPath        = "data.presentation.staysSearch.results"
	exploreResultsPath = "data.presentation.explore.sections.sectionIndependentData.staysSearch.searchResults"
)

// Search parses a StaysSearch response. Results without an id are
// skipped; an empty page is only accepted when the response reports a
// total of zero.
func Search(raw []byte, baseURL string) (*stay.SearchResult, error) {
	root, err := load(raw, "search")
	if err != nil {
		return nil, err
	}
	results, ok := tree.First(root, resultsPath+".searchResults", exploreResultsPath)
	if !ok || !results.IsArray() {
		return nil, stay.Parse(source, "search", "could not find searchResults array")
	}

	res := &stay.SearchResult{
		Listings:   []stay.Listing{},
		TotalCount: tree.CountPtr(root, resultsPath+".paginationInfo.totalCount"),
		NextCursor: tree.StrPtr(root, resultsPath+".paginationInfo.nextPageCursor"),
	}
	for _, r := range results.Array() {
		var (
			l  stay.Listing
			ok bool
		)
		if tree.IsNiobeResult(r) {
			l, ok = tree.NiobeListing(r, baseURL)
		} else {
			l, ok = searchListing(r, baseURL)
		}
		if ok {
			res.Listings = append(res.Listings, l)
		}
	}

	if len(res.Listings) == 0 && (res.TotalCount == nil || *res.TotalCount != 0) {
		return nil, stay.Parse(source, "search", "no listings with an id in searchResults")
	}
	return res, nil
}

func searchListing(r gjson.Result, baseURL string) (stay.Listing, bool) {
	data := r
	if nested := r.Get("listing"); nested.IsObject() {
		data = nested
	}
	id, ok := tree.ID(data, "id")
	if !ok {
		return stay.Listing{}, false
	}

	l := stay.Listing{
		ID:           id,
		Name:         tree.StrOr(data, "Unknown", "name"),
		Location:     tree.StrOr(data, "", "city"),
		URL:          tree.ListingURL(baseURL, id),
		Currency:     tree.StrOr(r, "USD", "pricingQuote.rate.currency"),
		Rating:       stay.NormalizeRating(tree.FloatPtr(data, "avgRating")),
		PropertyType: tree.StrPtr(data, "roomTypeCategory"),
		IsSuperhost:  tree.Bool(data, "isSuperhost"),
		Latitude:     tree.FloatPtr(data, "latitude", "coordinate.latitude"),
		Longitude:    tree.FloatPtr(data, "longitude", "coordinate.longitude"),
	}
	l.ReviewCount, _ = tree.Count(data, "reviewsCount")

	price, ok := displayPrice(r, "pricingQuote.structuredStayDisplayPrice.primaryLine.price")
	if !ok {
		price, _ = tree.Float(r, "pricingQuote.rate.amount")
	}
	l.PricePerNight = stay.NormalizePrice(price)
	if total, ok := displayPrice(r, "pricingQuote.structuredStayDisplayPrice.primaryLine.originalPrice"); ok {
		l.TotalPrice = &total
	}
	if thumb, ok := tree.Str(data, "contextualPictures.0.picture"); ok {
		l.ThumbnailURL = stay.Ptr(tree.Resolve(baseURL, thumb))
	}
	return l, true
}

func displayPrice(r gjson.Result, path string) (float64, bool) {
	s, ok := tree.Str(r, path)
	if !ok {
		return 0, false
	}
	return tree.ParsePrice(s)
}
