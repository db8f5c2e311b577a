package embedded

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/internal/logger"
	"github.com/jmylchreest/staylens/pkg/parse/internal/tree"
	"github.com/jmylchreest/staylens/pkg/stay"
)

var searchSectionPaths = []string{
	"props.pageProps.searchResults",
	"niobeMinimalClientData",
	"data.presentation.staysSearch.results.searchResults",
}

var cursorPaths = []string{
	"data.presentation.staysSearch.results.paginationInfo.nextPageCursor",
	"props.pageProps.pagination.nextCursor",
}

// Search extracts listings from a search results page.
func Search(raw []byte, baseURL string) (*stay.SearchResult, error) {
	doc, err := load(raw, "search")
	if err != nil {
		return nil, err
	}
	for _, root := range doc.roots() {
		if res, ok := searchFromJSON(root, baseURL); ok {
			return res, nil
		}
	}
	return searchFromCards(doc, baseURL)
}

func searchFromJSON(root gjson.Result, baseURL string) (*stay.SearchResult, bool) {
	sections, ok := searchSections(root)
	if !ok {
		return nil, false
	}
	var listings []stay.Listing
	for _, s := range sections {
		if l, ok := listingFromSection(s, baseURL); ok {
			listings = append(listings, l)
		}
	}
	if len(listings) == 0 {
		return nil, false
	}
	return &stay.SearchResult{
		Listings:   listings,
		NextCursor: tree.StrPtr(root, cursorPaths...),
	}, true
}

func searchSections(root gjson.Result) ([]gjson.Result, bool) {
	for _, p := range searchSectionPaths {
		if v := root.Get(p); v.IsArray() {
			return v.Array(), true
		}
	}
	found, ok := tree.Find(root, tree.MaxDepth, func(v gjson.Result) bool {
		if !v.IsArray() {
			return false
		}
		hit := false
		v.ForEach(func(_, item gjson.Result) bool {
			hit = item.IsObject() && (item.Get("listing").Exists() ||
				item.Get("id").Type == gjson.String ||
				item.Get("listingId").Exists())
			return !hit
		})
		return hit
	})
	if !ok {
		return nil, false
	}
	return found.Array(), true
}

func listingFromSection(s gjson.Result, baseURL string) (stay.Listing, bool) {
	if tree.IsNiobeResult(s) {
		return tree.NiobeListing(s, baseURL)
	}
	return legacyListing(s, baseURL)
}

func legacyListing(s gjson.Result, baseURL string) (stay.Listing, bool) {
	data := s
	if nested := s.Get("listing"); nested.IsObject() {
		data = nested
	}
	id, ok := tree.ID(data, "id", "listingId")
	if !ok {
		return stay.Listing{}, false
	}

	price, ok := legacyPrice(s)
	if !ok {
		price, _ = legacyPrice(data)
	}

	l := stay.Listing{
		ID:            id,
		Name:          tree.StrOr(data, "Unknown listing", "name", "title"),
		Location:      tree.StrOr(data, "", "city", "location", "publicAddress"),
		URL:           tree.ListingURL(baseURL, id),
		PricePerNight: stay.NormalizePrice(price),
		Currency: tree.StrOr(s, tree.StrOr(data, tree.DefaultCurrency, "currency", "priceCurrency"),
			"pricingQuote.price.currencySymbol", "pricingQuote.price.currency",
			"pricingQuote.currencySymbol", "pricingQuote.currency"),
		Rating:       stay.NormalizeRating(tree.FloatPtr(data, "avgRating")),
		PropertyType: tree.StrPtr(data, "roomType", "propertyType"),
		HostName:     tree.StrPtr(data, "user.firstName", "hostName"),
	}
	l.ReviewCount, _ = tree.Count(data, "reviewsCount")
	if thumb, ok := tree.Str(data, "contextualPictures.0.picture", "thumbnail", "pictureUrl"); ok {
		l.ThumbnailURL = stay.Ptr(tree.Resolve(baseURL, thumb))
	}
	return l, true
}

func legacyPrice(data gjson.Result) (float64, bool) {
	if f, ok := tree.Float(data, "pricingQuote.price.amount"); ok {
		return f, true
	}
	if s, ok := tree.Str(data, "pricingQuote.structuredStayDisplayPrice.primaryLine.price"); ok {
		if f, ok := tree.ParsePrice(s); ok {
			return f, true
		}
	}
	for _, key := range []string{"price", "pricePerNight"} {
		v := data.Get(key)
		switch v.Type {
		case gjson.Number:
			return v.Num, true
		case gjson.String:
			if f, ok := tree.ParsePrice(v.Str); ok {
				return f, true
			}
		}
	}
	return 0, false
}

// searchFromCards scrapes listing cards when no embedded state was usable.
// Cards carry only an id and a name.
func searchFromCards(doc *document, baseURL string) (*stay.SearchResult, error) {
	var listings []stay.Listing
	doc.html.Find("[itemprop='itemListElement'], [data-testid='card-container']").Each(func(_ int, card *goquery.Selection) {
		link := card.Find("a[href*='/rooms/']").First()
		href, _ := link.Attr("href")
		id := idFromRoomURL(href)
		if id == "" {
			return
		}
		name := strings.TrimSpace(link.Text())
		if name == "" {
			name = "Untitled listing"
		}
		listings = append(listings, stay.Listing{
			ID:       id,
			Name:     name,
			URL:      tree.ListingURL(baseURL, id),
			Currency: tree.DefaultCurrency,
		})
	})
	if len(listings) == 0 {
		return nil, stay.Parse(source, "search", "no listings found in search results")
	}
	logger.Warn("search fell back to listing cards; price and location are missing", "count", len(listings))
	return &stay.SearchResult{Listings: listings}, nil
}

func idFromRoomURL(href string) string {
	parts := strings.Split(href, "/")
	for i, p := range parts {
		if p == "rooms" && i+1 < len(parts) {
			id, _, _ := strings.Cut(parts[i+1], "?")
			if id != "" {
				return id
			}
		}
	}
	return ""
}
