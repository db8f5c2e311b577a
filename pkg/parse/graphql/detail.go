package graphql

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/pkg/parse/internal/tree"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// Detail parses a StaysPdpSections response by walking its sections by
// component type. Listing-level price, currency, fees and check-in/out
// come from the section metadata. Fields no section supplies stay empty
// so that callers can tell a sparse response apart.
func Detail(raw []byte, id, baseURL string) (*stay.ListingDetail, error) {
	root, err := load(raw, "detail")
	if err != nil {
		return nil, err
	}
	pdp, ok := tree.ParsePDP(root)
	if !ok {
		return nil, stay.Parse(source, "detail.sections", "could not find sections array")
	}

	b := detailBuilder{
		d: &stay.ListingDetail{
			ID:            id,
			URL:           tree.ListingURL(baseURL, id),
			Currency:      "USD",
			Amenities:     []string{},
			HouseRules:    []string{},
			Photos:        []string{},
			HostLanguages: []string{},
		},
		baseURL:   baseURL,
		photos:    map[string]struct{}{},
		amenities: map[string]struct{}{},
	}
	for _, s := range pdp.Sections {
		b.section(s)
	}
	b.metadata(pdp.Metadata)

	b.d.PricePerNight = stay.NormalizePrice(b.d.PricePerNight)
	b.d.Rating = stay.NormalizeRating(b.d.Rating)
	return b.d, nil
}

type detailBuilder struct {
	d       *stay.ListingDetail
	baseURL string

	// first-seen sets backing Photos and Amenities
	photos    map[string]struct{}
	amenities map[string]struct{}
}

// add appends v to list unless seen already holds it.
func add(list []string, seen map[string]struct{}, v string) []string {
	if _, ok := seen[v]; ok {
		return list
	}
	seen[v] = struct{}{}
	return append(list, v)
}

func (b *detailBuilder) section(s gjson.Result) {
	kind := s.Get("sectionComponentType").String()
	data := s.Get("section")
	if !data.Exists() {
		data = s
	}
	d := b.d

	switch kind {
	case "TITLE_DEFAULT":
		if d.Name == "" {
			d.Name = tree.StrOr(data, "", "title")
		}
		if d.Location == "" {
			d.Location = tree.StrOr(data, "", "subtitle")
		}

	case "HERO_DEFAULT":
		if len(d.Photos) == 0 {
			for _, img := range tree.Array(data, "previewImages") {
				if u, ok := tree.Str(img, "baseUrl"); ok {
					d.Photos = add(d.Photos, b.photos, tree.Resolve(b.baseURL, u))
				}
			}
		}

	case "PHOTO_TOUR_SCROLLABLE", "PHOTO_TOUR_MODAL":
		for _, item := range tree.Array(data, "mediaItems") {
			if u, ok := tree.Str(item, "baseUrl", "url"); ok {
				d.Photos = add(d.Photos, b.photos, tree.Resolve(b.baseURL, u))
			}
		}

	case "DESCRIPTION_DEFAULT", "DESCRIPTION_SECTION":
		if html, ok := tree.Str(data, "htmlDescription.htmlText"); ok {
			d.Description = tree.StripTags(html)
		} else if text, ok := tree.Str(data, "description"); ok {
			d.Description = text
		}

	case "AMENITIES_DEFAULT", "AMENITIES_SECTION":
		groups, _ := tree.First(data, "seeAllAmenitiesGroups", "previewAmenitiesGroups", "amenityGroups")
		if !groups.IsArray() {
			break
		}
		for _, g := range groups.Array() {
			for _, a := range tree.Array(g, "amenities") {
				if avail := tree.Bool(a, "available"); avail != nil && !*avail {
					continue
				}
				if title, ok := tree.Str(a, "title"); ok {
					d.Amenities = add(d.Amenities, b.amenities, title)
				}
			}
		}

	case "POLICIES_DEFAULT", "HOUSE_RULES_DEFAULT":
		for _, rule := range tree.Array(data, "houseRules") {
			if title, ok := tree.Str(rule, "title"); ok {
				d.HouseRules = append(d.HouseRules, title)
			}
		}
		if p := tree.StrPtr(data, "cancellationPolicy.title"); p != nil {
			d.CancellationPolicy = p
		}

	case "BOOK_IT_SIDEBAR":
		price, ok := displayPrice(data, "structuredStayDisplayPrice.primaryLine.price")
		for _, p := range []string{"discountedPrice", "originalPrice", "price"} {
			if ok {
				break
			}
			price, ok = displayPrice(data, "structuredDisplayPrice.primaryLine."+p)
		}
		if ok {
			d.PricePerNight = price
		}
		if d.PricePerNight == 0 {
			d.PricePerNight, _ = tree.Float(data, "price.amount")
		}
		if d.MaxGuests == nil {
			d.MaxGuests = tree.CountPtr(data, "maxGuestCapacity")
		}

	case "OVERVIEW_DEFAULT":
		b.overview(data)

	case "SBUI_SENTINEL":
		if sid := tree.StrOr(s, "", "sectionId", "id"); sid == "OVERVIEW_DEFAULT" || sid == "OVERVIEW_DEFAULT_V2" {
			b.overview(data)
		}

	case "MEET_YOUR_HOST", "HOST_PROFILE_DEFAULT", "HOST_OVERVIEW_DEFAULT":
		h := tree.Host(data)
		if h.Name != "Unknown" {
			d.HostName = &h.Name
		}
		d.HostID = h.HostID
		d.HostIsSuperhost = h.IsSuperhost
		d.HostResponseRate = h.ResponseRate
		d.HostResponseTime = h.ResponseTime
		d.HostJoined = tree.StrPtr(data, "hostMemberSince")
		d.HostTotalListings = tree.CountPtr(data, "hostListingCount")
		if len(d.HostLanguages) == 0 {
			d.HostLanguages = h.Languages
		}

	case "LOCATION_DEFAULT", "LOCATION_PDP":
		if d.Location == "" {
			d.Location = tree.StrOr(data, "", "subtitle", "title")
		}
		d.Latitude = tree.FloatPtr(data, "lat")
		d.Longitude = tree.FloatPtr(data, "lng")
		if d.Neighborhood == nil {
			d.Neighborhood = tree.StrPtr(data, "subtitle")
		}

	case "REVIEWS_DEFAULT":
		if d.Rating == nil {
			d.Rating = tree.FloatPtr(data, "overallRating")
		}
		if d.ReviewCount == 0 {
			d.ReviewCount, _ = tree.Count(data, "overallCount", "reviewsCount")
		}

	default:
		if d.Rating == nil {
			d.Rating = tree.FloatPtr(data, "overallRating", "reviewSummary.overallRating")
		}
		if d.ReviewCount == 0 {
			d.ReviewCount, _ = tree.Count(data, "overallCount", "reviewsCount", "reviewSummary.totalReviews")
		}
		if d.PropertyType == nil {
			d.PropertyType = tree.StrPtr(data, "propertyType", "roomType")
		}
	}
}

// overview reads "4 guests · 2 bedrooms · 3 beds · 1 bath" style items.
func (b *detailBuilder) overview(data gjson.Result) {
	for _, item := range tree.Array(data, "detailItems") {
		title := item.Get("title").String()
		n, ok := tree.LeadingCount(title)
		if !ok {
			continue
		}
		switch {
		case strings.Contains(title, "guest"):
			b.d.MaxGuests = &n
		case strings.Contains(title, "bedroom"):
			b.d.Bedrooms = &n
		case strings.Contains(title, "bed"):
			b.d.Beds = &n
		case strings.Contains(title, "bath"):
			b.d.Bathrooms = stay.Ptr(float64(n))
		}
	}
}

func (b *detailBuilder) metadata(meta gjson.Result) {
	d := b.d
	logging := meta.Get("loggingContext.eventDataLogging")
	prefetch := meta.Get("bookingPrefetchData")

	if d.PricePerNight == 0 {
		d.PricePerNight, _ = tree.Float(logging, "listingPrice")
	}
	d.Currency = tree.StrOr(logging, d.Currency, "currency")
	if ci := tree.StrPtr(prefetch, "checkIn"); ci != nil {
		d.CheckInTime = ci
	}
	if co := tree.StrPtr(prefetch, "checkOut"); co != nil {
		d.CheckOutTime = co
	}

	for _, item := range tree.Array(prefetch, "priceBreakdown.priceItems") {
		label := strings.ToLower(item.Get("localizedTitle").String())
		amount := tree.FloatPtr(item, "total.amount")
		if micros, ok := tree.Float(item, "total.amountMicros"); ok {
			amount = stay.Ptr(micros / 1_000_000)
		}
		switch {
		case strings.Contains(label, "cleaning"):
			d.CleaningFee = amount
		case strings.Contains(label, "service"):
			d.ServiceFee = amount
		}
	}
}
