package embedded

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/internal/logger"
	"github.com/jmylchreest/staylens/pkg/parse/internal/tree"
	"github.com/jmylchreest/staylens/pkg/stay"
)

var listingPaths = []string{
	"props.pageProps.listing",
	"props.pageProps.listingData.listing",
}

// Detail extracts a listing detail from a listing page.
func Detail(raw []byte, id, baseURL string) (*stay.ListingDetail, error) {
	doc, err := load(raw, "detail")
	if err != nil {
		return nil, err
	}
	for _, root := range doc.roots() {
		if pdp, ok := tree.ParsePDP(root); ok {
			return detailFromPDP(pdp, id, baseURL), nil
		}
		if listing, ok := findListing(root); ok {
			return detailFromListing(listing, id, baseURL), nil
		}
	}
	return detailFromTitle(doc, id, baseURL)
}

func detailFromPDP(pdp tree.PDP, id, baseURL string) *stay.ListingDetail {
	sharing := pdp.Metadata.Get("sharingConfig")
	logging := pdp.Metadata.Get("loggingContext.eventDataLogging")
	calendar, _ := pdp.Section("AVAILABILITY_CALENDAR_DEFAULT")
	location, _ := pdp.Section("LOCATION_PDP")
	reviews, _ := pdp.Section("REVIEWS_DEFAULT")
	policies, _ := pdp.Section("POLICIES_DEFAULT")
	host, _ := pdp.Section("MEET_YOUR_HOST")
	card := host.Get("cardData")

	d := &stay.ListingDetail{
		ID:           id,
		Name:         tree.StrOr(sharing, tree.StrOr(calendar, "Unknown listing", "listingTitle"), "title"),
		Location:     tree.StrOr(sharing, tree.StrOr(location, "", "subtitle"), "location"),
		Currency:     tree.DefaultCurrency,
		URL:          tree.ListingURL(baseURL, id),
		PropertyType: tree.StrPtr(sharing, "propertyType"),
		HostName:     tree.StrPtr(card, "name"),
		Latitude:     tree.FloatPtr(location, "lat"),
		Longitude:    tree.FloatPtr(location, "lng"),
		MaxGuests:    tree.CountPtr(calendar, "maxGuestCapacity"),
		Neighborhood: tree.StrPtr(location, "subtitle", "neighborhoodName"),
		InstantBook:  tree.Bool(logging, "instantBook", "isInstantBook"),

		HostID:            tree.IDPtr(logging, "hostId"),
		HostIsSuperhost:   tree.Bool(card, "isSuperhost"),
		HostResponseRate:  tree.StrPtr(card, "responseRate"),
		HostResponseTime:  tree.StrPtr(card, "responseTime"),
		HostJoined:        tree.StrPtr(card, "memberSince", "createdAt", "joinedDate"),
		HostTotalListings: tree.CountPtr(card, "listingsCount"),
		HostLanguages:     tree.Strings(card, "languages"),
	}

	if s, ok := pdp.Section("DESCRIPTION_DEFAULT"); ok {
		d.Description = tree.StripTags(s.Get("htmlDescription.htmlText").String())
	}
	if d.PropertyType == nil {
		d.PropertyType = tree.StrPtr(logging, "roomType")
	}
	if d.HostName == nil {
		d.HostName = tree.StrPtr(host, "titleText")
	}
	if d.Latitude == nil {
		d.Latitude = tree.FloatPtr(logging, "listingLat")
	}
	if d.Longitude == nil {
		d.Longitude = tree.FloatPtr(logging, "listingLng")
	}
	if d.MaxGuests == nil {
		d.MaxGuests = tree.CountPtr(sharing, "personCapacity")
	}
	if d.MaxGuests == nil {
		d.MaxGuests = tree.CountPtr(logging, "personCapacity")
	}
	if d.HostID == nil {
		d.HostID = tree.IDPtr(card, "id")
	}
	if d.HostIsSuperhost == nil {
		for _, b := range tree.Strings(card, "badges") {
			if strings.Contains(b, "uperhost") {
				d.HostIsSuperhost = stay.Ptr(true)
				break
			}
		}
	}

	d.PricePerNight = stay.NormalizePrice(pdpPrice(pdp, logging))

	rating := tree.FloatPtr(reviews, "overallRating")
	if rating == nil {
		rating = tree.FloatPtr(sharing, "starRating")
	}
	if rating == nil {
		rating = tree.FloatPtr(logging, "guestSatisfactionOverall")
	}
	d.Rating = stay.NormalizeRating(rating)
	if n, ok := tree.Count(reviews, "overallCount"); ok {
		d.ReviewCount = n
	} else {
		d.ReviewCount, _ = tree.Count(sharing, "reviewCount")
	}

	if s, ok := pdp.Section("AMENITIES_DEFAULT"); ok {
		for _, group := range tree.Array(s, "previewAmenitiesGroups") {
			for _, a := range tree.Array(group, "amenities") {
				if title, ok := tree.Str(a, "title"); ok {
					d.Amenities = append(d.Amenities, title)
				}
			}
		}
	}

	for _, rule := range tree.Array(policies, "houseRules") {
		title, ok := tree.Str(rule, "title")
		if !ok {
			continue
		}
		d.HouseRules = append(d.HouseRules, title)
		lower := strings.ToLower(title)
		switch {
		case strings.HasPrefix(lower, "check-in"), strings.HasPrefix(lower, "checkin"):
			d.CheckInTime = stay.Ptr(title)
		case strings.HasPrefix(lower, "checkout"), strings.HasPrefix(lower, "check out"):
			d.CheckOutTime = stay.Ptr(title)
		}
	}
	d.CancellationPolicy = tree.StrPtr(policies,
		"cancellationPolicy.title", "cancellationPolicy.policyName", "cancellationPolicyForDisplay")

	if img, ok := tree.Str(sharing, "imageUrl"); ok {
		d.Photos = []string{tree.Resolve(baseURL, img)}
	}
	d.Bedrooms, d.Beds, d.Bathrooms = roomsFromTitle(sharing.Get("title").String())
	return fillEmpty(d)
}

func pdpPrice(pdp tree.PDP, logging gjson.Result) float64 {
	if s, ok := pdp.Section("BOOK_IT_SIDEBAR"); ok {
		display, ok := tree.Str(s,
			"structuredDisplayPrice.primaryLine.discountedPrice",
			"structuredDisplayPrice.primaryLine.originalPrice",
			"structuredDisplayPrice.primaryLine.price",
			"structuredStayDisplayPrice.primaryLine.price")
		if ok {
			if f, ok := tree.ParsePrice(display); ok {
				return f
			}
		}
	}
	f, _ := tree.Float(logging, "listingPrice")
	return f
}

// roomsFromTitle reads counts from a sharing title such as
// "Loft · 1 bedroom · 2 beds · 1.5 baths". A studio has zero bedrooms.
func roomsFromTitle(title string) (bedrooms, beds *int, baths *float64) {
	for _, part := range strings.Split(title, "·") {
		part = strings.TrimSpace(part)
		lower := strings.ToLower(part)
		n, ok := tree.LeadingCount(part)
		switch {
		case strings.Contains(lower, "bedroom"), strings.Contains(lower, "studio"):
			if ok {
				bedrooms = &n
			} else if strings.Contains(lower, "studio") {
				bedrooms = stay.Ptr(0)
			}
		case strings.Contains(lower, "bed"):
			if ok {
				beds = &n
			}
		case strings.Contains(lower, "bath"):
			if ok {
				baths = stay.Ptr(float64(n))
			}
		}
	}
	return bedrooms, beds, baths
}

func findListing(root gjson.Result) (gjson.Result, bool) {
	for _, p := range listingPaths {
		if v := root.Get(p); v.IsObject() {
			return v, true
		}
	}
	return tree.Find(root, tree.MaxDepth, func(v gjson.Result) bool {
		return v.IsObject() && v.Get("name").Exists() &&
			(v.Get("description").Exists() || v.Get("amenities").Exists())
	})
}

func detailFromListing(l gjson.Result, id, baseURL string) *stay.ListingDetail {
	d := &stay.ListingDetail{
		ID:           id,
		Name:         tree.StrOr(l, "Unknown listing", "name", "title"),
		Location:     tree.StrOr(l, "", "location", "city", "publicAddress"),
		Description:  tree.StrOr(l, "", "description", "sectionedDescription.description"),
		Currency:     tree.StrOr(l, tree.DefaultCurrency, "priceCurrency"),
		Rating:       stay.NormalizeRating(tree.FloatPtr(l, "avgRating", "overallRating")),
		PropertyType: tree.StrPtr(l, "roomType", "propertyType"),
		HostName:     tree.StrPtr(l, "host.name", "primaryHost.firstName"),
		URL:          tree.ListingURL(baseURL, id),
		HouseRules:   tree.Strings(l, "houseRules"),
		Latitude:     tree.FloatPtr(l, "lat", "latitude"),
		Longitude:    tree.FloatPtr(l, "lng", "longitude"),
		Bedrooms:     tree.CountPtr(l, "bedrooms", "bedroomCount"),
		Beds:         tree.CountPtr(l, "beds", "bedCount"),
		Bathrooms:    tree.FloatPtr(l, "bathrooms", "bathroomCount"),
		MaxGuests:    tree.CountPtr(l, "personCapacity", "maxGuests"),
		CheckInTime:  tree.StrPtr(l, "checkIn", "checkInTime"),
		CheckOutTime: tree.StrPtr(l, "checkOut", "checkOutTime"),
	}
	price, _ := tree.Float(l, "price", "pricingQuote.price.amount")
	d.PricePerNight = stay.NormalizePrice(price)
	d.ReviewCount, _ = tree.Count(l, "reviewsCount", "visibleReviewCount")

	for _, a := range tree.Array(l, "amenities") {
		if a.Type == gjson.String && a.Str != "" {
			d.Amenities = append(d.Amenities, a.Str)
		} else if name, ok := tree.Str(a, "name", "tag"); ok {
			d.Amenities = append(d.Amenities, name)
		}
	}
	for _, p := range tree.Array(l, "photos") {
		if p.Type == gjson.String && p.Str != "" {
			d.Photos = append(d.Photos, tree.Resolve(baseURL, p.Str))
		} else if u, ok := tree.Str(p, "pictureUrl", "baseUrl", "url"); ok {
			d.Photos = append(d.Photos, tree.Resolve(baseURL, u))
		}
	}
	return fillEmpty(d)
}

// detailFromTitle is the last resort: a page with nothing but a heading.
func detailFromTitle(doc *document, id, baseURL string) (*stay.ListingDetail, error) {
	name := strings.TrimSpace(doc.html.Find("h1, [data-testid='listing-title']").First().Text())
	if name == "" {
		return nil, stay.Parse(source, "detail", "could not find listing data or title")
	}
	logger.Warn("detail fell back to page title", "id", id)
	return fillEmpty(&stay.ListingDetail{
		ID:       id,
		Name:     name,
		Currency: tree.DefaultCurrency,
		URL:      tree.ListingURL(baseURL, id),
	}), nil
}

// fillEmpty replaces nil collections so they encode as [] rather than null.
func fillEmpty(d *stay.ListingDetail) *stay.ListingDetail {
	if d.Amenities == nil {
		d.Amenities = []string{}
	}
	if d.HouseRules == nil {
		d.HouseRules = []string{}
	}
	if d.Photos == nil {
		d.Photos = []string{}
	}
	return d
}
