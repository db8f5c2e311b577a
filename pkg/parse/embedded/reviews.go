package embedded

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/pkg/parse/internal/tree"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// GuestAuthor names reviews scraped from markup or highlight banners.
const GuestAuthor = "Guest"

var reviewArrayPaths = []string{
	"props.pageProps.reviews",
	"props.pageProps.listing.reviews",
	"data.presentation.stayProductDetailPage.reviews.reviews",
}

var summaryPaths = []string{
	"props.pageProps.listing",
	"data.presentation.stayProductDetailPage.reviewsSummary",
}

// Reviews extracts the review summary and the reviews shown on a listing
// page.
func Reviews(raw []byte, id string) (*stay.ReviewsPage, error) {
	doc, err := load(raw, "reviews")
	if err != nil {
		return nil, err
	}
	for _, root := range doc.roots() {
		if pdp, ok := tree.ParsePDP(root); ok {
			if page, ok := reviewsFromPDP(pdp, id); ok {
				return page, nil
			}
		}
		if page, ok := reviewsFromJSON(root, id); ok {
			return page, nil
		}
	}
	return reviewsFromMarkup(doc, id)
}

func reviewsFromPDP(pdp tree.PDP, id string) (*stay.ReviewsPage, bool) {
	section, ok := pdp.Section("REVIEWS_DEFAULT")
	if !ok {
		return nil, false
	}
	overall, ok := tree.Float(section, "overallRating")
	if !ok {
		return nil, false
	}
	summary := &stay.ReviewsSummary{OverallRating: overall}
	summary.TotalReviews, _ = tree.Count(section, "overallCount")
	for _, r := range tree.Array(section, "ratings") {
		summary.SetCategory(r.Get("label").String(), categoryScore(r))
	}

	page := &stay.ReviewsPage{ListingID: id, Summary: summary, Reviews: []stay.Review{}}
	for _, item := range tree.Array(section, "reviewsData.reviews") {
		if rev, ok := tree.Review(item); ok {
			page.Reviews = append(page.Reviews, rev)
		}
	}
	if len(page.Reviews) == 0 {
		page.Reviews = append(page.Reviews, highlightReviews(pdp.Container)...)
	}
	return page, true
}

func categoryScore(r gjson.Result) *float64 {
	if s, ok := tree.Str(r, "localizedRating"); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}
	return tree.FloatPtr(r, "rating")
}

// highlightReviews reads the featured snippets some pages show instead of
// full reviews.
func highlightReviews(container gjson.Result) []stay.Review {
	var out []stay.Review
	for _, s := range tree.Array(container, "sbuiData.sectionConfiguration.root.sections") {
		for _, h := range tree.Array(s, "sectionData.reviewHighlights") {
			text, ok := tree.Str(h, "reviewText")
			if !ok {
				continue
			}
			out = append(out, stay.Review{
				Author:  tree.StrOr(h, GuestAuthor, "reviewerName"),
				Comment: text,
			})
		}
	}
	return out
}

func reviewsFromJSON(root gjson.Result, id string) (*stay.ReviewsPage, bool) {
	arr, ok := findReviews(root)
	if !ok {
		return nil, false
	}
	var reviews []stay.Review
	for _, item := range arr.Array() {
		if rev, ok := tree.Review(item); ok {
			reviews = append(reviews, rev)
		}
	}
	if len(reviews) == 0 {
		return nil, false
	}
	return &stay.ReviewsPage{
		ListingID: id,
		Summary:   legacySummary(root),
		Reviews:   reviews,
	}, true
}

func findReviews(root gjson.Result) (gjson.Result, bool) {
	for _, p := range reviewArrayPaths {
		if v := root.Get(p); v.IsArray() {
			return v, true
		}
	}
	holder, ok := tree.Find(root, tree.MaxDepth, func(v gjson.Result) bool {
		if !v.IsObject() {
			return false
		}
		reviews := v.Get("reviews")
		if !reviews.IsArray() {
			return false
		}
		hit := false
		reviews.ForEach(func(_, item gjson.Result) bool {
			hit = item.Get("comments").Exists() || item.Get("comment").Exists() || item.Get("reviewer").Exists()
			return !hit
		})
		return hit
	})
	if !ok {
		return gjson.Result{}, false
	}
	return holder.Get("reviews"), true
}

func legacySummary(root gjson.Result) *stay.ReviewsSummary {
	for _, p := range summaryPaths {
		v := root.Get(p)
		overall, ok := tree.Float(v, "avgRating", "overallRating")
		if !ok {
			continue
		}
		s := &stay.ReviewsSummary{
			OverallRating: overall,
			Cleanliness:   tree.FloatPtr(v, "cleanlinessRating"),
			Accuracy:      tree.FloatPtr(v, "accuracyRating"),
			Communication: tree.FloatPtr(v, "communicationRating"),
			Location:      tree.FloatPtr(v, "locationRating"),
			CheckIn:       tree.FloatPtr(v, "checkinRating"),
			Value:         tree.FloatPtr(v, "valueRating"),
		}
		s.TotalReviews, _ = tree.Count(v, "reviewsCount", "totalReviews")
		return s
	}
	return nil
}

func reviewsFromMarkup(doc *document, id string) (*stay.ReviewsPage, error) {
	var reviews []stay.Review
	doc.html.Find("[data-testid='review'], [itemprop='review']").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			reviews = append(reviews, stay.Review{Author: GuestAuthor, Comment: text})
		}
	})
	if len(reviews) == 0 {
		return nil, stay.Parse(source, "reviews", "no reviews or summary found")
	}
	return &stay.ReviewsPage{ListingID: id, Reviews: reviews}, nil
}
