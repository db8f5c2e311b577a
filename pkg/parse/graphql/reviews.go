package graphql

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/pkg/parse/internal/tree"
	"github.com/jmylchreest/staylens/pkg/stay"
)

const reviewsPath = "data.presentation.stayProductDetailPage.reviews"

// Reviews parses a StaysPdpReviewsQuery response. The next cursor is the
// offset of the following page, present only while reviews remain.
func Reviews(raw []byte, id string) (*stay.ReviewsPage, error) {
	root, err := load(raw, "reviews")
	if err != nil {
		return nil, err
	}
	data := root.Get(reviewsPath)
	if !data.IsObject() {
		return nil, stay.Parse(source, "reviews", "could not find reviews object")
	}

	page := &stay.ReviewsPage{
		ListingID: id,
		Summary:   reviewsSummary(data),
		Reviews:   []stay.Review{},
	}
	for _, item := range tree.Array(data, "reviews") {
		if rev, ok := tree.Review(item); ok {
			page.Reviews = append(page.Reviews, rev)
		}
	}
	if len(page.Reviews) == 0 && page.Summary == nil {
		return nil, stay.Parse(source, "reviews", "no reviews or summary in response")
	}

	offset, _ := tree.Count(data, "metadata.offset")
	total, ok := tree.Count(data, "reviewsCount", "metadata.reviewsCount")
	if next := offset + len(page.Reviews); ok && len(page.Reviews) > 0 && next < total {
		page.NextCursor = stay.Ptr(strconv.Itoa(next))
	}
	return page, nil
}

func reviewsSummary(data gjson.Result) *stay.ReviewsSummary {
	overall, hasOverall := tree.Float(data, "overallRating", "reviewSummary.overallRating")
	total, hasTotal := tree.Count(data, "reviewsCount", "overallCount", "reviewSummary.totalReviews")
	if !hasOverall && !hasTotal {
		return nil
	}
	s := &stay.ReviewsSummary{OverallRating: overall, TotalReviews: total}

	categories, _ := tree.First(data, "ratings", "categoryRatings", "reviewSummary.categoryRatings")
	if !categories.IsArray() {
		return s
	}
	for _, c := range categories.Array() {
		label, ok := tree.Str(c, "categoryType", "label", "name")
		if !ok {
			continue
		}
		s.SetCategory(label, categoryValue(c))
	}
	return s
}

// categoryValue reads a 0-5 score, converting a 0-1 percentage when that
// is all the payload carries.
func categoryValue(c gjson.Result) *float64 {
	if v := c.Get("value"); v.Type == gjson.Number {
		return stay.Ptr(v.Num)
	}
	if s, ok := tree.Str(c, "localizedRating"); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &f
		}
	}
	if p := c.Get("percentage"); p.Type == gjson.Number {
		return stay.Ptr(p.Num * 5)
	}
	return nil
}
