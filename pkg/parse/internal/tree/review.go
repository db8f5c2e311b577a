package tree

import (
	"strings"

	"github.com/araddon/dateparse"
	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/pkg/stay"
)

// AnonymousAuthor names reviewers the payload does not identify.
const AnonymousAuthor = "Anonymous"

// Review builds a review from any of the known review object shapes. The
// comment is essential; objects without one are rejected.
func Review(r gjson.Result) (stay.Review, bool) {
	comment, ok := Str(r, "comments", "comment", "text", "body", "content")
	if !ok {
		return stay.Review{}, false
	}
	rev := stay.Review{
		Author:           StrOr(r, AnonymousAuthor, "reviewer.firstName", "reviewer.name", "reviewerName", "author", "authorName"),
		Date:             NormalizeDate(StrOr(r, "", "createdAt", "date", "localizedDate")),
		Rating:           FloatPtr(r, "rating"),
		Comment:          comment,
		Response:         StrPtr(r, "response", "response.comments", "response.text", "hostResponse.comments", "hostResponse.text"),
		ReviewerLocation: StrPtr(r, "reviewer.location", "localizedReviewerLocation"),
		Language:         StrPtr(r, "language"),
		IsTranslated:     Bool(r, "isTranslated"),
	}
	return rev, true
}

// NormalizeDate rewrites machine timestamps such as "2024-03-15T10:00:00Z"
// to YYYY-MM-DD. Display strings like "March 2024" are kept verbatim.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < len(stay.DateLayout) || s[0] < '0' || s[0] > '9' {
		return s
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return s
	}
	return t.Format(stay.DateLayout)
}
