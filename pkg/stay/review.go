package stay

// Review is a single guest review. Rating is not range-checked because
// upstream does not always use a five-point scale.
type Review struct {
	Author           string   `json:"author" yaml:"author"`
	Date             string   `json:"date" yaml:"date"`
	Rating           *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`
	Comment          string   `json:"comment" yaml:"comment"`
	Response         *string  `json:"response,omitempty" yaml:"response,omitempty"`
	ReviewerLocation *string  `json:"reviewer_location,omitempty" yaml:"reviewer_location,omitempty"`
	Language         *string  `json:"language,omitempty" yaml:"language,omitempty"`
	IsTranslated     *bool    `json:"is_translated,omitempty" yaml:"is_translated,omitempty"`
}

// ReviewsSummary is the aggregate rating breakdown for a listing.
type ReviewsSummary struct {
	OverallRating float64  `json:"overall_rating" yaml:"overall_rating"`
	TotalReviews  int      `json:"total_reviews" yaml:"total_reviews"`
	Cleanliness   *float64 `json:"cleanliness,omitempty" yaml:"cleanliness,omitempty"`
	Accuracy      *float64 `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
	Communication *float64 `json:"communication,omitempty" yaml:"communication,omitempty"`
	Location      *float64 `json:"location,omitempty" yaml:"location,omitempty"`
	CheckIn       *float64 `json:"check_in,omitempty" yaml:"check_in,omitempty"`
	Value         *float64 `json:"value,omitempty" yaml:"value,omitempty"`
}

// SetCategory stores score under the sub-rating named by label, matching
// display labels ("Check-in") and enum names ("CHECKIN") alike. Unknown
// labels are ignored.
func (s *ReviewsSummary) SetCategory(label string, score *float64) {
	switch normalizeLabel(label) {
	case "cleanliness":
		s.Cleanliness = score
	case "accuracy":
		s.Accuracy = score
	case "communication":
		s.Communication = score
	case "location":
		s.Location = score
	case "checkin":
		s.CheckIn = score
	case "value":
		s.Value = score
	}
}

func normalizeLabel(label string) string {
	out := make([]byte, 0, len(label))
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out = append(out, c+'a'-'A')
		case c >= 'a' && c <= 'z':
			out = append(out, c)
		}
	}
	return string(out)
}

// ReviewsPage is one page of reviews plus an optional continuation cursor.
type ReviewsPage struct {
	ListingID  string          `json:"listing_id" yaml:"listing_id"`
	Summary    *ReviewsSummary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Reviews    []Review        `json:"reviews" yaml:"reviews"`
	NextCursor *string         `json:"next_cursor,omitempty" yaml:"next_cursor,omitempty"`
}

// HostProfile describes the host of a listing.
type HostProfile struct {
	HostID            *string  `json:"host_id,omitempty" yaml:"host_id,omitempty"`
	Name              string   `json:"name" yaml:"name"`
	IsSuperhost       *bool    `json:"is_superhost,omitempty" yaml:"is_superhost,omitempty"`
	ResponseRate      *string  `json:"response_rate,omitempty" yaml:"response_rate,omitempty"`
	ResponseTime      *string  `json:"response_time,omitempty" yaml:"response_time,omitempty"`
	MemberSince       *string  `json:"member_since,omitempty" yaml:"member_since,omitempty"`
	Languages         []string `json:"languages" yaml:"languages"`
	TotalListings     *int     `json:"total_listings,omitempty" yaml:"total_listings,omitempty"`
	Description       *string  `json:"description,omitempty" yaml:"description,omitempty"`
	ProfilePictureURL *string  `json:"profile_picture_url,omitempty" yaml:"profile_picture_url,omitempty"`
	IdentityVerified  *bool    `json:"identity_verified,omitempty" yaml:"identity_verified,omitempty"`
}
