package tree

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/pkg/stay"
)

// PDP is the sectioned product-detail-page payload shared by the HTML
// deferred state and the StaysPdpSections query.
type PDP struct {
	Container gjson.Result // stayProductDetailPage.sections
	Sections  []gjson.Result
	Metadata  gjson.Result
}

// ParsePDP locates the section list under root.
func ParsePDP(root gjson.Result) (PDP, bool) {
	container := root.Get("data.presentation.stayProductDetailPage.sections")
	sections := container.Get("sections")
	if !sections.IsArray() {
		return PDP{}, false
	}
	return PDP{
		Container: container,
		Sections:  sections.Array(),
		Metadata:  container.Get("metadata"),
	}, true
}

// Section returns the body of the first section whose component type is
// one of types.
func (p PDP) Section(types ...string) (gjson.Result, bool) {
	for _, s := range p.Sections {
		t := s.Get("sectionComponentType").String()
		for _, want := range types {
			if t == want {
				body := s.Get("section")
				return body, body.Exists()
			}
		}
	}
	return gjson.Result{}, false
}

// HostSection returns MEET_YOUR_HOST, or else any section type naming a host.
func (p PDP) HostSection() (gjson.Result, bool) {
	if s, ok := p.Section("MEET_YOUR_HOST"); ok {
		return s, true
	}
	for _, s := range p.Sections {
		if strings.Contains(s.Get("sectionComponentType").String(), "HOST") {
			body := s.Get("section")
			return body, body.Exists()
		}
	}
	return gjson.Result{}, false
}

// Host builds a profile from a host section, preferring cardData fields
// and falling back to section-level ones.
func Host(section gjson.Result) *stay.HostProfile {
	card := section.Get("cardData")
	either := func(cardKeys []string, sectionKeys ...string) *string {
		if s := StrPtr(card, cardKeys...); s != nil {
			return s
		}
		return StrPtr(section, sectionKeys...)
	}

	h := &stay.HostProfile{
		Name:              StrOr(card, StrOr(section, "Unknown", "hostName", "name", "titleText"), "name"),
		HostID:            IDPtr(card, "userId", "id", "hostId"),
		IsSuperhost:       Bool(card, "isSuperhost"),
		ResponseRate:      either([]string{"responseRate"}, "hostResponseRate"),
		ResponseTime:      either([]string{"responseTime"}, "hostRespondTimeCopy", "hostResponseTime"),
		MemberSince:       either([]string{"memberSince", "createdAt", "joinedDate"}, "hostMemberSince"),
		TotalListings:     CountPtr(card, "listingsCount", "hostListingCount"),
		Description:       either([]string{"about", "description"}, "about", "description"),
		ProfilePictureURL: either([]string{"profilePictureUrl", "profilePicture", "avatarUrl", "pictureUrl"}, "profilePicture.baseUrl", "profilePictureUrl"),
		IdentityVerified:  Bool(card, "isIdentityVerified", "identityVerified", "isVerified"),
	}
	if h.HostID == nil {
		h.HostID = IDPtr(section, "hostId")
	}
	if h.IsSuperhost == nil {
		h.IsSuperhost = Bool(section, "isSuperhost")
	}
	if h.IdentityVerified == nil {
		h.IdentityVerified = Bool(section, "isIdentityVerified")
	}
	if h.TotalListings == nil {
		h.TotalListings = CountPtr(section, "listingsCount", "hostListingCount")
	}
	if h.MemberSince == nil {
		if years, ok := Count(card, "timeAsHost.years"); ok {
			h.MemberSince = stay.Ptr(strconv.Itoa(years) + " years hosting")
		}
	}

	for _, detail := range Strings(section, "hostDetails") {
		lower := strings.ToLower(detail)
		switch {
		case strings.Contains(lower, "response rate"):
			if h.ResponseRate == nil {
				h.ResponseRate = stay.Ptr(detail)
			}
		case strings.Contains(lower, "respond"):
			if h.ResponseTime == nil {
				h.ResponseTime = stay.Ptr(detail)
			}
		}
	}

	h.Languages = Strings(card, "languages")
	if len(h.Languages) == 0 {
		h.Languages = HighlightLanguages(section)
	}
	if len(h.Languages) == 0 {
		h.Languages = Strings(section, "hostLanguages")
	}
	if h.Languages == nil {
		h.Languages = []string{}
	}
	return h
}

// HighlightLanguages reads "Speaks English and French" style highlights.
func HighlightLanguages(section gjson.Result) []string {
	for _, hl := range Array(section, "hostHighlights") {
		title := hl.Get("title").String()
		lower := strings.ToLower(title)
		rest := ""
		switch {
		case strings.HasPrefix(lower, "speaks "):
			rest = title[len("speaks "):]
		case strings.HasPrefix(lower, "language"):
			rest = title
		default:
			continue
		}
		return splitLanguages(rest)
	}
	return nil
}

func splitLanguages(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '&' }) {
		for _, lang := range strings.Split(part, " and ") {
			lang = strings.TrimSpace(lang)
			lang = strings.TrimPrefix(lang, "and ")
			if lang != "" {
				out = append(out, lang)
			}
		}
	}
	return out
}
