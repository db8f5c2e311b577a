package graphql

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/pkg/parse/internal/tree"
	"github.com/jmylchreest/staylens/pkg/stay"
)

var profilePaths = []string{
	"data.presentation.userProfileContainer.userProfile",
	"data.presentation.userProfileContainer",
	"data.user",
}

// Host parses a host profile from either a GetUserProfile response or the
// host section of a StaysPdpSections response.
func Host(raw []byte) (*stay.HostProfile, error) {
	root, err := load(raw, "host")
	if err != nil {
		return nil, err
	}
	for _, p := range profilePaths {
		if v := root.Get(p); v.IsObject() {
			return hostFromProfile(v), nil
		}
	}
	if pdp, ok := tree.ParsePDP(root); ok {
		if section, ok := pdp.HostSection(); ok {
			return tree.Host(section), nil
		}
	}
	return nil, stay.Parse(source, "host", "could not find host profile or host section")
}

func hostFromProfile(p gjson.Result) *stay.HostProfile {
	h := &stay.HostProfile{
		Name:              tree.StrOr(p, "Unknown", "name", "hostName", "firstName", "smartName"),
		HostID:            tree.IDPtr(p, "id", "hostId", "userId"),
		IsSuperhost:       tree.Bool(p, "isSuperhost"),
		ResponseTime:      tree.StrPtr(p, "responseTime", "hostResponseTime"),
		MemberSince:       tree.StrPtr(p, "memberSince", "createdAt", "hostMemberSince"),
		Languages:         tree.Strings(p, "languages"),
		TotalListings:     tree.CountPtr(p, "listingsCount", "hostListingCount"),
		Description:       tree.StrPtr(p, "about", "description"),
		ProfilePictureURL: tree.StrPtr(p, "profilePicture.baseUrl", "profilePictureUrl", "pictureUrl"),
		IdentityVerified:  tree.Bool(p, "isIdentityVerified", "identityVerified"),
	}
	if len(h.Languages) == 0 {
		h.Languages = tree.Strings(p, "hostLanguages")
	}
	if h.Languages == nil {
		h.Languages = []string{}
	}

	h.ResponseRate = tree.StrPtr(p, "responseRate", "hostResponseRate")
	if h.ResponseRate == nil {
		if n, ok := tree.Float(p, "responseRate", "hostResponseRate"); ok {
			h.ResponseRate = stay.Ptr(strconv.FormatFloat(n, 'f', -1, 64) + "%")
		}
	}
	return h
}
