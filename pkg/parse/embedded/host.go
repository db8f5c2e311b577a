package embedded

import (
	"github.com/jmylchreest/staylens/pkg/parse/internal/tree"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// Host extracts the host card from a listing page's deferred state.
func Host(raw []byte) (*stay.HostProfile, error) {
	doc, err := load(raw, "host")
	if err != nil {
		return nil, err
	}
	for _, st := range doc.deferred {
		for _, entry := range st.entries {
			pdp, ok := tree.ParsePDP(entry)
			if !ok {
				continue
			}
			section, ok := pdp.Section("MEET_YOUR_HOST")
			if ok && section.Get("cardData").IsObject() {
				return tree.Host(section), nil
			}
		}
	}
	return nil, stay.Parse(source, "host", "could not extract host profile from listing page")
}
