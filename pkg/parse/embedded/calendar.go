package embedded

import (
	"github.com/tidwall/gjson"

	"github.com/jmylchreest/staylens/pkg/parse/internal/tree"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// Calendar extracts day-level availability from a listing page. The input
// may also be a bare JSON calendar response. Derived statistics are not
// computed here.
func Calendar(raw []byte, id string) (*stay.PriceCalendar, error) {
	doc, err := load(raw, "calendar")
	if err != nil {
		return nil, err
	}
	now := today()
	for _, root := range doc.roots() {
		if cal, ok := tree.Calendar(root, id, now); ok {
			return cal, nil
		}
	}
	if gjson.ValidBytes(doc.raw) {
		if cal, ok := tree.Calendar(gjson.ParseBytes(doc.raw), id, now); ok {
			return cal, nil
		}
	}
	return nil, stay.Parse(source, "calendar", "could not extract calendar data from response")
}
