package graphql

import (
	"github.com/jmylchreest/staylens/pkg/parse/internal/tree"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// Calendar parses a PdpAvailabilityCalendar response.
func Calendar(raw []byte, id string) (*stay.PriceCalendar, error) {
	root, err := load(raw, "calendar")
	if err != nil {
		return nil, err
	}
	cal, ok := tree.Calendar(root, id, today())
	if !ok {
		return nil, stay.Parse(source, "calendar", "could not find calendar days")
	}
	return cal, nil
}
