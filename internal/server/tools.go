package server

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/jmylchreest/staylens/pkg/source"
	"github.com/jmylchreest/staylens/pkg/stay"
)

type listingInput struct {
	ID string `json:"id"`
}

type monthsInput struct {
	ID     string `json:"id"`
	Months int    `json:"months"`
}

type reviewsInput struct {
	ID     string `json:"id"`
	Cursor string `json:"cursor"`
}

type neighborhoodInput struct {
	Location     string  `json:"location"`
	Checkin      *string `json:"checkin"`
	Checkout     *string `json:"checkout"`
	PropertyType *string `json:"property_type"`
}

// decode reads body into v. An empty body leaves v at its zero value;
// malformed JSON and unknown fields are validation errors.
func decode(body []byte, v any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return stay.Validationf("invalid arguments: %v", err)
	}
	return nil
}

// handle adapts a typed operation to a tool runner.
func handle[In any](fn func(context.Context, In) (any, error)) func(context.Context, []byte) (any, error) {
	return func(ctx context.Context, body []byte) (any, error) {
		var in In
		if err := decode(body, &in); err != nil {
			return nil, err
		}
		return fn(ctx, in)
	}
}

func (s *Server) registry() map[string]Tool {
	tools := []Tool{
		{
			Name:        "search",
			Description: "Search listings by location, dates, guests, price range and property type.",
			run: handle(func(ctx context.Context, in stay.SearchParams) (any, error) {
				return s.client.Search(ctx, in)
			}),
		},
		{
			Name:        "detail",
			Description: "Full details of one listing: description, amenities, rules, photos and host.",
			run: handle(func(ctx context.Context, in listingInput) (any, error) {
				return s.client.Detail(ctx, in.ID)
			}),
		},
		{
			Name:        "calendar",
			Description: "Availability and nightly prices for 1 to 12 months, with summary statistics.",
			run: handle(func(ctx context.Context, in monthsInput) (any, error) {
				cal, err := s.client.Calendar(ctx, in.ID, in.Months)
				if err != nil {
					return nil, err
				}
				cal.ComputeStats()
				return cal, nil
			}),
		},
		{
			Name:        "reviews",
			Description: "One page of guest reviews and the rating breakdown. Pass next_cursor to continue.",
			run: handle(func(ctx context.Context, in reviewsInput) (any, error) {
				return s.client.Reviews(ctx, in.ID, in.Cursor)
			}),
		},
		{
			Name:        "host",
			Description: "Profile of a listing's host.",
			run: handle(func(ctx context.Context, in listingInput) (any, error) {
				return s.client.Host(ctx, in.ID)
			}),
		},
		{
			Name:        "neighborhood_stats",
			Description: "Price, rating, property type and superhost statistics for a location.",
			run: handle(func(ctx context.Context, in neighborhoodInput) (any, error) {
				return source.NeighborhoodStats(ctx, s.client, stay.SearchParams{
					Location:     in.Location,
					Checkin:      in.Checkin,
					Checkout:     in.Checkout,
					PropertyType: in.PropertyType,
				})
			}),
		},
		{
			Name:        "occupancy_estimate",
			Description: "Occupancy rate, weekday and weekend prices and a monthly breakdown from the calendar.",
			run: handle(func(ctx context.Context, in monthsInput) (any, error) {
				return source.OccupancyEstimate(ctx, s.client, in.ID, in.Months)
			}),
		},
	}

	m := make(map[string]Tool, len(tools))
	for _, t := range tools {
		m[t.Name] = t
	}
	return m
}
