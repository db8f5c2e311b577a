package source

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/conc/pool"

	"github.com/jmylchreest/staylens/pkg/analytics"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// DefaultConcurrency bounds DetailMany when no limit is given.
const DefaultConcurrency = 4

// NeighborhoodStats searches with params and aggregates the results.
func NeighborhoodStats(ctx context.Context, c Client, params stay.SearchParams) (*analytics.NeighborhoodStats, error) {
	res, err := c.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	stats := analytics.Neighborhood(params.Location, res.Listings)
	return &stats, nil
}

// OccupancyEstimate fetches months of calendar for id and estimates its
// occupancy.
func OccupancyEstimate(ctx context.Context, c Client, id string, months int) (*analytics.OccupancyEstimate, error) {
	cal, err := c.Calendar(ctx, id, months)
	if err != nil {
		return nil, err
	}
	cal.ComputeStats()
	est := analytics.Occupancy(id, cal)
	return &est, nil
}

// DetailResult is the outcome for one id in DetailMany.
type DetailResult struct {
	ID     string
	Detail *stay.ListingDetail
	Err    error
}

type detailResultView struct {
	ID     string              `json:"id" yaml:"id"`
	Detail *stay.ListingDetail `json:"detail,omitempty" yaml:"detail,omitempty"`
	Error  string              `json:"error,omitempty" yaml:"error,omitempty"`
	Kind   string              `json:"kind,omitempty" yaml:"kind,omitempty"`
}

func (r DetailResult) view() detailResultView {
	v := detailResultView{ID: r.ID, Detail: r.Detail}
	if r.Err != nil {
		v.Error = r.Err.Error()
		v.Kind = stay.KindOf(r.Err).String()
	}
	return v
}

// MarshalJSON writes the error as a message rather than an empty object.
func (r DetailResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.view())
}

// MarshalYAML mirrors MarshalJSON.
func (r DetailResult) MarshalYAML() (any, error) {
	return r.view(), nil
}

// DetailMany fetches the details of ids with at most concurrency requests
// in flight. Results are in input order and one failure does not cancel
// the rest.
func DetailMany(ctx context.Context, c Client, ids []string, concurrency int) []DetailResult {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	results := make([]DetailResult, len(ids))
	p := pool.New().WithMaxGoroutines(concurrency)
	for i, id := range ids {
		p.Go(func() {
			d, err := c.Detail(ctx, id)
			results[i] = DetailResult{ID: id, Detail: d, Err: err}
		})
	}
	p.Wait()
	return results
}
