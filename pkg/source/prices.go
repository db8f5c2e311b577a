package source

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmylchreest/staylens/internal/logger"
	"github.com/jmylchreest/staylens/pkg/cache"
	"github.com/jmylchreest/staylens/pkg/stay"
)

// DefaultPriceTTL is how long a nightly price seen in search results stays
// usable for detail lookups.
const DefaultPriceTTL = 6 * time.Hour

type seenPrice struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
}

// PriceMemo remembers the nightly price of every listing returned by
// Search and uses it for a Detail that comes back without one. Detail
// pages often omit the price when no dates are given, while search cards
// carry it.
type PriceMemo struct {
	Client
	prices cache.Cache
	ttl    time.Duration
}

// NewPriceMemo wraps c, storing prices in prices. A non-positive ttl means
// DefaultPriceTTL.
func NewPriceMemo(c Client, prices cache.Cache, ttl time.Duration) *PriceMemo {
	if ttl <= 0 {
		ttl = DefaultPriceTTL
	}
	return &PriceMemo{Client: c, prices: prices, ttl: ttl}
}

// Search implements Client and records every positive price.
func (m *PriceMemo) Search(ctx context.Context, params stay.SearchParams) (*stay.SearchResult, error) {
	res, err := m.Client.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	for _, l := range res.Listings {
		if l.PricePerNight <= 0 || l.ID == "" {
			continue
		}
		raw, err := json.Marshal(seenPrice{Price: l.PricePerNight, Currency: l.Currency})
		if err != nil {
			continue
		}
		m.prices.Set(ctx, cache.PriceKey(l.ID), string(raw), m.ttl)
	}
	return res, nil
}

// Detail implements Client. A zero price is replaced by the last price
// seen for id in a search result, together with its currency.
func (m *PriceMemo) Detail(ctx context.Context, id string) (*stay.ListingDetail, error) {
	d, err := m.Client.Detail(ctx, id)
	if err != nil || d.PricePerNight > 0 {
		return d, err
	}
	raw, ok := m.prices.Get(ctx, cache.PriceKey(id))
	if !ok {
		return d, nil
	}
	var p seenPrice
	if err := json.Unmarshal([]byte(raw), &p); err != nil || p.Price <= 0 {
		return d, nil
	}
	logger.DebugContext(ctx, "detail price taken from search results", "id", id, "price", p.Price)
	d.PricePerNight = p.Price
	if p.Currency != "" {
		d.Currency = p.Currency
	}
	return d, nil
}
