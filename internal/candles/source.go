package candles

import (
	"context"

	"github.com/zeromicro/go-zero/core/syncx"

	cachekeys "finsight-api/internal/cache"
	"finsight-api/pkg/marketdata"
)

// Source is a marketdata.Provider that serves candle series and quotes from
// cache when fresh, collapsing concurrent identical requests to a single
// upstream call.
type Source struct {
	provider marketdata.Provider
	store    Store
	ttl      cachekeys.TTLSet
	flight   syncx.SingleFlight
}

var _ marketdata.Provider = (*Source)(nil)

// NewSource wires the caching layer. A nil store disables caching but keeps
// request collapsing.
func NewSource(provider marketdata.Provider, store Store, ttl cachekeys.TTLSet) *Source {
	if store == nil {
		store = NopStore{}
	}
	return &Source{
		provider: provider,
		store:    store,
		ttl:      ttl,
		flight:   syncx.NewSingleFlight(),
	}
}

// Candles implements marketdata.Provider.
func (s *Source) Candles(ctx context.Context, symbol, resolution string, count int) (*marketdata.CandleSeries, error) {
	key := cachekeys.CandleKey(symbol, resolution, count)
	var cached marketdata.CandleSeries
	if s.store.Get(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.flight.Do(key, func() (interface{}, error) {
		series, err := s.provider.Candles(ctx, symbol, resolution, count)
		if err != nil {
			return nil, err
		}
		s.store.Set(ctx, key, series, cachekeys.CandleTTL(s.ttl))
		return series, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*marketdata.CandleSeries), nil
}

// LastQuote implements marketdata.Provider. Only present quotes are cached;
// absence stays a pass-through so a symbol coming online is seen promptly.
func (s *Source) LastQuote(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	key := cachekeys.QuoteKey(symbol)
	var cached marketdata.Quote
	if s.store.Get(ctx, key, &cached) {
		return &cached, nil
	}

	result, err := s.flight.Do(key, func() (interface{}, error) {
		quote, err := s.provider.LastQuote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if quote != nil {
			s.store.Set(ctx, key, quote, cachekeys.QuoteTTL(s.ttl))
		}
		return quote, nil
	})
	if err != nil {
		return nil, err
	}
	quote, _ := result.(*marketdata.Quote)
	return quote, nil
}
