package valuation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finsight-api/internal/types"
	"finsight-api/pkg/marketdata"
)

type fakeQuotes struct {
	prices map[string]float64
	errs   map[string]error
	calls  map[string]int
}

func newFakeQuotes() *fakeQuotes {
	return &fakeQuotes{
		prices: map[string]float64{},
		errs:   map[string]error{},
		calls:  map[string]int{},
	}
}

func (f *fakeQuotes) LastQuote(_ context.Context, symbol string) (*marketdata.Quote, error) {
	f.calls[symbol]++
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	price, ok := f.prices[symbol]
	if !ok {
		return nil, nil
	}
	return &marketdata.Quote{Price: price, AsOf: time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)}, nil
}

func TestValueMixedPortfolio(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.prices["AAPL"] = 150

	holdings := []types.Holding{
		{Ticker: "AAPL", Quantity: 10, AverageCost: 90},
		{Ticker: "GONE", Quantity: 5, AverageCost: 20},
	}

	engine := NewEngine(quotes)
	rows, totals := engine.Value(context.Background(), holdings)
	require.Len(t, rows, 2)

	apple := rows[0]
	require.False(t, apple.Stale)
	require.InDelta(t, 900, apple.Invested, 1e-9)
	require.NotNil(t, apple.MarketValue)
	require.InDelta(t, 1500, *apple.MarketValue, 1e-9)
	require.NotNil(t, apple.PnlAbs)
	require.InDelta(t, 600, *apple.PnlAbs, 1e-9)
	require.NotNil(t, apple.PnlPct)
	require.InDelta(t, 600.0/900.0, *apple.PnlPct, 1e-9)

	gone := rows[1]
	require.True(t, gone.Stale)
	require.Nil(t, gone.MarketValue)
	require.Nil(t, gone.PnlAbs)
	require.InDelta(t, 100, gone.Invested, 1e-9)

	require.InDelta(t, 1000, totals.Invested, 1e-9)
	require.InDelta(t, 1500, totals.MarketValue, 1e-9)
	require.InDelta(t, 500, totals.PnlAbs, 1e-9)
	require.InDelta(t, 0.5, totals.PnlPct, 1e-9)
	require.Equal(t, 1, totals.StaleCount)
}

func TestValueLookupErrorMeansStale(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.errs["AAPL"] = errors.New("upstream down")

	engine := NewEngine(quotes)
	rows, totals := engine.Value(context.Background(), []types.Holding{
		{Ticker: "AAPL", Quantity: 3, AverageCost: 10},
	})

	require.True(t, rows[0].Stale)
	require.Equal(t, 1, totals.StaleCount)
	require.InDelta(t, 30, totals.Invested, 1e-9)
	require.InDelta(t, 0, totals.MarketValue, 1e-9)
}

func TestValueZeroQuantityQuotedButNotCountedStale(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.prices["AAPL"] = 150

	engine := NewEngine(quotes)
	rows, totals := engine.Value(context.Background(), []types.Holding{
		{Ticker: "AAPL", Quantity: 0, AverageCost: 90},
		{Ticker: "GONE", Quantity: 0, AverageCost: 20},
	})
	require.Len(t, rows, 2)

	// Priced zero-qty holding gets a full row, contributing nothing.
	require.False(t, rows[0].Stale)
	require.NotNil(t, rows[0].MarketValue)
	require.InDelta(t, 0, *rows[0].MarketValue, 1e-9)

	// Unpriced zero-qty holding is stale on its row but not in totals.
	require.True(t, rows[1].Stale)
	require.Equal(t, 0, totals.StaleCount)
	require.InDelta(t, 0, totals.MarketValue, 1e-9)

	require.Equal(t, 1, quotes.calls["AAPL"])
	require.Equal(t, 1, quotes.calls["GONE"])
}

func TestValueZeroInvestedZeroPnlPct(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.prices["FREE"] = 12

	engine := NewEngine(quotes)
	rows, totals := engine.Value(context.Background(), []types.Holding{
		{Ticker: "FREE", Quantity: 2, AverageCost: 0},
	})

	require.NotNil(t, rows[0].PnlPct)
	require.InDelta(t, 0, *rows[0].PnlPct, 1e-9)
	require.InDelta(t, 0, totals.PnlPct, 1e-9)
	require.InDelta(t, 24, totals.MarketValue, 1e-9)
}

func TestValueSanitizesNonFinite(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.prices["WILD"] = math.Inf(1)

	engine := NewEngine(quotes)
	rows, totals := engine.Value(context.Background(), []types.Holding{
		{Ticker: "WILD", Quantity: 1, AverageCost: 10},
	})

	require.NotNil(t, rows[0].MarketValue)
	require.InDelta(t, 0, *rows[0].MarketValue, 1e-9)
	require.False(t, math.IsInf(totals.MarketValue, 0))
	require.False(t, math.IsNaN(totals.PnlPct))
}

func TestValueThresholdsPassThrough(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.prices["AAPL"] = 150
	minT, maxT := 100.0, 200.0

	engine := NewEngine(quotes)
	rows, _ := engine.Value(context.Background(), []types.Holding{
		{Ticker: "AAPL", Quantity: 1, AverageCost: 90, MinThreshold: &minT, MaxThreshold: &maxT},
	})

	require.NotNil(t, rows[0].MinThreshold)
	require.InDelta(t, 100, *rows[0].MinThreshold, 1e-9)
	require.NotNil(t, rows[0].MaxThreshold)
	require.InDelta(t, 200, *rows[0].MaxThreshold, 1e-9)
}

func TestValuePortfolioWrapsTotals(t *testing.T) {
	quotes := newFakeQuotes()
	quotes.prices["AAPL"] = 150

	engine := NewEngine(quotes)
	valuation := engine.ValuePortfolio(context.Background(), 42, []types.Holding{
		{Ticker: "AAPL", Quantity: 2, AverageCost: 100},
	})

	require.Equal(t, int64(42), valuation.PortfolioID)
	require.WithinDuration(t, time.Now().UTC(), valuation.UpdatedAt, time.Minute)
	require.InDelta(t, 300, valuation.Totals.MarketValue, 1e-9)
	require.Len(t, valuation.Holdings, 1)
}
