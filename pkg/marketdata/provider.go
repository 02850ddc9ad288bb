package marketdata

import "context"

// Provider supplies candles and live quotes for equity tickers.
type Provider interface {
	// Candles returns up to count bars for the symbol at the given
	// resolution, oldest first. Fails with ErrUpstreamUnavailable or
	// ErrMalformedData.
	Candles(ctx context.Context, symbol, resolution string, count int) (*CandleSeries, error)
	// LastQuote returns the latest price for the symbol, or (nil, nil) when
	// no quote is available. Absence is a normal outcome, not an error.
	LastQuote(ctx context.Context, symbol string) (*Quote, error)
}
