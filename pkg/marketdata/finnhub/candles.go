package finnhub

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"finsight-api/pkg/marketdata"
)

// GetCandles fetches up to count close prices for the symbol at the given
// resolution, oldest first.
func (c *Client) GetCandles(ctx context.Context, symbol, resolution string, count int) (*marketdata.CandleSeries, error) {
	if !marketdata.IsValidResolution(resolution) {
		return nil, fmt.Errorf("finnhub: unsupported resolution %q", resolution)
	}
	if count <= 0 {
		return nil, fmt.Errorf("finnhub: count must be positive, got %d", count)
	}
	if count > marketdata.MaxCandleCount {
		count = marketdata.MaxCandleCount
	}

	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("resolution", resolution)
	query.Set("count", strconv.Itoa(count))

	var response candleResponse
	if err := c.doRequest(ctx, "/stock/candle", query, &response); err != nil {
		return nil, err
	}
	if !strings.EqualFold(response.Status, "ok") {
		return nil, fmt.Errorf("%w: candle status %q for %s", marketdata.ErrMalformedData, response.Status, symbol)
	}
	if len(response.Close) == 0 || len(response.Close) != len(response.Timestamps) {
		return nil, fmt.Errorf("%w: candle arrays empty or mismatched for %s (c=%d t=%d)",
			marketdata.ErrMalformedData, symbol, len(response.Close), len(response.Timestamps))
	}

	return &marketdata.CandleSeries{
		Closes:     response.Close,
		Timestamps: response.Timestamps,
	}, nil
}

// GetQuote fetches the latest quote for the symbol. Finnhub signals an
// unknown symbol with a zero price, which callers see as absence.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	query := url.Values{}
	query.Set("symbol", symbol)

	var response quoteResponse
	if err := c.doRequest(ctx, "/quote", query, &response); err != nil {
		return nil, err
	}
	if response.Current <= 0 {
		return nil, nil
	}
	asOf := time.Now().UTC()
	if response.Timestamp > 0 {
		asOf = time.Unix(response.Timestamp, 0).UTC()
	}
	return &marketdata.Quote{Price: response.Current, AsOf: asOf}, nil
}
