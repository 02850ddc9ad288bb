package finnhub

// candleResponse mirrors the /stock/candle payload. Finnhub reports
// "no_data" in s when the symbol has no candles for the window.
type candleResponse struct {
	Close      []float64 `json:"c"`
	Timestamps []int64   `json:"t"`
	Status     string    `json:"s"`
}

// quoteResponse mirrors the /quote payload. An unknown symbol comes back
// with a zero current price rather than an error status.
type quoteResponse struct {
	Current   float64 `json:"c"`
	Timestamp int64   `json:"t"`
}
