package marketdata

import (
	"errors"
	"time"
)

// Resolutions supported by candle requests.
var supportedResolutions = map[string]struct{}{
	"1": {}, "5": {}, "15": {}, "30": {}, "60": {},
	"D": {}, "W": {}, "M": {},
}

// IsValidResolution reports whether the resolution is on the allow-list.
func IsValidResolution(resolution string) bool {
	_, ok := supportedResolutions[resolution]
	return ok
}

// MaxCandleCount caps how many bars a single candle request may ask for.
const MaxCandleCount = 500

var (
	// ErrUpstreamUnavailable indicates a transport-level failure talking to
	// the market data source (timeout, connection error, non-2xx status).
	ErrUpstreamUnavailable = errors.New("marketdata: upstream unavailable")
	// ErrMalformedData indicates the source answered but violated its
	// contract (bad status flag, empty or mismatched arrays).
	ErrMalformedData = errors.New("marketdata: malformed upstream data")
)

// CandleSeries is an ordered close-price series. Timestamps are epoch
// seconds, non-decreasing, and always the same length as Closes.
type CandleSeries struct {
	Closes     []float64 `msgpack:"c"`
	Timestamps []int64   `msgpack:"t"`
}

// Len returns the number of bars in the series.
func (s *CandleSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Closes)
}

// Quote is a live last-price observation.
type Quote struct {
	Price float64   `msgpack:"price"`
	AsOf  time.Time `msgpack:"as_of"`
}
