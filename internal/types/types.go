// Package types holds the DTOs the analytics core produces for the rest of
// the application.
package types

import "time"

// IndicatorRequest describes one indicator computation over a ticker.
type IndicatorRequest struct {
	Ticker     string `json:"ticker"`
	Resolution string `json:"resolution"`
	Count      int    `json:"count,omitempty"`
	SMAPeriods []int  `json:"smaPeriods,omitempty"`
	EMAPeriods []int  `json:"emaPeriods,omitempty"`
	RSIPeriods []int  `json:"rsiPeriods,omitempty"`
}

// IndicatorOverlay identifies one rendered indicator series, e.g. sma-20.
type IndicatorOverlay struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Type   string `json:"type"`
	Period int    `json:"period"`
}

// IndicatorPoint is one chart bar. Overlays carries only the overlay keys
// defined at this index; warm-up values are omitted entirely.
type IndicatorPoint struct {
	Timestamp int64              `json:"timestamp"` // milliseconds
	Close     float64            `json:"close"`
	Overlays  map[string]float64 `json:"overlays,omitempty"`
}

// IndicatorResponse bundles overlay definitions with per-bar points.
type IndicatorResponse struct {
	Ticker     string             `json:"ticker"`
	Resolution string             `json:"resolution"`
	Overlays   []IndicatorOverlay `json:"overlays"`
	Points     []IndicatorPoint   `json:"points"`
}

// Portfolio is a user's named holding set.
type Portfolio struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
}

// Holding is one position inside a portfolio. Thresholds are optional alert
// bounds carried through to valuations; MinThreshold <= MaxThreshold when
// both are present.
type Holding struct {
	Ticker       string   `json:"ticker"`
	Name         string   `json:"name,omitempty"`
	Quantity     float64  `json:"quantity"`
	AverageCost  float64  `json:"averageCost"`
	MinThreshold *float64 `json:"minThreshold,omitempty"`
	MaxThreshold *float64 `json:"maxThreshold,omitempty"`
}

// HoldingValuation is the derived, request-scoped view of one holding.
// Pointer fields stay nil when the holding is stale.
type HoldingValuation struct {
	Ticker       string     `json:"ticker"`
	Name         string     `json:"name,omitempty"`
	Quantity     float64    `json:"quantity"`
	AverageCost  float64    `json:"averageCost"`
	MinThreshold *float64   `json:"minThreshold,omitempty"`
	MaxThreshold *float64   `json:"maxThreshold,omitempty"`
	Invested     float64    `json:"invested"`
	LastPrice    *float64   `json:"lastPrice,omitempty"`
	PriceAsOf    *time.Time `json:"priceAsOf,omitempty"`
	MarketValue  *float64   `json:"marketValue,omitempty"`
	PnlAbs       *float64   `json:"pnlAbs,omitempty"`
	PnlPct       *float64   `json:"pnlPct,omitempty"`
	Stale        bool       `json:"stale"`
}

// ValuationTotals aggregates a portfolio valuation. MarketValue sums only
// non-stale holdings; Invested sums every holding.
type ValuationTotals struct {
	Invested    float64 `json:"invested"`
	MarketValue float64 `json:"marketValue"`
	PnlAbs      float64 `json:"pnlAbs"`
	PnlPct      float64 `json:"pnlPct"`
	StaleCount  int     `json:"staleCount"`
}

// PortfolioValuation is the full mark-to-market response.
type PortfolioValuation struct {
	PortfolioID int64              `json:"portfolioId"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	Totals      ValuationTotals    `json:"totals"`
	Holdings    []HoldingValuation `json:"holdings"`
}

// PortfolioHistoryPoint is one daily valuation record, stored or
// reconstructed. SnapshotDate is a UTC calendar day.
type PortfolioHistoryPoint struct {
	SnapshotDate time.Time `json:"snapshotDate"`
	CapturedAt   time.Time `json:"capturedAt"`
	Invested     float64   `json:"invested"`
	MarketValue  float64   `json:"marketValue"`
	PnlAbs       float64   `json:"pnlAbs"`
	PnlPct       float64   `json:"pnlPct"`
	StaleCount   int       `json:"staleCount"`
}

// DayUTC truncates t to its UTC calendar day.
func DayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
