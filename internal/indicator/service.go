// Package indicator orchestrates candle fetches and indicator math into
// chart-ready overlay series.
package indicator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"finsight-api/internal/types"
	"finsight-api/pkg/indicators"
	"finsight-api/pkg/marketdata"
)

var (
	// ErrUnknownTicker reports a ticker absent from the company catalog.
	ErrUnknownTicker = errors.New("indicator: unknown ticker")
	// ErrInvalidResolution reports a resolution outside the supported set.
	ErrInvalidResolution = errors.New("indicator: invalid resolution")
)

const (
	defaultCount = 200
	warmupMargin = 10

	minPeriod = 2
	maxPeriod = 365

	defaultSMAPeriod = 20
	defaultEMAPeriod = 20
	defaultRSIPeriod = 14
)

// Catalog answers ticker existence checks.
type Catalog interface {
	Exists(ctx context.Context, ticker string) (bool, error)
}

// CandleSource fetches close series, typically through the caching layer.
type CandleSource interface {
	Candles(ctx context.Context, symbol, resolution string, count int) (*marketdata.CandleSeries, error)
}

// Service computes indicator overlays over a single shared candle fetch.
type Service struct {
	catalog Catalog
	candles CandleSource
}

func NewService(catalog Catalog, candles CandleSource) *Service {
	return &Service{catalog: catalog, candles: candles}
}

// GetIndicators validates the request, fetches one candle series sized to
// cover every requested period plus warm-up margin, and renders the SMA, EMA
// and RSI overlays over it. Any fetch failure aborts the whole request.
func (s *Service) GetIndicators(ctx context.Context, req types.IndicatorRequest) (*types.IndicatorResponse, error) {
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		return nil, fmt.Errorf("%w: empty ticker", ErrUnknownTicker)
	}
	if !marketdata.IsValidResolution(req.Resolution) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidResolution, req.Resolution)
	}

	exists, err := s.catalog.Exists(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("indicator: catalog lookup %s: %w", ticker, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
	}

	smaPeriods := sanitizePeriods(req.SMAPeriods, defaultSMAPeriod)
	emaPeriods := sanitizePeriods(req.EMAPeriods, defaultEMAPeriod)
	rsiPeriods := sanitizePeriods(req.RSIPeriods, defaultRSIPeriod)

	count := requiredCount(req.Count, smaPeriods, emaPeriods, rsiPeriods)
	series, err := s.candles.Candles(ctx, ticker, req.Resolution, count)
	if err != nil {
		return nil, err
	}

	overlays := make([]types.IndicatorOverlay, 0, len(smaPeriods)+len(emaPeriods)+len(rsiPeriods))
	values := make(map[string][]float64)

	families := []struct {
		kind    string
		periods []int
		compute func([]float64, int) ([]float64, error)
	}{
		{"sma", smaPeriods, indicators.SMA},
		{"ema", emaPeriods, indicators.EMA},
		{"rsi", rsiPeriods, indicators.RSI},
	}
	for _, family := range families {
		for _, period := range family.periods {
			computed, err := family.compute(series.Closes, period)
			if err != nil {
				return nil, fmt.Errorf("indicator: %s(%d) over %s: %w", family.kind, period, ticker, err)
			}
			key := fmt.Sprintf("%s-%d", family.kind, period)
			overlays = append(overlays, types.IndicatorOverlay{
				Key:    key,
				Label:  fmt.Sprintf("%s (%d)", strings.ToUpper(family.kind), period),
				Type:   family.kind,
				Period: period,
			})
			values[key] = computed
		}
	}

	points := make([]types.IndicatorPoint, 0, series.Len())
	for i := 0; i < series.Len(); i++ {
		point := types.IndicatorPoint{
			Timestamp: series.Timestamps[i] * 1000,
			Close:     series.Closes[i],
		}
		for _, overlay := range overlays {
			value := values[overlay.Key][i]
			if math.IsNaN(value) {
				continue
			}
			if point.Overlays == nil {
				point.Overlays = make(map[string]float64, len(overlays))
			}
			point.Overlays[overlay.Key] = value
		}
		points = append(points, point)
	}

	return &types.IndicatorResponse{
		Ticker:     ticker,
		Resolution: req.Resolution,
		Overlays:   overlays,
		Points:     points,
	}, nil
}

// sanitizePeriods normalizes one period family: absolute values, bounds
// check, order-preserving de-duplication. An empty result falls back to the
// family default.
func sanitizePeriods(raw []int, fallback int) []int {
	seen := make(map[int]struct{}, len(raw))
	result := make([]int, 0, len(raw))
	for _, period := range raw {
		if period < 0 {
			period = -period
		}
		if period < minPeriod || period > maxPeriod {
			continue
		}
		if _, ok := seen[period]; ok {
			continue
		}
		seen[period] = struct{}{}
		result = append(result, period)
	}
	if len(result) == 0 {
		return []int{fallback}
	}
	return result
}

// requiredCount sizes the candle fetch so the longest period still gets
// warm-up margin, bounded by the provider's hard maximum.
func requiredCount(requested int, families ...[]int) int {
	longest := 1
	for _, periods := range families {
		for _, period := range periods {
			if period > longest {
				longest = period
			}
		}
	}

	if requested <= 0 {
		requested = defaultCount
	}
	count := longest + warmupMargin
	if requested > count {
		count = requested
	}
	if count > marketdata.MaxCandleCount {
		count = marketdata.MaxCandleCount
	}
	return count
}
