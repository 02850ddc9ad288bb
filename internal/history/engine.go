// Package history captures daily portfolio snapshots and reconstructs a
// best-effort history when none has been stored yet.
package history

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"finsight-api/internal/repo"
	"finsight-api/internal/types"
	"finsight-api/internal/valuation"
	"finsight-api/pkg/marketdata"
)

// DefaultBackfillDays bounds reconstruction when the caller does not ask for
// a specific window.
const DefaultBackfillDays = 90

// Engine reconciles stored snapshots with on-demand reconstruction.
type Engine struct {
	portfolios   repo.PortfoliosRepo
	snapshots    repo.SnapshotsRepo
	candles      marketdata.Provider
	valuer       *valuation.Engine
	backfillDays int

	now func() time.Time
}

func NewEngine(portfolios repo.PortfoliosRepo, snapshots repo.SnapshotsRepo, candles marketdata.Provider, valuer *valuation.Engine, backfillDays int) *Engine {
	if backfillDays <= 0 {
		backfillDays = DefaultBackfillDays
	}
	return &Engine{
		portfolios:   portfolios,
		snapshots:    snapshots,
		candles:      candles,
		valuer:       valuer,
		backfillDays: backfillDays,
		now:          time.Now,
	}
}

// CaptureSnapshot persists one valuation snapshot for the portfolio on the
// given UTC day. An already-captured day is a no-op; a racing duplicate
// insert is absorbed by the storage uniqueness constraint.
func (e *Engine) CaptureSnapshot(ctx context.Context, portfolio types.Portfolio, day time.Time) error {
	day = types.DayUTC(day)

	exists, err := e.snapshots.Exists(ctx, portfolio.ID, day)
	if err != nil {
		return fmt.Errorf("history: snapshot exists check portfolio %d: %w", portfolio.ID, err)
	}
	if exists {
		return nil
	}

	holdings, err := e.portfolios.Holdings(ctx, portfolio.ID)
	if err != nil {
		return fmt.Errorf("history: load holdings portfolio %d: %w", portfolio.ID, err)
	}

	_, totals := e.valuer.Value(ctx, holdings)
	inserted, err := e.snapshots.Insert(ctx, repo.SnapshotRecord{
		PortfolioID:  portfolio.ID,
		SnapshotDate: day,
		CapturedAt:   e.now().UTC(),
		Invested:     totals.Invested,
		MarketValue:  totals.MarketValue,
		PnlAbs:       totals.PnlAbs,
		PnlPct:       totals.PnlPct,
		StaleCount:   totals.StaleCount,
	})
	if err != nil {
		return fmt.Errorf("history: insert snapshot portfolio %d: %w", portfolio.ID, err)
	}
	if !inserted {
		logx.WithContext(ctx).Infof("history: snapshot portfolio %d %s already present, skipped", portfolio.ID, day.Format("2006-01-02"))
	}

	return nil
}

// CaptureAll snapshots every portfolio for today. One portfolio's failure is
// logged and does not abort the rest of the batch.
func (e *Engine) CaptureAll(ctx context.Context) error {
	portfolios, err := e.portfolios.All(ctx)
	if err != nil {
		return fmt.Errorf("history: list portfolios: %w", err)
	}

	day := types.DayUTC(e.now())
	var failed int
	for _, portfolio := range portfolios {
		if err := e.CaptureSnapshot(ctx, portfolio, day); err != nil {
			failed++
			logx.WithContext(ctx).Errorf("history: capture portfolio %d: %v", portfolio.ID, err)
		}
	}
	if failed > 0 {
		logx.WithContext(ctx).Infof("history: capture finished, %d/%d portfolios failed", failed, len(portfolios))
	}

	return nil
}

// ListHistory returns the portfolio's daily history, date-ascending. Stored
// snapshots win; when none exist, or when backfillDays explicitly asks for a
// window, the series is reconstructed from daily closes and persisted for
// future reads.
func (e *Engine) ListHistory(ctx context.Context, portfolioID int64, backfillDays int) ([]types.PortfolioHistoryPoint, error) {
	portfolio, err := e.portfolios.ByID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	stored, err := e.snapshots.ListByPortfolio(ctx, portfolio.ID)
	if err != nil {
		return nil, fmt.Errorf("history: list snapshots portfolio %d: %w", portfolio.ID, err)
	}
	if len(stored) > 0 && backfillDays <= 0 {
		return stored, nil
	}

	days := backfillDays
	if days <= 0 {
		days = e.backfillDays
	}

	return e.reconstruct(ctx, portfolio.ID, days)
}

// reconstruct rebuilds a daily series from current holdings. Degradation is
// tiered per holding: full close series, then a single live-quote point for
// today, then no contribution at all; if nothing yields a value the result
// is one synthetic point from the live valuation totals.
func (e *Engine) reconstruct(ctx context.Context, portfolioID int64, days int) ([]types.PortfolioHistoryPoint, error) {
	holdings, err := e.portfolios.Holdings(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("history: load holdings portfolio %d: %w", portfolioID, err)
	}
	// An empty portfolio has no history to reconstruct; persisting a zero
	// point would permanently occupy that date.
	if len(holdings) == 0 {
		return []types.PortfolioHistoryPoint{}, nil
	}

	// Cost basis is approximated as static over the window: reconstruction
	// does not replay historical trade dates.
	var invested float64
	active := make([]types.Holding, 0, len(holdings))
	for _, holding := range holdings {
		invested += sanitize(holding.Quantity * holding.AverageCost)
		if holding.Quantity > 0 {
			active = append(active, holding)
		}
	}
	invested = sanitize(invested)

	today := types.DayUTC(e.now())
	marketValue := make(map[time.Time]float64)
	genuineCloses := make(map[time.Time]int)

	for _, holding := range active {
		closes := e.dailyCloses(ctx, holding.Ticker, days)
		if len(closes) > 0 {
			for day, close := range closes {
				marketValue[day] += holding.Quantity * close
				genuineCloses[day]++
			}
			continue
		}

		quote, err := e.candles.LastQuote(ctx, holding.Ticker)
		if err != nil {
			logx.WithContext(ctx).Errorf("history: fallback quote %s: %v", holding.Ticker, err)
			continue
		}
		if quote == nil {
			continue
		}
		// A live quote stands in for today only; it does not count as a
		// genuine close, so the holding stays stale for staleness purposes.
		marketValue[today] += holding.Quantity * quote.Price
	}

	if len(marketValue) == 0 {
		return e.syntheticPoint(ctx, portfolioID, holdings, invested)
	}

	dates := make([]time.Time, 0, len(marketValue))
	for day := range marketValue {
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	capturedAt := e.now().UTC()
	points := make([]types.PortfolioHistoryPoint, 0, len(dates))
	for _, day := range dates {
		mv := sanitize(marketValue[day])
		point := types.PortfolioHistoryPoint{
			SnapshotDate: day,
			CapturedAt:   capturedAt,
			Invested:     invested,
			MarketValue:  mv,
			PnlAbs:       sanitize(mv - invested),
			StaleCount:   len(active) - genuineCloses[day],
		}
		if invested != 0 {
			point.PnlPct = sanitize(point.PnlAbs / invested)
		}
		points = append(points, point)
	}

	e.persistPoints(ctx, portfolioID, points)

	return points, nil
}

// dailyCloses fetches the holding's daily close series and keys it by UTC
// calendar day. Fetch failures and empty series both yield nil so the caller
// falls through to the next tier.
func (e *Engine) dailyCloses(ctx context.Context, ticker string, days int) map[time.Time]float64 {
	series, err := e.candles.Candles(ctx, ticker, "D", days)
	if err != nil {
		logx.WithContext(ctx).Errorf("history: daily closes %s: %v", ticker, err)
		return nil
	}
	if series == nil || series.Len() == 0 {
		return nil
	}

	closes := make(map[time.Time]float64, series.Len())
	for i, ts := range series.Timestamps {
		closes[types.DayUTC(time.Unix(ts, 0))] = series.Closes[i]
	}
	return closes
}

func (e *Engine) syntheticPoint(ctx context.Context, portfolioID int64, holdings []types.Holding, invested float64) ([]types.PortfolioHistoryPoint, error) {
	_, totals := e.valuer.Value(ctx, holdings)
	point := types.PortfolioHistoryPoint{
		SnapshotDate: types.DayUTC(e.now()),
		CapturedAt:   e.now().UTC(),
		Invested:     invested,
		MarketValue:  totals.MarketValue,
		PnlAbs:       sanitize(totals.MarketValue - invested),
		StaleCount:   totals.StaleCount,
	}
	if invested != 0 {
		point.PnlPct = sanitize(point.PnlAbs / invested)
	}

	points := []types.PortfolioHistoryPoint{point}
	e.persistPoints(ctx, portfolioID, points)
	return points, nil
}

// persistPoints backfills reconstructed points into storage. Writes are
// best-effort and never overwrite an already-stored date.
func (e *Engine) persistPoints(ctx context.Context, portfolioID int64, points []types.PortfolioHistoryPoint) {
	for _, point := range points {
		_, err := e.snapshots.Insert(ctx, repo.SnapshotRecord{
			PortfolioID:  portfolioID,
			SnapshotDate: point.SnapshotDate,
			CapturedAt:   point.CapturedAt,
			Invested:     point.Invested,
			MarketValue:  point.MarketValue,
			PnlAbs:       point.PnlAbs,
			PnlPct:       point.PnlPct,
			StaleCount:   point.StaleCount,
		})
		if err != nil {
			logx.WithContext(ctx).Errorf("history: backfill persist portfolio %d %s: %v",
				portfolioID, point.SnapshotDate.Format("2006-01-02"), err)
		}
	}
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
