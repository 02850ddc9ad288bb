package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"finsight-api/internal/types"
)

// SnapshotRecord is one row of the portfolio_history table. SnapshotDate is
// a UTC calendar day; (PortfolioID, SnapshotDate) is unique.
type SnapshotRecord struct {
	PortfolioID  int64
	SnapshotDate time.Time
	CapturedAt   time.Time
	Invested     float64
	MarketValue  float64
	PnlAbs       float64
	PnlPct       float64
	StaleCount   int
}

// SnapshotsRepo persists and reads daily portfolio valuation snapshots.
type SnapshotsRepo interface {
	// Exists reports whether a snapshot row exists for the portfolio on the
	// given UTC day.
	Exists(ctx context.Context, portfolioID int64, day time.Time) (bool, error)
	// Insert writes one snapshot row. An existing (portfolio_id,
	// snapshot_date) pair is left untouched; the return value reports
	// whether a row was actually written.
	Insert(ctx context.Context, rec SnapshotRecord) (bool, error)
	// ListByPortfolio returns all stored snapshots for a portfolio in
	// ascending snapshot-date order.
	ListByPortfolio(ctx context.Context, portfolioID int64) ([]types.PortfolioHistoryPoint, error)
}

type snapshotsRepo struct {
	conn sqlx.SqlConn
}

func newSnapshotsRepo(deps Dependencies) SnapshotsRepo {
	return &snapshotsRepo{
		conn: deps.DBConn,
	}
}

func (r *snapshotsRepo) Exists(ctx context.Context, portfolioID int64, day time.Time) (bool, error) {
	query := `
SELECT EXISTS (
    SELECT 1
    FROM public.portfolio_history
    WHERE portfolio_id = $1 AND snapshot_date = $2
)`

	var exists bool
	if err := r.conn.QueryRowCtx(ctx, &exists, query, portfolioID, types.DayUTC(day)); err != nil {
		return false, fmt.Errorf("snapshotsRepo.Exists query: %w", err)
	}

	return exists, nil
}

func (r *snapshotsRepo) Insert(ctx context.Context, rec SnapshotRecord) (bool, error) {
	query := `
INSERT INTO public.portfolio_history (
    portfolio_id,
    snapshot_date,
    captured_at,
    invested,
    market_value,
    pnl_abs,
    pnl_pct,
    stale_count
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (portfolio_id, snapshot_date) DO NOTHING`

	result, err := r.conn.ExecCtx(ctx, query,
		rec.PortfolioID,
		types.DayUTC(rec.SnapshotDate),
		rec.CapturedAt.UTC(),
		rec.Invested,
		rec.MarketValue,
		rec.PnlAbs,
		rec.PnlPct,
		rec.StaleCount,
	)
	if err != nil {
		return false, fmt.Errorf("snapshotsRepo.Insert exec: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("snapshotsRepo.Insert rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *snapshotsRepo) ListByPortfolio(ctx context.Context, portfolioID int64) ([]types.PortfolioHistoryPoint, error) {
	query := `
SELECT
    snapshot_date,
    captured_at,
    invested,
    market_value,
    pnl_abs,
    pnl_pct,
    stale_count
FROM public.portfolio_history
WHERE portfolio_id = $1
ORDER BY snapshot_date`

	var rows []snapshotRow
	if err := r.conn.QueryRowsCtx(ctx, &rows, query, portfolioID); err != nil {
		return nil, fmt.Errorf("snapshotsRepo.ListByPortfolio query: %w", err)
	}

	result := make([]types.PortfolioHistoryPoint, 0, len(rows))
	for _, row := range rows {
		result = append(result, types.PortfolioHistoryPoint{
			SnapshotDate: types.DayUTC(row.SnapshotDate),
			CapturedAt:   row.CapturedAt.UTC(),
			Invested:     row.Invested,
			MarketValue:  row.MarketValue,
			PnlAbs:       row.PnlAbs,
			PnlPct:       row.PnlPct,
			StaleCount:   row.StaleCount,
		})
	}

	return result, nil
}

type snapshotRow struct {
	SnapshotDate time.Time `db:"snapshot_date"`
	CapturedAt   time.Time `db:"captured_at"`
	Invested     float64   `db:"invested"`
	MarketValue  float64   `db:"market_value"`
	PnlAbs       float64   `db:"pnl_abs"`
	PnlPct       float64   `db:"pnl_pct"`
	StaleCount   int       `db:"stale_count"`
}
