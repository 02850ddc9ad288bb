package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"finsight-api/internal/types"
)

// PortfoliosRepo fetches portfolios and their holdings.
type PortfoliosRepo interface {
	// All returns every portfolio, ordered by ID.
	All(ctx context.Context) ([]types.Portfolio, error)
	// ByID returns one portfolio or ErrNotFound.
	ByID(ctx context.Context, id int64) (*types.Portfolio, error)
	// Holdings returns the holdings of one portfolio, ordered by ticker.
	Holdings(ctx context.Context, portfolioID int64) ([]types.Holding, error)
	// HoldingsByPortfolios returns holdings keyed by portfolio ID. When ids
	// is empty it returns holdings for all portfolios.
	HoldingsByPortfolios(ctx context.Context, ids []int64) (map[int64][]types.Holding, error)
}

type portfoliosRepo struct {
	conn sqlx.SqlConn
}

func newPortfoliosRepo(deps Dependencies) PortfoliosRepo {
	return &portfoliosRepo{
		conn: deps.DBConn,
	}
}

func (r *portfoliosRepo) All(ctx context.Context) ([]types.Portfolio, error) {
	query := `
SELECT
    id,
    user_id,
    name
FROM public.portfolios
ORDER BY id`

	var rows []portfolioRow
	if err := r.conn.QueryRowsCtx(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("portfoliosRepo.All query: %w", err)
	}

	result := make([]types.Portfolio, 0, len(rows))
	for _, row := range rows {
		result = append(result, types.Portfolio{
			ID:     row.ID,
			UserID: row.UserID,
			Name:   row.Name,
		})
	}

	return result, nil
}

func (r *portfoliosRepo) ByID(ctx context.Context, id int64) (*types.Portfolio, error) {
	query := `
SELECT
    id,
    user_id,
    name
FROM public.portfolios
WHERE id = $1`

	var row portfolioRow
	if err := r.conn.QueryRowCtx(ctx, &row, query, id); err != nil {
		if errors.Is(err, sqlx.ErrNotFound) {
			return nil, fmt.Errorf("portfoliosRepo.ByID %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("portfoliosRepo.ByID query: %w", err)
	}

	return &types.Portfolio{
		ID:     row.ID,
		UserID: row.UserID,
		Name:   row.Name,
	}, nil
}

func (r *portfoliosRepo) Holdings(ctx context.Context, portfolioID int64) ([]types.Holding, error) {
	byPortfolio, err := r.HoldingsByPortfolios(ctx, []int64{portfolioID})
	if err != nil {
		return nil, err
	}
	return byPortfolio[portfolioID], nil
}

func (r *portfoliosRepo) HoldingsByPortfolios(ctx context.Context, ids []int64) (map[int64][]types.Holding, error) {
	query := `
SELECT
    portfolio_id,
    ticker,
    name,
    quantity,
    average_cost,
    min_threshold,
    max_threshold
FROM public.holdings
%s
ORDER BY portfolio_id, ticker`

	var (
		args   []any
		clause string
	)
	if len(ids) > 0 {
		clause = "WHERE portfolio_id = ANY($1)"
		args = append(args, pq.Array(ids))
	}

	finalQuery := fmt.Sprintf(query, clause)
	var rows []holdingRow
	if err := r.conn.QueryRowsCtx(ctx, &rows, finalQuery, args...); err != nil {
		return nil, fmt.Errorf("portfoliosRepo.HoldingsByPortfolios query: %w", err)
	}

	result := make(map[int64][]types.Holding)
	for _, row := range rows {
		holding := types.Holding{
			Ticker:      row.Ticker,
			Quantity:    row.Quantity,
			AverageCost: row.AverageCost,
		}
		if row.Name.Valid {
			holding.Name = row.Name.String
		}
		if row.MinThreshold.Valid {
			value := row.MinThreshold.Float64
			holding.MinThreshold = &value
		}
		if row.MaxThreshold.Valid {
			value := row.MaxThreshold.Float64
			holding.MaxThreshold = &value
		}
		result[row.PortfolioID] = append(result[row.PortfolioID], holding)
	}

	return result, nil
}

type portfolioRow struct {
	ID     int64  `db:"id"`
	UserID int64  `db:"user_id"`
	Name   string `db:"name"`
}

type holdingRow struct {
	PortfolioID  int64           `db:"portfolio_id"`
	Ticker       string          `db:"ticker"`
	Name         sql.NullString  `db:"name"`
	Quantity     float64         `db:"quantity"`
	AverageCost  float64         `db:"average_cost"`
	MinThreshold sql.NullFloat64 `db:"min_threshold"`
	MaxThreshold sql.NullFloat64 `db:"max_threshold"`
}
