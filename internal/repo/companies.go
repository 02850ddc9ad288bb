package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// CompaniesRepo answers catalog membership questions for tickers.
type CompaniesRepo interface {
	// Exists reports whether the ticker is part of the company catalog.
	// Matching is case-insensitive; tickers are stored upper-case.
	Exists(ctx context.Context, ticker string) (bool, error)
}

type companiesRepo struct {
	conn sqlx.SqlConn
}

func newCompaniesRepo(deps Dependencies) CompaniesRepo {
	return &companiesRepo{
		conn: deps.DBConn,
	}
}

func (r *companiesRepo) Exists(ctx context.Context, ticker string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM public.companies WHERE ticker = $1)`

	var exists bool
	if err := r.conn.QueryRowCtx(ctx, &exists, query, strings.ToUpper(strings.TrimSpace(ticker))); err != nil {
		return false, fmt.Errorf("companiesRepo.Exists query: %w", err)
	}

	return exists, nil
}
