// Package valuation marks portfolios to market. A missing quote is never an
// error here: the holding is reported stale and the rest of the portfolio is
// still valued.
package valuation

import (
	"context"
	"math"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"finsight-api/internal/types"
	"finsight-api/pkg/marketdata"
)

// QuoteLookup resolves the latest quote for a symbol. A (nil, nil) return
// means the quote is absent, which is a normal outcome.
type QuoteLookup interface {
	LastQuote(ctx context.Context, symbol string) (*marketdata.Quote, error)
}

// Engine values holdings against live quotes.
type Engine struct {
	quotes QuoteLookup
}

func NewEngine(quotes QuoteLookup) *Engine {
	return &Engine{quotes: quotes}
}

// Value computes per-holding valuations plus aggregate totals. Invested sums
// every holding; market value sums only non-stale holdings. Every holding is
// quoted for its row, but zero-quantity holdings never count toward the
// aggregate stale count.
func (e *Engine) Value(ctx context.Context, holdings []types.Holding) ([]types.HoldingValuation, types.ValuationTotals) {
	rows := make([]types.HoldingValuation, 0, len(holdings))
	var totals types.ValuationTotals

	for _, holding := range holdings {
		row := e.valueOne(ctx, holding)
		rows = append(rows, row)

		totals.Invested += row.Invested
		if row.Stale {
			if row.Quantity != 0 {
				totals.StaleCount++
			}
			continue
		}
		if row.MarketValue != nil {
			totals.MarketValue += *row.MarketValue
		}
	}

	totals.Invested = sanitize(totals.Invested)
	totals.MarketValue = sanitize(totals.MarketValue)
	totals.PnlAbs = sanitize(totals.MarketValue - totals.Invested)
	if totals.Invested != 0 {
		totals.PnlPct = sanitize(totals.PnlAbs / totals.Invested)
	}

	return rows, totals
}

// ValuePortfolio wraps Value into the full mark-to-market DTO.
func (e *Engine) ValuePortfolio(ctx context.Context, portfolioID int64, holdings []types.Holding) types.PortfolioValuation {
	rows, totals := e.Value(ctx, holdings)
	return types.PortfolioValuation{
		PortfolioID: portfolioID,
		UpdatedAt:   time.Now().UTC(),
		Totals:      totals,
		Holdings:    rows,
	}
}

func (e *Engine) valueOne(ctx context.Context, holding types.Holding) types.HoldingValuation {
	row := types.HoldingValuation{
		Ticker:       holding.Ticker,
		Name:         holding.Name,
		Quantity:     holding.Quantity,
		AverageCost:  holding.AverageCost,
		MinThreshold: holding.MinThreshold,
		MaxThreshold: holding.MaxThreshold,
		Invested:     sanitize(holding.Quantity * holding.AverageCost),
	}

	quote, err := e.quotes.LastQuote(ctx, holding.Ticker)
	if err != nil {
		logx.WithContext(ctx).Errorf("valuation: quote lookup %s: %v", holding.Ticker, err)
		row.Stale = true
		return row
	}
	if quote == nil {
		row.Stale = true
		return row
	}

	price := sanitize(quote.Price)
	marketValue := sanitize(holding.Quantity * price)
	pnlAbs := sanitize(marketValue - row.Invested)
	var pnlPct float64
	if row.Invested != 0 {
		pnlPct = sanitize(pnlAbs / row.Invested)
	}

	asOf := quote.AsOf
	row.LastPrice = &price
	row.PriceAsOf = &asOf
	row.MarketValue = &marketValue
	row.PnlAbs = &pnlAbs
	row.PnlPct = &pnlPct

	return row
}

// sanitize maps NaN and infinities to zero so aggregates stay finite.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
