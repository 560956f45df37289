// Package service holds the application services: quoting against cached
// pool snapshots and the portfolio refresh cycle.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"turbopricer/internal/amm"
	"turbopricer/internal/domain"
)

// QuoteService answers price and trade-estimate queries against the latest
// cached pool snapshots. It never touches the chain; if no snapshot exists
// for a market the query fails with domain.ErrNotFound.
type QuoteService struct {
	cache        domain.SnapshotCache
	cashDecimals int32
	logger       *slog.Logger
}

// NewQuoteService creates a QuoteService with all required dependencies.
func NewQuoteService(cache domain.SnapshotCache, cashDecimals int32, logger *slog.Logger) *QuoteService {
	return &QuoteService{
		cache:        cache,
		cashDecimals: cashDecimals,
		logger:       logger,
	}
}

// MarketPrices is the price view of one market's pool.
type MarketPrices struct {
	MarketID       string   `json:"marketId"`
	Prices         []string `json:"prices"`
	TotalLiquidity string   `json:"totalLiquidity"`
	Fee            string   `json:"fee"`
}

// Prices returns the current marginal price per outcome and the pool's
// total liquidity in collateral terms.
func (s *QuoteService) Prices(ctx context.Context, marketID string) (*MarketPrices, error) {
	pool, err := s.cache.GetPool(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("quote_service: prices %s: %w", marketID, err)
	}

	prices := amm.CalculatePrices(pool.Ratios, pool.Weights)
	out := &MarketPrices{
		MarketID:       marketID,
		Prices:         make([]string, len(prices)),
		TotalLiquidity: amm.TotalLiquidity(prices, pool.BalancesRaw),
		Fee:            amm.FeeDecimal(pool.FeeRaw).String(),
	}
	for i, p := range prices {
		out.Prices[i] = p.String()
	}
	return out, nil
}

// EstimateBuy simulates buying one outcome with the given display-unit cash
// amount.
func (s *QuoteService) EstimateBuy(ctx context.Context, marketID string, outcome int, cashAmount string) (*domain.TradeEstimate, error) {
	amount, err := parseAmount(cashAmount)
	if err != nil {
		return nil, fmt.Errorf("quote_service: buy %s: %w", marketID, err)
	}
	pool, err := s.cache.GetPool(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("quote_service: buy %s: %w", marketID, err)
	}

	spot := spotPriceFor(pool, outcome)
	est, err := amm.EstimateBuyTrade(pool, outcome, amount, spot, s.cashDecimals)
	if err != nil {
		return nil, fmt.Errorf("quote_service: buy %s outcome %d: %w", marketID, outcome, err)
	}
	return est, nil
}

// EstimateSell simulates selling the given display-unit share amount of one
// outcome. The caller's share balance bounds the remaining-shares figure.
func (s *QuoteService) EstimateSell(ctx context.Context, marketID string, outcome int, shareAmount, shareBalance string) (*domain.TradeEstimate, error) {
	amount, err := parseAmount(shareAmount)
	if err != nil {
		return nil, fmt.Errorf("quote_service: sell %s: %w", marketID, err)
	}
	balance := decimal.Zero
	if shareBalance != "" {
		if balance, err = decimal.NewFromString(shareBalance); err != nil {
			return nil, fmt.Errorf("quote_service: sell %s: %w", marketID, domain.ErrInvalidAmount)
		}
	}
	pool, err := s.cache.GetPool(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("quote_service: sell %s: %w", marketID, err)
	}

	spot := spotPriceFor(pool, outcome)
	est, err := amm.EstimateSellTrade(pool, outcome, amount, spot, balance)
	if err != nil {
		return nil, fmt.Errorf("quote_service: sell %s outcome %d: %w", marketID, outcome, err)
	}
	return est, nil
}

// EstimateAddLiquidity simulates a deposit. For an uninitialized pool the
// caller supplies the initial outcome prices; for a funded pool those are
// ignored.
func (s *QuoteService) EstimateAddLiquidity(ctx context.Context, marketID string, cashAmount string, initialPrices []string) (*domain.AddLiquidityBreakdown, error) {
	amount, err := parseAmount(cashAmount)
	if err != nil {
		return nil, fmt.Errorf("quote_service: add liquidity %s: %w", marketID, err)
	}
	prices := make([]decimal.Decimal, 0, len(initialPrices))
	for _, p := range initialPrices {
		d, err := decimal.NewFromString(p)
		if err != nil {
			return nil, fmt.Errorf("quote_service: add liquidity %s: price %q: %w", marketID, p, domain.ErrInvalidAmount)
		}
		prices = append(prices, d)
	}
	pool, err := s.cache.GetPool(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("quote_service: add liquidity %s: %w", marketID, err)
	}

	breakdown, err := amm.EstimateAddLiquidity(pool, amount, prices, s.cashDecimals)
	if err != nil {
		return nil, fmt.Errorf("quote_service: add liquidity %s: %w", marketID, err)
	}
	return breakdown, nil
}

// EstimateRemoveLiquidity simulates burning the given display-unit LP token
// amount.
func (s *QuoteService) EstimateRemoveLiquidity(ctx context.Context, marketID string, lpTokens string) (*domain.LiquidityBreakdown, error) {
	amount, err := parseAmount(lpTokens)
	if err != nil {
		return nil, fmt.Errorf("quote_service: remove liquidity %s: %w", marketID, err)
	}
	pool, err := s.cache.GetPool(ctx, marketID)
	if err != nil {
		return nil, fmt.Errorf("quote_service: remove liquidity %s: %w", marketID, err)
	}

	breakdown, err := amm.EstimateRemoveLiquidity(pool, amount, s.cashDecimals)
	if err != nil {
		return nil, fmt.Errorf("quote_service: remove liquidity %s: %w", marketID, err)
	}
	return breakdown, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	return d, nil
}

func spotPriceFor(pool *domain.Pool, outcome int) decimal.Decimal {
	prices := amm.CalculatePrices(pool.Ratios, pool.Weights)
	if outcome >= 0 && outcome < len(prices) {
		return prices[outcome]
	}
	return decimal.Zero
}
