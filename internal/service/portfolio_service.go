package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"turbopricer/internal/domain"
	"turbopricer/internal/portfolio"
)

// StateFetcher reads market, pool, and account state from the chain.
type StateFetcher interface {
	FetchMarkets(ctx context.Context, factoryAddr string) ([]domain.Market, error)
	FetchPools(ctx context.Context, markets []domain.Market) (map[string]*domain.Pool, error)
	FetchAccountBalances(ctx context.Context, account, cashToken string, markets []domain.Market, pools map[string]*domain.Pool) (portfolio.AccountBalances, error)
}

// TransactionSource fetches the historical transaction log from the indexer.
type TransactionSource interface {
	FetchAllTransactions(ctx context.Context) (domain.AllMarketsTransactions, error)
}

// Broadcaster pushes refresh events to connected websocket clients.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// refreshLockKey guards the refresh cycle across instances.
const refreshLockKey = "portfolio_refresh"

// PortfolioServiceConfig carries the deployment-specific parameters.
type PortfolioServiceConfig struct {
	MarketFactories []string
	CashToken       string
	CashSymbol      string
	CashDecimals    int32
	RefreshInterval time.Duration
	PoolTTL         time.Duration
}

// PortfolioService owns the refresh cycle and the portfolio rollup. Each
// cycle rebuilds the full market snapshot from the chain, ingests the
// indexer's transaction log into the local store, and republishes pool
// snapshots to the cache. Portfolio queries replay the stored log against
// the latest snapshot.
type PortfolioService struct {
	fetcher     StateFetcher
	indexer     TransactionSource
	store       domain.TransactionStore
	cache       domain.SnapshotCache
	locks       domain.LockManager
	archiver    domain.Archiver
	broadcaster Broadcaster
	cfg         PortfolioServiceConfig
	logger      *slog.Logger

	mu   sync.RWMutex
	snap *portfolio.Snapshot
}

// NewPortfolioService creates a PortfolioService with all required
// dependencies. The archiver and broadcaster may be nil; both are best
// effort concerns.
func NewPortfolioService(
	fetcher StateFetcher,
	indexer TransactionSource,
	store domain.TransactionStore,
	cache domain.SnapshotCache,
	locks domain.LockManager,
	archiver domain.Archiver,
	broadcaster Broadcaster,
	cfg PortfolioServiceConfig,
	logger *slog.Logger,
) *PortfolioService {
	return &PortfolioService{
		fetcher:     fetcher,
		indexer:     indexer,
		store:       store,
		cache:       cache,
		locks:       locks,
		archiver:    archiver,
		broadcaster: broadcaster,
		cfg:         cfg,
		logger:      logger,
	}
}

// Run executes refresh cycles until the context is cancelled. The first
// cycle runs immediately so queries are serviceable at startup.
func (s *PortfolioService) Run(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		s.logger.ErrorContext(ctx, "portfolio_service: initial refresh failed",
			slog.String("error", err.Error()),
		)
	}

	ticker := time.NewTicker(s.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.ErrorContext(ctx, "portfolio_service: refresh failed",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Refresh runs one full cycle: snapshot the chain, ingest the indexer log,
// republish pool state. Indexer outages degrade to the stored log; chain
// outages fail the cycle and leave the previous snapshot serving.
func (s *PortfolioService) Refresh(ctx context.Context) error {
	unlock, err := s.locks.Acquire(ctx, refreshLockKey, 2*s.cfg.RefreshInterval)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			s.logger.DebugContext(ctx, "portfolio_service: refresh already running elsewhere")
			return nil
		}
		return fmt.Errorf("portfolio_service: refresh lock: %w", err)
	}
	defer unlock()

	started := time.Now()

	var markets []domain.Market
	for _, factory := range s.cfg.MarketFactories {
		ms, err := s.fetcher.FetchMarkets(ctx, factory)
		if err != nil {
			return fmt.Errorf("portfolio_service: fetch markets %s: %w", factory, err)
		}
		markets = append(markets, ms...)
	}

	pools, err := s.fetcher.FetchPools(ctx, markets)
	if err != nil {
		return fmt.Errorf("portfolio_service: fetch pools: %w", err)
	}

	s.ingestTransactions(ctx)

	snap := &portfolio.Snapshot{
		Markets:      make(map[string]domain.Market, len(markets)),
		Pools:        pools,
		CashUsdPrice: s.usdPrice(ctx, s.cfg.CashSymbol, decimal.NewFromInt(1)),
		EthUsdPrice:  s.usdPrice(ctx, "ETH", decimal.Zero),
		CashDecimals: s.cfg.CashDecimals,
	}
	for _, m := range markets {
		snap.Markets[m.ID] = m
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()

	for _, pool := range pools {
		if err := s.cache.SetPool(ctx, pool, s.cfg.PoolTTL); err != nil {
			s.logger.WarnContext(ctx, "portfolio_service: cache pool failed",
				slog.String("market_id", pool.MarketID),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.broadcaster != nil {
		s.broadcaster.Broadcast("snapshot", map[string]any{
			"markets":   len(markets),
			"pools":     len(pools),
			"refreshed": started.UTC().Format(time.RFC3339),
		})
	}

	s.logger.InfoContext(ctx, "portfolio_service: refresh complete",
		slog.Int("markets", len(markets)),
		slog.Int("pools", len(pools)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// ingestTransactions pulls the indexer log into the local store. The store
// inserts are idempotent, so re-ingesting overlapping history is harmless.
// An unavailable indexer is survivable: replay proceeds from whatever the
// store already holds.
func (s *PortfolioService) ingestTransactions(ctx context.Context) {
	txs, err := s.indexer.FetchAllTransactions(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnavailable) {
			s.logger.WarnContext(ctx, "portfolio_service: indexer unavailable, serving stored log")
			return
		}
		s.logger.ErrorContext(ctx, "portfolio_service: indexer fetch failed",
			slog.String("error", err.Error()),
		)
		return
	}

	for marketID, mtx := range txs {
		if err := s.store.InsertTrades(ctx, marketID, mtx.Trades); err != nil {
			s.logger.WarnContext(ctx, "portfolio_service: insert trades failed",
				slog.String("market_id", marketID), slog.String("error", err.Error()))
		}
		if err := s.store.InsertLiquidityChanges(ctx, marketID, false, mtx.AddLiquidity); err != nil {
			s.logger.WarnContext(ctx, "portfolio_service: insert adds failed",
				slog.String("market_id", marketID), slog.String("error", err.Error()))
		}
		if err := s.store.InsertLiquidityChanges(ctx, marketID, true, mtx.RemoveLiquidity); err != nil {
			s.logger.WarnContext(ctx, "portfolio_service: insert removes failed",
				slog.String("market_id", marketID), slog.String("error", err.Error()))
		}
		if err := s.store.InsertClaims(ctx, marketID, mtx.ClaimedProceeds); err != nil {
			s.logger.WarnContext(ctx, "portfolio_service: insert claims failed",
				slog.String("market_id", marketID), slog.String("error", err.Error()))
		}
	}
}

func (s *PortfolioService) usdPrice(ctx context.Context, symbol string, fallback decimal.Decimal) decimal.Decimal {
	raw, err := s.cache.GetCashPrice(ctx, symbol)
	if err != nil {
		return fallback
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fallback
	}
	return d
}

// Snapshot returns the latest refresh snapshot, or nil before the first
// successful cycle.
func (s *PortfolioService) Snapshot() *portfolio.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Markets lists the markets in the current snapshot.
func (s *PortfolioService) Markets() []domain.Market {
	snap := s.Snapshot()
	if snap == nil {
		return nil
	}
	return marketList(snap)
}

func marketList(snap *portfolio.Snapshot) []domain.Market {
	out := make([]domain.Market, 0, len(snap.Markets))
	for _, m := range snap.Markets {
		out = append(out, m)
	}
	return out
}

// Portfolio builds the full balance rollup for one account against the
// current snapshot. Current position values are recorded to back future 24h
// change figures, and the finished snapshot is archived best effort.
func (s *PortfolioService) Portfolio(ctx context.Context, account string) (*domain.UserBalances, error) {
	snap := s.Snapshot()
	if snap == nil {
		return nil, fmt.Errorf("portfolio_service: portfolio %s: no snapshot yet: %w", account, domain.ErrUnavailable)
	}

	// Derive the market list from the snapshot already in hand so a refresh
	// landing mid-call cannot pair markets and pools from different cycles.
	markets := marketList(snap)
	acct, err := s.fetcher.FetchAccountBalances(ctx, account, s.cfg.CashToken, markets, snap.Pools)
	if err != nil {
		return nil, fmt.Errorf("portfolio_service: portfolio %s: %w", account, err)
	}

	txs, err := s.store.AllTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("portfolio_service: portfolio %s: %w", account, err)
	}

	now := time.Now()
	cutoff := now.Add(-24 * time.Hour)
	past24 := func(marketID string, outcomeID int) string {
		v, err := s.cache.PositionValueBefore(ctx, account, marketID, outcomeID, cutoff)
		if err != nil {
			return ""
		}
		return v
	}

	ub := portfolio.Build(*snap, account, acct, txs, past24)

	for marketID, ms := range ub.MarketShares {
		for _, pos := range ms.Positions {
			if err := s.cache.RecordPositionValue(ctx, account, marketID, pos.OutcomeID, pos.UsdValue, now); err != nil {
				s.logger.WarnContext(ctx, "portfolio_service: record position value failed",
					slog.String("market_id", marketID),
					slog.Int("outcome", pos.OutcomeID),
					slog.String("error", err.Error()),
				)
			}
		}
	}

	if s.archiver != nil {
		if key, err := s.archiver.ArchivePortfolio(ctx, ub); err != nil {
			s.logger.WarnContext(ctx, "portfolio_service: archive failed",
				slog.String("account", account),
				slog.String("error", err.Error()),
			)
		} else {
			s.logger.DebugContext(ctx, "portfolio_service: archived portfolio",
				slog.String("key", key),
			)
		}
	}

	return ub, nil
}
