package domain

import (
	"context"
	"time"
)

// TransactionStore mirrors the append-only transaction log fetched from the
// indexer. Inserts are idempotent: re-ingesting the same events is a no-op.
type TransactionStore interface {
	InsertTrades(ctx context.Context, marketID string, trades []Trade) error
	InsertLiquidityChanges(ctx context.Context, marketID string, removal bool, changes []LiquidityChange) error
	InsertClaims(ctx context.Context, marketID string, claims []ClaimedProceeds) error

	// MarketTransactions replays one market's log, every slice ordered by
	// ascending timestamp. Cost-basis accumulation depends on that ordering.
	MarketTransactions(ctx context.Context, marketID string) (MarketTransactions, error)
	AllTransactions(ctx context.Context) (AllMarketsTransactions, error)
}

// SnapshotCache holds transient per-refresh state: the latest pool snapshots,
// cash USD prices, and the position-value history behind the 24h change
// figures. All reads return ErrNotFound for missing keys.
type SnapshotCache interface {
	SetPool(ctx context.Context, pool *Pool, ttl time.Duration) error
	GetPool(ctx context.Context, marketID string) (*Pool, error)

	SetCashPrice(ctx context.Context, symbol, price string) error
	GetCashPrice(ctx context.Context, symbol string) (string, error)

	RecordPositionValue(ctx context.Context, account, marketID string, outcomeID int, usdValue string, at time.Time) error
	PositionValueBefore(ctx context.Context, account, marketID string, outcomeID int, cutoff time.Time) (string, error)
}

// LockManager hands out distributed locks. The refresh loop takes one per
// cycle so concurrent instances never replay the same transaction log twice.
type LockManager interface {
	// Acquire returns an unlock func on success, or ErrLockHeld when another
	// holder owns the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// RateLimiter enforces a sliding-window request budget per key.
type RateLimiter interface {
	// Allow reports whether a request under key fits the window and, when it
	// does, counts it.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// BlobWriter writes an object to blob storage.
type BlobWriter interface {
	Write(ctx context.Context, key string, body []byte, contentType string) error
}

// Archiver persists portfolio snapshots for offline analysis. Archival is
// best effort; failures are logged, never surfaced to the refresh caller.
type Archiver interface {
	ArchivePortfolio(ctx context.Context, snapshot *UserBalances) (string, error)
}
