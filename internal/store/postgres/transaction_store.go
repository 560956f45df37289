package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"turbopricer/internal/domain"
)

// TransactionStore implements domain.TransactionStore using PostgreSQL.
// Inserts are idempotent via ON CONFLICT DO NOTHING; replay queries order by
// ascending timestamp since cost-basis accumulation is order-dependent.
type TransactionStore struct {
	pool *pgxpool.Pool
}

// NewTransactionStore creates a TransactionStore backed by the given client.
func NewTransactionStore(c *Client) *TransactionStore {
	return &TransactionStore{pool: c.Pool()}
}

// InsertTrades batch-inserts trade events for one market.
func (s *TransactionStore) InsertTrades(ctx context.Context, marketID string, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	const query = `
		INSERT INTO pool_trades (market_id, user_address, outcome, shares, collateral, price, timestamp, tx_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (market_id, tx_hash, user_address, outcome) DO NOTHING`

	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(query, marketID, t.User, t.Outcome,
			t.Shares.String(), t.Collateral.String(), t.Price.String(),
			t.Timestamp, t.TxHash)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: insert trades for %s: %w", marketID, err)
	}
	return nil
}

// InsertLiquidityChanges batch-inserts add- or remove-liquidity events.
func (s *TransactionStore) InsertLiquidityChanges(ctx context.Context, marketID string, removal bool, changes []domain.LiquidityChange) error {
	if len(changes) == 0 {
		return nil
	}
	const query = `
		INSERT INTO pool_liquidity (market_id, sender, removal, collateral, lp_tokens, outcomes, timestamp, tx_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (market_id, tx_hash, sender, removal) DO NOTHING`

	batch := &pgx.Batch{}
	for _, c := range changes {
		outcomes := make([]string, len(c.Outcomes))
		for i, o := range c.Outcomes {
			outcomes[i] = o.String()
		}
		batch.Queue(query, marketID, c.Sender, removal,
			c.Collateral.String(), c.LPTokens.String(), outcomes,
			c.Timestamp, c.TxHash)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: insert liquidity for %s: %w", marketID, err)
	}
	return nil
}

// InsertClaims batch-inserts claimed-proceeds events.
func (s *TransactionStore) InsertClaims(ctx context.Context, marketID string, claims []domain.ClaimedProceeds) error {
	if len(claims) == 0 {
		return nil
	}
	const query = `
		INSERT INTO pool_claims (market_id, receiver, outcome, payout, timestamp, tx_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (market_id, tx_hash, receiver, outcome) DO NOTHING`

	batch := &pgx.Batch{}
	for _, c := range claims {
		batch.Queue(query, marketID, c.Receiver, c.Outcome,
			c.Payout.String(), c.Timestamp, c.TxHash)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: insert claims for %s: %w", marketID, err)
	}
	return nil
}

// MarketTransactions replays one market's full log in timestamp order.
func (s *TransactionStore) MarketTransactions(ctx context.Context, marketID string) (domain.MarketTransactions, error) {
	out := domain.MarketTransactions{MarketID: marketID}

	rows, err := s.pool.Query(ctx, `
		SELECT user_address, outcome, shares, collateral, price, timestamp, tx_hash
		FROM pool_trades WHERE market_id = $1 ORDER BY timestamp ASC, id ASC`, marketID)
	if err != nil {
		return out, fmt.Errorf("postgres: query trades for %s: %w", marketID, err)
	}
	out.Trades, err = scanTrades(rows)
	if err != nil {
		return out, fmt.Errorf("postgres: scan trades for %s: %w", marketID, err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT sender, removal, collateral, lp_tokens, outcomes, timestamp, tx_hash
		FROM pool_liquidity WHERE market_id = $1 ORDER BY timestamp ASC, id ASC`, marketID)
	if err != nil {
		return out, fmt.Errorf("postgres: query liquidity for %s: %w", marketID, err)
	}
	out.AddLiquidity, out.RemoveLiquidity, err = scanLiquidity(rows)
	if err != nil {
		return out, fmt.Errorf("postgres: scan liquidity for %s: %w", marketID, err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT receiver, outcome, payout, timestamp, tx_hash
		FROM pool_claims WHERE market_id = $1 ORDER BY timestamp ASC, id ASC`, marketID)
	if err != nil {
		return out, fmt.Errorf("postgres: query claims for %s: %w", marketID, err)
	}
	out.ClaimedProceeds, err = scanClaims(rows)
	if err != nil {
		return out, fmt.Errorf("postgres: scan claims for %s: %w", marketID, err)
	}

	return out, nil
}

// AllTransactions replays every market's log, keyed by market id.
func (s *TransactionStore) AllTransactions(ctx context.Context) (domain.AllMarketsTransactions, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT market_id FROM (
		SELECT market_id FROM pool_trades
		UNION SELECT market_id FROM pool_liquidity
		UNION SELECT market_id FROM pool_claims) m`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("postgres: scan market id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list markets: %w", err)
	}

	all := make(domain.AllMarketsTransactions, len(ids))
	for _, id := range ids {
		tx, err := s.MarketTransactions(ctx, id)
		if err != nil {
			return nil, err
		}
		all[id] = tx
	}
	return all, nil
}

func scanTrades(rows pgx.Rows) ([]domain.Trade, error) {
	defer rows.Close()
	var trades []domain.Trade
	for rows.Next() {
		var (
			t                        domain.Trade
			shares, collateral, price string
		)
		if err := rows.Scan(&t.User, &t.Outcome, &shares, &collateral, &price, &t.Timestamp, &t.TxHash); err != nil {
			return nil, err
		}
		var err error
		if t.Shares, err = decimal.NewFromString(shares); err != nil {
			return nil, err
		}
		if t.Collateral, err = decimal.NewFromString(collateral); err != nil {
			return nil, err
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func scanLiquidity(rows pgx.Rows) (adds, removes []domain.LiquidityChange, err error) {
	defer rows.Close()
	for rows.Next() {
		var (
			c                    domain.LiquidityChange
			removal              bool
			collateral, lpTokens string
			outcomes             []string
		)
		if err := rows.Scan(&c.Sender, &removal, &collateral, &lpTokens, &outcomes, &c.Timestamp, &c.TxHash); err != nil {
			return nil, nil, err
		}
		if c.Collateral, err = decimal.NewFromString(collateral); err != nil {
			return nil, nil, err
		}
		if c.LPTokens, err = decimal.NewFromString(lpTokens); err != nil {
			return nil, nil, err
		}
		c.Outcomes = make([]decimal.Decimal, len(outcomes))
		for i, o := range outcomes {
			if c.Outcomes[i], err = decimal.NewFromString(o); err != nil {
				return nil, nil, err
			}
		}
		if removal {
			removes = append(removes, c)
		} else {
			adds = append(adds, c)
		}
	}
	return adds, removes, rows.Err()
}

func scanClaims(rows pgx.Rows) ([]domain.ClaimedProceeds, error) {
	defer rows.Close()
	var claims []domain.ClaimedProceeds
	for rows.Next() {
		var (
			c      domain.ClaimedProceeds
			payout string
		)
		if err := rows.Scan(&c.Receiver, &c.Outcome, &payout, &c.Timestamp, &c.TxHash); err != nil {
			return nil, err
		}
		var err error
		if c.Payout, err = decimal.NewFromString(payout); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}
