package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Trade is one historical swap against a market's pool, as reported by the
// indexer. Collateral follows the subgraph sign convention: negative when
// cash flowed into the pool (a buy), positive when it flowed out (a sell).
// Amounts are display units.
type Trade struct {
	User       string
	Outcome    int
	Shares     decimal.Decimal
	Collateral decimal.Decimal
	Price      decimal.Decimal
	Timestamp  int64
	TxHash     string
}

// IsBuy reports whether the trade moved cash into the pool.
func (t Trade) IsBuy() bool {
	return t.Collateral.IsNegative()
}

// LiquidityChange is one add- or remove-liquidity event. Outcomes holds the
// per-outcome share amounts implicitly granted (add) or withdrawn (remove)
// alongside the LP token mint/burn.
type LiquidityChange struct {
	Sender     string
	Collateral decimal.Decimal
	LPTokens   decimal.Decimal
	Outcomes   []decimal.Decimal
	Timestamp  int64
	TxHash     string
}

// ClaimedProceeds is one winnings-claim event. A claim fully closes the
// position for cost-basis purposes; later buys start a fresh basis.
type ClaimedProceeds struct {
	Receiver  string
	Outcome   int
	Payout    decimal.Decimal
	Timestamp int64
	TxHash    string
}

// MarketTransactions is the full transaction log of one market.
type MarketTransactions struct {
	MarketID        string
	Trades          []Trade
	AddLiquidity    []LiquidityChange
	RemoveLiquidity []LiquidityChange
	ClaimedProceeds []ClaimedProceeds
}

// AllMarketsTransactions keys market transaction logs by lowercased market id.
type AllMarketsTransactions map[string]MarketTransactions

// SameAddress compares two account addresses case-insensitively. Addresses
// arrive checksummed from some sources and lowercased from others.
func SameAddress(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
