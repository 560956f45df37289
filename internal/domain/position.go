package domain

// All monetary fields below are decimal strings. They may be handed straight
// back as transaction parameters by the caller, so they are never expressed
// as binary floating point.

// CurrencyBalance is an account's holding of one cash currency.
type CurrencyBalance struct {
	Balance    string `json:"balance"`
	RawBalance string `json:"rawBalance"`
	UsdValue   string `json:"usdValue"`
}

// PositionBalance is an account's derived exposure to one outcome of one
// market: balance, volume-weighted cost basis, and mark-to-market value.
// It is recomputed from scratch on every refresh, never stored incrementally.
type PositionBalance struct {
	MarketID         string `json:"marketId"`
	OutcomeID        int    `json:"outcomeId"`
	OutcomeName      string `json:"outcomeName"`
	Balance          string `json:"balance"`
	RawBalance       string `json:"rawBalance"`
	Quantity         string `json:"quantity"`
	UsdValue         string `json:"usdValue"`
	Past24hrUsdValue string `json:"past24hrUsdValue,omitempty"`
	TotalChangeUsd   string `json:"totalChangeUsd"`
	AvgPrice         string `json:"avgPrice"`
	InitCostUsd      string `json:"initCostUsd"`
	MaxUsdValue      string `json:"maxUsdValue"`

	FromLiquidity       bool `json:"positionFromLiquidity"`
	FromRemoveLiquidity bool `json:"positionFromRemoveLiquidity"`
}

// LPTokenBalance is an account's LP receipt for one market's pool.
type LPTokenBalance struct {
	MarketID    string `json:"marketId"`
	Balance     string `json:"balance"`
	RawBalance  string `json:"rawBalance"`
	InitCostUsd string `json:"initCostUsd"`
	UsdValue    string `json:"usdValue"`
}

// ClaimableWinnings is the unclaimed winning-outcome value in one finalized
// market, plus the raw balances the batched claim call needs.
type ClaimableWinnings struct {
	MarketID         string   `json:"marketId"`
	FactoryAddress   string   `json:"factoryAddress"`
	ClaimableBalance string   `json:"claimableBalance"`
	UserBalancesRaw  []string `json:"userBalances"`
}

// MarketShares groups an account's per-outcome positions in one market.
type MarketShares struct {
	MarketID          string             `json:"marketId"`
	Positions         []PositionBalance  `json:"positions"`
	OutcomeShares     []string           `json:"outcomeShares"`
	OutcomeSharesRaw  []string           `json:"outcomeSharesRaw"`
	ClaimableWinnings *ClaimableWinnings `json:"claimableWinnings,omitempty"`
}

// ClaimableTotals aggregates claimable winnings across markets for one cash
// currency, carrying the id lists a batched on-chain claim call is built from.
type ClaimableTotals struct {
	HasWinnings bool     `json:"hasWinnings"`
	Total       string   `json:"total"`
	MarketIDs   []string `json:"marketIds"`
	Factories   []string `json:"factories"`
}

// UserBalances is the portfolio-level rollup handed to the UI layer.
type UserBalances struct {
	Account string `json:"account"`

	ETH  CurrencyBalance `json:"eth"`
	USDC CurrencyBalance `json:"usdc"`

	TotalPositionUsd      string `json:"totalPositionUsd"`
	Total24hrPositionUsd  string `json:"total24hrPositionUsd"`
	Change24hrPositionUsd string `json:"change24hrPositionUsd"`
	TotalAccountValue     string `json:"totalAccountValue"`
	AvailableFundsUsd     string `json:"availableFundsUsd"`

	LPTokens     map[string]LPTokenBalance `json:"lpTokens"`
	MarketShares map[string]*MarketShares  `json:"marketShares"`
	Claimable    ClaimableTotals           `json:"claimable"`
}

// NewUserBalances returns an empty portfolio with zeroed totals, the shape
// callers receive when no account or no data source is available.
func NewUserBalances(account string) *UserBalances {
	zero := CurrencyBalance{Balance: "0", RawBalance: "0", UsdValue: "0"}
	return &UserBalances{
		Account:               account,
		ETH:                   zero,
		USDC:                  zero,
		TotalPositionUsd:      "0",
		Total24hrPositionUsd:  "0",
		Change24hrPositionUsd: "0",
		TotalAccountValue:     "0",
		AvailableFundsUsd:     "0",
		LPTokens:              map[string]LPTokenBalance{},
		MarketShares:          map[string]*MarketShares{},
		Claimable:             ClaimableTotals{Total: "0"},
	}
}
