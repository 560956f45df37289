package domain

// TradeEstimate is the display-ready result of a buy or sell simulation.
// OutputValue is shares out for a buy, collateral out for a sell.
type TradeEstimate struct {
	OutputValue     string `json:"outputValue"`
	TradeFees       string `json:"tradeFees"`
	AveragePrice    string `json:"averagePrice"`
	MaxProfit       string `json:"maxProfit,omitempty"`
	SlippagePercent string `json:"slippagePercent"`
	RatePerCash     string `json:"ratePerCash"`
	RemainingShares string `json:"remainingShares,omitempty"`
}

// AddLiquidityBreakdown is the estimated result of a deposit: LP tokens
// minted, and for pool creation the per-outcome weights derived from the
// initial prices.
type AddLiquidityBreakdown struct {
	LPTokens    string   `json:"lpTokens"`
	PoolWeights []string `json:"poolWeights,omitempty"`
}

// LiquidityBreakdown is the estimated result of an LP withdrawal: the
// per-outcome share amounts returned after complete-set redemption, and the
// collateral proceeds of that redemption.
type LiquidityBreakdown struct {
	MinAmounts    []string `json:"minAmounts"`
	MinAmountsRaw []string `json:"minAmountsRaw"`
	CashAmount    string   `json:"cashAmount"`
}
