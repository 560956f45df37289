package portfolio

import (
	"math/big"

	"github.com/shopspring/decimal"

	"turbopricer/internal/amm"
	"turbopricer/internal/domain"
)

// Snapshot is the immutable market-state view one refresh cycle computes
// against. The builder never mutates it.
type Snapshot struct {
	Markets      map[string]domain.Market
	Pools        map[string]*domain.Pool
	CashUsdPrice decimal.Decimal // USD price of one unit of collateral
	EthUsdPrice  decimal.Decimal
	CashDecimals int32
}

// AccountBalances are the account's raw on-chain holdings at snapshot time.
type AccountBalances struct {
	EthRaw           *big.Int
	CashRaw          *big.Int
	LPTokensRaw      map[string]*big.Int   // market id -> LP token balance
	OutcomeSharesRaw map[string][]*big.Int // market id -> per-outcome share balances
}

// Past24hrLookup resolves a position's recorded USD value from roughly 24
// hours ago, or "" when no history exists.
type Past24hrLookup func(marketID string, outcomeID int) string

// Build replays the account's transaction log against the snapshot and
// produces the full portfolio rollup. The aggregation is pure and
// idempotent; markets with missing pools or malformed fields are skipped,
// never fatal.
func Build(snap Snapshot, account string, acct AccountBalances, txs domain.AllMarketsTransactions, past24 Past24hrLookup) *domain.UserBalances {
	ub := domain.NewUserBalances(account)
	if account == "" {
		return ub
	}

	ub.ETH = currencyBalance(acct.EthRaw, 18, snap.EthUsdPrice)
	ub.USDC = currencyBalance(acct.CashRaw, snap.CashDecimals, snap.CashUsdPrice)

	userTx := FilterUserTransactions(txs, account)

	for marketID, sharesRaw := range acct.OutcomeSharesRaw {
		market, ok := snap.Markets[marketID]
		if !ok {
			continue
		}
		pool := snap.Pools[marketID]
		if pool == nil {
			continue
		}
		prices := amm.CalculatePrices(pool.Ratios, pool.Weights)

		ms := &domain.MarketShares{
			MarketID:         marketID,
			OutcomeShares:    make([]string, len(sharesRaw)),
			OutcomeSharesRaw: make([]string, len(sharesRaw)),
		}
		any := false
		for outcomeID, raw := range sharesRaw {
			if raw == nil {
				raw = new(big.Int)
			}
			balance := amm.SharesOnChainToDisplay(raw)
			ms.OutcomeShares[outcomeID] = balance.String()
			ms.OutcomeSharesRaw[outcomeID] = raw.String()
			if raw.Sign() == 0 {
				continue
			}
			any = true

			price := decimal.Zero
			if outcomeID < len(prices) {
				price = prices[outcomeID]
			}
			name := ""
			if outcomeID < len(market.Outcomes) {
				name = market.Outcomes[outcomeID].Name
			}
			var past string
			if past24 != nil {
				past = past24(marketID, outcomeID)
			}
			pos := PositionUsdValues(
				userTx[marketID], raw, balance,
				outcomeID, name, marketID,
				price, snap.CashUsdPrice, account, past,
			)
			if pos != nil {
				ms.Positions = append(ms.Positions, *pos)
			}
		}
		if any {
			ub.MarketShares[marketID] = ms
		}
	}

	lpInitCosts := UserLpTokenInitialAmount(userTx, account)
	for marketID, raw := range acct.LPTokensRaw {
		if raw == nil || raw.Sign() == 0 {
			continue
		}
		pool := snap.Pools[marketID]
		balance := amm.SharesOnChainToDisplay(raw)
		lp := domain.LPTokenBalance{
			MarketID:    marketID,
			Balance:     balance.String(),
			RawBalance:  raw.String(),
			InitCostUsd: "0",
			UsdValue:    "0",
		}
		if cost, ok := lpInitCosts[marketID]; ok {
			lp.InitCostUsd = cost
		}
		if pool != nil {
			prices := amm.CalculatePrices(pool.Ratios, pool.Weights)
			lp.UsdValue = LPTokenValue(pool, prices, lp.Balance, snap.CashUsdPrice, snap.CashDecimals)
		}
		ub.LPTokens[marketID] = lp
	}

	finalized := make(map[string]domain.Market)
	for id, m := range snap.Markets {
		if m.Status == domain.MarketStatusFinalized && m.HasWinner() {
			finalized[id] = m
		}
	}
	PopulateClaimableWinnings(finalized, ub.MarketShares)

	Finalize(ub)
	return ub
}

func currencyBalance(raw *big.Int, decimals int32, usdPrice decimal.Decimal) domain.CurrencyBalance {
	if raw == nil {
		raw = new(big.Int)
	}
	display := amm.CashOnChainToDisplay(raw, decimals)
	return domain.CurrencyBalance{
		Balance:    display.String(),
		RawBalance: raw.String(),
		UsdValue:   display.Mul(usdPrice).String(),
	}
}
