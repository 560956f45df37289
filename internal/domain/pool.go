package domain

import "math/big"

// Pool is one AMM liquidity pool for one market's outcome set. All amounts
// are on-chain integer units; weights and the swap fee are 1e18 fixed point.
// A pool with zero TotalSupply is uninitialized (no liquidity yet).
type Pool struct {
	Address     string
	MarketID    string
	BalancesRaw []*big.Int // per-outcome share token balances owned by the pool
	Weights     []*big.Int // per-outcome pool weights, set at creation
	Ratios      []*big.Int // token ratios reported by the AMM factory; price source
	FeeRaw      *big.Int   // swap fee as a 1e18 fixed-point fraction
	TotalSupply *big.Int   // outstanding LP token supply
	ShareFactor *big.Int   // scales collateral units to share units
}

// HasLiquidity reports whether the pool has been initialized with liquidity.
func (p *Pool) HasLiquidity() bool {
	return p != nil && p.TotalSupply != nil && p.TotalSupply.Sign() > 0
}

// NumOutcomes returns the size of the outcome set backing this pool.
func (p *Pool) NumOutcomes() int {
	return len(p.BalancesRaw)
}
