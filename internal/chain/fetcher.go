package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"turbopricer/internal/domain"
	"turbopricer/internal/portfolio"
)

// Fetcher assembles domain snapshots from raw contract reads. It is the
// fallback state source when the indexer is unavailable, and the canonical
// source for live balances.
type Fetcher struct {
	ec         *ethclient.Client
	mc         *Multicaller
	reg        *Registry
	ammFactory common.Address
	log        *slog.Logger
}

// NewFetcher creates a Fetcher bound to one AMM factory deployment.
func NewFetcher(ec *ethclient.Client, mc *Multicaller, reg *Registry, ammFactoryAddr string, log *slog.Logger) *Fetcher {
	return &Fetcher{
		ec:         ec,
		mc:         mc,
		reg:        reg,
		ammFactory: common.HexToAddress(ammFactoryAddr),
		log:        log.With("component", "chain_fetcher"),
	}
}

// marketTuple mirrors the getMarket return struct.
type marketTuple struct {
	ShareTokens []common.Address
	EndTime     *big.Int
	Winner      common.Address
}

// FetchMarkets reads every market registered on one market factory. Markets
// with no share tokens (never created, or the factory's unused zero slot)
// are skipped.
func (f *Fetcher) FetchMarkets(ctx context.Context, factoryAddr string) ([]domain.Market, error) {
	factory := common.HexToAddress(factoryAddr)

	head, err := f.mc.Execute(ctx, []Call{
		{Target: factory, Contract: f.reg.MarketFactory, Method: "marketCount"},
	})
	if err != nil {
		return nil, err
	}
	count, err := asBigInt(head[0])
	if err != nil {
		return nil, fmt.Errorf("chain: market count %s: %w", factoryAddr, err)
	}

	n := count.Int64()
	if n == 0 {
		return nil, nil
	}

	calls := make([]Call, 0, n)
	for i := int64(0); i < n; i++ {
		calls = append(calls, Call{
			Target:   factory,
			Contract: f.reg.MarketFactory,
			Method:   "getMarket",
			Args:     []any{big.NewInt(i)},
		})
	}
	results, err := f.mc.Execute(ctx, calls)
	if err != nil {
		return nil, err
	}

	markets := make([]domain.Market, 0, n)
	for i, r := range results {
		if !r.Success || len(r.Outputs) != 1 {
			f.log.Warn("skipping unreadable market", "factory", factoryAddr, "index", i)
			continue
		}
		mt := *abi.ConvertType(r.Outputs[0], new(marketTuple)).(*marketTuple)
		if len(mt.ShareTokens) == 0 {
			continue
		}
		markets = append(markets, buildMarket(factoryAddr, uint64(i), mt))
	}
	return markets, nil
}

func buildMarket(factoryAddr string, index uint64, mt marketTuple) domain.Market {
	m := domain.Market{
		ID:             domain.MarketID(factoryAddr, index),
		FactoryAddress: strings.ToLower(factoryAddr),
		Index:          index,
		EndTimestamp:   mt.EndTime.Int64(),
		Status:         domain.MarketStatusTrading,
		Outcomes:       make([]domain.Outcome, len(mt.ShareTokens)),
	}
	for i, tok := range mt.ShareTokens {
		o := domain.Outcome{
			ID:         i,
			ShareToken: strings.ToLower(tok.Hex()),
			Name:       fmt.Sprintf("Outcome %d", i),
		}
		if i == 0 {
			o.Name = "Invalid"
			o.IsInvalid = true
		}
		m.Outcomes[i] = o
	}
	if mt.Winner != (common.Address{}) {
		for i, tok := range mt.ShareTokens {
			if tok == mt.Winner {
				w := i
				m.Winner = &w
				m.Status = domain.MarketStatusFinalized
				break
			}
		}
	}
	return m
}

// FetchPools reads the pool state for every given market in two multicall
// rounds: one for the factory-level reads, one for totalSupply on the
// resolved pool addresses. Markets whose pool lookup reverts are omitted
// from the result, not failed.
func (f *Fetcher) FetchPools(ctx context.Context, markets []domain.Market) (map[string]*domain.Pool, error) {
	if len(markets) == 0 {
		return map[string]*domain.Pool{}, nil
	}

	// Per market: getPool, tokenRatios, getPoolBalances, getPoolWeights,
	// getSwapFee. Plus one shareFactor read per distinct factory.
	const perMarket = 5
	calls := make([]Call, 0, len(markets)*perMarket)
	for _, m := range markets {
		factory := common.HexToAddress(m.FactoryAddress)
		id := new(big.Int).SetUint64(m.Index)
		for _, method := range []string{"getPool", "tokenRatios", "getPoolBalances", "getPoolWeights", "getSwapFee"} {
			calls = append(calls, Call{
				Target:   f.ammFactory,
				Contract: f.reg.AMMFactory,
				Method:   method,
				Args:     []any{factory, id},
			})
		}
	}

	factories := make([]string, 0, 1)
	factoryIdx := make(map[string]int)
	for _, m := range markets {
		if _, seen := factoryIdx[m.FactoryAddress]; seen {
			continue
		}
		factoryIdx[m.FactoryAddress] = len(calls)
		factories = append(factories, m.FactoryAddress)
		calls = append(calls, Call{
			Target:   common.HexToAddress(m.FactoryAddress),
			Contract: f.reg.MarketFactory,
			Method:   "shareFactor",
		})
	}

	results, err := f.mc.Execute(ctx, calls)
	if err != nil {
		return nil, err
	}

	shareFactors := make(map[string]*big.Int, len(factories))
	for _, fa := range factories {
		sf, err := asBigInt(results[factoryIdx[fa]])
		if err != nil {
			return nil, fmt.Errorf("chain: share factor %s: %w", fa, err)
		}
		shareFactors[fa] = sf
	}

	pools := make(map[string]*domain.Pool, len(markets))
	for i, m := range markets {
		base := i * perMarket
		addr, err := asAddress(results[base])
		if err != nil || addr == (common.Address{}) {
			continue
		}
		pool := &domain.Pool{
			Address:     strings.ToLower(addr.Hex()),
			MarketID:    m.ID,
			ShareFactor: shareFactors[m.FactoryAddress],
		}
		if pool.Ratios, err = asBigIntSlice(results[base+1]); err != nil {
			f.log.Warn("skipping pool with unreadable ratios", "market", m.ID)
			continue
		}
		if pool.BalancesRaw, err = asBigIntSlice(results[base+2]); err != nil {
			f.log.Warn("skipping pool with unreadable balances", "market", m.ID)
			continue
		}
		if pool.Weights, err = asBigIntSlice(results[base+3]); err != nil {
			f.log.Warn("skipping pool with unreadable weights", "market", m.ID)
			continue
		}
		if pool.FeeRaw, err = asBigInt(results[base+4]); err != nil {
			f.log.Warn("skipping pool with unreadable fee", "market", m.ID)
			continue
		}
		pools[m.ID] = pool
	}

	// Second round: LP token supply lives on the pool contract itself.
	supplyCalls := make([]Call, 0, len(pools))
	supplyIDs := make([]string, 0, len(pools))
	for _, m := range markets {
		pool, ok := pools[m.ID]
		if !ok {
			continue
		}
		supplyIDs = append(supplyIDs, m.ID)
		supplyCalls = append(supplyCalls, Call{
			Target:   common.HexToAddress(pool.Address),
			Contract: f.reg.ERC20,
			Method:   "totalSupply",
		})
	}
	supplies, err := f.mc.Execute(ctx, supplyCalls)
	if err != nil {
		return nil, err
	}
	for i, id := range supplyIDs {
		supply, err := asBigInt(supplies[i])
		if err != nil {
			f.log.Warn("pool supply unreadable, treating as empty", "market", id)
			supply = new(big.Int)
		}
		pools[id].TotalSupply = supply
	}

	return pools, nil
}

// FetchAccountBalances reads one account's live holdings: native balance,
// collateral balance, LP token balances per market, and outcome share
// balances per market.
func (f *Fetcher) FetchAccountBalances(ctx context.Context, account, cashToken string, markets []domain.Market, pools map[string]*domain.Pool) (portfolio.AccountBalances, error) {
	acct := portfolio.AccountBalances{
		LPTokensRaw:      make(map[string]*big.Int),
		OutcomeSharesRaw: make(map[string][]*big.Int),
	}
	holder := common.HexToAddress(account)

	eth, err := f.ec.BalanceAt(ctx, holder, nil)
	if err != nil {
		return acct, fmt.Errorf("chain: eth balance %s: %w: %v", account, domain.ErrUnavailable, err)
	}
	acct.EthRaw = eth

	type shareRef struct {
		marketID string
		outcome  int
	}
	calls := []Call{{
		Target:   common.HexToAddress(cashToken),
		Contract: f.reg.ERC20,
		Method:   "balanceOf",
		Args:     []any{holder},
	}}
	var lpIDs []string
	var shareRefs []shareRef

	// LP reads first, share reads second; the read-back below walks the
	// results in the same order.
	for _, m := range markets {
		if _, ok := pools[m.ID]; !ok {
			continue
		}
		lpIDs = append(lpIDs, m.ID)
		calls = append(calls, Call{
			Target:   f.ammFactory,
			Contract: f.reg.AMMFactory,
			Method:   "getPoolTokenBalance",
			Args:     []any{common.HexToAddress(m.FactoryAddress), new(big.Int).SetUint64(m.Index), holder},
		})
	}
	for _, m := range markets {
		for _, o := range m.Outcomes {
			shareRefs = append(shareRefs, shareRef{marketID: m.ID, outcome: o.ID})
			calls = append(calls, Call{
				Target:   common.HexToAddress(o.ShareToken),
				Contract: f.reg.ERC20,
				Method:   "balanceOf",
				Args:     []any{holder},
			})
		}
	}

	results, err := f.mc.Execute(ctx, calls)
	if err != nil {
		return acct, err
	}

	if acct.CashRaw, err = asBigInt(results[0]); err != nil {
		return acct, fmt.Errorf("chain: cash balance %s: %w", account, err)
	}

	pos := 1
	for _, id := range lpIDs {
		bal, err := asBigInt(results[pos])
		pos++
		if err != nil {
			f.log.Warn("lp balance unreadable", "market", id, "account", account)
			continue
		}
		acct.LPTokensRaw[id] = bal
	}
	for _, ref := range shareRefs {
		bal, err := asBigInt(results[pos])
		pos++
		if err != nil {
			f.log.Warn("share balance unreadable", "market", ref.marketID, "outcome", ref.outcome)
			bal = new(big.Int)
		}
		shares := acct.OutcomeSharesRaw[ref.marketID]
		for len(shares) <= ref.outcome {
			shares = append(shares, new(big.Int))
		}
		shares[ref.outcome] = bal
		acct.OutcomeSharesRaw[ref.marketID] = shares
	}

	return acct, nil
}
