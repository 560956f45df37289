// Package chain reads market and pool state directly from the EVM chain.
// All reads go through a Multicall2 contract so one refresh cycle costs a
// handful of RPC round trips regardless of how many markets exist.
package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Contract ABIs, trimmed to the read methods the fetcher actually calls.
const (
	multicall2ABI = `[
		{"name":"tryAggregate","type":"function","stateMutability":"view",
		 "inputs":[
			{"name":"requireSuccess","type":"bool"},
			{"name":"calls","type":"tuple[]","components":[
				{"name":"target","type":"address"},
				{"name":"callData","type":"bytes"}]}],
		 "outputs":[
			{"name":"returnData","type":"tuple[]","components":[
				{"name":"success","type":"bool"},
				{"name":"returnData","type":"bytes"}]}]}
	]`

	ammFactoryABI = `[
		{"name":"getPool","type":"function","stateMutability":"view",
		 "inputs":[{"name":"marketFactory","type":"address"},{"name":"marketId","type":"uint256"}],
		 "outputs":[{"name":"","type":"address"}]},
		{"name":"tokenRatios","type":"function","stateMutability":"view",
		 "inputs":[{"name":"marketFactory","type":"address"},{"name":"marketId","type":"uint256"}],
		 "outputs":[{"name":"","type":"uint256[]"}]},
		{"name":"getPoolBalances","type":"function","stateMutability":"view",
		 "inputs":[{"name":"marketFactory","type":"address"},{"name":"marketId","type":"uint256"}],
		 "outputs":[{"name":"","type":"uint256[]"}]},
		{"name":"getPoolWeights","type":"function","stateMutability":"view",
		 "inputs":[{"name":"marketFactory","type":"address"},{"name":"marketId","type":"uint256"}],
		 "outputs":[{"name":"","type":"uint256[]"}]},
		{"name":"getSwapFee","type":"function","stateMutability":"view",
		 "inputs":[{"name":"marketFactory","type":"address"},{"name":"marketId","type":"uint256"}],
		 "outputs":[{"name":"","type":"uint256"}]},
		{"name":"getPoolTokenBalance","type":"function","stateMutability":"view",
		 "inputs":[{"name":"marketFactory","type":"address"},{"name":"marketId","type":"uint256"},{"name":"user","type":"address"}],
		 "outputs":[{"name":"","type":"uint256"}]}
	]`

	marketFactoryABI = `[
		{"name":"marketCount","type":"function","stateMutability":"view",
		 "inputs":[],
		 "outputs":[{"name":"","type":"uint256"}]},
		{"name":"shareFactor","type":"function","stateMutability":"view",
		 "inputs":[],
		 "outputs":[{"name":"","type":"uint256"}]},
		{"name":"getMarket","type":"function","stateMutability":"view",
		 "inputs":[{"name":"marketId","type":"uint256"}],
		 "outputs":[{"name":"market","type":"tuple","components":[
			{"name":"shareTokens","type":"address[]"},
			{"name":"endTime","type":"uint256"},
			{"name":"winner","type":"address"}]}]}
	]`

	erc20ABI = `[
		{"name":"balanceOf","type":"function","stateMutability":"view",
		 "inputs":[{"name":"owner","type":"address"}],
		 "outputs":[{"name":"","type":"uint256"}]},
		{"name":"totalSupply","type":"function","stateMutability":"view",
		 "inputs":[],
		 "outputs":[{"name":"","type":"uint256"}]}
	]`
)

// Registry holds the parsed contract ABIs, keyed by contract kind. Parsing
// happens once at construction so a typo in an ABI string fails at startup
// instead of mid-refresh.
type Registry struct {
	Multicall2    abi.ABI
	AMMFactory    abi.ABI
	MarketFactory abi.ABI
	ERC20         abi.ABI
}

// NewRegistry parses all contract ABIs and returns the registry.
func NewRegistry() (*Registry, error) {
	r := &Registry{}
	for _, def := range []struct {
		name string
		json string
		dst  *abi.ABI
	}{
		{"multicall2", multicall2ABI, &r.Multicall2},
		{"ammFactory", ammFactoryABI, &r.AMMFactory},
		{"marketFactory", marketFactoryABI, &r.MarketFactory},
		{"erc20", erc20ABI, &r.ERC20},
	} {
		parsed, err := abi.JSON(strings.NewReader(def.json))
		if err != nil {
			return nil, fmt.Errorf("chain: parse %s abi: %w", def.name, err)
		}
		*def.dst = parsed
	}
	return r, nil
}
