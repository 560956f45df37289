package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"turbopricer/internal/domain"
)

// maxCallsPerBatch caps a single tryAggregate invocation. Public RPC
// providers reject eth_call payloads past a few hundred KB, so oversized
// batches are split client side.
const maxCallsPerBatch = 200

// Call is one pending contract read inside a multicall batch.
type Call struct {
	Target   common.Address
	Contract abi.ABI
	Method   string
	Args     []any
}

// Result is the decoded outcome of one Call. Outputs is nil when the inner
// call reverted.
type Result struct {
	Success bool
	Outputs []any
}

// Multicaller batches eth_call reads through a deployed Multicall2 contract.
type Multicaller struct {
	ec       *ethclient.Client
	addr     common.Address
	contract abi.ABI
}

// NewMulticaller wires a Multicaller against the Multicall2 deployment at
// the given address.
func NewMulticaller(ec *ethclient.Client, multicallAddr string, reg *Registry) *Multicaller {
	return &Multicaller{
		ec:       ec,
		addr:     common.HexToAddress(multicallAddr),
		contract: reg.Multicall2,
	}
}

// mcCall and mcResult mirror the Multicall2 tuple layouts for ABI
// (un)packing via abi.ConvertType.
type mcCall struct {
	Target   common.Address
	CallData []byte
}

type mcResult struct {
	Success    bool
	ReturnData []byte
}

// Execute runs all calls through tryAggregate and decodes each return.
// Results are positionally aligned with calls. A reverted inner call yields
// Success=false rather than failing the batch; a transport failure returns
// domain.ErrUnavailable.
func (m *Multicaller) Execute(ctx context.Context, calls []Call) ([]Result, error) {
	results := make([]Result, 0, len(calls))
	for start := 0; start < len(calls); start += maxCallsPerBatch {
		end := start + maxCallsPerBatch
		if end > len(calls) {
			end = len(calls)
		}
		batch, err := m.executeBatch(ctx, calls[start:end])
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}

func (m *Multicaller) executeBatch(ctx context.Context, calls []Call) ([]Result, error) {
	packed := make([]mcCall, len(calls))
	for i, c := range calls {
		data, err := c.Contract.Pack(c.Method, c.Args...)
		if err != nil {
			return nil, fmt.Errorf("chain: pack %s: %w", c.Method, err)
		}
		packed[i] = mcCall{Target: c.Target, CallData: data}
	}

	input, err := m.contract.Pack("tryAggregate", false, packed)
	if err != nil {
		return nil, fmt.Errorf("chain: pack tryAggregate: %w", err)
	}

	raw, err := m.ec.CallContract(ctx, ethereum.CallMsg{To: &m.addr, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: multicall: %w: %v", domain.ErrUnavailable, err)
	}

	unpacked, err := m.contract.Unpack("tryAggregate", raw)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack tryAggregate: %w", err)
	}
	if len(unpacked) != 1 {
		return nil, fmt.Errorf("chain: unexpected tryAggregate arity %d", len(unpacked))
	}

	inner := *abi.ConvertType(unpacked[0], new([]mcResult)).(*[]mcResult)
	if len(inner) != len(calls) {
		return nil, fmt.Errorf("chain: multicall returned %d results for %d calls", len(inner), len(calls))
	}

	results := make([]Result, len(calls))
	for i, r := range inner {
		if !r.Success {
			results[i] = Result{Success: false}
			continue
		}
		outs, err := calls[i].Contract.Unpack(calls[i].Method, r.ReturnData)
		if err != nil {
			return nil, fmt.Errorf("chain: unpack %s result: %w", calls[i].Method, err)
		}
		results[i] = Result{Success: true, Outputs: outs}
	}
	return results, nil
}

// Decoders for the common return shapes.

func asBigInt(r Result) (*big.Int, error) {
	if !r.Success || len(r.Outputs) != 1 {
		return nil, domain.ErrMalformedData
	}
	v, ok := r.Outputs[0].(*big.Int)
	if !ok {
		return nil, domain.ErrMalformedData
	}
	return v, nil
}

func asBigIntSlice(r Result) ([]*big.Int, error) {
	if !r.Success || len(r.Outputs) != 1 {
		return nil, domain.ErrMalformedData
	}
	v, ok := r.Outputs[0].([]*big.Int)
	if !ok {
		return nil, domain.ErrMalformedData
	}
	return v, nil
}

func asAddress(r Result) (common.Address, error) {
	if !r.Success || len(r.Outputs) != 1 {
		return common.Address{}, domain.ErrMalformedData
	}
	v, ok := r.Outputs[0].(common.Address)
	if !ok {
		return common.Address{}, domain.ErrMalformedData
	}
	return v, nil
}
