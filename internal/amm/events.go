package amm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind names a pool event.
type EventKind string

const (
	EventMint EventKind = "Mint"
	EventBurn EventKind = "Burn"
	EventSwap EventKind = "Swap"
)

// Event is one entry of the pool's append-only log. Mint and Burn use
// Amount0/Amount1; Swap uses the In/Out fields. Reserve0/Reserve1 hold the
// reserves after the operation committed.
type Event struct {
	Seq       uint64
	Kind      EventKind
	Caller    common.Address
	Amount0   *big.Int
	Amount1   *big.Int
	AmountIn  *big.Int
	TokenIn   common.Address
	AmountOut *big.Int
	TokenOut  common.Address
	Reserve0  *big.Int
	Reserve1  *big.Int
}

func (e Event) clone() Event {
	out := e
	out.Amount0 = copyInt(e.Amount0)
	out.Amount1 = copyInt(e.Amount1)
	out.AmountIn = copyInt(e.AmountIn)
	out.AmountOut = copyInt(e.AmountOut)
	out.Reserve0 = copyInt(e.Reserve0)
	out.Reserve1 = copyInt(e.Reserve1)
	return out
}

// MintResult is returned by AddLiquidity.
type MintResult struct {
	Shares  *big.Int
	Amount0 *big.Int
	Amount1 *big.Int
	Event   Event
}

// BurnResult is returned by RemoveLiquidity.
type BurnResult struct {
	Amount0 *big.Int
	Amount1 *big.Int
	Event   Event
}

// SwapResult is returned by Swap and SwapExactOut.
type SwapResult struct {
	AmountIn  *big.Int
	AmountOut *big.Int
	TokenOut  common.Address
	Event     Event
}

func copyInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
