package amm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSwapInput reports malformed arguments: zero or negative
	// amounts, unknown assets, invalid callers.
	ErrInvalidSwapInput = errors.New("invalid swap input")
	// ErrInsufficientLiquidityMinted reports a deposit worth zero shares.
	ErrInsufficientLiquidityMinted = errors.New("insufficient liquidity minted")
	// ErrInsufficientShares reports a burn larger than the caller's balance.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrInsufficientLiquidityBurned reports a burn too small to pay out
	// both assets. It is a kind of ErrInsufficientShares.
	ErrInsufficientLiquidityBurned = fmt.Errorf("%w: insufficient liquidity burned", ErrInsufficientShares)
	// ErrInsufficientLiquidity reports a swap against an empty pool or one
	// that would reach or exceed the output reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrSlippageExceeded reports a realized amount outside the caller's bound.
	ErrSlippageExceeded = errors.New("slippage exceeded")
	// ErrLedgerTransferFailed reports a failed asset ledger call.
	ErrLedgerTransferFailed = errors.New("ledger transfer failed")
	// ErrInvariantViolation reports an internal consistency failure. A pool
	// that returns it from a post-check is halted.
	ErrInvariantViolation = errors.New("invariant violation")
)
