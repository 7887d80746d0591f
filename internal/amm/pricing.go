package amm

import (
	"fmt"
	"math/big"
)

var feeDenominator = big.NewInt(FeeDenominator)

// GetAmountOut prices a swap of amountIn against the given reserves.
//
// The fee is taken from the input first,
//
//	amountInWithFee = amountIn * (FeeDenominator - feeBps) / FeeDenominator
//
// and the remainder is priced on the constant-product curve,
//
//	amountOut = amountInWithFee * reserveOut / (reserveIn + amountInWithFee)
//
// Both divisions floor, so the result never favors the trader.
func GetAmountOut(amountIn, reserveIn, reserveOut *big.Int, feeBps uint32) (*big.Int, error) {
	if !isPositive(amountIn) {
		return nil, fmt.Errorf("%w: amount in must be positive", ErrInvalidSwapInput)
	}
	if !isPositive(reserveIn) || !isPositive(reserveOut) {
		return nil, fmt.Errorf("%w: reserves must be positive", ErrInvalidSwapInput)
	}
	if feeBps >= FeeDenominator {
		return nil, fmt.Errorf("%w: fee bps %d", ErrInvalidSwapInput, feeBps)
	}

	withFee := amountInWithFee(amountIn, feeBps)
	numerator := new(big.Int).Mul(withFee, reserveOut)
	denominator := new(big.Int).Add(reserveIn, withFee)
	return numerator.Quo(numerator, denominator), nil
}

// GetAmountIn returns the smallest input for which GetAmountOut yields at
// least amountOut. amountOut must be strictly below reserveOut.
func GetAmountIn(amountOut, reserveIn, reserveOut *big.Int, feeBps uint32) (*big.Int, error) {
	if !isPositive(amountOut) {
		return nil, fmt.Errorf("%w: amount out must be positive", ErrInvalidSwapInput)
	}
	if !isPositive(reserveIn) || !isPositive(reserveOut) {
		return nil, fmt.Errorf("%w: reserves must be positive", ErrInvalidSwapInput)
	}
	if feeBps >= FeeDenominator {
		return nil, fmt.Errorf("%w: fee bps %d", ErrInvalidSwapInput, feeBps)
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, fmt.Errorf("%w: amount out %s reaches reserve %s", ErrInsufficientLiquidity, amountOut, reserveOut)
	}

	// net input needed after the fee: ceil(reserveIn*amountOut / (reserveOut-amountOut))
	numerator := new(big.Int).Mul(reserveIn, amountOut)
	net := ceilDiv(numerator, new(big.Int).Sub(reserveOut, amountOut))

	// gross input whose floored fee deduction still covers net
	gross := new(big.Int).Mul(net, feeDenominator)
	return ceilDiv(gross, big.NewInt(int64(FeeDenominator-feeBps))), nil
}

func amountInWithFee(amountIn *big.Int, feeBps uint32) *big.Int {
	out := new(big.Int).Mul(amountIn, big.NewInt(int64(FeeDenominator-feeBps)))
	return out.Quo(out, feeDenominator)
}

func ceilDiv(x, y *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(x, y, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q
}

func isPositive(v *big.Int) bool {
	return v != nil && v.Sign() > 0
}
