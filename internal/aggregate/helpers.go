package aggregate

import (
	"math/big"
	"time"
)

const ratioScale = 18

func formatTokenAmount(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(abs, denom)
	text := rat.FloatString(int(decimals))
	if sign < 0 {
		return "-" + text
	}
	return text
}

func computeFeeRates(fee0 *big.Int, fee1 *big.Int, tvl0 *big.Int, tvl1 *big.Int) (*string, *string) {
	var feeRate0 *string
	var feeRate1 *string

	if rate := computeRateFromInt(fee0, tvl0); rate != "" {
		feeRate0 = &rate
	}
	if rate := computeRateFromInt(fee1, tvl1); rate != "" {
		feeRate1 = &rate
	}
	return feeRate0, feeRate1
}

func computeRateFromInt(fee *big.Int, tvl *big.Int) string {
	if fee == nil || fee.Sign() == 0 || tvl == nil || tvl.Sign() == 0 {
		return ""
	}
	rat := new(big.Rat).SetFrac(fee, tvl)
	return rat.FloatString(ratioScale)
}

// poolFeeRate values both fee legs in token1 at the pool price tvl1/tvl0
// and divides by the pool value, which is twice the token1 side.
func poolFeeRate(fee0, fee1, tvl0, tvl1 *big.Int) *big.Rat {
	if tvl0 == nil || tvl1 == nil || tvl0.Sign() <= 0 || tvl1.Sign() <= 0 {
		return nil
	}
	value := new(big.Rat)
	if fee0 != nil {
		leg0 := new(big.Rat).SetFrac(new(big.Int).Mul(fee0, tvl1), tvl0)
		value.Add(value, leg0)
	}
	if fee1 != nil {
		value.Add(value, new(big.Rat).SetInt(fee1))
	}
	if value.Sign() == 0 {
		return nil
	}
	total := new(big.Rat).SetInt(new(big.Int).Lsh(tvl1, 1))
	return value.Quo(value, total)
}

func computeAPR(fee0, fee1, tvl0, tvl1 *big.Int, windowSeconds uint64) *string {
	if windowSeconds == 0 {
		return nil
	}
	rate := poolFeeRate(fee0, fee1, tvl0, tvl1)
	if rate == nil {
		return nil
	}

	yearSeconds := big.NewRat(int64(365*24*time.Hour/time.Second), 1)
	window := big.NewRat(int64(windowSeconds), 1)
	apr := new(big.Rat).Mul(rate, yearSeconds)
	apr.Quo(apr, window)
	val := apr.FloatString(ratioScale)
	return &val
}
