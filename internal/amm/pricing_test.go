package amm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetAmountOutNoFee(t *testing.T) {
	out, err := GetAmountOut(big.NewInt(10), big.NewInt(100), big.NewInt(200), 0)
	require.NoError(t, err)
	require.Equal(t, "18", out.String())
}

func TestGetAmountOutWithFee(t *testing.T) {
	// 1000 * 9970 / 10000 = 997; 997 * 1_000_000 / (1_000_000 + 997) = 996
	out, err := GetAmountOut(big.NewInt(1000), big.NewInt(1_000_000), big.NewInt(1_000_000), DefaultFeeBps)
	require.NoError(t, err)
	require.Equal(t, "996", out.String())
}

func TestGetAmountOutInvalidInput(t *testing.T) {
	cases := []struct {
		name          string
		in, rIn, rOut *big.Int
	}{
		{"zero in", big.NewInt(0), big.NewInt(1), big.NewInt(1)},
		{"negative in", big.NewInt(-1), big.NewInt(1), big.NewInt(1)},
		{"nil in", nil, big.NewInt(1), big.NewInt(1)},
		{"zero reserve in", big.NewInt(1), big.NewInt(0), big.NewInt(1)},
		{"zero reserve out", big.NewInt(1), big.NewInt(1), big.NewInt(0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := GetAmountOut(tc.in, tc.rIn, tc.rOut, DefaultFeeBps)
			require.ErrorIs(t, err, ErrInvalidSwapInput)
		})
	}

	_, err := GetAmountOut(big.NewInt(1), big.NewInt(1), big.NewInt(1), FeeDenominator)
	require.ErrorIs(t, err, ErrInvalidSwapInput)
}

func TestGetAmountOutDeterministic(t *testing.T) {
	in, rIn, rOut := big.NewInt(123_456), big.NewInt(9_876_543), big.NewInt(5_555_555)
	first, err := GetAmountOut(in, rIn, rOut, DefaultFeeBps)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := GetAmountOut(in, rIn, rOut, DefaultFeeBps)
		require.NoError(t, err)
		require.Zero(t, first.Cmp(again))
	}
	require.Equal(t, "123456", in.String(), "inputs must not be mutated")
}

func TestGetAmountOutMonotonicInAmountIn(t *testing.T) {
	rIn, rOut := big.NewInt(1_000_000), big.NewInt(3_000_000)
	for _, fee := range []uint32{0, DefaultFeeBps, 100} {
		prev := big.NewInt(-1)
		for x := int64(1); x <= 5000; x++ {
			out, err := GetAmountOut(big.NewInt(x), rIn, rOut, fee)
			require.NoError(t, err)
			require.GreaterOrEqual(t, out.Cmp(prev), 0, "fee %d x %d", fee, x)
			prev = out
		}
	}

	// every extra unit of input is worth more than one unit of output here,
	// so rounding cannot flatten the curve
	rIn, rOut = big.NewInt(10), big.NewInt(1_000_000_000)
	prev := big.NewInt(0)
	for x := int64(1); x <= 200; x++ {
		out, err := GetAmountOut(big.NewInt(x), rIn, rOut, 0)
		require.NoError(t, err)
		require.Equal(t, 1, out.Cmp(prev), "x %d", x)
		prev = out
	}
}

func TestGetAmountOutDecreasingInReserveIn(t *testing.T) {
	in, rOut := big.NewInt(1_000), big.NewInt(1_000_000_000)
	prev, err := GetAmountOut(in, big.NewInt(1), rOut, DefaultFeeBps)
	require.NoError(t, err)
	for r := int64(2); r <= 2000; r++ {
		out, err := GetAmountOut(in, big.NewInt(r), rOut, DefaultFeeBps)
		require.NoError(t, err)
		require.LessOrEqual(t, out.Cmp(prev), 0, "reserve in %d", r)
		prev = out
	}
}

func TestGetAmountInIsMinimal(t *testing.T) {
	rIn, rOut := big.NewInt(50_000), big.NewInt(80_000)
	for _, fee := range []uint32{0, DefaultFeeBps, 250} {
		for out := int64(1); out < 80_000; out += 397 {
			want := big.NewInt(out)
			in, err := GetAmountIn(want, rIn, rOut, fee)
			require.NoError(t, err)

			got, err := GetAmountOut(in, rIn, rOut, fee)
			require.NoError(t, err)
			require.GreaterOrEqual(t, got.Cmp(want), 0, "fee %d out %d in %s", fee, out, in)

			less := new(big.Int).Sub(in, big.NewInt(1))
			if less.Sign() == 0 {
				continue
			}
			got, err = GetAmountOut(less, rIn, rOut, fee)
			require.NoError(t, err)
			require.Equal(t, -1, got.Cmp(want), "fee %d out %d in %s is not minimal", fee, out, in)
		}
	}
}

func TestGetAmountInDrain(t *testing.T) {
	_, err := GetAmountIn(big.NewInt(200), big.NewInt(100), big.NewInt(200), 0)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = GetAmountIn(big.NewInt(0), big.NewInt(100), big.NewInt(200), 0)
	require.ErrorIs(t, err, ErrInvalidSwapInput)
}
