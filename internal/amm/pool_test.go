package amm_test

import (
	"math/big"
	"math/rand"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"swapV2/internal/amm"
	"swapV2/internal/ledger"
)

var (
	poolAddr  = common.HexToAddress("0x0000000000000000000000000000000000000f01")
	wethAddr  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	owner     = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	trader    = common.HexToAddress("0x0000000000000000000000000000000000000a02")
)

type fixture struct {
	pool   *amm.Pool
	token0 *ledger.WETH
	token1 *ledger.Token
}

func newFixture(t *testing.T, cfg amm.Config) *fixture {
	t.Helper()
	token0 := ledger.NewWETH(wethAddr)
	token1 := ledger.NewToken(tokenAddr, "Fake ETH", "FAKEETH")
	pool, err := amm.NewPool(cfg, token0, token1)
	require.NoError(t, err)
	return &fixture{pool: pool, token0: token0, token1: token1}
}

func defaultFixture(t *testing.T, feeBps uint32) *fixture {
	cfg := amm.DefaultConfig(poolAddr)
	cfg.FeeBps = feeBps
	return newFixture(t, cfg)
}

// fund gives account amount of both assets and approves the pool for them.
func (f *fixture) fund(t *testing.T, account common.Address, amount *big.Int) {
	t.Helper()
	require.NoError(t, f.token0.CreditNative(account, amount))
	require.NoError(t, f.token0.Deposit(account, amount))
	require.NoError(t, f.token1.Mint(account, amount))
	require.NoError(t, f.token0.Approve(account, poolAddr, amount))
	require.NoError(t, f.token1.Approve(account, poolAddr, amount))
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func requireReserves(t *testing.T, pool *amm.Pool, r0, r1 string) {
	t.Helper()
	got0, got1 := pool.Reserves()
	require.Equal(t, r0, got0.String(), "reserve0")
	require.Equal(t, r1, got1.String(), "reserve1")
}

func requireCustody(t *testing.T, f *fixture) {
	t.Helper()
	r0, r1 := f.pool.Reserves()
	require.Zero(t, r0.Cmp(f.token0.BalanceOf(poolAddr)), "reserve0 vs custody")
	require.Zero(t, r1.Cmp(f.token1.BalanceOf(poolAddr)), "reserve1 vs custody")
}

func TestNewPoolValidatesConfig(t *testing.T) {
	token := ledger.NewToken(tokenAddr, "A", "A")
	_, err := amm.NewPool(amm.DefaultConfig(poolAddr), token, token)
	require.Error(t, err)

	cfg := amm.DefaultConfig(poolAddr)
	cfg.FeeBps = amm.FeeDenominator
	_, err = amm.NewPool(cfg, ledger.NewWETH(wethAddr), token)
	require.Error(t, err)

	_, err = amm.NewPool(amm.DefaultConfig(common.Address{}), ledger.NewWETH(wethAddr), token)
	require.Error(t, err)
}

func TestAddLiquidityFirstDeposit(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	f.fund(t, owner, big.NewInt(1000))
	require.Equal(t, amm.StatusEmpty, f.pool.Status())

	res, err := f.pool.AddLiquidity(owner, big.NewInt(10), big.NewInt(20))
	require.NoError(t, err)

	requireReserves(t, f.pool, "10", "20")
	require.Equal(t, "14", res.Shares.String())
	require.Equal(t, "14", f.pool.SharesOf(owner).String())
	require.Equal(t, "14", f.pool.TotalShares().String())
	require.Equal(t, amm.StatusActive, f.pool.Status())

	require.Equal(t, amm.EventMint, res.Event.Kind)
	require.Equal(t, owner, res.Event.Caller)
	require.Equal(t, "10", res.Event.Amount0.String())
	require.Equal(t, "20", res.Event.Amount1.String())

	events := f.pool.Events()
	require.Len(t, events, 1)
	require.Equal(t, uint64(1), events[0].Seq)
	requireCustody(t, f)
}

func TestAddLiquidityReturnsLeftover(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	f.fund(t, owner, big.NewInt(10_000))
	f.fund(t, trader, big.NewInt(10_000))

	_, err := f.pool.AddLiquidity(owner, big.NewInt(100), big.NewInt(200))
	require.NoError(t, err)

	// 10 token0 pairs with 20 token1; the extra 30 token1 stay with the caller
	res, err := f.pool.AddLiquidity(trader, big.NewInt(10), big.NewInt(50))
	require.NoError(t, err)
	require.Equal(t, "10", res.Amount0.String())
	require.Equal(t, "20", res.Amount1.String())
	require.Equal(t, "14", res.Shares.String())
	require.Equal(t, "9980", f.token1.BalanceOf(trader).String())
	requireReserves(t, f.pool, "110", "220")
	requireCustody(t, f)
}

func TestAddLiquidityTooSmall(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	f.fund(t, owner, ether(10))
	f.fund(t, trader, big.NewInt(10))

	_, err := f.pool.AddLiquidity(owner, ether(1), ether(1))
	require.NoError(t, err)

	_, err = f.pool.AddLiquidity(trader, big.NewInt(0), big.NewInt(1))
	require.ErrorIs(t, err, amm.ErrInvalidSwapInput)

	_, err = f.pool.AddLiquidity(trader, big.NewInt(1), big.NewInt(1))
	require.NoError(t, err)

	// pool shares are now worth far more than one unit; a dust deposit mints nothing
	f2 := defaultFixture(t, amm.DefaultFeeBps)
	f2.fund(t, owner, ether(10))
	f2.fund(t, trader, big.NewInt(10))
	_, err = f2.pool.AddLiquidity(owner, big.NewInt(1), ether(1))
	require.NoError(t, err)
	_, err = f2.pool.AddLiquidity(trader, big.NewInt(10), big.NewInt(1))
	require.ErrorIs(t, err, amm.ErrInsufficientLiquidityMinted)
	require.Equal(t, "10", f2.token0.BalanceOf(trader).String())
	require.Len(t, f2.pool.Events(), 1)
}

func TestAddLiquidityPullFailureIsAtomic(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	require.NoError(t, f.token0.CreditNative(owner, big.NewInt(100)))
	require.NoError(t, f.token0.Deposit(owner, big.NewInt(100)))
	require.NoError(t, f.token0.Approve(owner, poolAddr, big.NewInt(100)))
	require.NoError(t, f.token1.Mint(owner, big.NewInt(100)))
	// no token1 approval

	_, err := f.pool.AddLiquidity(owner, big.NewInt(10), big.NewInt(20))
	require.ErrorIs(t, err, amm.ErrLedgerTransferFailed)
	require.ErrorIs(t, err, ledger.ErrInsufficientAllowance)

	require.Equal(t, "100", f.token0.BalanceOf(owner).String())
	require.Equal(t, "100", f.token0.Allowance(owner, poolAddr).String())
	require.Zero(t, f.token0.BalanceOf(poolAddr).Sign())
	requireReserves(t, f.pool, "0", "0")
	require.Zero(t, f.pool.TotalShares().Sign())
	require.Empty(t, f.pool.Events())
	require.Equal(t, amm.StatusEmpty, f.pool.Status())
}

func TestRemoveLiquidityRoundTrip(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	f.fund(t, owner, ether(1000))

	minted, err := f.pool.AddLiquidity(owner, ether(10), ether(20))
	require.NoError(t, err)

	res, err := f.pool.RemoveLiquidity(owner, f.pool.SharesOf(owner))
	require.NoError(t, err)
	require.Zero(t, res.Amount0.Cmp(ether(10)))
	require.Zero(t, res.Amount1.Cmp(ether(20)))
	require.Equal(t, amm.EventBurn, res.Event.Kind)
	require.Equal(t, owner, res.Event.Caller)
	require.Zero(t, minted.Shares.Cmp(new(big.Int).Sqrt(new(big.Int).Mul(ether(10), ether(20)))))

	requireReserves(t, f.pool, "0", "0")
	require.Zero(t, f.pool.TotalShares().Sign())
	require.Equal(t, amm.StatusEmpty, f.pool.Status())
	require.Zero(t, f.token0.BalanceOf(owner).Cmp(ether(1000)))
	require.Zero(t, f.token1.BalanceOf(owner).Cmp(ether(1000)))

	// an emptied pool reactivates at a new ratio
	_, err = f.pool.AddLiquidity(owner, big.NewInt(5), big.NewInt(500))
	require.NoError(t, err)
	requireReserves(t, f.pool, "5", "500")
	require.Equal(t, "50", f.pool.TotalShares().String())
}

func TestRemoveLiquidityWithLockedMinimum(t *testing.T) {
	cfg := amm.DefaultConfig(poolAddr)
	cfg.MinimumLiquidity = big.NewInt(1000)
	cfg.LockAddress = common.HexToAddress("0x000000000000000000000000000000000000dEaD")
	f := newFixture(t, cfg)
	f.fund(t, owner, big.NewInt(100_000))

	_, err := f.pool.AddLiquidity(owner, big.NewInt(1000), big.NewInt(1000))
	require.ErrorIs(t, err, amm.ErrInsufficientLiquidityMinted)

	res, err := f.pool.AddLiquidity(owner, big.NewInt(10_000), big.NewInt(10_000))
	require.NoError(t, err)
	require.Equal(t, "9000", res.Shares.String())
	require.Equal(t, "1000", f.pool.SharesOf(cfg.LockAddress).String())
	require.Equal(t, "10000", f.pool.TotalShares().String())

	_, err = f.pool.RemoveLiquidity(owner, big.NewInt(9000))
	require.NoError(t, err)
	requireReserves(t, f.pool, "1000", "1000")
	require.Equal(t, "1000", f.pool.TotalShares().String())
	require.Equal(t, amm.StatusActive, f.pool.Status())

	_, err = f.pool.RemoveLiquidity(cfg.LockAddress, big.NewInt(1000))
	require.ErrorIs(t, err, amm.ErrInvalidSwapInput)
}

func TestRemoveLiquidityExceedingBalance(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	f.fund(t, owner, big.NewInt(1000))
	_, err := f.pool.AddLiquidity(owner, big.NewInt(100), big.NewInt(100))
	require.NoError(t, err)

	_, err = f.pool.RemoveLiquidity(owner, big.NewInt(101))
	require.ErrorIs(t, err, amm.ErrInsufficientShares)
	_, err = f.pool.RemoveLiquidity(trader, big.NewInt(1))
	require.ErrorIs(t, err, amm.ErrInsufficientShares)
	_, err = f.pool.RemoveLiquidity(owner, big.NewInt(0))
	require.ErrorIs(t, err, amm.ErrInvalidSwapInput)

	requireReserves(t, f.pool, "100", "100")
	require.Len(t, f.pool.Events(), 1)
}

func TestRemoveLiquidityZeroPayout(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	f.fund(t, owner, big.NewInt(1_000_000))

	_, err := f.pool.AddLiquidity(owner, big.NewInt(1), big.NewInt(1_000_000))
	require.NoError(t, err)
	require.Equal(t, "1000", f.pool.TotalShares().String())

	// one share of a pool holding a single unit of token0 pays nothing
	_, err = f.pool.RemoveLiquidity(owner, big.NewInt(1))
	require.ErrorIs(t, err, amm.ErrInsufficientLiquidityBurned)
	require.ErrorIs(t, err, amm.ErrInsufficientShares)
	require.NotErrorIs(t, err, amm.ErrInvariantViolation)
	require.NoError(t, f.pool.Halted())
	requireReserves(t, f.pool, "1", "1000000")
}

func TestSwapScenarioNoFee(t *testing.T) {
	f := defaultFixture(t, 0)
	f.fund(t, owner, big.NewInt(1000))
	f.fund(t, trader, big.NewInt(1000))

	_, err := f.pool.AddLiquidity(owner, big.NewInt(100), big.NewInt(200))
	require.NoError(t, err)

	res, err := f.pool.Swap(trader, big.NewInt(10), wethAddr, big.NewInt(0))
	require.NoError(t, err)
	require.Equal(t, "18", res.AmountOut.String())
	require.Equal(t, tokenAddr, res.TokenOut)
	requireReserves(t, f.pool, "110", "182")
	requireCustody(t, f)

	ev := res.Event
	require.Equal(t, amm.EventSwap, ev.Kind)
	require.Equal(t, trader, ev.Caller)
	require.Equal(t, "10", ev.AmountIn.String())
	require.Equal(t, wethAddr, ev.TokenIn)
	require.Equal(t, "18", ev.AmountOut.String())
	require.Equal(t, tokenAddr, ev.TokenOut)
	require.Equal(t, "110", ev.Reserve0.String())
	require.Equal(t, "182", ev.Reserve1.String())
	require.Equal(t, "1018", f.token1.BalanceOf(trader).String())
}

func TestSwapBothDirectionsMatchQuote(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	f.fund(t, owner, ether(1000))
	f.fund(t, trader, ether(1000))
	_, err := f.pool.AddLiquidity(owner, ether(100), ether(200))
	require.NoError(t, err)

	expected, err := f.pool.GetAmountOut(ether(10), f.pool.Reserve0(), f.pool.Reserve1())
	require.NoError(t, err)
	res, err := f.pool.Swap(trader, ether(10), wethAddr, nil)
	require.NoError(t, err)
	require.Zero(t, expected.Cmp(res.AmountOut))
	require.Zero(t, f.token1.BalanceOf(trader).Cmp(new(big.Int).Add(ether(1000), expected)))

	expected, err = f.pool.Quote(ether(20), tokenAddr)
	require.NoError(t, err)
	wethBefore := f.token0.BalanceOf(trader)
	res, err = f.pool.Swap(trader, ether(20), tokenAddr, nil)
	require.NoError(t, err)
	require.Zero(t, expected.Cmp(res.AmountOut))
	require.Equal(t, wethAddr, res.Event.TokenOut)
	require.Zero(t, f.token0.BalanceOf(trader).Cmp(new(big.Int).Add(wethBefore, expected)))
	requireCustody(t, f)
}

func TestSwapSlippage(t *testing.T) {
	f := defaultFixture(t, 0)
	f.fund(t, owner, big.NewInt(1000))
	f.fund(t, trader, big.NewInt(1000))
	_, err := f.pool.AddLiquidity(owner, big.NewInt(100), big.NewInt(200))
	require.NoError(t, err)

	_, err = f.pool.Swap(trader, big.NewInt(10), wethAddr, big.NewInt(19))
	require.ErrorIs(t, err, amm.ErrSlippageExceeded)
	requireReserves(t, f.pool, "100", "200")
	require.Equal(t, "1000", f.token0.BalanceOf(trader).String())

	_, err = f.pool.Swap(trader, big.NewInt(10), wethAddr, big.NewInt(18))
	require.NoError(t, err)
}

func TestSwapRequestingMoreThanReserve(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	f.fund(t, owner, big.NewInt(1000))
	f.fund(t, trader, big.NewInt(1000))
	_, err := f.pool.AddLiquidity(owner, big.NewInt(100), big.NewInt(200))
	require.NoError(t, err)

	_, err = f.pool.Swap(trader, big.NewInt(900), wethAddr, big.NewInt(201))
	require.ErrorIs(t, err, amm.ErrInsufficientLiquidity)
	require.ErrorIs(t, err, amm.ErrSlippageExceeded)

	_, err = f.pool.SwapExactOut(trader, big.NewInt(200), tokenAddr, nil)
	require.ErrorIs(t, err, amm.ErrInsufficientLiquidity)
	_, err = f.pool.SwapExactOut(trader, big.NewInt(500), tokenAddr, nil)
	require.ErrorIs(t, err, amm.ErrInsufficientLiquidity)

	requireReserves(t, f.pool, "100", "200")
	require.Len(t, f.pool.Events(), 1)
}

func TestSwapRejectsBadInput(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	f.fund(t, owner, big.NewInt(1000))

	_, err := f.pool.Swap(trader, big.NewInt(10), wethAddr, nil)
	require.ErrorIs(t, err, amm.ErrInsufficientLiquidity, "empty pool")

	_, err = f.pool.AddLiquidity(owner, big.NewInt(100), big.NewInt(200))
	require.NoError(t, err)

	_, err = f.pool.Swap(trader, big.NewInt(10), common.HexToAddress("0x01"), nil)
	require.ErrorIs(t, err, amm.ErrInvalidSwapInput)
	_, err = f.pool.Swap(trader, big.NewInt(0), wethAddr, nil)
	require.ErrorIs(t, err, amm.ErrInvalidSwapInput)
	_, err = f.pool.Swap(trader, big.NewInt(10), wethAddr, big.NewInt(-1))
	require.ErrorIs(t, err, amm.ErrInvalidSwapInput)
	_, err = f.pool.Swap(common.Address{}, big.NewInt(10), wethAddr, nil)
	require.ErrorIs(t, err, amm.ErrInvalidSwapInput)

	// trader never approved the pool
	_, err = f.pool.Swap(trader, big.NewInt(10), wethAddr, nil)
	require.ErrorIs(t, err, amm.ErrLedgerTransferFailed)
	requireReserves(t, f.pool, "100", "200")
}

func TestSwapExactOut(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	f.fund(t, owner, big.NewInt(1_000_000))
	f.fund(t, trader, big.NewInt(1_000_000))
	_, err := f.pool.AddLiquidity(owner, big.NewInt(100_000), big.NewInt(200_000))
	require.NoError(t, err)

	want, err := amm.GetAmountIn(big.NewInt(1000), big.NewInt(100_000), big.NewInt(200_000), amm.DefaultFeeBps)
	require.NoError(t, err)

	_, err = f.pool.SwapExactOut(trader, big.NewInt(1000), tokenAddr, new(big.Int).Sub(want, big.NewInt(1)))
	require.ErrorIs(t, err, amm.ErrSlippageExceeded)

	res, err := f.pool.SwapExactOut(trader, big.NewInt(1000), tokenAddr, want)
	require.NoError(t, err)
	require.Zero(t, res.AmountIn.Cmp(want))
	require.Equal(t, "1000", res.AmountOut.String())
	require.Equal(t, wethAddr, res.Event.TokenIn)
	requireReserves(t, f.pool, new(big.Int).Add(big.NewInt(100_000), want).String(), "199000")
	requireCustody(t, f)
}

func TestSwapNeverShrinksProduct(t *testing.T) {
	for _, fee := range []uint32{0, amm.DefaultFeeBps, 100} {
		f := defaultFixture(t, fee)
		f.fund(t, owner, ether(1_000_000))
		f.fund(t, trader, ether(1_000_000))
		_, err := f.pool.AddLiquidity(owner, ether(1000), ether(3000))
		require.NoError(t, err)

		rng := rand.New(rand.NewSource(int64(fee) + 7))
		for i := 0; i < 300; i++ {
			r0, r1 := f.pool.Reserves()
			before := new(big.Int).Mul(r0, r1)

			amountIn := new(big.Int).Rand(rng, ether(50))
			amountIn.Add(amountIn, big.NewInt(1))
			tokenIn := wethAddr
			if rng.Intn(2) == 1 {
				tokenIn = tokenAddr
			}
			_, err := f.pool.Swap(trader, amountIn, tokenIn, nil)
			require.NoError(t, err)

			r0, r1 = f.pool.Reserves()
			after := new(big.Int).Mul(r0, r1)
			require.GreaterOrEqual(t, after.Cmp(before), 0, "fee %d step %d", fee, i)
		}
		requireCustody(t, f)
		require.NoError(t, f.pool.Halted())
	}
}

func TestConcurrentOperationsStayConsistent(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	f.fund(t, owner, ether(10_000))
	_, err := f.pool.AddLiquidity(owner, ether(1000), ether(1000))
	require.NoError(t, err)

	traders := make([]common.Address, 8)
	for i := range traders {
		traders[i] = common.BigToAddress(big.NewInt(int64(0x1000 + i)))
		f.fund(t, traders[i], ether(100))
	}

	var wg sync.WaitGroup
	for i, account := range traders {
		wg.Add(1)
		go func(i int, account common.Address) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				tokenIn := wethAddr
				if (i+j)%2 == 1 {
					tokenIn = tokenAddr
				}
				_, _ = f.pool.Swap(account, ether(1), tokenIn, nil)
				if j%5 == 0 {
					_, _ = f.pool.AddLiquidity(account, ether(1), ether(1))
				}
			}
		}(i, account)
	}
	wg.Wait()

	require.NoError(t, f.pool.Halted())
	requireCustody(t, f)

	state := f.pool.State()
	sum := new(big.Int)
	for _, bal := range state.Shares {
		sum.Add(sum, bal)
	}
	require.Zero(t, sum.Cmp(state.TotalShares))

	events := f.pool.Events()
	for i, ev := range events {
		require.Equal(t, uint64(i+1), ev.Seq)
	}
}

func TestRestoreState(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	f.fund(t, owner, big.NewInt(10_000))
	f.fund(t, trader, big.NewInt(10_000))
	_, err := f.pool.AddLiquidity(owner, big.NewInt(1000), big.NewInt(4000))
	require.NoError(t, err)
	_, err = f.pool.Swap(trader, big.NewInt(100), wethAddr, nil)
	require.NoError(t, err)

	state := f.pool.State()

	restored, err := amm.NewPool(amm.DefaultConfig(poolAddr), f.token0, f.token1)
	require.NoError(t, err)
	require.NoError(t, restored.Restore(state))
	require.Equal(t, state.Reserve0.String(), restored.Reserve0().String())
	require.Equal(t, state.TotalShares.String(), restored.TotalShares().String())
	require.Equal(t, f.pool.SharesOf(owner).String(), restored.SharesOf(owner).String())
	require.Error(t, restored.Restore(state))

	res, err := restored.Swap(trader, big.NewInt(100), wethAddr, nil)
	require.NoError(t, err)
	require.Equal(t, state.LastSeq+1, res.Event.Seq)

	bad := f.pool.State()
	bad.TotalShares = new(big.Int).Add(bad.TotalShares, big.NewInt(1))
	fresh, err := amm.NewPool(amm.DefaultConfig(poolAddr), f.token0, f.token1)
	require.NoError(t, err)
	require.ErrorIs(t, fresh.Restore(bad), amm.ErrInvariantViolation)

	bad = f.pool.State()
	bad.Reserve1 = new(big.Int).Add(bad.Reserve1, big.NewInt(1))
	require.ErrorIs(t, fresh.Restore(bad), amm.ErrInvariantViolation)
}

func TestSkimPaysOutDonations(t *testing.T) {
	f := defaultFixture(t, amm.DefaultFeeBps)
	f.fund(t, owner, big.NewInt(1000))
	f.fund(t, trader, big.NewInt(1000))

	_, err := f.pool.AddLiquidity(owner, big.NewInt(100), big.NewInt(200))
	require.NoError(t, err)

	amount0, amount1, err := f.pool.Skim(trader)
	require.NoError(t, err)
	require.Zero(t, amount0.Sign())
	require.Zero(t, amount1.Sign())

	require.NoError(t, f.token1.Transfer(trader, poolAddr, big.NewInt(7)))
	require.Equal(t, "207", f.token1.BalanceOf(poolAddr).String())
	requireReserves(t, f.pool, "100", "200")

	amount0, amount1, err = f.pool.Skim(owner)
	require.NoError(t, err)
	require.Zero(t, amount0.Sign())
	require.Equal(t, "7", amount1.String())
	require.Equal(t, "807", f.token1.BalanceOf(owner).String())
	require.Equal(t, "200", f.token1.BalanceOf(poolAddr).String())
	requireReserves(t, f.pool, "100", "200")
	require.Len(t, f.pool.Events(), 1)

	_, _, err = f.pool.Skim(poolAddr)
	require.ErrorIs(t, err, amm.ErrInvalidSwapInput)
}
