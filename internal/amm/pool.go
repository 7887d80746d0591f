package amm

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Status is the macro-state of a pool.
type Status string

const (
	StatusEmpty  Status = "empty"
	StatusActive Status = "active"
)

// Pool is a two-asset constant-product pool. All operations are serialized
// by one lock and applied atomically; a failed operation leaves no trace in
// the pool or the ledgers.
//
// Every committed operation keeps each reserve at or below the pool's ledger
// balance of that asset. Tokens sent to the pool outside AddLiquidity and
// Swap are not counted as reserves; Skim pays them out and brings the two
// back to equality.
type Pool struct {
	mu sync.Mutex

	cfg    Config
	token0 Ledger
	token1 Ledger
	logger *zap.Logger

	reserves reserves
	shares   *shareLedger
	events   []Event
	seq      uint64
	halted   error
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the pool logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPool builds an empty pool trading token0 against token1.
func NewPool(cfg Config, token0, token1 Ledger, opts ...Option) (*Pool, error) {
	if token0 == nil || token1 == nil {
		return nil, fmt.Errorf("both ledgers are required")
	}
	if err := cfg.Validate(token0.Address(), token1.Address()); err != nil {
		return nil, err
	}
	cfg.MinimumLiquidity = cfg.minimumLiquidity()

	p := &Pool{
		cfg:      cfg,
		token0:   token0,
		token1:   token1,
		logger:   zap.NewNop(),
		reserves: newReserves(),
		shares:   newShareLedger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// AddLiquidity deposits both assets from caller and mints shares. On an
// active pool only the price-consistent part of the deposit is pulled; the
// caller keeps the excess of the larger side.
func (p *Pool) AddLiquidity(caller common.Address, amount0, amount1 *big.Int) (MintResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.precheck(caller); err != nil {
		return MintResult{}, p.reject("add liquidity", caller, err)
	}
	if !isPositive(amount0) || !isPositive(amount1) {
		return MintResult{}, p.reject("add liquidity", caller, fmt.Errorf("%w: deposit amounts must be positive", ErrInvalidSwapInput))
	}

	var res MintResult
	err := p.run(func(tx *txn) error {
		used0, used1 := new(big.Int).Set(amount0), new(big.Int).Set(amount1)
		locked := new(big.Int)
		var shares *big.Int

		total := tx.shares.totalShares()
		if total.Sign() == 0 {
			shares = initialShares(used0, used1)
			locked.Set(p.cfg.MinimumLiquidity)
			if shares.Cmp(locked) <= 0 {
				return fmt.Errorf("%w: initial shares %s do not exceed locked minimum %s", ErrInsufficientLiquidityMinted, shares, locked)
			}
			shares.Sub(shares, locked)
		} else {
			r0, r1 := tx.reserves.current()
			used0, used1 = optimalAmounts(amount0, amount1, r0, r1)
			shares = proportionalShares(used0, used1, r0, r1, total)
			if shares.Sign() == 0 {
				return fmt.Errorf("%w: deposit (%s, %s) is worth zero shares", ErrInsufficientLiquidityMinted, amount0, amount1)
			}
		}

		if err := tx.pull(p.token0, caller, used0); err != nil {
			return err
		}
		if err := tx.pull(p.token1, caller, used1); err != nil {
			return err
		}
		if err := tx.reserves.applyDelta(used0, used1); err != nil {
			return err
		}
		if locked.Sign() > 0 {
			if err := tx.shares.mint(p.cfg.LockAddress, locked); err != nil {
				return err
			}
		}
		if err := tx.shares.mint(caller, shares); err != nil {
			return err
		}

		res = MintResult{Shares: shares, Amount0: used0, Amount1: used1}
		return nil
	})
	if err != nil {
		return MintResult{}, p.reject("add liquidity", caller, err)
	}

	res.Event = p.emit(Event{
		Kind:    EventMint,
		Caller:  caller,
		Amount0: res.Amount0,
		Amount1: res.Amount1,
	})
	return res, nil
}

// RemoveLiquidity burns shares of caller and pays out the proportional part
// of both reserves.
func (p *Pool) RemoveLiquidity(caller common.Address, shares *big.Int) (BurnResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.precheck(caller); err != nil {
		return BurnResult{}, p.reject("remove liquidity", caller, err)
	}
	if !isPositive(shares) {
		return BurnResult{}, p.reject("remove liquidity", caller, fmt.Errorf("%w: shares must be positive", ErrInvalidSwapInput))
	}

	var res BurnResult
	err := p.run(func(tx *txn) error {
		held := tx.shares.balanceOf(caller)
		if held.Cmp(shares) < 0 {
			return fmt.Errorf("%w: burn %s exceeds balance %s", ErrInsufficientShares, shares, held)
		}

		total := tx.shares.totalShares()
		r0, r1 := tx.reserves.current()
		amount0 := new(big.Int).Mul(shares, r0)
		amount0.Quo(amount0, total)
		amount1 := new(big.Int).Mul(shares, r1)
		amount1.Quo(amount1, total)
		if amount0.Sign() == 0 || amount1.Sign() == 0 {
			return fmt.Errorf("%w: burning %s of %s shares pays (%s, %s)", ErrInsufficientLiquidityBurned, shares, total, amount0, amount1)
		}

		if err := tx.shares.burn(caller, shares); err != nil {
			return err
		}
		if err := tx.reserves.applyDelta(new(big.Int).Neg(amount0), new(big.Int).Neg(amount1)); err != nil {
			return err
		}
		if err := tx.push(p.token0, caller, amount0); err != nil {
			return err
		}
		if err := tx.push(p.token1, caller, amount1); err != nil {
			return err
		}

		res = BurnResult{Amount0: amount0, Amount1: amount1}
		return nil
	})
	if err != nil {
		return BurnResult{}, p.reject("remove liquidity", caller, err)
	}

	res.Event = p.emit(Event{
		Kind:    EventBurn,
		Caller:  caller,
		Amount0: res.Amount0,
		Amount1: res.Amount1,
	})
	return res, nil
}

// Swap sells exactly amountIn of tokenIn for the other asset. The output is
// priced on the reserves as they stand before the swap and must reach
// minAmountOut. A nil minAmountOut means zero.
func (p *Pool) Swap(caller common.Address, amountIn *big.Int, tokenIn common.Address, minAmountOut *big.Int) (SwapResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.precheck(caller); err != nil {
		return SwapResult{}, p.reject("swap", caller, err)
	}
	if !isPositive(amountIn) {
		return SwapResult{}, p.reject("swap", caller, fmt.Errorf("%w: amount in must be positive", ErrInvalidSwapInput))
	}
	if minAmountOut == nil {
		minAmountOut = new(big.Int)
	}
	if minAmountOut.Sign() < 0 {
		return SwapResult{}, p.reject("swap", caller, fmt.Errorf("%w: min amount out must not be negative", ErrInvalidSwapInput))
	}
	route, err := p.routeIn(tokenIn)
	if err != nil {
		return SwapResult{}, p.reject("swap", caller, err)
	}

	var res SwapResult
	err = p.run(func(tx *txn) error {
		reserveIn, reserveOut, err := p.activeReserves(tx, route)
		if err != nil {
			return err
		}

		amountOut, err := GetAmountOut(amountIn, reserveIn, reserveOut, p.cfg.FeeBps)
		if err != nil {
			return err
		}
		if minAmountOut.Cmp(reserveOut) >= 0 {
			return fmt.Errorf("%w: requested %s of %s reserve (%w)", ErrInsufficientLiquidity, minAmountOut, reserveOut, ErrSlippageExceeded)
		}
		if amountOut.Cmp(reserveOut) >= 0 {
			return fmt.Errorf("%w: output %s drains reserve %s", ErrInsufficientLiquidity, amountOut, reserveOut)
		}
		if amountOut.Cmp(minAmountOut) < 0 {
			return fmt.Errorf("%w: output %s below minimum %s", ErrSlippageExceeded, amountOut, minAmountOut)
		}

		if err := p.settleSwap(tx, route, caller, amountIn, amountOut); err != nil {
			return err
		}
		res = SwapResult{AmountIn: new(big.Int).Set(amountIn), AmountOut: amountOut, TokenOut: route.out.Address()}
		return nil
	})
	if err != nil {
		return SwapResult{}, p.reject("swap", caller, err)
	}

	res.Event = p.emitSwap(caller, route, res)
	return res, nil
}

// SwapExactOut buys exactly amountOut of tokenOut for the smallest input
// that prices to it. A nil maxAmountIn means no bound.
func (p *Pool) SwapExactOut(caller common.Address, amountOut *big.Int, tokenOut common.Address, maxAmountIn *big.Int) (SwapResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.precheck(caller); err != nil {
		return SwapResult{}, p.reject("swap exact out", caller, err)
	}
	if !isPositive(amountOut) {
		return SwapResult{}, p.reject("swap exact out", caller, fmt.Errorf("%w: amount out must be positive", ErrInvalidSwapInput))
	}
	if maxAmountIn != nil && maxAmountIn.Sign() < 0 {
		return SwapResult{}, p.reject("swap exact out", caller, fmt.Errorf("%w: max amount in must not be negative", ErrInvalidSwapInput))
	}
	route, err := p.routeOut(tokenOut)
	if err != nil {
		return SwapResult{}, p.reject("swap exact out", caller, err)
	}

	var res SwapResult
	err = p.run(func(tx *txn) error {
		reserveIn, reserveOut, err := p.activeReserves(tx, route)
		if err != nil {
			return err
		}

		amountIn, err := GetAmountIn(amountOut, reserveIn, reserveOut, p.cfg.FeeBps)
		if err != nil {
			return err
		}
		if maxAmountIn != nil && amountIn.Cmp(maxAmountIn) > 0 {
			return fmt.Errorf("%w: input %s above maximum %s", ErrSlippageExceeded, amountIn, maxAmountIn)
		}

		if err := p.settleSwap(tx, route, caller, amountIn, amountOut); err != nil {
			return err
		}
		res = SwapResult{AmountIn: amountIn, AmountOut: new(big.Int).Set(amountOut), TokenOut: route.out.Address()}
		return nil
	})
	if err != nil {
		return SwapResult{}, p.reject("swap exact out", caller, err)
	}

	res.Event = p.emitSwap(caller, route, res)
	return res, nil
}

// Skim sends the pool's ledger balances above its reserves to to and
// returns the amounts paid.
func (p *Pool) Skim(to common.Address) (*big.Int, *big.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.precheck(to); err != nil {
		return nil, nil, p.reject("skim", to, err)
	}

	excess0, excess1 := new(big.Int), new(big.Int)
	err := p.run(func(tx *txn) error {
		r0, r1 := tx.reserves.current()
		excess0.Sub(p.token0.BalanceOf(p.cfg.Address), r0)
		excess1.Sub(p.token1.BalanceOf(p.cfg.Address), r1)
		if excess0.Sign() < 0 || excess1.Sign() < 0 {
			return fatal("reserves (%s, %s) exceed custody", r0, r1)
		}
		if excess0.Sign() > 0 {
			if err := tx.push(p.token0, to, excess0); err != nil {
				return err
			}
		}
		if excess1.Sign() > 0 {
			if err := tx.push(p.token1, to, excess1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, p.reject("skim", to, err)
	}

	p.logger.Debug("pool skimmed",
		zap.String("to", to.Hex()),
		zap.Stringer("amount0", excess0),
		zap.Stringer("amount1", excess1),
	)
	return excess0, excess1, nil
}

type swapRoute struct {
	in        Ledger
	out       Ledger
	zeroToOne bool
}

func (p *Pool) routeIn(tokenIn common.Address) (swapRoute, error) {
	switch tokenIn {
	case p.token0.Address():
		return swapRoute{in: p.token0, out: p.token1, zeroToOne: true}, nil
	case p.token1.Address():
		return swapRoute{in: p.token1, out: p.token0}, nil
	default:
		return swapRoute{}, fmt.Errorf("%w: token %s is not traded by this pool", ErrInvalidSwapInput, tokenIn.Hex())
	}
}

func (p *Pool) routeOut(tokenOut common.Address) (swapRoute, error) {
	switch tokenOut {
	case p.token1.Address():
		return swapRoute{in: p.token0, out: p.token1, zeroToOne: true}, nil
	case p.token0.Address():
		return swapRoute{in: p.token1, out: p.token0}, nil
	default:
		return swapRoute{}, fmt.Errorf("%w: token %s is not traded by this pool", ErrInvalidSwapInput, tokenOut.Hex())
	}
}

func (p *Pool) activeReserves(tx *txn, route swapRoute) (*big.Int, *big.Int, error) {
	if tx.shares.total.Sign() == 0 {
		return nil, nil, fmt.Errorf("%w: pool is empty", ErrInsufficientLiquidity)
	}
	r0, r1 := tx.reserves.current()
	if r0.Sign() == 0 || r1.Sign() == 0 {
		return nil, nil, fmt.Errorf("%w: reserves (%s, %s)", ErrInsufficientLiquidity, r0, r1)
	}
	if route.zeroToOne {
		return r0, r1, nil
	}
	return r1, r0, nil
}

// settleSwap moves the assets and updates the reserves. The product of the
// reserves must not shrink.
func (p *Pool) settleSwap(tx *txn, route swapRoute, caller common.Address, amountIn, amountOut *big.Int) error {
	before := new(big.Int).Mul(tx.reserves.r0, tx.reserves.r1)

	if err := tx.pull(route.in, caller, amountIn); err != nil {
		return err
	}
	if amountOut.Sign() > 0 {
		if err := tx.push(route.out, caller, amountOut); err != nil {
			return err
		}
	}

	d0, d1 := new(big.Int).Set(amountIn), new(big.Int).Neg(amountOut)
	if !route.zeroToOne {
		d0, d1 = d1, d0
	}
	if err := tx.reserves.applyDelta(d0, d1); err != nil {
		return fatal("swap reserves: %v", err)
	}

	after := new(big.Int).Mul(tx.reserves.r0, tx.reserves.r1)
	if after.Cmp(before) < 0 {
		return fatal("reserve product fell from %s to %s", before, after)
	}
	return nil
}

func (p *Pool) emitSwap(caller common.Address, route swapRoute, res SwapResult) Event {
	return p.emit(Event{
		Kind:      EventSwap,
		Caller:    caller,
		AmountIn:  res.AmountIn,
		TokenIn:   route.in.Address(),
		AmountOut: res.AmountOut,
		TokenOut:  route.out.Address(),
	})
}

func (p *Pool) precheck(caller common.Address) error {
	if p.halted != nil {
		return p.halted
	}
	switch caller {
	case common.Address{}, p.cfg.Address, p.cfg.LockAddress:
		return fmt.Errorf("%w: caller %s may not trade", ErrInvalidSwapInput, caller.Hex())
	}
	return nil
}

func (p *Pool) emit(ev Event) Event {
	p.seq++
	ev.Seq = p.seq
	ev.Reserve0, ev.Reserve1 = p.reserves.current()
	p.events = append(p.events, ev.clone())

	p.logger.Debug("pool event",
		zap.Uint64("seq", ev.Seq),
		zap.String("kind", string(ev.Kind)),
		zap.String("caller", ev.Caller.Hex()),
		zap.Stringer("reserve0", ev.Reserve0),
		zap.Stringer("reserve1", ev.Reserve1),
	)
	return ev
}

func (p *Pool) reject(op string, caller common.Address, err error) error {
	p.logger.Warn("pool operation rejected",
		zap.String("op", op),
		zap.String("caller", caller.Hex()),
		zap.Error(err),
	)
	return err
}

func (p *Pool) halt(cause error) {
	if p.halted != nil {
		return
	}
	p.halted = fmt.Errorf("%w: pool halted: %v", ErrInvariantViolation, cause)
	p.logger.Error("pool halted", zap.Error(cause))
}
