package amm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// State is a deep copy of everything the pool owns.
type State struct {
	Reserve0    *big.Int
	Reserve1    *big.Int
	TotalShares *big.Int
	Shares      map[common.Address]*big.Int
	LastSeq     uint64
}

func (p *Pool) Token0() common.Address { return p.token0.Address() }
func (p *Pool) Token1() common.Address { return p.token1.Address() }
func (p *Pool) Address() common.Address { return p.cfg.Address }
func (p *Pool) FeeBps() uint32          { return p.cfg.FeeBps }

// Reserves returns both reserves.
func (p *Pool) Reserves() (*big.Int, *big.Int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reserves.current()
}

func (p *Pool) Reserve0() *big.Int {
	r0, _ := p.Reserves()
	return r0
}

func (p *Pool) Reserve1() *big.Int {
	_, r1 := p.Reserves()
	return r1
}

// TotalShares returns the number of outstanding shares, locked ones included.
func (p *Pool) TotalShares() *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shares.totalShares()
}

// SharesOf returns the share balance of account.
func (p *Pool) SharesOf(account common.Address) *big.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shares.balanceOf(account)
}

// Status reports whether the pool holds any shares.
func (p *Pool) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.shares.total.Sign() == 0 {
		return StatusEmpty
	}
	return StatusActive
}

// Halted returns the error that halted the pool, if any.
func (p *Pool) Halted() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.halted
}

// GetAmountOut prices amountIn against arbitrary reserves with the pool fee.
func (p *Pool) GetAmountOut(amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	return GetAmountOut(amountIn, reserveIn, reserveOut, p.cfg.FeeBps)
}

// Quote prices a swap of amountIn of tokenIn against the current reserves
// without executing it.
func (p *Pool) Quote(amountIn *big.Int, tokenIn common.Address) (*big.Int, error) {
	route, err := p.routeIn(tokenIn)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	r0, r1 := p.reserves.current()
	if p.shares.total.Sign() == 0 || r0.Sign() == 0 || r1.Sign() == 0 {
		return nil, fmt.Errorf("%w: pool is empty", ErrInsufficientLiquidity)
	}
	if route.zeroToOne {
		return GetAmountOut(amountIn, r0, r1, p.cfg.FeeBps)
	}
	return GetAmountOut(amountIn, r1, r0, p.cfg.FeeBps)
}

// Events returns a copy of the event log.
func (p *Pool) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.clone())
	}
	return out
}

// State returns a deep copy of the pool state.
func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	r0, r1 := p.reserves.current()
	shares := make(map[common.Address]*big.Int, len(p.shares.balances))
	for account, bal := range p.shares.balances {
		shares[account] = new(big.Int).Set(bal)
	}
	return State{
		Reserve0:    r0,
		Reserve1:    r1,
		TotalShares: p.shares.totalShares(),
		Shares:      shares,
		LastSeq:     p.seq,
	}
}

// Restore loads a persisted state into a pool that has not run any
// operation yet. The state must satisfy every pool invariant against the
// current ledger balances.
func (p *Pool) Restore(state State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.seq != 0 || p.shares.total.Sign() != 0 || !p.reserves.empty() {
		return fmt.Errorf("restore into a used pool")
	}
	if state.Reserve0 == nil || state.Reserve1 == nil || state.TotalShares == nil {
		return fmt.Errorf("%w: incomplete state", ErrInvariantViolation)
	}

	shares := newShareLedger()
	shares.total = new(big.Int).Set(state.TotalShares)
	for account, bal := range state.Shares {
		if bal == nil {
			continue
		}
		shares.balances[account] = new(big.Int).Set(bal)
	}

	tx := &txn{
		pool:     p,
		reserves: reserves{r0: new(big.Int).Set(state.Reserve0), r1: new(big.Int).Set(state.Reserve1)},
		shares:   shares,
	}
	if tx.reserves.r0.Sign() < 0 || tx.reserves.r1.Sign() < 0 {
		return fmt.Errorf("%w: negative reserves", ErrInvariantViolation)
	}
	if err := tx.verify(); err != nil {
		return err
	}

	p.reserves = tx.reserves
	p.shares = tx.shares
	p.seq = state.LastSeq
	return nil
}
