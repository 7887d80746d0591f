package amm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// shareLedger records each provider's pool shares. Shares cannot be
// transferred; they change only through mint and burn.
type shareLedger struct {
	total    *big.Int
	balances map[common.Address]*big.Int
}

func newShareLedger() *shareLedger {
	return &shareLedger{
		total:    new(big.Int),
		balances: make(map[common.Address]*big.Int),
	}
}

func (s *shareLedger) balanceOf(account common.Address) *big.Int {
	if bal, ok := s.balances[account]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

func (s *shareLedger) totalShares() *big.Int {
	return new(big.Int).Set(s.total)
}

func (s *shareLedger) mint(account common.Address, amount *big.Int) error {
	if !isPositive(amount) {
		return fmt.Errorf("%w: mint amount %v", ErrInsufficientLiquidityMinted, amount)
	}
	bal := s.balanceOf(account)
	s.balances[account] = bal.Add(bal, amount)
	s.total = new(big.Int).Add(s.total, amount)
	return nil
}

func (s *shareLedger) burn(account common.Address, amount *big.Int) error {
	if !isPositive(amount) {
		return fmt.Errorf("%w: burn amount must be positive", ErrInvalidSwapInput)
	}
	bal := s.balanceOf(account)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: burn %s exceeds balance %s", ErrInsufficientShares, amount, bal)
	}
	bal.Sub(bal, amount)
	if bal.Sign() == 0 {
		delete(s.balances, account)
	} else {
		s.balances[account] = bal
	}
	s.total = new(big.Int).Sub(s.total, amount)
	return nil
}

func (s *shareLedger) clone() *shareLedger {
	out := &shareLedger{
		total:    new(big.Int).Set(s.total),
		balances: make(map[common.Address]*big.Int, len(s.balances)),
	}
	for account, bal := range s.balances {
		out.balances[account] = new(big.Int).Set(bal)
	}
	return out
}

// checkSum verifies that the balances add up to the total.
func (s *shareLedger) checkSum() error {
	sum := new(big.Int)
	for account, bal := range s.balances {
		if bal.Sign() <= 0 {
			return fmt.Errorf("%w: non-positive share balance for %s", ErrInvariantViolation, account.Hex())
		}
		sum.Add(sum, bal)
	}
	if sum.Cmp(s.total) != 0 {
		return fmt.Errorf("%w: share balances sum to %s, total is %s", ErrInvariantViolation, sum, s.total)
	}
	return nil
}

// initialShares is the first-mint rule: floor(sqrt(amount0*amount1)).
func initialShares(amount0, amount1 *big.Int) *big.Int {
	product := new(big.Int).Mul(amount0, amount1)
	return product.Sqrt(product)
}

// proportionalShares is the subsequent-mint rule:
// min(amount0*total/reserve0, amount1*total/reserve1).
func proportionalShares(amount0, amount1, reserve0, reserve1, total *big.Int) *big.Int {
	s0 := new(big.Int).Mul(amount0, total)
	s0.Quo(s0, reserve0)
	s1 := new(big.Int).Mul(amount1, total)
	s1.Quo(s1, reserve1)
	if s1.Cmp(s0) < 0 {
		return s1
	}
	return s0
}

// optimalAmounts returns the price-consistent part of a deposit against the
// current reserves. The caller keeps whatever is left of the larger side.
func optimalAmounts(amount0, amount1, reserve0, reserve1 *big.Int) (*big.Int, *big.Int) {
	optimal1 := new(big.Int).Mul(amount0, reserve1)
	optimal1.Quo(optimal1, reserve0)
	if optimal1.Cmp(amount1) <= 0 {
		return new(big.Int).Set(amount0), optimal1
	}
	optimal0 := new(big.Int).Mul(amount1, reserve0)
	optimal0.Quo(optimal0, reserve1)
	return optimal0, new(big.Int).Set(amount1)
}
