package amm

import (
	"fmt"
	"math/big"
)

// reserves tracks the pool's custodied balance of each asset. Deltas are
// applied only after the matching ledger transfers have succeeded.
type reserves struct {
	r0 *big.Int
	r1 *big.Int
}

func newReserves() reserves {
	return reserves{r0: new(big.Int), r1: new(big.Int)}
}

func (r reserves) current() (*big.Int, *big.Int) {
	return new(big.Int).Set(r.r0), new(big.Int).Set(r.r1)
}

func (r reserves) clone() reserves {
	r0, r1 := r.current()
	return reserves{r0: r0, r1: r1}
}

// applyDelta adjusts both reserves by signed deltas. A result below zero is
// a contract violation and leaves the reserves untouched.
func (r *reserves) applyDelta(d0, d1 *big.Int) error {
	next0 := new(big.Int).Add(r.r0, d0)
	next1 := new(big.Int).Add(r.r1, d1)
	if next0.Sign() < 0 || next1.Sign() < 0 {
		return fmt.Errorf("%w: reserve delta (%s, %s) on (%s, %s) goes negative", ErrInvariantViolation, d0, d1, r.r0, r.r1)
	}
	r.r0 = next0
	r.r1 = next1
	return nil
}

func (r reserves) empty() bool {
	return r.r0.Sign() == 0 && r.r1.Sign() == 0
}
