package dex

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"swapV2/internal/model"
)

type reserveDelta struct {
	d0, d1 *big.Int
}

// swapDelta orients a swap's amounts against the pool's assets.
func swapDelta(meta model.PoolMeta, swap model.SwapEventData) (reserveDelta, error) {
	in, ok := new(big.Int).SetString(swap.AmountIn, 10)
	if !ok {
		return reserveDelta{}, fmt.Errorf("invalid amount in: %s", swap.AmountIn)
	}
	out, ok := new(big.Int).SetString(swap.AmountOut, 10)
	if !ok {
		return reserveDelta{}, fmt.Errorf("invalid amount out: %s", swap.AmountOut)
	}
	switch {
	case strings.EqualFold(swap.TokenIn, meta.Token0) && strings.EqualFold(swap.TokenOut, meta.Token1):
		return reserveDelta{d0: in, d1: out.Neg(out)}, nil
	case strings.EqualFold(swap.TokenIn, meta.Token1) && strings.EqualFold(swap.TokenOut, meta.Token0):
		return reserveDelta{d0: out.Neg(out), d1: in}, nil
	default:
		return reserveDelta{}, fmt.Errorf("swap %s -> %s does not match pool assets %s/%s", swap.TokenIn, swap.TokenOut, meta.Token0, meta.Token1)
	}
}

// ReserveTracker rebuilds pool reserves by replaying events in order.
type ReserveTracker struct {
	mu    sync.Mutex
	pools map[common.Address][2]*big.Int
}

func NewReserveTracker() *ReserveTracker {
	return &ReserveTracker{pools: make(map[common.Address][2]*big.Int)}
}

// Seed sets the reserves of pool before the first replayed event.
func (t *ReserveTracker) Seed(pool common.Address, reserve0, reserve1 *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pools[pool] = [2]*big.Int{new(big.Int).Set(reserve0), new(big.Int).Set(reserve1)}
}

// Reserves returns the tracked reserves of pool.
func (t *ReserveTracker) Reserves(pool common.Address) (*big.Int, *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.pools[pool]
	if !ok {
		return new(big.Int), new(big.Int)
	}
	return new(big.Int).Set(r[0]), new(big.Int).Set(r[1])
}

// Apply adds the deltas to pool and returns the new reserves. A delta that
// would drive a reserve negative means events are missing or out of order.
func (t *ReserveTracker) Apply(pool common.Address, d0, d1 *big.Int) (*big.Int, *big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.pools[pool]
	if !ok {
		cur = [2]*big.Int{new(big.Int), new(big.Int)}
	}
	r0 := new(big.Int).Add(cur[0], d0)
	r1 := new(big.Int).Add(cur[1], d1)
	if r0.Sign() < 0 || r1.Sign() < 0 {
		return nil, nil, fmt.Errorf("replay of pool %s drives reserves to (%s, %s)", pool.Hex(), r0, r1)
	}
	t.pools[pool] = [2]*big.Int{r0, r1}
	return new(big.Int).Set(r0), new(big.Int).Set(r1), nil
}
