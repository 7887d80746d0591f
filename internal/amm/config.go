package amm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// FeeDenominator is the basis-point scale of Config.FeeBps.
const FeeDenominator = 10_000

// DefaultFeeBps is the 0.3% swap fee.
const DefaultFeeBps = 30

// Config holds the immutable parameters of a pool.
type Config struct {
	// Address is the pool's own account on both asset ledgers.
	Address common.Address
	// FeeBps is deducted from every swap input before pricing.
	FeeBps uint32
	// MinimumLiquidity shares are locked forever on the first mint.
	MinimumLiquidity *big.Int
	// LockAddress holds the locked minimum shares. It can never burn.
	LockAddress common.Address
}

// DefaultConfig returns a config with the default fee and no locked shares.
func DefaultConfig(address common.Address) Config {
	return Config{
		Address:          address,
		FeeBps:           DefaultFeeBps,
		MinimumLiquidity: new(big.Int),
	}
}

// Validate checks the parameters against the two ledgers the pool trades.
func (c Config) Validate(token0, token1 common.Address) error {
	if c.Address == (common.Address{}) {
		return fmt.Errorf("pool address is required")
	}
	if token0 == token1 {
		return fmt.Errorf("token0 and token1 must differ: %s", token0.Hex())
	}
	if c.FeeBps >= FeeDenominator {
		return fmt.Errorf("fee bps %d must be below %d", c.FeeBps, FeeDenominator)
	}
	if c.MinimumLiquidity != nil && c.MinimumLiquidity.Sign() < 0 {
		return fmt.Errorf("minimum liquidity must not be negative")
	}
	if c.LockAddress == c.Address {
		return fmt.Errorf("lock address must differ from pool address")
	}
	return nil
}

func (c Config) minimumLiquidity() *big.Int {
	if c.MinimumLiquidity == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(c.MinimumLiquidity)
}
