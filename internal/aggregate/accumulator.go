package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"swapV2/internal/amm"
	"swapV2/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	ChainID     uint64
	PoolAddress string
	PoolMeta    model.PoolMeta
	WindowStart uint64
	WindowEnd   uint64
	SwapCount   uint64
	MintCount   uint64
	BurnCount   uint64
	Volume0     *big.Int
	Volume1     *big.Int
	Fee0        *big.Int
	Fee1        *big.Int
	// Reserve0 and Reserve1 are the post-event reserves of the latest event
	// that carried them; nil when no event did.
	Reserve0   *big.Int
	Reserve1   *big.Int
	LastBlock  uint64
	LastLog    uint64
	LastTS     uint64
	FirstBlock uint64
}

func NewAccumulator(record model.TypedEventRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		ChainID:     record.ChainID,
		PoolAddress: record.Address,
		PoolMeta:    record.PoolMeta,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume0:     big.NewInt(0),
		Volume1:     big.NewInt(0),
		Fee0:        big.NewInt(0),
		Fee1:        big.NewInt(0),
		LastBlock:   record.BlockNumber,
		LastLog:     record.LogIndex,
		LastTS:      record.Timestamp,
		FirstBlock:  record.BlockNumber,
	}
}

func (a *Accumulator) AddEvent(record model.TypedEventRecord) error {
	if a.FirstBlock == 0 || record.BlockNumber < a.FirstBlock {
		a.FirstBlock = record.BlockNumber
	}

	switch strings.ToLower(record.EventName) {
	case "swap":
		var swap model.SwapEventData
		if err := json.Unmarshal(record.Decoded, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		if err := a.applySwap(swap); err != nil {
			return err
		}
	case "mint":
		a.MintCount++
	case "burn":
		a.BurnCount++
	default:
		return nil
	}

	if a.isLatest(record) {
		a.LastTS = record.Timestamp
		a.LastBlock = record.BlockNumber
		a.LastLog = record.LogIndex
		if record.PoolMeta.HasReserves() {
			r0, err0 := parseBigInt(record.PoolMeta.Reserve0)
			r1, err1 := parseBigInt(record.PoolMeta.Reserve1)
			if err0 == nil && err1 == nil {
				a.Reserve0, a.Reserve1 = r0, r1
			}
		}
	}
	return nil
}

func (a *Accumulator) isLatest(record model.TypedEventRecord) bool {
	if record.BlockNumber != a.LastBlock {
		return record.BlockNumber > a.LastBlock
	}
	return record.LogIndex >= a.LastLog
}

// applySwap adds both legs to the volumes and charges the fee on the input.
func (a *Accumulator) applySwap(swap model.SwapEventData) error {
	amountIn, err := parseBigInt(swap.AmountIn)
	if err != nil {
		return err
	}
	amountOut, err := parseBigInt(swap.AmountOut)
	if err != nil {
		return err
	}

	var volIn, volOut, feeTo *big.Int
	switch {
	case strings.EqualFold(swap.TokenIn, a.PoolMeta.Token0) && strings.EqualFold(swap.TokenOut, a.PoolMeta.Token1):
		volIn, volOut, feeTo = a.Volume0, a.Volume1, a.Fee0
	case strings.EqualFold(swap.TokenIn, a.PoolMeta.Token1) && strings.EqualFold(swap.TokenOut, a.PoolMeta.Token0):
		volIn, volOut, feeTo = a.Volume1, a.Volume0, a.Fee1
	default:
		return fmt.Errorf("swap %s -> %s does not match pool assets", swap.TokenIn, swap.TokenOut)
	}

	absAdd(volIn, amountIn)
	absAdd(volOut, amountOut)
	feeTo.Add(feeTo, feeFromAmount(amountIn, a.PoolMeta.FeeBps))
	a.SwapCount++
	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

func absAdd(target *big.Int, value *big.Int) {
	if value == nil || target == nil {
		return
	}
	abs := new(big.Int).Abs(value)
	target.Add(target, abs)
}

// feeFromAmount is the part of amountIn the pool keeps at feeBps: the input
// minus its floored after-fee amount, as priced by the pool.
func feeFromAmount(amountIn *big.Int, feeBps uint32) *big.Int {
	if amountIn == nil || feeBps == 0 {
		return big.NewInt(0)
	}
	in := new(big.Int).Abs(amountIn)
	kept := new(big.Int).Mul(in, big.NewInt(int64(amm.FeeDenominator-feeBps)))
	kept.Div(kept, big.NewInt(amm.FeeDenominator))
	return in.Sub(in, kept)
}
