package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapV2/internal/chain"
	"swapV2/internal/dex"
	"swapV2/internal/model"
	"swapV2/internal/storage"
)

const (
	feeMethodInput  = "fee_bps_on_input"
	tvlMethodEvent  = "reserves_post_event"
	tvlMethodBlock  = "balance_of_block"
	tvlMethodLatest = "balance_of_latest"
	tvlMethodNone   = "unavailable"
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	Progress      ProgressStore
}

// Aggregator aggregates typed events into pool window metrics.
type Aggregator struct {
	cfg          Config
	sink         MetricsSink
	chain        chain.Caller
	logger       *zap.Logger
	tokens       *dex.TokenMetaCache
	accumulators map[string]*Accumulator
	poolSeen     map[string]model.Pool
}

// NewAggregator builds an aggregator. caller may be nil; token decimals and
// balance based TVL are then unavailable and amounts stay in base units.
func NewAggregator(cfg Config, sink MetricsSink, caller chain.Caller, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		sink:         sink,
		chain:        caller,
		logger:       logger,
		tokens:       dex.NewTokenMetaCache(256),
		accumulators: make(map[string]*Accumulator),
		poolSeen:     make(map[string]model.Pool),
	}
}

// Run executes aggregation over a typed events JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.sink == nil {
		return fmt.Errorf("metrics sink is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	pools := make([]model.Pool, 0, 16)
	maxTs := startTs
	var total, aggregated, skipped, failed, windows int

	emit := func(acc *Accumulator) {
		metrics, pool := a.flushAccumulator(ctx, acc)
		if metrics != nil {
			batch = append(batch, *metrics)
			windows++
		}
		if pool != nil {
			pools = append(pools, *pool)
		}
	}

	err = storage.ScanJSONLFile(inputPath, func(_ int, line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode typed event", zap.Error(err))
			return nil
		}

		if record.Timestamp <= startTs {
			skipped++
			return nil
		}

		windowStart := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		windowEnd := windowStart + a.cfg.WindowSeconds

		accKey := poolKey(record.Address)
		acc := a.accumulators[accKey]
		if acc == nil {
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[accKey] = acc
		} else if acc.WindowStart != windowStart {
			if windowStart < acc.WindowStart {
				failed++
				a.logger.Warn("event before open window", zap.String("pool", record.Address), zap.Uint64("ts", record.Timestamp))
				return nil
			}
			emit(acc)
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[accKey] = acc
		}

		if err := acc.AddEvent(record); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", record.Address), zap.String("event", record.EventName))
			return nil
		}
		aggregated++

		if record.Timestamp > maxTs {
			maxTs = record.Timestamp
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.flushBatches(ctx, batch, pools); err != nil {
				return err
			}
			batch = batch[:0]
			pools = pools[:0]

			if err := a.saveProgress(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, acc := range a.accumulators {
		emit(acc)
	}
	a.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 || len(pools) > 0 {
		if err := a.flushBatches(ctx, batch, pools); err != nil {
			return err
		}
	}

	a.cfg.RecomputeFrom = maxTs
	if err := a.saveProgress(ctx); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("aggregated", aggregated),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Int("windows", windows),
	)

	return nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.Progress == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.Progress.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

// saveProgress records the newest timestamp that is safe to resume after:
// just before the oldest window still open.
func (a *Aggregator) saveProgress(ctx context.Context) error {
	if a.cfg.Progress == nil {
		return nil
	}

	if len(a.accumulators) == 0 {
		return a.cfg.Progress.Save(ctx, a.cfg.RecomputeFrom)
	}

	safeTs := minOpenWindowStart(a.accumulators)
	if safeTs > 0 {
		safeTs = safeTs - 1
	}
	if safeTs == 0 {
		safeTs = a.cfg.RecomputeFrom
	}
	return a.cfg.Progress.Save(ctx, safeTs)
}

func (a *Aggregator) flushBatches(ctx context.Context, batch []model.PoolWindowMetrics, pools []model.Pool) error {
	if len(pools) > 0 {
		if err := a.sink.UpsertPools(ctx, pools); err != nil {
			return fmt.Errorf("upsert pools: %w", err)
		}
	}
	if len(batch) > 0 {
		if err := a.sink.UpsertWindowMetrics(ctx, batch); err != nil {
			return fmt.Errorf("upsert metrics: %w", err)
		}
	}
	return nil
}

func (a *Aggregator) flushAccumulator(ctx context.Context, acc *Accumulator) (*model.PoolWindowMetrics, *model.Pool) {
	if acc == nil {
		return nil, nil
	}

	poolMeta := acc.PoolMeta
	if poolMeta.Token0 == "" || poolMeta.Token1 == "" {
		a.logger.Warn("missing pool meta", zap.String("pool", acc.PoolAddress))
		return nil, nil
	}

	poolRecord := a.registerPool(acc)

	decimals0 := a.tokenDecimals(ctx, poolMeta.Token0)
	decimals1 := a.tokenDecimals(ctx, poolMeta.Token1)

	tvl0, tvl1, tvlMethod := a.windowTVL(ctx, acc)
	var tvl0Str, tvl1Str *string
	if tvl0 != nil && tvl1 != nil {
		val0 := formatTokenAmount(tvl0, decimals0)
		val1 := formatTokenAmount(tvl1, decimals1)
		tvl0Str, tvl1Str = &val0, &val1
	}

	feeRate0, feeRate1 := computeFeeRates(acc.Fee0, acc.Fee1, tvl0, tvl1)
	apr := computeAPR(acc.Fee0, acc.Fee1, tvl0, tvl1, a.cfg.WindowSeconds)

	return &model.PoolWindowMetrics{
		ChainID:        acc.ChainID,
		PoolAddress:    acc.PoolAddress,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		MintCount:      acc.MintCount,
		BurnCount:      acc.BurnCount,
		Volume0:        formatTokenAmount(acc.Volume0, decimals0),
		Volume1:        formatTokenAmount(acc.Volume1, decimals1),
		Fee0:           formatTokenAmount(acc.Fee0, decimals0),
		Fee1:           formatTokenAmount(acc.Fee1, decimals1),
		FeeRate0:       feeRate0,
		FeeRate1:       feeRate1,
		TVL0:           tvl0Str,
		TVL1:           tvl1Str,
		APR:            apr,
		FeeMethod:      feeMethodInput,
		TVLMethod:      tvlMethod,
	}, poolRecord
}

// windowTVL prefers the reserves attached to the window's last event and
// falls back to the pool's token balances on chain.
func (a *Aggregator) windowTVL(ctx context.Context, acc *Accumulator) (*big.Int, *big.Int, string) {
	if acc.Reserve0 != nil && acc.Reserve1 != nil {
		return acc.Reserve0, acc.Reserve1, tvlMethodEvent
	}
	if a.chain == nil || acc.LastBlock == 0 {
		return nil, nil, tvlMethodNone
	}
	meta := acc.PoolMeta
	if !common.IsHexAddress(meta.Token0) || !common.IsHexAddress(meta.Token1) || !common.IsHexAddress(acc.PoolAddress) {
		return nil, nil, tvlMethodNone
	}
	token0 := common.HexToAddress(meta.Token0)
	token1 := common.HexToAddress(meta.Token1)
	pool := common.HexToAddress(acc.PoolAddress)

	block := new(big.Int).SetUint64(acc.LastBlock)
	bal0, err0 := dex.FetchBalanceOf(ctx, a.chain, token0, pool, block)
	bal1, err1 := dex.FetchBalanceOf(ctx, a.chain, token1, pool, block)
	if err0 == nil && err1 == nil {
		return bal0, bal1, tvlMethodBlock
	}

	bal0, err0 = dex.FetchBalanceOf(ctx, a.chain, token0, pool, nil)
	bal1, err1 = dex.FetchBalanceOf(ctx, a.chain, token1, pool, nil)
	if err0 == nil && err1 == nil {
		return bal0, bal1, tvlMethodLatest
	}

	a.logger.Warn("tvl fetch failed", zap.String("pool", acc.PoolAddress), zap.NamedError("token0", err0), zap.NamedError("token1", err1))
	return nil, nil, tvlMethodNone
}

func (a *Aggregator) registerPool(acc *Accumulator) *model.Pool {
	key := poolKey(acc.PoolAddress)
	pool := model.Pool{
		ChainID:        acc.ChainID,
		Address:        acc.PoolAddress,
		Token0:         acc.PoolMeta.Token0,
		Token1:         acc.PoolMeta.Token1,
		FeeBps:         acc.PoolMeta.FeeBps,
		FirstSeenBlock: acc.FirstBlock,
	}

	existing, ok := a.poolSeen[key]
	if ok {
		if existing.FirstSeenBlock <= pool.FirstSeenBlock {
			return nil
		}
	}

	a.poolSeen[key] = pool
	return &pool
}

// tokenDecimals returns 0, meaning raw base units, without a chain.
func (a *Aggregator) tokenDecimals(ctx context.Context, token string) uint8 {
	if a.chain == nil || !common.IsHexAddress(token) {
		return 0
	}
	return a.tokens.Lookup(ctx, a.chain, common.HexToAddress(token), a.logger).Decimals
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func poolKey(address string) string {
	return strings.ToLower(address)
}

func minOpenWindowStart(acc map[string]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.WindowStart < min {
			min = entry.WindowStart
		}
	}
	return min
}
