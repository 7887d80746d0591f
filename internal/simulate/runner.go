package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"swapV2/internal/amm"
	"swapV2/internal/dex"
	"swapV2/internal/ledger"
	"swapV2/internal/model"
	"swapV2/internal/storage"
)

var errBadRecord = errors.New("invalid record")

// Config holds the pool parameters and chain placement of a simulation.
type Config struct {
	ChainID          uint64
	Pool             common.Address
	Token0           common.Address
	Token1           common.Address
	Token1Name       string
	Token1Symbol     string
	FeeBps           uint32
	MinimumLiquidity *big.Int
	LockAddress      common.Address
	StartBlock       uint64
	StartTimestamp   uint64
	BlockTime        uint64
	// BatchSize is the number of script lines between flushes of logs and state.
	BatchSize int
}

// Mirror receives pool metadata, decoded events and snapshots.
type Mirror interface {
	UpsertPools(ctx context.Context, pools []model.Pool) error
	InsertEvents(ctx context.Context, events []model.TypedEvent) error
	SavePoolState(ctx context.Context, state model.PoolState) error
}

// RecordWriter writes one JSON record per call.
type RecordWriter interface {
	Write(value interface{}) error
}

// Stats counts the outcome of a run.
type Stats struct {
	Total   int
	Applied int
	Failed  int
	Events  int
}

// Runner replays an operation script against a pool.
type Runner struct {
	cfg    Config
	logger *zap.Logger
	store  storage.StateStore
	mirror Mirror

	weth  *ledger.WETH
	token *ledger.Token
	pool  *amm.Pool

	decoder   *dex.SwapV2Decoder
	decodeCtx dex.DecodeContext

	block     uint64
	timestamp uint64
	resumed   bool
}

// Option configures a Runner.
type Option func(*Runner)

func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithStateStore loads the pool from store when a snapshot exists and saves
// it back after every batch.
func WithStateStore(store storage.StateStore) Option {
	return func(r *Runner) { r.store = store }
}

// WithMirror copies pool metadata, decoded events and snapshots to mirror.
func WithMirror(mirror Mirror) Option {
	return func(r *Runner) { r.mirror = mirror }
}

// NewRunner builds the ledgers and the pool, resuming from the state store
// when it holds a snapshot of the same pool.
func NewRunner(ctx context.Context, cfg Config, opts ...Option) (*Runner, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.BlockTime == 0 {
		cfg.BlockTime = 12
	}
	if cfg.Token1Name == "" {
		cfg.Token1Name = "Token"
	}
	if cfg.Token1Symbol == "" {
		cfg.Token1Symbol = "TKN"
	}

	r := &Runner{
		cfg:       cfg,
		logger:    zap.NewNop(),
		weth:      ledger.NewWETH(cfg.Token0),
		token:     ledger.NewToken(cfg.Token1, cfg.Token1Name, cfg.Token1Symbol),
		block:     cfg.StartBlock,
		timestamp: cfg.StartTimestamp,
	}
	for _, opt := range opts {
		opt(r)
	}

	pool, err := amm.NewPool(r.poolConfig(), r.weth, r.token, amm.WithLogger(r.logger.Named("pool")))
	if err != nil {
		return nil, fmt.Errorf("build pool: %w", err)
	}
	r.pool = pool

	if r.store != nil {
		snap, ok, err := r.store.LoadPoolState(ctx, cfg.Pool.Hex())
		if err != nil {
			return nil, fmt.Errorf("load state: %w", err)
		}
		if ok {
			if err := r.resume(snap); err != nil {
				return nil, fmt.Errorf("resume %s: %w", cfg.Pool.Hex(), err)
			}
		}
	}

	decoder, err := dex.NewSwapV2Decoder(dex.DecoderConfig{})
	if err != nil {
		return nil, err
	}
	r.decoder = decoder
	metaCache := dex.NewPoolMetaCache(1)
	metaCache.Set(cfg.Pool, model.PoolMeta{
		Token0: cfg.Token0.Hex(),
		Token1: cfg.Token1.Hex(),
		FeeBps: cfg.FeeBps,
	})
	tracker := dex.NewReserveTracker()
	r0, r1 := r.pool.Reserves()
	tracker.Seed(cfg.Pool, r0, r1)
	r.decodeCtx = dex.DecodeContext{
		Context:       ctx,
		PoolMetaCache: metaCache,
		Reserves:      tracker,
		Logger:        r.logger,
		FeeBps:        cfg.FeeBps,
	}
	return r, nil
}

func (r *Runner) poolConfig() amm.Config {
	return amm.Config{
		Address:          r.cfg.Pool,
		FeeBps:           r.cfg.FeeBps,
		MinimumLiquidity: r.cfg.MinimumLiquidity,
		LockAddress:      r.cfg.LockAddress,
	}
}

func (r *Runner) resume(snap model.PoolState) error {
	if snap.FeeBps != r.cfg.FeeBps {
		return fmt.Errorf("stored fee %d bps, configured %d", snap.FeeBps, r.cfg.FeeBps)
	}
	if !strings.EqualFold(snap.Token0.Address, r.cfg.Token0.Hex()) || !strings.EqualFold(snap.Token1.Address, r.cfg.Token1.Hex()) {
		return fmt.Errorf("stored assets %s/%s do not match configured %s/%s",
			snap.Token0.Address, snap.Token1.Address, r.cfg.Token0.Hex(), r.cfg.Token1.Hex())
	}

	wethState, err := WETHStateOf(snap.Token0)
	if err != nil {
		return fmt.Errorf("token0: %w", err)
	}
	tokenState, err := TokenStateOf(snap.Token1)
	if err != nil {
		return fmt.Errorf("token1: %w", err)
	}
	poolState, err := PoolStateOf(snap)
	if err != nil {
		return err
	}

	r.weth.ImportWETH(wethState)
	r.token.Import(tokenState)
	if err := r.pool.Restore(poolState); err != nil {
		return err
	}
	if snap.LastBlock > r.block {
		r.block = snap.LastBlock
	}
	if snap.LastTimestamp > r.timestamp {
		r.timestamp = snap.LastTimestamp
	}
	r.resumed = true
	r.logger.Info("resume from snapshot",
		zap.String("pool", snap.Address),
		zap.Uint64("last_seq", snap.LastSeq),
		zap.Uint64("last_block", snap.LastBlock),
	)
	return nil
}

func (r *Runner) Pool() *amm.Pool      { return r.pool }
func (r *Runner) WETH() *ledger.WETH   { return r.weth }
func (r *Runner) Token() *ledger.Token { return r.token }
func (r *Runner) Resumed() bool        { return r.resumed }

// Snapshot returns the current pool and ledger state.
func (r *Runner) Snapshot() model.PoolState {
	snap := Snapshot(r.cfg.ChainID, r.poolConfig(), r.pool.State(), r.weth.ExportWETH(), r.token.Export())
	snap.LastBlock = r.block
	snap.LastTimestamp = r.timestamp
	return snap
}

// Run applies every line of script in order. Committed events are written to
// logs, rejected lines to errs. A line the pool rejects does not stop the
// run; a halted pool does, and its state is not saved.
func (r *Runner) Run(ctx context.Context, script io.Reader, logs storage.Storage, errs RecordWriter) (Stats, error) {
	var stats Stats
	if logs == nil {
		return stats, fmt.Errorf("log storage is nil")
	}

	if r.mirror != nil {
		pool := model.Pool{
			ChainID:        r.cfg.ChainID,
			Address:        r.cfg.Pool.Hex(),
			Token0:         r.cfg.Token0.Hex(),
			Token1:         r.cfg.Token1.Hex(),
			FeeBps:         r.cfg.FeeBps,
			FirstSeenBlock: r.cfg.StartBlock + 1,
		}
		if err := r.mirror.UpsertPools(ctx, []model.Pool{pool}); err != nil {
			return stats, fmt.Errorf("mirror pool: %w", err)
		}
	}

	r.logger.Info("simulate start",
		zap.String("pool", r.cfg.Pool.Hex()),
		zap.Uint32("fee_bps", r.cfg.FeeBps),
		zap.Bool("resumed", r.resumed),
		zap.Uint64("block", r.block),
	)

	var pending []model.LogRecord
	pendingLines := 0
	flush := func() error {
		if err := r.flush(ctx, logs, pending); err != nil {
			return err
		}
		pending = pending[:0]
		pendingLines = 0
		return nil
	}

	err := storage.ScanJSONL(script, func(lineNo int, line []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Total++

		var rec model.OpRecord
		var opErr error
		var ev *amm.Event
		if err := json.Unmarshal(line, &rec); err != nil {
			opErr = fmt.Errorf("%w: %v", errBadRecord, err)
		} else {
			r.advance(rec.Timestamp)
			ev, opErr = r.apply(rec)
		}

		if halted := r.pool.Halted(); halted != nil {
			return fmt.Errorf("line %d: pool halted: %w", lineNo, halted)
		}
		if opErr != nil {
			stats.Failed++
			r.logger.Debug("operation rejected", zap.Int("line", lineNo), zap.String("op", rec.Op), zap.Error(opErr))
			if errs != nil {
				if err := errs.Write(model.OpError{
					Line:    lineNo,
					Op:      rec.Op,
					Account: rec.Account,
					Kind:    ErrorKind(opErr),
					Error:   opErr.Error(),
				}); err != nil {
					return fmt.Errorf("write error record: %w", err)
				}
			}
		} else {
			stats.Applied++
		}

		if ev != nil {
			record, err := dex.EncodeEvent(r.cfg.ChainID, r.cfg.Pool, dex.LogPosition{
				BlockNumber: r.block,
				Timestamp:   r.timestamp,
			}, *ev)
			if err != nil {
				return fmt.Errorf("line %d: encode %s: %w", lineNo, ev.Kind, err)
			}
			pending = append(pending, record)
			stats.Events++
		}

		pendingLines++
		if pendingLines >= r.cfg.BatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return stats, err
	}
	if err := flush(); err != nil {
		return stats, err
	}

	r0, r1 := r.pool.Reserves()
	r.logger.Info("simulate complete",
		zap.Int("total", stats.Total),
		zap.Int("applied", stats.Applied),
		zap.Int("failed", stats.Failed),
		zap.Int("events", stats.Events),
		zap.String("reserve0", r0.String()),
		zap.String("reserve1", r1.String()),
		zap.String("total_shares", r.pool.TotalShares().String()),
	)
	return stats, nil
}

// advance opens the block the next line executes in.
func (r *Runner) advance(ts uint64) {
	r.block++
	if ts > r.timestamp {
		r.timestamp = ts
		return
	}
	r.timestamp += r.cfg.BlockTime
}

func (r *Runner) flush(ctx context.Context, logs storage.Storage, records []model.LogRecord) error {
	if err := logs.PutLogBatch(records); err != nil {
		return fmt.Errorf("store logs: %w", err)
	}

	snap := r.Snapshot()
	if r.mirror != nil {
		events := make([]model.TypedEvent, 0, len(records))
		for _, record := range records {
			ev, err := r.decoder.Decode(record, r.decodeCtx)
			if err != nil {
				return fmt.Errorf("decode block %d: %w", record.BlockNumber, err)
			}
			events = append(events, *ev)
		}
		if err := r.mirror.InsertEvents(ctx, events); err != nil {
			return fmt.Errorf("mirror events: %w", err)
		}
		if err := r.mirror.SavePoolState(ctx, snap); err != nil {
			return fmt.Errorf("mirror state: %w", err)
		}
	}
	if r.store != nil {
		if err := r.store.SavePoolState(ctx, snap); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	return nil
}

// apply executes one operation. Only pool operations return an event.
func (r *Runner) apply(rec model.OpRecord) (*amm.Event, error) {
	if !common.IsHexAddress(rec.Account) {
		return nil, fmt.Errorf("%w: invalid account %q", errBadRecord, rec.Account)
	}
	account := common.HexToAddress(rec.Account)

	switch rec.Op {
	case model.OpFund:
		token, err := r.resolveToken(rec.Token)
		if err != nil {
			return nil, err
		}
		amount, err := requireAmount("amount", rec.Amount)
		if err != nil {
			return nil, err
		}
		if token == r.cfg.Token0 {
			return nil, r.weth.CreditNative(account, amount)
		}
		return nil, r.token.Mint(account, amount)

	case model.OpApprove:
		token, err := r.resolveToken(rec.Token)
		if err != nil {
			return nil, err
		}
		amount, err := requireAmount("amount", rec.Amount)
		if err != nil {
			return nil, err
		}
		if token == r.cfg.Token0 {
			return nil, r.weth.Approve(account, r.cfg.Pool, amount)
		}
		return nil, r.token.Approve(account, r.cfg.Pool, amount)

	case model.OpDeposit, model.OpWithdraw:
		amount, err := requireAmount("amount", rec.Amount)
		if err != nil {
			return nil, err
		}
		if rec.Op == model.OpDeposit {
			return nil, r.weth.Deposit(account, amount)
		}
		return nil, r.weth.Withdraw(account, amount)

	case model.OpAdd:
		amount0, err := requireAmount("amount0", rec.Amount0)
		if err != nil {
			return nil, err
		}
		amount1, err := requireAmount("amount1", rec.Amount1)
		if err != nil {
			return nil, err
		}
		res, err := r.pool.AddLiquidity(account, amount0, amount1)
		if err != nil {
			return nil, err
		}
		return &res.Event, nil

	case model.OpRemove:
		var shares *big.Int
		if strings.EqualFold(rec.Shares, "all") {
			shares = r.pool.SharesOf(account)
		} else {
			var err error
			if shares, err = requireAmount("shares", rec.Shares); err != nil {
				return nil, err
			}
		}
		res, err := r.pool.RemoveLiquidity(account, shares)
		if err != nil {
			return nil, err
		}
		return &res.Event, nil

	case model.OpSwap, model.OpSwapExactOut:
		token, err := r.resolveToken(rec.Token)
		if err != nil {
			return nil, err
		}
		amount, err := requireAmount("amount", rec.Amount)
		if err != nil {
			return nil, err
		}
		limit, err := optionalAmount("limit", rec.Limit)
		if err != nil {
			return nil, err
		}
		var res amm.SwapResult
		if rec.Op == model.OpSwap {
			res, err = r.pool.Swap(account, amount, token, limit)
		} else {
			res, err = r.pool.SwapExactOut(account, amount, token, limit)
		}
		if err != nil {
			return nil, err
		}
		return &res.Event, nil

	case model.OpTransfer:
		token, err := r.resolveToken(rec.Token)
		if err != nil {
			return nil, err
		}
		amount, err := requireAmount("amount", rec.Amount)
		if err != nil {
			return nil, err
		}
		to := r.cfg.Pool
		if !strings.EqualFold(rec.To, "pool") {
			if !common.IsHexAddress(rec.To) {
				return nil, fmt.Errorf("%w: invalid recipient %q", errBadRecord, rec.To)
			}
			to = common.HexToAddress(rec.To)
		}
		if token == r.cfg.Token0 {
			return nil, r.weth.Transfer(account, to, amount)
		}
		return nil, r.token.Transfer(account, to, amount)

	case model.OpSkim:
		_, _, err := r.pool.Skim(account)
		return nil, err

	default:
		return nil, fmt.Errorf("%w: unknown op %q", errBadRecord, rec.Op)
	}
}

// resolveToken accepts an asset address or the aliases token0, token1 and weth.
func (r *Runner) resolveToken(raw string) (common.Address, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "token0", "weth":
		return r.cfg.Token0, nil
	case "token1":
		return r.cfg.Token1, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: invalid token %q", errBadRecord, raw)
	}
	addr := common.HexToAddress(raw)
	if addr != r.cfg.Token0 && addr != r.cfg.Token1 {
		return common.Address{}, fmt.Errorf("%w: token %s is not traded by the pool", errBadRecord, addr.Hex())
	}
	return addr, nil
}

func requireAmount(field, raw string) (*big.Int, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: %s is required", errBadRecord, field)
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q is not a decimal integer", errBadRecord, field, raw)
	}
	return v, nil
}

func optionalAmount(field, raw string) (*big.Int, error) {
	if raw == "" {
		return nil, nil
	}
	return requireAmount(field, raw)
}

// ErrorKind classifies an operation failure for error records.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, errBadRecord):
		return "invalid_record"
	case errors.Is(err, amm.ErrInvariantViolation):
		return "invariant_violation"
	case errors.Is(err, amm.ErrInvalidSwapInput):
		return "invalid_input"
	case errors.Is(err, amm.ErrInsufficientLiquidityMinted):
		return "insufficient_liquidity_minted"
	case errors.Is(err, amm.ErrInsufficientLiquidityBurned):
		return "insufficient_liquidity_burned"
	case errors.Is(err, amm.ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, amm.ErrInsufficientLiquidity):
		return "insufficient_liquidity"
	case errors.Is(err, amm.ErrSlippageExceeded):
		return "slippage_exceeded"
	case errors.Is(err, amm.ErrLedgerTransferFailed):
		return "ledger_transfer_failed"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		return "insufficient_allowance"
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "invalid_amount"
	default:
		return "error"
	}
}
