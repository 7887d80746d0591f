package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapV2/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Store provides Postgres persistence for pools, events, snapshots and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// UpsertPools inserts or updates pool metadata.
func (s *Store) UpsertPools(ctx context.Context, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				chain_id, pool_address, token0, token1, fee_bps, first_seen_block, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			ON CONFLICT (chain_id, pool_address)
			DO UPDATE SET
				token0 = EXCLUDED.token0,
				token1 = EXCLUDED.token1,
				fee_bps = EXCLUDED.fee_bps,
				first_seen_block = LEAST(pools.first_seen_block, EXCLUDED.first_seen_block),
				updated_at = now()
		`,
			int64(pool.ChainID),
			strings.ToLower(pool.Address),
			strings.ToLower(pool.Token0),
			strings.ToLower(pool.Token1),
			int32(pool.FeeBps),
			int64(pool.FirstSeenBlock),
		)
	}
	return s.execBatch(ctx, batch)
}

// InsertEvents stores decoded pool events. Replayed events are ignored.
func (s *Store) InsertEvents(ctx context.Context, events []model.TypedEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		decoded, err := json.Marshal(ev.Decoded)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", ev.EventName, err)
		}
		batch.Queue(`
			INSERT INTO pool_events (
				chain_id, pool_address, block_number, log_index, tx_hash, event_name,
				block_ts, decoded, reserve0, reserve1, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
			ON CONFLICT (chain_id, pool_address, block_number, log_index) DO NOTHING
		`,
			int64(ev.ChainID),
			strings.ToLower(ev.Address),
			int64(ev.BlockNumber),
			int64(ev.LogIndex),
			ev.TxHash,
			ev.EventName,
			int64(ev.Timestamp),
			decoded,
			nullableNumeric(ev.PoolMeta.Reserve0),
			nullableNumeric(ev.PoolMeta.Reserve1),
		)
	}
	return s.execBatch(ctx, batch)
}

// SavePoolState upserts a pool snapshot.
func (s *Store) SavePoolState(ctx context.Context, state model.PoolState) error {
	if state.Address == "" {
		return fmt.Errorf("state has no pool address")
	}
	if state.UpdatedAt == "" {
		state.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO pool_state (pool_address, chain_id, last_seq, last_block, state, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (pool_address) DO UPDATE SET
			chain_id = EXCLUDED.chain_id,
			last_seq = EXCLUDED.last_seq,
			last_block = EXCLUDED.last_block,
			state = EXCLUDED.state,
			updated_at = now()
	`,
		strings.ToLower(state.Address),
		int64(state.ChainID),
		int64(state.LastSeq),
		int64(state.LastBlock),
		data,
	)
	return err
}

// LoadPoolState returns the stored snapshot of pool.
func (s *Store) LoadPoolState(ctx context.Context, pool string) (model.PoolState, bool, error) {
	var data []byte
	row := s.pool.QueryRow(ctx, `SELECT state FROM pool_state WHERE pool_address=$1`, strings.ToLower(pool))
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolState{}, false, nil
		}
		return model.PoolState{}, false, err
	}
	var state model.PoolState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.PoolState{}, false, fmt.Errorf("parse state of %s: %w", pool, err)
	}
	return state, true, nil
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				chain_id, pool_address, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, mint_count, burn_count, volume0, volume1, fee0, fee1,
				fee_rate0, fee_rate1, tvl0, tvl1, apr, fee_method, tvl_method, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now(),now())
			ON CONFLICT (chain_id, pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				mint_count = EXCLUDED.mint_count,
				burn_count = EXCLUDED.burn_count,
				volume0 = EXCLUDED.volume0,
				volume1 = EXCLUDED.volume1,
				fee0 = EXCLUDED.fee0,
				fee1 = EXCLUDED.fee1,
				fee_rate0 = EXCLUDED.fee_rate0,
				fee_rate1 = EXCLUDED.fee_rate1,
				tvl0 = EXCLUDED.tvl0,
				tvl1 = EXCLUDED.tvl1,
				apr = EXCLUDED.apr,
				fee_method = EXCLUDED.fee_method,
				tvl_method = EXCLUDED.tvl_method,
				updated_at = now()
		`,
			int64(m.ChainID),
			strings.ToLower(m.PoolAddress),
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.MintCount),
			int64(m.BurnCount),
			m.Volume0,
			m.Volume1,
			m.Fee0,
			m.Fee1,
			m.FeeRate0,
			m.FeeRate1,
			m.TVL0,
			m.TVL1,
			m.APR,
			m.FeeMethod,
			m.TVLMethod,
		)
	}
	return s.execBatch(ctx, batch)
}

// LoadState returns last_processed_ts for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_ts FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(ts), true, nil
}

// SaveState upserts last_processed_ts for a name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_ts = EXCLUDED.last_processed_ts, updated_at = now()
	`, name, int64(ts))
	return err
}

func (s *Store) execBatch(ctx context.Context, batch *pgx.Batch) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func nullableNumeric(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
