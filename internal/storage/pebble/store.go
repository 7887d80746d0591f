package pebble

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/pebble"

	"swapV2/internal/model"
)

const poolKeyPrefix = "pool/"

// StateStore keeps pool snapshots in a pebble database, one key per pool.
type StateStore struct {
	db *pebble.DB
}

// Open opens or creates the database at dir.
func Open(dir string) (*StateStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble %s: %w", dir, err)
	}
	return &StateStore{db: db}, nil
}

func (s *StateStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func poolKey(pool string) []byte {
	return []byte(poolKeyPrefix + strings.ToLower(pool))
}

func (s *StateStore) LoadPoolState(ctx context.Context, pool string) (model.PoolState, bool, error) {
	if s.db == nil {
		return model.PoolState{}, false, fmt.Errorf("pebble store is closed")
	}
	value, closer, err := s.db.Get(poolKey(pool))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return model.PoolState{}, false, nil
		}
		return model.PoolState{}, false, fmt.Errorf("get %s: %w", pool, err)
	}
	defer closer.Close()

	var state model.PoolState
	if err := json.Unmarshal(value, &state); err != nil {
		return model.PoolState{}, false, fmt.Errorf("parse state of %s: %w", pool, err)
	}
	return state, true, nil
}

func (s *StateStore) SavePoolState(ctx context.Context, state model.PoolState) error {
	if s.db == nil {
		return fmt.Errorf("pebble store is closed")
	}
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
	return s.db.Set(poolKey(state.Address), data, pebble.Sync)
}

// Pools lists the addresses of every stored pool.
func (s *StateStore) Pools(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("pebble store is closed")
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(poolKeyPrefix),
		UpperBound: []byte("pool0"),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var pools []string
	for iter.First(); iter.Valid(); iter.Next() {
		pools = append(pools, strings.TrimPrefix(string(iter.Key()), poolKeyPrefix))
	}
	return pools, iter.Error()
}
