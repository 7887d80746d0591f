package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"swapV2/internal/model"
)

// FileStateStore keeps one pool snapshot in a local JSON file.
type FileStateStore struct {
	Path string
}

func (s *FileStateStore) LoadPoolState(ctx context.Context, pool string) (model.PoolState, bool, error) {
	if s == nil || s.Path == "" {
		return model.PoolState{}, false, nil
	}

	var state model.PoolState
	found, err := ReadJSONFile(s.Path, &state)
	if err != nil || !found {
		return model.PoolState{}, false, err
	}
	if !strings.EqualFold(state.Address, pool) {
		return model.PoolState{}, false, fmt.Errorf("%w: %s holds %s, want %s", ErrStateMismatch, s.Path, state.Address, pool)
	}
	return state, true, nil
}

// SavePoolState replaces the file atomically.
func (s *FileStateStore) SavePoolState(ctx context.Context, state model.PoolState) error {
	if s == nil || s.Path == "" {
		return nil
	}
	if state.UpdatedAt == "" {
		state.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return WriteJSONFile(s.Path, state)
}
