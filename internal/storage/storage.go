package storage

import (
	"context"
	"errors"

	"swapV2/internal/model"
)

// ErrStateMismatch is returned when a stored snapshot belongs to another pool.
var ErrStateMismatch = errors.New("stored state belongs to another pool")

// Storage defines a sink for log records.
type Storage interface {
	PutLogBatch(logs []model.LogRecord) error
}

// StateStore persists pool snapshots keyed by pool address.
type StateStore interface {
	LoadPoolState(ctx context.Context, pool string) (model.PoolState, bool, error)
	SavePoolState(ctx context.Context, state model.PoolState) error
}
