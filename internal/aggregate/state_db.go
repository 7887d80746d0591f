package aggregate

import (
	"context"

	"swapV2/internal/storage/postgres"
)

// DBProgressStore stores progress in the indexer_state table.
type DBProgressStore struct {
	Store *postgres.Store
	Name  string
}

func (s *DBProgressStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Store == nil {
		return 0, false, nil
	}
	return s.Store.LoadState(ctx, s.Name)
}

func (s *DBProgressStore) Save(ctx context.Context, ts uint64) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveState(ctx, s.Name, ts)
}
