package pebble

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"swapV2/internal/model"
)

func TestStateStoreRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, ok, err := store.LoadPoolState(ctx, "0xAbC")
	require.NoError(t, err)
	require.False(t, ok)

	state := model.PoolState{
		Address:     "0xAbC",
		Reserve0:    "110",
		Reserve1:    "182",
		TotalShares: "141",
		Shares:      map[string]string{"0x01": "141"},
		LastSeq:     2,
	}
	require.NoError(t, store.SavePoolState(ctx, state))
	require.NoError(t, store.SavePoolState(ctx, model.PoolState{Address: "0xdef", Reserve0: "1"}))

	got, ok, err := store.LoadPoolState(ctx, "0xabc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "182", got.Reserve1)
	require.Equal(t, uint64(2), got.LastSeq)
	require.NotEmpty(t, got.UpdatedAt)

	pools, err := store.Pools(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"0xabc", "0xdef"}, pools)

	require.Error(t, store.SavePoolState(ctx, model.PoolState{}))
}

func TestStateStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.SavePoolState(ctx, model.PoolState{Address: "0x01", LastBlock: 9}))
	require.NoError(t, store.Close())

	store, err = Open(dir)
	require.NoError(t, err)
	defer store.Close()
	got, ok, err := store.LoadPoolState(ctx, "0x01")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(9), got.LastBlock)
}
