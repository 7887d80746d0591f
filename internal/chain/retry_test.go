package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/require"
)

func TestWithRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 5, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := WithRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)
}

func TestWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, 10, time.Hour, func(context.Context) error {
		return errors.New("down")
	})
	require.ErrorIs(t, err, context.Canceled)
}

type flakyCaller struct {
	failures int
	calls    int
}

func (f *flakyCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("unavailable")
	}
	return []byte{0x01}, nil
}

func TestRetryCaller(t *testing.T) {
	next := &flakyCaller{failures: 2}
	out, err := NewRetryCaller(next, 3, time.Millisecond).CallContract(context.Background(), ethereum.CallMsg{}, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0x01}, out)
	require.Equal(t, 3, next.calls)
}
