package chain

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
)

// WithRetry runs fn until it succeeds, doubling the delay after every
// failure. It gives up after maxRetries retries or when ctx is done.
func WithRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}

type retryCaller struct {
	next       Caller
	maxRetries int
	baseDelay  time.Duration
}

// NewRetryCaller retries failed calls of next with WithRetry.
func NewRetryCaller(next Caller, maxRetries int, baseDelay time.Duration) Caller {
	return &retryCaller{next: next, maxRetries: maxRetries, baseDelay: baseDelay}
}

func (r *retryCaller) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	var out []byte
	err := WithRetry(ctx, r.maxRetries, r.baseDelay, func(ctx context.Context) error {
		resp, err := r.next.CallContract(ctx, msg, blockNumber)
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	return out, err
}
