package dex

import (
	"context"

	"go.uber.org/zap"

	"swapV2/internal/chain"
	"swapV2/internal/model"
)

// Decoder defines a log decoder.
type Decoder interface {
	CanDecode(topic0 string) bool
	Decode(log model.LogRecord, ctx DecodeContext) (*model.TypedEvent, error)
}

// DecodeContext provides shared dependencies for decoders.
type DecodeContext struct {
	Context        context.Context
	Chain          chain.Caller
	PoolMetaCache  *PoolMetaCache
	TokenMetaCache *TokenMetaCache
	// Reserves replays decoded events to attach post-event reserves. Logs
	// must then be fed in chain order.
	Reserves *ReserveTracker
	Logger   *zap.Logger
	// IncludeLiveMeta reads reserves from the chain at the log's block
	// instead of replaying them.
	IncludeLiveMeta bool
	// FeeBps is recorded for pools whose metadata is fetched from chain.
	FeeBps uint32
}
