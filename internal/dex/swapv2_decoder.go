package dex

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"swapV2/internal/model"
)

// DecoderConfig configures decoder behavior.
type DecoderConfig struct {
	// Topic0Map adds topic0 aliases for pools compiled with different
	// event signatures but the same layout.
	Topic0Map map[string]string
}

// SwapV2Decoder decodes Mint, Burn and Swap logs of a SwapV2 pool.
type SwapV2Decoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

// NewSwapV2Decoder builds a pool decoder.
func NewSwapV2Decoder(cfg DecoderConfig) (*SwapV2Decoder, error) {
	poolABI, err := SwapV2ABI()
	if err != nil {
		return nil, err
	}

	topicToName := map[string]string{
		strings.ToLower(poolABI.Events[model.EventMint].ID.Hex()): model.EventMint,
		strings.ToLower(poolABI.Events[model.EventBurn].ID.Hex()): model.EventBurn,
		strings.ToLower(poolABI.Events[model.EventSwap].ID.Hex()): model.EventSwap,
	}
	for topic0, name := range cfg.Topic0Map {
		normalized := normalizeEventName(name)
		if normalized == "" {
			return nil, fmt.Errorf("unsupported event name in topic0 map: %s", name)
		}
		if topic0 == "" {
			continue
		}
		topicToName[strings.ToLower(topic0)] = normalized
	}

	return &SwapV2Decoder{poolABI: poolABI, topicToName: topicToName}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *SwapV2Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *SwapV2Decoder) Decode(log model.LogRecord, ctx DecodeContext) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	if log.Removed {
		return nil, fmt.Errorf("log was removed by a reorg")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("unsupported topic0: %s", log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid pool address: %s", log.Address)
	}
	pool := common.HexToAddress(log.Address)

	meta, err := getPoolMeta(ctx, pool)
	if err != nil {
		return nil, err
	}

	var decoded interface{}
	var delta reserveDelta
	switch name {
	case model.EventMint:
		sender, amount0, amount1, err := d.decodeLiquidity(log, name)
		if err != nil {
			return nil, err
		}
		decoded = model.MintEventData{Sender: sender.Hex(), Amount0: amount0.String(), Amount1: amount1.String()}
		delta = reserveDelta{d0: amount0, d1: amount1}
	case model.EventBurn:
		sender, amount0, amount1, err := d.decodeLiquidity(log, name)
		if err != nil {
			return nil, err
		}
		decoded = model.BurnEventData{Sender: sender.Hex(), Amount0: amount0.String(), Amount1: amount1.String()}
		delta = reserveDelta{d0: new(big.Int).Neg(amount0), d1: new(big.Int).Neg(amount1)}
	case model.EventSwap:
		swap, err := d.decodeSwap(log)
		if err != nil {
			return nil, err
		}
		decoded = swap
		if delta, err = swapDelta(meta, swap); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported event name: %s", name)
	}

	switch {
	case ctx.IncludeLiveMeta && ctx.Chain != nil:
		live, err := FetchPoolReserves(callContext(ctx), ctx.Chain, pool, new(big.Int).SetUint64(log.BlockNumber))
		if err != nil {
			logger(ctx).Debug("live reserves unavailable", zap.String("pool", pool.Hex()), zap.Error(err))
			break
		}
		meta.Reserve0 = live.Reserve0.String()
		meta.Reserve1 = live.Reserve1.String()
		meta.TotalSupply = live.TotalSupply.String()
	case ctx.Reserves != nil:
		r0, r1, err := ctx.Reserves.Apply(pool, delta.d0, delta.d1)
		if err != nil {
			return nil, err
		}
		meta.Reserve0 = r0.String()
		meta.Reserve1 = r1.String()
	}

	return buildTypedEvent(log, name, decoded, meta), nil
}

func normalizeEventName(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mint":
		return model.EventMint
	case "burn":
		return model.EventBurn
	case "swap":
		return model.EventSwap
	default:
		return ""
	}
}

func getPoolMeta(ctx DecodeContext, pool common.Address) (model.PoolMeta, error) {
	if ctx.PoolMetaCache != nil {
		if meta, ok := ctx.PoolMetaCache.Get(pool); ok {
			return meta, nil
		}
	}
	if ctx.Chain == nil {
		return model.PoolMeta{}, fmt.Errorf("no metadata for pool %s and chain client is nil", pool.Hex())
	}

	meta, err := FetchPoolMeta(callContext(ctx), ctx.Chain, pool, ctx.FeeBps, ctx.TokenMetaCache, ctx.Logger)
	if err != nil {
		return model.PoolMeta{}, err
	}
	if ctx.PoolMetaCache != nil {
		ctx.PoolMetaCache.Set(pool, meta)
	}
	return meta, nil
}

func callContext(ctx DecodeContext) context.Context {
	if ctx.Context == nil {
		return context.Background()
	}
	return ctx.Context
}

func logger(ctx DecodeContext) *zap.Logger {
	if ctx.Logger == nil {
		return zap.NewNop()
	}
	return ctx.Logger
}

func buildTypedEvent(log model.LogRecord, name string, decoded interface{}, meta model.PoolMeta) *model.TypedEvent {
	return &model.TypedEvent{
		ChainID:     log.ChainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		LogIndex:    log.LogIndex,
		Address:     log.Address,
		EventName:   name,
		Timestamp:   log.Timestamp,
		Decoded:     decoded,
		PoolMeta:    meta,
		Raw:         &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}
}

func (d *SwapV2Decoder) decodeLiquidity(log model.LogRecord, name string) (common.Address, *big.Int, *big.Int, error) {
	event := d.poolABI.Events[name]
	sender, err := parseSender(event, log.Topics)
	if err != nil {
		return common.Address{}, nil, nil, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	if len(values) != 2 {
		return common.Address{}, nil, nil, fmt.Errorf("unexpected %s values: %d", strings.ToLower(name), len(values))
	}
	amount0, err := asBigInt(values[0])
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	amount1, err := asBigInt(values[1])
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return sender, amount0, amount1, nil
}

func (d *SwapV2Decoder) decodeSwap(log model.LogRecord) (model.SwapEventData, error) {
	event := d.poolABI.Events[model.EventSwap]
	sender, err := parseSender(event, log.Topics)
	if err != nil {
		return model.SwapEventData{}, err
	}

	values, err := unpackNonIndexed(event, log.Data)
	if err != nil {
		return model.SwapEventData{}, err
	}
	if len(values) != 4 {
		return model.SwapEventData{}, fmt.Errorf("unexpected swap values: %d", len(values))
	}
	amountIn, err := asBigInt(values[0])
	if err != nil {
		return model.SwapEventData{}, err
	}
	tokenIn, err := asAddress(values[1])
	if err != nil {
		return model.SwapEventData{}, err
	}
	amountOut, err := asBigInt(values[2])
	if err != nil {
		return model.SwapEventData{}, err
	}
	tokenOut, err := asAddress(values[3])
	if err != nil {
		return model.SwapEventData{}, err
	}

	return model.SwapEventData{
		Sender:    sender.Hex(),
		AmountIn:  amountIn.String(),
		TokenIn:   tokenIn.Hex(),
		AmountOut: amountOut.String(),
		TokenOut:  tokenOut.Hex(),
	}, nil
}

func parseSender(event abi.Event, topics []string) (common.Address, error) {
	indexedTopics, err := parseIndexedTopics(event, topics)
	if err != nil {
		return common.Address{}, err
	}
	var indexed struct {
		Sender common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return common.Address{}, fmt.Errorf("parse topics: %w", err)
	}
	return indexed.Sender, nil
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}
	return parseTopicHashes(topics[1:])
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}

func unpackNonIndexed(event abi.Event, dataHex string) ([]interface{}, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	return values, nil
}
