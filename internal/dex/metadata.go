package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"swapV2/internal/chain"
	"swapV2/internal/model"
)

const defaultCacheSize = 1024

// PoolMetaCache caches immutable pool metadata by address.
type PoolMetaCache struct {
	cache *lru.Cache[common.Address, model.PoolMeta]
}

func NewPoolMetaCache(size int) *PoolMetaCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, _ := lru.New[common.Address, model.PoolMeta](size)
	return &PoolMetaCache{cache: cache}
}

func (c *PoolMetaCache) Get(address common.Address) (model.PoolMeta, bool) {
	return c.cache.Get(address)
}

func (c *PoolMetaCache) Set(address common.Address, meta model.PoolMeta) {
	c.cache.Add(address, meta)
}

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	cache *lru.Cache[common.Address, model.TokenMeta]
}

func NewTokenMetaCache(size int) *TokenMetaCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, _ := lru.New[common.Address, model.TokenMeta](size)
	return &TokenMetaCache{cache: cache}
}

func (c *TokenMetaCache) Get(address common.Address) (model.TokenMeta, bool) {
	return c.cache.Get(address)
}

func (c *TokenMetaCache) Set(address common.Address, meta model.TokenMeta) {
	c.cache.Add(address, meta)
}

// Lookup returns cached metadata for token, fetching it on a miss. A failed
// fetch caches the partial result so the token is not queried again.
func (c *TokenMetaCache) Lookup(ctx context.Context, caller chain.Caller, token common.Address, logger *zap.Logger) model.TokenMeta {
	if meta, ok := c.Get(token); ok {
		return meta
	}
	meta, err := FetchTokenMeta(ctx, caller, token, logger)
	if err != nil && logger != nil {
		logger.Warn("token metadata fetch failed", zap.String("token", token.Hex()), zap.Error(err))
	}
	c.Set(token, meta)
	return meta
}

// Fetch returns cached metadata for token, fetching it on a miss. Unlike
// Lookup it reports a failed fetch and caches only complete results.
func (c *TokenMetaCache) Fetch(ctx context.Context, caller chain.Caller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	if meta, ok := c.Get(token); ok {
		return meta, nil
	}
	meta, err := FetchTokenMeta(ctx, caller, token, logger)
	if err != nil {
		return model.TokenMeta{}, fmt.Errorf("token %s metadata: %w", token.Hex(), err)
	}
	c.Set(token, meta)
	return meta, nil
}

// FetchPoolMeta loads the pool's assets. The pool contract does not expose
// its fee, so feeBps is recorded as given.
func FetchPoolMeta(ctx context.Context, caller chain.Caller, pool common.Address, feeBps uint32, tokenCache *TokenMetaCache, logger *zap.Logger) (model.PoolMeta, error) {
	if caller == nil {
		return model.PoolMeta{}, fmt.Errorf("chain client is nil")
	}
	poolABI, err := SwapV2ABI()
	if err != nil {
		return model.PoolMeta{}, fmt.Errorf("parse pool abi: %w", err)
	}

	token0, err := callAddress(ctx, caller, pool, poolABI, "token0", nil)
	if err != nil {
		return model.PoolMeta{}, err
	}
	token1, err := callAddress(ctx, caller, pool, poolABI, "token1", nil)
	if err != nil {
		return model.PoolMeta{}, err
	}

	if tokenCache != nil {
		tokenCache.Lookup(ctx, caller, token0, logger)
		tokenCache.Lookup(ctx, caller, token1, logger)
	}

	return model.PoolMeta{
		Token0: token0.Hex(),
		Token1: token1.Hex(),
		FeeBps: feeBps,
	}, nil
}

// PoolReserves is the live reserve state of a pool at a block.
type PoolReserves struct {
	Reserve0    *big.Int
	Reserve1    *big.Int
	TotalSupply *big.Int
}

// FetchPoolReserves reads reserve0, reserve1 and totalSupply at block; a nil
// block reads the latest state.
func FetchPoolReserves(ctx context.Context, caller chain.Caller, pool common.Address, block *big.Int) (PoolReserves, error) {
	if caller == nil {
		return PoolReserves{}, fmt.Errorf("chain client is nil")
	}
	poolABI, err := SwapV2ABI()
	if err != nil {
		return PoolReserves{}, fmt.Errorf("parse pool abi: %w", err)
	}

	var out PoolReserves
	for _, field := range []struct {
		method string
		dst    **big.Int
	}{
		{"reserve0", &out.Reserve0},
		{"reserve1", &out.Reserve1},
		{"totalSupply", &out.TotalSupply},
	} {
		values, err := callPoolMethod(ctx, caller, pool, poolABI, field.method, block)
		if err != nil {
			return PoolReserves{}, err
		}
		v, err := asBigInt(values[0])
		if err != nil {
			return PoolReserves{}, fmt.Errorf("%s: %w", field.method, err)
		}
		*field.dst = v
	}
	return out, nil
}

// PairState is what a quote needs from a Uniswap V2 style pair.
type PairState struct {
	Token0   common.Address
	Token1   common.Address
	Reserve0 *big.Int
	Reserve1 *big.Int
	// BlockTimestampLast is the pair's last reserve update, truncated to 32 bits.
	BlockTimestampLast uint32
}

// FetchPairReserves reads token0, token1 and getReserves of a V2 pair.
func FetchPairReserves(ctx context.Context, caller chain.Caller, pair common.Address, block *big.Int) (PairState, error) {
	if caller == nil {
		return PairState{}, fmt.Errorf("chain client is nil")
	}
	parsed, err := PairABI()
	if err != nil {
		return PairState{}, fmt.Errorf("parse pair abi: %w", err)
	}

	var state PairState
	if state.Token0, err = callAddress(ctx, caller, pair, parsed, "token0", block); err != nil {
		return PairState{}, err
	}
	if state.Token1, err = callAddress(ctx, caller, pair, parsed, "token1", block); err != nil {
		return PairState{}, err
	}

	values, err := callPoolMethod(ctx, caller, pair, parsed, "getReserves", block)
	if err != nil {
		return PairState{}, err
	}
	if len(values) != 3 {
		return PairState{}, fmt.Errorf("getReserves returned %d values", len(values))
	}
	if state.Reserve0, err = asBigInt(values[0]); err != nil {
		return PairState{}, fmt.Errorf("reserve0: %w", err)
	}
	if state.Reserve1, err = asBigInt(values[1]); err != nil {
		return PairState{}, fmt.Errorf("reserve1: %w", err)
	}
	ts, err := asBigInt(values[2])
	if err != nil {
		return PairState{}, fmt.Errorf("timestamp: %w", err)
	}
	state.BlockTimestampLast = uint32(ts.Uint64())
	return state, nil
}

// FetchBalanceOf reads token.balanceOf(owner) at block.
func FetchBalanceOf(ctx context.Context, caller chain.Caller, token, owner common.Address, block *big.Int) (*big.Int, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	parsed, err := erc20ABIStringInstance()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	data, err := parsed.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}
	resp, err := caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, block)
	if err != nil {
		return nil, fmt.Errorf("call balanceOf: %w", err)
	}
	values, err := parsed.Unpack("balanceOf", resp)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("balanceOf return size %d", len(values))
	}
	return asBigInt(values[0])
}

func callPoolMethod(ctx context.Context, caller chain.Caller, pool common.Address, parsed abi.ABI, method string, block *big.Int) ([]interface{}, error) {
	data, err := parsed.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &pool, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%s returned nothing", method)
	}
	return values, nil
}

func callAddress(ctx context.Context, caller chain.Caller, contract common.Address, parsed abi.ABI, method string, block *big.Int) (common.Address, error) {
	values, err := callPoolMethod(ctx, caller, contract, parsed, method, block)
	if err != nil {
		return common.Address{}, err
	}
	addr, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, fmt.Errorf("%s: %w", method, err)
	}
	return addr, nil
}

// FetchTokenMeta loads token metadata via ERC20 calls. Symbol and name fall
// back to bytes32 encodings and are left empty when both fail.
func FetchTokenMeta(ctx context.Context, caller chain.Caller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("chain client is nil")
	}

	stringABI, err := erc20ABIStringInstance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := callPoolMethod(ctx, caller, token, stringABI, "decimals", nil)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	meta.Symbol = callText(ctx, caller, token, "symbol", stringABI, bytes32ABI, logger)
	meta.Name = callText(ctx, caller, token, "name", stringABI, bytes32ABI, logger)
	return meta, nil
}

func callText(ctx context.Context, caller chain.Caller, token common.Address, method string, stringABI, bytes32ABI abi.ABI, logger *zap.Logger) string {
	if values, err := callPoolMethod(ctx, caller, token, stringABI, method, nil); err == nil {
		if text, ok := values[0].(string); ok {
			return text
		}
	}
	values, err := callPoolMethod(ctx, caller, token, bytes32ABI, method, nil)
	if err == nil {
		if text, ok := bytes32ToString(values[0]); ok {
			return text
		}
	}
	if logger != nil {
		logger.Debug(method+" call failed", zap.String("token", token.Hex()), zap.Error(err))
	}
	return ""
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("decimals out of range: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
