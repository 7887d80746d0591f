package quote

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"swapV2/internal/amm"
	"swapV2/internal/chain"
	"swapV2/internal/dex"
	"swapV2/internal/model"
)

// Quote sources.
const (
	SourcePair     = "pair"
	SourceSnapshot = "snapshot"
)

// Result is an off-chain exact-input quote.
type Result struct {
	Source      string `json:"source"`
	Pool        string `json:"pool"`
	Block       uint64 `json:"block,omitempty"`
	FeeBps      uint32 `json:"fee_bps"`
	TokenIn     string `json:"token_in"`
	TokenOut    string `json:"token_out"`
	SymbolIn    string `json:"symbol_in,omitempty"`
	SymbolOut   string `json:"symbol_out,omitempty"`
	DecimalsIn  uint8  `json:"decimals_in,omitempty"`
	DecimalsOut uint8  `json:"decimals_out,omitempty"`
	ReserveIn   string `json:"reserve_in"`
	ReserveOut  string `json:"reserve_out"`
	AmountIn    string `json:"amount_in"`
	AmountOut   string `json:"amount_out"`
	// PriceImpact is the shortfall of AmountOut against the spot price,
	// as a fraction.
	PriceImpact string `json:"price_impact"`
}

// FromPair quotes against a live V2 pair. The pair's reserves are read at
// block, or at the latest block when block is nil.
func FromPair(ctx context.Context, caller chain.Caller, pair common.Address, block *big.Int, amountIn *big.Int, tokenIn string, feeBps uint32, tokens *dex.TokenMetaCache, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokens == nil {
		tokens = dex.NewTokenMetaCache(2)
	}

	state, err := dex.FetchPairReserves(ctx, caller, pair, block)
	if err != nil {
		return Result{}, fmt.Errorf("read pair %s: %w", pair.Hex(), err)
	}

	// a failed lookup cancels the other one
	var meta0, meta1 model.TokenMeta
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		meta0, err = tokens.Fetch(gctx, caller, state.Token0, logger)
		return err
	})
	g.Go(func() error {
		var err error
		meta1, err = tokens.Fetch(gctx, caller, state.Token1, logger)
		return err
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res, err := quote(state.Token0, state.Token1, state.Reserve0, state.Reserve1, amountIn, tokenIn, feeBps)
	if err != nil {
		return Result{}, err
	}
	res.Source = SourcePair
	res.Pool = pair.Hex()
	if block != nil {
		res.Block = block.Uint64()
	}
	in, out := meta0, meta1
	if !strings.EqualFold(res.TokenIn, state.Token0.Hex()) {
		in, out = meta1, meta0
	}
	res.SymbolIn, res.DecimalsIn = in.Symbol, in.Decimals
	res.SymbolOut, res.DecimalsOut = out.Symbol, out.Decimals
	return res, nil
}

// FromSnapshot quotes against a saved pool snapshot.
func FromSnapshot(snap model.PoolState, amountIn *big.Int, tokenIn string) (Result, error) {
	if !common.IsHexAddress(snap.Token0.Address) || !common.IsHexAddress(snap.Token1.Address) {
		return Result{}, fmt.Errorf("snapshot of %s has no asset addresses", snap.Address)
	}
	r0, ok0 := new(big.Int).SetString(snap.Reserve0, 10)
	r1, ok1 := new(big.Int).SetString(snap.Reserve1, 10)
	if !ok0 || !ok1 {
		return Result{}, fmt.Errorf("snapshot of %s has invalid reserves (%q, %q)", snap.Address, snap.Reserve0, snap.Reserve1)
	}

	token0 := common.HexToAddress(snap.Token0.Address)
	token1 := common.HexToAddress(snap.Token1.Address)
	res, err := quote(token0, token1, r0, r1, amountIn, tokenIn, snap.FeeBps)
	if err != nil {
		return Result{}, err
	}
	res.Source = SourceSnapshot
	res.Pool = snap.Address
	res.Block = snap.LastBlock
	res.SymbolIn, res.SymbolOut = snap.Token0.Symbol, snap.Token1.Symbol
	if strings.EqualFold(res.TokenIn, token1.Hex()) {
		res.SymbolIn, res.SymbolOut = snap.Token1.Symbol, snap.Token0.Symbol
	}
	return res, nil
}

func quote(token0, token1 common.Address, reserve0, reserve1, amountIn *big.Int, tokenIn string, feeBps uint32) (Result, error) {
	in, out, reserveIn, reserveOut, err := orient(token0, token1, reserve0, reserve1, tokenIn)
	if err != nil {
		return Result{}, err
	}
	amountOut, err := amm.GetAmountOut(amountIn, reserveIn, reserveOut, feeBps)
	if err != nil {
		return Result{}, err
	}
	return Result{
		FeeBps:      feeBps,
		TokenIn:     in.Hex(),
		TokenOut:    out.Hex(),
		ReserveIn:   reserveIn.String(),
		ReserveOut:  reserveOut.String(),
		AmountIn:    amountIn.String(),
		AmountOut:   amountOut.String(),
		PriceImpact: priceImpact(amountIn, amountOut, reserveIn, reserveOut),
	}, nil
}

// orient resolves tokenIn, given as an address or as token0/token1.
func orient(token0, token1 common.Address, reserve0, reserve1 *big.Int, tokenIn string) (common.Address, common.Address, *big.Int, *big.Int, error) {
	switch strings.ToLower(strings.TrimSpace(tokenIn)) {
	case "token0":
		return token0, token1, reserve0, reserve1, nil
	case "token1":
		return token1, token0, reserve1, reserve0, nil
	}
	if !common.IsHexAddress(tokenIn) {
		return common.Address{}, common.Address{}, nil, nil, fmt.Errorf("%w: invalid token in %q", amm.ErrInvalidSwapInput, tokenIn)
	}
	switch common.HexToAddress(tokenIn) {
	case token0:
		return token0, token1, reserve0, reserve1, nil
	case token1:
		return token1, token0, reserve1, reserve0, nil
	default:
		return common.Address{}, common.Address{}, nil, nil, fmt.Errorf("%w: %s is not traded by the pool", amm.ErrInvalidSwapInput, tokenIn)
	}
}

// priceImpact is 1 - amountOut / (amountIn * reserveOut / reserveIn).
func priceImpact(amountIn, amountOut, reserveIn, reserveOut *big.Int) string {
	spot := new(big.Rat).SetFrac(new(big.Int).Mul(amountIn, reserveOut), reserveIn)
	if spot.Sign() == 0 {
		return "0"
	}
	ratio := new(big.Rat).Quo(new(big.Rat).SetInt(amountOut), spot)
	return new(big.Rat).Sub(big.NewRat(1, 1), ratio).FloatString(6)
}
