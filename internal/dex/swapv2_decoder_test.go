package dex

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"swapV2/internal/amm"
	"swapV2/internal/model"
)

var (
	testPool   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testToken0 = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	testToken1 = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	testSender = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func testDecodeContext() DecodeContext {
	cache := NewPoolMetaCache(8)
	cache.Set(testPool, model.PoolMeta{
		Token0: testToken0.Hex(),
		Token1: testToken1.Hex(),
		FeeBps: 30,
	})
	return DecodeContext{
		PoolMetaCache: cache,
		Reserves:      NewReserveTracker(),
		Logger:        zap.NewNop(),
	}
}

func encodeOrFail(t *testing.T, pos LogPosition, ev amm.Event) model.LogRecord {
	t.Helper()
	record, err := EncodeEvent(31337, testPool, pos, ev)
	if err != nil {
		t.Fatalf("encode %s: %v", ev.Kind, err)
	}
	return record
}

func TestEncodeDecodeMintAndSwap(t *testing.T) {
	decoder, err := NewSwapV2Decoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	ctx := testDecodeContext()

	mintLog := encodeOrFail(t, LogPosition{BlockNumber: 1, Timestamp: 1700000000}, amm.Event{
		Kind:    amm.EventMint,
		Caller:  testSender,
		Amount0: big.NewInt(100),
		Amount1: big.NewInt(200),
	})
	if !decoder.CanDecode(mintLog.Topic0()) {
		t.Fatalf("mint topic not recognized")
	}

	mintEvent, err := decoder.Decode(mintLog, ctx)
	if err != nil {
		t.Fatalf("decode mint: %v", err)
	}
	mint, ok := mintEvent.Decoded.(model.MintEventData)
	if !ok {
		t.Fatalf("mint type mismatch: %T", mintEvent.Decoded)
	}
	if mint.Sender != testSender.Hex() || mint.Amount0 != "100" || mint.Amount1 != "200" {
		t.Fatalf("mint mismatch: %+v", mint)
	}
	if mintEvent.PoolMeta.Reserve0 != "100" || mintEvent.PoolMeta.Reserve1 != "200" {
		t.Fatalf("mint reserves mismatch: %+v", mintEvent.PoolMeta)
	}

	swapLog := encodeOrFail(t, LogPosition{BlockNumber: 2, Timestamp: 1700000012}, amm.Event{
		Kind:      amm.EventSwap,
		Caller:    testSender,
		AmountIn:  big.NewInt(10),
		TokenIn:   testToken0,
		AmountOut: big.NewInt(18),
		TokenOut:  testToken1,
	})
	swapEvent, err := decoder.Decode(swapLog, ctx)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}
	swap, ok := swapEvent.Decoded.(model.SwapEventData)
	if !ok {
		t.Fatalf("swap type mismatch: %T", swapEvent.Decoded)
	}
	if swap.AmountIn != "10" || swap.AmountOut != "18" || swap.TokenIn != testToken0.Hex() || swap.TokenOut != testToken1.Hex() {
		t.Fatalf("swap mismatch: %+v", swap)
	}
	if swapEvent.PoolMeta.Reserve0 != "110" || swapEvent.PoolMeta.Reserve1 != "182" {
		t.Fatalf("swap reserves mismatch: %+v", swapEvent.PoolMeta)
	}
	if swapEvent.Timestamp != 1700000012 || swapEvent.BlockNumber != 2 {
		t.Fatalf("position mismatch: %+v", swapEvent)
	}
}

func TestDecodeBurnBelowTrackedReserves(t *testing.T) {
	decoder, err := NewSwapV2Decoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	ctx := testDecodeContext()
	ctx.Reserves.Seed(testPool, big.NewInt(50), big.NewInt(50))

	burnLog := encodeOrFail(t, LogPosition{BlockNumber: 3}, amm.Event{
		Kind:    amm.EventBurn,
		Caller:  testSender,
		Amount0: big.NewInt(20),
		Amount1: big.NewInt(30),
	})
	event, err := decoder.Decode(burnLog, ctx)
	if err != nil {
		t.Fatalf("decode burn: %v", err)
	}
	if event.PoolMeta.Reserve0 != "30" || event.PoolMeta.Reserve1 != "20" {
		t.Fatalf("burn reserves mismatch: %+v", event.PoolMeta)
	}

	if _, err := decoder.Decode(burnLog, ctx); err != nil {
		t.Fatalf("second burn: %v", err)
	}
	if _, err := decoder.Decode(burnLog, ctx); err == nil {
		t.Fatalf("expected replay below zero to fail")
	}
}

func TestDecodeRejectsMalformedLogs(t *testing.T) {
	decoder, err := NewSwapV2Decoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	ctx := testDecodeContext()

	good := encodeOrFail(t, LogPosition{BlockNumber: 1}, amm.Event{
		Kind:    amm.EventMint,
		Caller:  testSender,
		Amount0: big.NewInt(1),
		Amount1: big.NewInt(1),
	})

	noSender := good
	noSender.Topics = good.Topics[:1]
	if _, err := decoder.Decode(noSender, ctx); err == nil {
		t.Fatalf("expected topic count error")
	}

	shortData := good
	shortData.Data = hexutil.Encode([]byte{0x01})
	if _, err := decoder.Decode(shortData, ctx); err == nil {
		t.Fatalf("expected unpack error")
	}

	unknownPool := good
	unknownPool.Address = common.HexToAddress("0x9999999999999999999999999999999999999999").Hex()
	if _, err := decoder.Decode(unknownPool, ctx); err == nil {
		t.Fatalf("expected missing metadata error")
	}

	removed := good
	removed.Removed = true
	if _, err := decoder.Decode(removed, ctx); err == nil {
		t.Fatalf("expected removed log error")
	}

	if decoder.CanDecode("0xdeadbeef") {
		t.Fatalf("unexpected topic accepted")
	}
}

func TestDecodeSwapForeignToken(t *testing.T) {
	decoder, err := NewSwapV2Decoder(DecoderConfig{})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	log := encodeOrFail(t, LogPosition{BlockNumber: 1}, amm.Event{
		Kind:      amm.EventSwap,
		Caller:    testSender,
		AmountIn:  big.NewInt(1),
		TokenIn:   common.HexToAddress("0x0c"),
		AmountOut: big.NewInt(1),
		TokenOut:  testToken1,
	})
	if _, err := decoder.Decode(log, testDecodeContext()); err == nil {
		t.Fatalf("expected asset mismatch error")
	}
}

func TestTopic0MapAlias(t *testing.T) {
	alias := "0x" + common.Bytes2Hex(common.LeftPadBytes([]byte{0x42}, 32))
	decoder, err := NewSwapV2Decoder(DecoderConfig{Topic0Map: map[string]string{alias: "swap"}})
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	if !decoder.CanDecode(alias) {
		t.Fatalf("alias not registered")
	}
	if _, err := NewSwapV2Decoder(DecoderConfig{Topic0Map: map[string]string{alias: "collect"}}); err == nil {
		t.Fatalf("expected unsupported name error")
	}
}

func TestEncodeEventIsDeterministic(t *testing.T) {
	ev := amm.Event{Kind: amm.EventMint, Caller: testSender, Amount0: big.NewInt(1), Amount1: big.NewInt(2)}
	a := encodeOrFail(t, LogPosition{BlockNumber: 7, TxIndex: 0}, ev)
	b := encodeOrFail(t, LogPosition{BlockNumber: 7, TxIndex: 0}, ev)
	if a.BlockHash != b.BlockHash || a.TxHash != b.TxHash || a.Data != b.Data {
		t.Fatalf("encoding differs: %+v vs %+v", a, b)
	}
	c := encodeOrFail(t, LogPosition{BlockNumber: 8}, ev)
	if c.BlockHash == a.BlockHash {
		t.Fatalf("different blocks share a hash")
	}
	if _, err := EncodeEvent(1, testPool, LogPosition{}, amm.Event{Kind: "Sync"}); err == nil {
		t.Fatalf("expected unsupported kind error")
	}
}

func ammMint(amount0, amount1 int64) amm.Event {
	return amm.Event{Kind: amm.EventMint, Caller: testSender, Amount0: big.NewInt(amount0), Amount1: big.NewInt(amount1)}
}
