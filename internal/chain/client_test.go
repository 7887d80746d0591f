package chain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

type fakeEth struct {
	chainID      int64
	blockNumber  uint64
	headerCalls  int
	lastCallTo   common.Address
	callResponse []byte
}

type callArgs struct {
	To    *common.Address `json:"to"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
}

func (f *fakeEth) ChainId(ctx context.Context) (*hexutil.Big, error) {
	return (*hexutil.Big)(big.NewInt(f.chainID)), nil
}

func (f *fakeEth) BlockNumber(ctx context.Context) (hexutil.Uint64, error) {
	return hexutil.Uint64(f.blockNumber), nil
}

func (f *fakeEth) GetBlockByNumber(ctx context.Context, number gethrpc.BlockNumber, full bool) (*types.Header, error) {
	f.headerCalls++
	return &types.Header{
		Number:     big.NewInt(number.Int64()),
		Difficulty: big.NewInt(0),
		Time:       1_700_000_000 + uint64(number.Int64())*12,
	}, nil
}

func (f *fakeEth) Call(ctx context.Context, args callArgs, block gethrpc.BlockNumberOrHash) (hexutil.Bytes, error) {
	if args.To != nil {
		f.lastCallTo = *args.To
	}
	return f.callResponse, nil
}

func newInprocClient(t *testing.T, fe *fakeEth) *Client {
	t.Helper()
	srv := gethrpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", fe))
	c := NewClientFromRPC(gethrpc.DialInProc(srv))
	t.Cleanup(c.Close)
	return c
}

func TestClientQueries(t *testing.T) {
	fe := &fakeEth{chainID: 31337, blockNumber: 42, callResponse: []byte{0xca, 0xfe}}
	c := newInprocClient(t, fe)
	ctx := context.Background()

	id, err := c.GetChainID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(31337), id.Int64())

	latest, err := c.LatestBlockNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(42), latest)

	pair := common.HexToAddress("0x0000000000000000000000000000000000000abc")
	out, err := c.CallContract(ctx, ethereum.CallMsg{To: &pair, Data: []byte{0x01}}, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0xca, 0xfe}, out)
	require.Equal(t, pair, fe.lastCallTo)
}

func TestBlockTimestampIsCached(t *testing.T) {
	fe := &fakeEth{chainID: 1}
	c := newInprocClient(t, fe)

	for i := 0; i < 3; i++ {
		ts, err := c.BlockTimestamp(context.Background(), 10)
		require.NoError(t, err)
		require.Equal(t, uint64(1_700_000_120), ts)
	}
	require.Equal(t, 1, fe.headerCalls)
}
