package ledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	pool  = common.HexToAddress("0x0000000000000000000000000000000000000f01")
)

func TestTokenTransferFrom(t *testing.T) {
	tok := NewToken(common.HexToAddress("0xbb"), "Fake ETH", "FAKEETH")
	require.NoError(t, tok.Mint(alice, big.NewInt(100)))
	require.Equal(t, "100", tok.TotalSupply().String())

	err := tok.TransferFrom(pool, alice, pool, big.NewInt(10))
	require.ErrorIs(t, err, ErrInsufficientAllowance)

	require.NoError(t, tok.Approve(alice, pool, big.NewInt(30)))
	require.NoError(t, tok.TransferFrom(pool, alice, pool, big.NewInt(10)))
	require.Equal(t, "20", tok.Allowance(alice, pool).String())
	require.Equal(t, "90", tok.BalanceOf(alice).String())
	require.Equal(t, "10", tok.BalanceOf(pool).String())

	require.NoError(t, tok.Approve(bob, pool, big.NewInt(50)))
	err = tok.TransferFrom(pool, bob, pool, big.NewInt(5))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, "50", tok.Allowance(bob, pool).String())
}

func TestTokenTransferAndBurn(t *testing.T) {
	tok := NewToken(common.HexToAddress("0xbb"), "B", "B")
	require.ErrorIs(t, tok.Mint(alice, big.NewInt(0)), ErrInvalidAmount)
	require.NoError(t, tok.Mint(alice, big.NewInt(5)))

	require.ErrorIs(t, tok.Transfer(alice, bob, big.NewInt(6)), ErrInsufficientBalance)
	require.ErrorIs(t, tok.Transfer(alice, bob, big.NewInt(-1)), ErrInvalidAmount)
	require.NoError(t, tok.Transfer(alice, bob, big.NewInt(5)))
	require.Zero(t, tok.BalanceOf(alice).Sign())
	require.NotContains(t, tok.Export().Balances, alice)

	require.ErrorIs(t, tok.Burn(bob, big.NewInt(6)), ErrInsufficientBalance)
	require.NoError(t, tok.Burn(bob, big.NewInt(5)))
	require.Zero(t, tok.TotalSupply().Sign())
}

func TestTokenRevertTransferFromKeepsOtherActivity(t *testing.T) {
	tok := NewToken(common.HexToAddress("0xbb"), "B", "B")
	require.NoError(t, tok.Mint(alice, big.NewInt(100)))
	require.NoError(t, tok.Approve(alice, pool, big.NewInt(100)))

	require.NoError(t, tok.TransferFrom(pool, alice, pool, big.NewInt(40)))
	require.NoError(t, tok.Mint(bob, big.NewInt(7)))
	require.NoError(t, tok.Transfer(alice, bob, big.NewInt(10)))
	require.NoError(t, tok.RevertTransferFrom(pool, alice, pool, big.NewInt(40)))

	require.Equal(t, "90", tok.BalanceOf(alice).String())
	require.Equal(t, "17", tok.BalanceOf(bob).String())
	require.Zero(t, tok.BalanceOf(pool).Sign())
	require.NotContains(t, tok.Export().Balances, pool)
	require.Equal(t, "100", tok.Allowance(alice, pool).String())
	require.Equal(t, "107", tok.TotalSupply().String())
}

func TestTokenRevertTransfer(t *testing.T) {
	tok := NewToken(common.HexToAddress("0xbb"), "B", "B")
	require.NoError(t, tok.Mint(pool, big.NewInt(50)))
	require.NoError(t, tok.Transfer(pool, alice, big.NewInt(20)))

	require.NoError(t, tok.RevertTransfer(pool, alice, big.NewInt(20)))
	require.Equal(t, "50", tok.BalanceOf(pool).String())
	require.Zero(t, tok.BalanceOf(alice).Sign())

	// alice no longer holds what she was paid
	require.NoError(t, tok.Transfer(pool, alice, big.NewInt(20)))
	require.NoError(t, tok.Transfer(alice, bob, big.NewInt(15)))
	err := tok.RevertTransfer(pool, alice, big.NewInt(20))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, "5", tok.BalanceOf(alice).String())
	require.Equal(t, "30", tok.BalanceOf(pool).String())

	require.ErrorIs(t, tok.RevertTransferFrom(pool, alice, pool, nil), ErrInvalidAmount)
}
