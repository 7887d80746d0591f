package amm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Ledger is the transfer primitive of one fungible asset. Every call is
// atomic: a failed transfer leaves all balances unchanged.
type Ledger interface {
	Address() common.Address
	BalanceOf(account common.Address) *big.Int
	Transfer(from, to common.Address, amount *big.Int) error
	TransferFrom(spender, owner, to common.Address, amount *big.Int) error
}

// Reverter is implemented by ledgers that can undo one of their own
// transfers. A revert touches only the accounts and allowance of the call it
// undoes, so other activity on the ledger survives a pool rollback.
type Reverter interface {
	RevertTransfer(from, to common.Address, amount *big.Int) error
	RevertTransferFrom(spender, owner, to common.Address, amount *big.Int) error
}
