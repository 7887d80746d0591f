package ledger

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// WETHEvent is a Deposit or Withdrawal record.
type WETHEvent struct {
	Kind    string
	Account common.Address
	Amount  *big.Int
}

// WETH wraps a native balance book into a Token. Depositing native value
// mints the same amount of WETH; withdrawing burns it and pays native back.
type WETH struct {
	*Token

	nativeMu sync.Mutex
	native   map[common.Address]*big.Int
	events   []WETHEvent
}

// WETHState extends TokenState with native balances.
type WETHState struct {
	Token  TokenState
	Native map[common.Address]*big.Int
}

func NewWETH(address common.Address) *WETH {
	return &WETH{
		Token:  NewToken(address, "WETH", "WETH"),
		native: make(map[common.Address]*big.Int),
	}
}

// CreditNative adds native value to account, outside of the WETH books.
func (w *WETH) CreditNative(account common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: credit %v", ErrInvalidAmount, amount)
	}
	w.nativeMu.Lock()
	defer w.nativeMu.Unlock()
	w.native[account] = new(big.Int).Add(w.nativeOf(account), amount)
	return nil
}

func (w *WETH) NativeBalanceOf(account common.Address) *big.Int {
	w.nativeMu.Lock()
	defer w.nativeMu.Unlock()
	return w.nativeOf(account)
}

// Deposit converts amount of account's native value into WETH.
func (w *WETH) Deposit(account common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: deposit %v", ErrInvalidAmount, amount)
	}
	w.nativeMu.Lock()
	defer w.nativeMu.Unlock()

	bal := w.nativeOf(account)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: native %s holds %s, need %s", ErrInsufficientBalance, account.Hex(), bal, amount)
	}
	if err := w.Token.Mint(account, amount); err != nil {
		return err
	}
	w.setNative(account, bal.Sub(bal, amount))
	w.events = append(w.events, WETHEvent{Kind: "Deposit", Account: account, Amount: new(big.Int).Set(amount)})
	return nil
}

// Withdraw burns amount of account's WETH and returns native value.
func (w *WETH) Withdraw(account common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: withdraw %v", ErrInvalidAmount, amount)
	}
	w.nativeMu.Lock()
	defer w.nativeMu.Unlock()

	if err := w.Token.Burn(account, amount); err != nil {
		return err
	}
	w.setNative(account, new(big.Int).Add(w.nativeOf(account), amount))
	w.events = append(w.events, WETHEvent{Kind: "Withdrawal", Account: account, Amount: new(big.Int).Set(amount)})
	return nil
}

// Events returns the Deposit and Withdrawal records in order.
func (w *WETH) Events() []WETHEvent {
	w.nativeMu.Lock()
	defer w.nativeMu.Unlock()
	out := make([]WETHEvent, len(w.events))
	copy(out, w.events)
	return out
}

func (w *WETH) ExportWETH() WETHState {
	w.nativeMu.Lock()
	defer w.nativeMu.Unlock()
	native := make(map[common.Address]*big.Int, len(w.native))
	for account, bal := range w.native {
		native[account] = new(big.Int).Set(bal)
	}
	return WETHState{Token: w.Token.Export(), Native: native}
}

func (w *WETH) ImportWETH(state WETHState) {
	w.Token.Import(state.Token)
	w.nativeMu.Lock()
	defer w.nativeMu.Unlock()
	w.native = make(map[common.Address]*big.Int, len(state.Native))
	for account, bal := range state.Native {
		if bal != nil && bal.Sign() > 0 {
			w.native[account] = new(big.Int).Set(bal)
		}
	}
}

func (w *WETH) nativeOf(account common.Address) *big.Int {
	if bal, ok := w.native[account]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

func (w *WETH) setNative(account common.Address, bal *big.Int) {
	if bal.Sign() == 0 {
		delete(w.native, account)
		return
	}
	w.native[account] = bal
}
