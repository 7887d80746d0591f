package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Token is an in-memory ERC20-style ledger. Each call is atomic.
type Token struct {
	mu sync.Mutex

	address common.Address
	name    string
	symbol  string

	supply     *big.Int
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

// TokenState is a serializable copy of a Token's books.
type TokenState struct {
	Address    common.Address
	Name       string
	Symbol     string
	Supply     *big.Int
	Balances   map[common.Address]*big.Int
	Allowances map[common.Address]map[common.Address]*big.Int
}

func NewToken(address common.Address, name, symbol string) *Token {
	return &Token{
		address:    address,
		name:       name,
		symbol:     symbol,
		supply:     new(big.Int),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

func (t *Token) Address() common.Address { return t.address }
func (t *Token) Name() string            { return t.name }
func (t *Token) Symbol() string          { return t.symbol }

func (t *Token) TotalSupply() *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.supply)
}

func (t *Token) BalanceOf(account common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balanceOf(account)
}

func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if byOwner, ok := t.allowances[owner]; ok {
		if v, ok := byOwner[spender]; ok {
			return new(big.Int).Set(v)
		}
	}
	return new(big.Int)
}

// Mint creates amount new units for account.
func (t *Token) Mint(account common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: mint %v", ErrInvalidAmount, amount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(account, amount)
	t.supply = new(big.Int).Add(t.supply, amount)
	return nil
}

// Burn destroys amount units held by account.
func (t *Token) Burn(account common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: burn %v", ErrInvalidAmount, amount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.debit(account, amount); err != nil {
		return err
	}
	t.supply = new(big.Int).Sub(t.supply, amount)
	return nil
}

// Approve sets the amount spender may move out of owner's balance.
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: approve %v", ErrInvalidAmount, amount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	byOwner, ok := t.allowances[owner]
	if !ok {
		byOwner = make(map[common.Address]*big.Int)
		t.allowances[owner] = byOwner
	}
	byOwner[spender] = new(big.Int).Set(amount)
	return nil
}

// Transfer moves amount from from to to.
func (t *Token) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: transfer %v", ErrInvalidAmount, amount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.debit(from, amount); err != nil {
		return err
	}
	t.credit(to, amount)
	return nil
}

// TransferFrom moves amount from owner to to on behalf of spender, spending
// the allowance owner granted to spender.
func (t *Token) TransferFrom(spender, owner, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: transfer %v", ErrInvalidAmount, amount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	allowed := new(big.Int)
	if byOwner, ok := t.allowances[owner]; ok && byOwner[spender] != nil {
		allowed.Set(byOwner[spender])
	}
	if allowed.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s allowed %s, need %s", ErrInsufficientAllowance, spender.Hex(), allowed, amount)
	}
	if err := t.debit(owner, amount); err != nil {
		return err
	}
	t.credit(to, amount)
	t.allowances[owner][spender] = allowed.Sub(allowed, amount)
	return nil
}

// RevertTransfer undoes Transfer(from, to, amount): to pays amount back to
// from. No other account is touched.
func (t *Token) RevertTransfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: revert transfer %v", ErrInvalidAmount, amount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.debit(to, amount); err != nil {
		return err
	}
	t.credit(from, amount)
	return nil
}

// RevertTransferFrom undoes TransferFrom(spender, owner, to, amount): to pays
// amount back to owner and spender gets back the allowance it spent.
func (t *Token) RevertTransferFrom(spender, owner, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: revert transfer %v", ErrInvalidAmount, amount)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.debit(to, amount); err != nil {
		return err
	}
	t.credit(owner, amount)
	byOwner, ok := t.allowances[owner]
	if !ok {
		byOwner = make(map[common.Address]*big.Int)
		t.allowances[owner] = byOwner
	}
	allowed := new(big.Int).Set(amount)
	if prev := byOwner[spender]; prev != nil {
		allowed.Add(allowed, prev)
	}
	byOwner[spender] = allowed
	return nil
}

// Export returns a deep copy of the books.
func (t *Token) Export() TokenState {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := TokenState{
		Address:    t.address,
		Name:       t.name,
		Symbol:     t.symbol,
		Supply:     new(big.Int).Set(t.supply),
		Balances:   make(map[common.Address]*big.Int, len(t.balances)),
		Allowances: make(map[common.Address]map[common.Address]*big.Int, len(t.allowances)),
	}
	for account, bal := range t.balances {
		state.Balances[account] = new(big.Int).Set(bal)
	}
	for owner, byOwner := range t.allowances {
		cp := make(map[common.Address]*big.Int, len(byOwner))
		for spender, v := range byOwner {
			cp[spender] = new(big.Int).Set(v)
		}
		state.Allowances[owner] = cp
	}
	return state
}

// Import replaces the books with state. Name, symbol and address are kept.
func (t *Token) Import(state TokenState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.supply = new(big.Int)
	if state.Supply != nil {
		t.supply.Set(state.Supply)
	}
	t.balances = make(map[common.Address]*big.Int, len(state.Balances))
	for account, bal := range state.Balances {
		if bal != nil && bal.Sign() > 0 {
			t.balances[account] = new(big.Int).Set(bal)
		}
	}
	t.allowances = make(map[common.Address]map[common.Address]*big.Int, len(state.Allowances))
	for owner, byOwner := range state.Allowances {
		cp := make(map[common.Address]*big.Int, len(byOwner))
		for spender, v := range byOwner {
			if v != nil {
				cp[spender] = new(big.Int).Set(v)
			}
		}
		t.allowances[owner] = cp
	}
}

func (t *Token) balanceOf(account common.Address) *big.Int {
	if bal, ok := t.balances[account]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

func (t *Token) credit(account common.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	bal := t.balanceOf(account)
	t.balances[account] = bal.Add(bal, amount)
}

func (t *Token) debit(account common.Address, amount *big.Int) error {
	bal := t.balanceOf(account)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s holds %s, need %s", ErrInsufficientBalance, account.Hex(), bal, amount)
	}
	bal.Sub(bal, amount)
	if bal.Sign() == 0 {
		delete(t.balances, account)
		return nil
	}
	t.balances[account] = bal
	return nil
}
