package amm

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// txn is one all-or-nothing pool operation. It works on copies of the pool
// state and records how to undo every ledger call it makes. Ledgers are
// never snapshotted: only the pool's own transfers are reversed.
type txn struct {
	pool     *Pool
	reserves reserves
	shares   *shareLedger

	undo         []func() error
	irreversible bool
}

// fatalError marks a failure that must halt the pool after rollback.
type fatalError struct {
	err error
}

func (e fatalError) Error() string { return e.err.Error() }
func (e fatalError) Unwrap() error { return e.err }

func fatal(format string, args ...interface{}) error {
	return fatalError{err: fmt.Errorf("%w: "+format, append([]interface{}{ErrInvariantViolation}, args...)...)}
}

func (p *Pool) begin() *txn {
	return &txn{
		pool:     p,
		reserves: p.reserves.clone(),
		shares:   p.shares.clone(),
	}
}

// pull moves amount of ledger's asset from caller into the pool.
func (tx *txn) pull(ledger Ledger, caller common.Address, amount *big.Int) error {
	pool := tx.pool.cfg.Address
	if err := ledger.TransferFrom(pool, caller, pool, amount); err != nil {
		return fmt.Errorf("%w: pull %s of %s from %s: %w", ErrLedgerTransferFailed, amount, ledger.Address().Hex(), caller.Hex(), err)
	}
	refund := new(big.Int).Set(amount)
	if rv, ok := ledger.(Reverter); ok {
		tx.undo = append(tx.undo, func() error {
			return rv.RevertTransferFrom(pool, caller, pool, refund)
		})
		return nil
	}
	// the refund cannot give back the spent allowance
	tx.undo = append(tx.undo, func() error {
		return ledger.Transfer(pool, caller, refund)
	})
	return nil
}

// push moves amount of ledger's asset from the pool to caller.
func (tx *txn) push(ledger Ledger, caller common.Address, amount *big.Int) error {
	pool := tx.pool.cfg.Address
	if err := ledger.Transfer(pool, caller, amount); err != nil {
		return fmt.Errorf("%w: push %s of %s to %s: %w", ErrLedgerTransferFailed, amount, ledger.Address().Hex(), caller.Hex(), err)
	}
	rv, ok := ledger.(Reverter)
	if !ok {
		tx.irreversible = true
		return nil
	}
	paid := new(big.Int).Set(amount)
	tx.undo = append(tx.undo, func() error {
		return rv.RevertTransfer(pool, caller, paid)
	})
	return nil
}

// rollback undoes every ledger call of the transaction, newest first.
func (tx *txn) rollback() error {
	var errs []error
	for i := len(tx.undo) - 1; i >= 0; i-- {
		if err := tx.undo[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if tx.irreversible {
		errs = append(errs, errors.New("payout on a ledger without reverts cannot be undone"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: rollback: %w", ErrInvariantViolation, errors.Join(errs...))
	}
	return nil
}

// verify checks the post-state of a transaction before it is committed.
func (tx *txn) verify() error {
	if err := tx.shares.checkSum(); err != nil {
		return err
	}
	if tx.shares.total.Sign() == 0 && !tx.reserves.empty() {
		return fmt.Errorf("%w: reserves (%s, %s) without shares", ErrInvariantViolation, tx.reserves.r0, tx.reserves.r1)
	}
	// custody may exceed a reserve by tokens sent outside the pool's own
	// transfers; see Skim
	pool := tx.pool.cfg.Address
	if bal := tx.pool.token0.BalanceOf(pool); bal.Cmp(tx.reserves.r0) < 0 {
		return fmt.Errorf("%w: reserve0 %s exceeds custodied %s", ErrInvariantViolation, tx.reserves.r0, bal)
	}
	if bal := tx.pool.token1.BalanceOf(pool); bal.Cmp(tx.reserves.r1) < 0 {
		return fmt.Errorf("%w: reserve1 %s exceeds custodied %s", ErrInvariantViolation, tx.reserves.r1, bal)
	}
	return nil
}

// run executes fn inside a transaction and commits its state on success.
// Rollback failures and failed post-checks halt the pool.
func (p *Pool) run(fn func(tx *txn) error) error {
	tx := p.begin()

	if err := fn(tx); err != nil {
		rbErr := tx.rollback()
		var fe fatalError
		switch {
		case rbErr != nil:
			p.halt(rbErr)
			return errors.Join(err, rbErr)
		case errors.As(err, &fe):
			p.halt(err)
		}
		return err
	}

	if err := tx.verify(); err != nil {
		if rbErr := tx.rollback(); rbErr != nil {
			err = errors.Join(err, rbErr)
		}
		p.halt(err)
		return err
	}

	p.reserves = tx.reserves
	p.shares = tx.shares
	return nil
}
