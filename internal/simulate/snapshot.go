package simulate

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"swapV2/internal/amm"
	"swapV2/internal/ledger"
	"swapV2/internal/model"
)

// Snapshot renders the pool and both ledgers as a persistable record.
func Snapshot(chainID uint64, cfg amm.Config, state amm.State, weth ledger.WETHState, token ledger.TokenState) model.PoolState {
	minimum := cfg.MinimumLiquidity
	if minimum == nil {
		minimum = new(big.Int)
	}
	lock := ""
	if cfg.LockAddress != (common.Address{}) {
		lock = cfg.LockAddress.Hex()
	}

	token0 := exportLedger(weth.Token)
	token0.Native = exportBalances(weth.Native)

	return model.PoolState{
		ChainID:          chainID,
		Address:          cfg.Address.Hex(),
		FeeBps:           cfg.FeeBps,
		MinimumLiquidity: minimum.String(),
		LockAddress:      lock,
		Reserve0:         bigString(state.Reserve0),
		Reserve1:         bigString(state.Reserve1),
		TotalShares:      bigString(state.TotalShares),
		Shares:           exportBalances(state.Shares),
		LastSeq:          state.LastSeq,
		Token0:           token0,
		Token1:           exportLedger(token),
	}
}

// PoolStateOf parses the pool part of a snapshot.
func PoolStateOf(snap model.PoolState) (amm.State, error) {
	r0, err := parseAmount("reserve0", snap.Reserve0)
	if err != nil {
		return amm.State{}, err
	}
	r1, err := parseAmount("reserve1", snap.Reserve1)
	if err != nil {
		return amm.State{}, err
	}
	total, err := parseAmount("total_shares", snap.TotalShares)
	if err != nil {
		return amm.State{}, err
	}
	shares, err := importBalances("shares", snap.Shares)
	if err != nil {
		return amm.State{}, err
	}
	return amm.State{Reserve0: r0, Reserve1: r1, TotalShares: total, Shares: shares, LastSeq: snap.LastSeq}, nil
}

// WETHStateOf parses the token0 ledger of a snapshot.
func WETHStateOf(snap model.LedgerState) (ledger.WETHState, error) {
	token, err := TokenStateOf(snap)
	if err != nil {
		return ledger.WETHState{}, err
	}
	native, err := importBalances("native", snap.Native)
	if err != nil {
		return ledger.WETHState{}, err
	}
	return ledger.WETHState{Token: token, Native: native}, nil
}

// TokenStateOf parses an ERC20 ledger of a snapshot.
func TokenStateOf(snap model.LedgerState) (ledger.TokenState, error) {
	supply, err := parseAmount("supply", snap.Supply)
	if err != nil {
		return ledger.TokenState{}, err
	}
	balances, err := importBalances("balances", snap.Balances)
	if err != nil {
		return ledger.TokenState{}, err
	}
	allowances := make(map[common.Address]map[common.Address]*big.Int, len(snap.Allowances))
	for owner, bySpender := range snap.Allowances {
		if !common.IsHexAddress(owner) {
			return ledger.TokenState{}, fmt.Errorf("allowances: invalid owner %q", owner)
		}
		parsed, err := importBalances("allowances", bySpender)
		if err != nil {
			return ledger.TokenState{}, err
		}
		allowances[common.HexToAddress(owner)] = parsed
	}
	return ledger.TokenState{
		Address:    common.HexToAddress(snap.Address),
		Name:       snap.Name,
		Symbol:     snap.Symbol,
		Supply:     supply,
		Balances:   balances,
		Allowances: allowances,
	}, nil
}

func exportLedger(state ledger.TokenState) model.LedgerState {
	out := model.LedgerState{
		Address:  state.Address.Hex(),
		Name:     state.Name,
		Symbol:   state.Symbol,
		Supply:   bigString(state.Supply),
		Balances: exportBalances(state.Balances),
	}
	if len(state.Allowances) > 0 {
		out.Allowances = make(map[string]map[string]string, len(state.Allowances))
		for owner, bySpender := range state.Allowances {
			out.Allowances[owner.Hex()] = exportBalances(bySpender)
		}
	}
	return out
}

func exportBalances(in map[common.Address]*big.Int) map[string]string {
	out := make(map[string]string, len(in))
	for account, bal := range in {
		if bal == nil {
			continue
		}
		out[account.Hex()] = bal.String()
	}
	return out
}

func importBalances(field string, in map[string]string) (map[common.Address]*big.Int, error) {
	out := make(map[common.Address]*big.Int, len(in))
	for account, raw := range in {
		if !common.IsHexAddress(account) {
			return nil, fmt.Errorf("%s: invalid address %q", field, account)
		}
		v, err := parseAmount(field, raw)
		if err != nil {
			return nil, err
		}
		out[common.HexToAddress(account)] = v
	}
	return out, nil
}

func parseAmount(field, raw string) (*big.Int, error) {
	if raw == "" {
		return new(big.Int), nil
	}
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%s: invalid amount %q", field, raw)
	}
	return v, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
