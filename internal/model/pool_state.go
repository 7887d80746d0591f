package model

// PoolState is a persisted snapshot of a simulated pool and both asset
// ledgers. Amounts are decimal strings keyed by hex address.
type PoolState struct {
	ChainID          uint64            `json:"chain_id"`
	Address          string            `json:"address"`
	FeeBps           uint32            `json:"fee_bps"`
	MinimumLiquidity string            `json:"minimum_liquidity"`
	LockAddress      string            `json:"lock_address"`
	Reserve0         string            `json:"reserve0"`
	Reserve1         string            `json:"reserve1"`
	TotalShares      string            `json:"total_shares"`
	Shares           map[string]string `json:"shares"`
	LastSeq          uint64            `json:"last_seq"`
	LastBlock        uint64            `json:"last_block"`
	LastTimestamp    uint64            `json:"last_timestamp"`
	Token0           LedgerState       `json:"token0"`
	Token1           LedgerState       `json:"token1"`
	UpdatedAt        string            `json:"updated_at"`
}

// LedgerState is the books of one asset ledger.
type LedgerState struct {
	Address    string                       `json:"address"`
	Name       string                       `json:"name"`
	Symbol     string                       `json:"symbol"`
	Supply     string                       `json:"supply"`
	Balances   map[string]string            `json:"balances"`
	Allowances map[string]map[string]string `json:"allowances,omitempty"`
	Native     map[string]string            `json:"native,omitempty"`
}
