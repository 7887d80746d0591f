package model

// PoolMeta captures immutable pool metadata plus the reserves right after
// the event it is attached to.
type PoolMeta struct {
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	FeeBps      uint32 `json:"fee_bps"`
	Reserve0    string `json:"reserve0,omitempty"`
	Reserve1    string `json:"reserve1,omitempty"`
	TotalSupply string `json:"total_supply,omitempty"`
}

// HasReserves reports whether post-event reserves are attached.
func (m PoolMeta) HasReserves() bool {
	return m.Reserve0 != "" && m.Reserve1 != ""
}

// TokenMeta captures ERC20 metadata of a pool asset.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}
