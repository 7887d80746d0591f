package model

// Operation names accepted in a simulation script.
const (
	OpFund         = "fund"
	OpApprove      = "approve"
	OpDeposit      = "deposit"
	OpWithdraw     = "withdraw"
	OpAdd          = "add"
	OpRemove       = "remove"
	OpSwap         = "swap"
	OpSwapExactOut = "swap_exact_out"
	OpTransfer     = "transfer"
	OpSkim         = "skim"
)

// OpRecord is one line of a simulation script. Token selects an asset by
// address or by the aliases "token0"/"token1"; To is an address or "pool";
// Amount, Amount0, Amount1, Shares and Limit are decimal strings.
type OpRecord struct {
	Op        string `json:"op"`
	Account   string `json:"account"`
	Token     string `json:"token,omitempty"`
	To        string `json:"to,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Amount0   string `json:"amount0,omitempty"`
	Amount1   string `json:"amount1,omitempty"`
	Shares    string `json:"shares,omitempty"`
	Limit     string `json:"limit,omitempty"`
	Timestamp uint64 `json:"timestamp,omitempty"`
}

// OpError records a script line the pool or a ledger rejected.
type OpError struct {
	Line    int    `json:"line"`
	Op      string `json:"op"`
	Account string `json:"account"`
	Kind    string `json:"kind"`
	Error   string `json:"error"`
}
