package model

// MintEventData is the decoded Mint event payload.
type MintEventData struct {
	Sender  string `json:"sender"`
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
}

// BurnEventData is the decoded Burn event payload.
type BurnEventData struct {
	Sender  string `json:"sender"`
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
}

// SwapEventData is the decoded Swap event payload.
type SwapEventData struct {
	Sender    string `json:"sender"`
	AmountIn  string `json:"amount_in"`
	TokenIn   string `json:"token_in"`
	AmountOut string `json:"amount_out"`
	TokenOut  string `json:"token_out"`
}
