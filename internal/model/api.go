package model

// DepositRequest represents request for POST /session/deposit.
// Amounts are decimal strings in display units ("0.02" SOL, "5" USDC).
type DepositRequest struct {
	SOL  string `json:"sol"`
	USDC string `json:"usdc"`
}

// TxResponse represents response for POST /session/deposit and /session/withdraw
type TxResponse struct {
	TxID string `json:"txId"`
}

// PlayRequest represents request for POST /play
type PlayRequest struct {
	GameID string `json:"gameId"`
}

// ResetResponse represents response for POST /session/reset
type ResetResponse struct {
	Address string `json:"address"`
}
