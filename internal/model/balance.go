package model

import "time"

// BalanceSnapshot is one observation of the session wallet's holdings.
// Snapshots are immutable; each refresh produces a new one.
type BalanceSnapshot struct {
	NativeLamports uint64    `json:"nativeLamports"`
	TokenMicro     uint64    `json:"tokenMicro"`
	ObservedAt     time.Time `json:"observedAt"`
}

// BalanceResponse represents response for GET /session/balance
type BalanceResponse struct {
	Address    string    `json:"address"`
	SOL        string    `json:"sol"`
	USDC       string    `json:"usdc"`
	SOLUSD     string    `json:"solUsd,omitempty"` // approximate, display only
	ObservedAt time.Time `json:"observedAt"`
}
