package model

import (
	"fmt"
	"time"
)

// TransactionType transaction type
type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
)

// Transaction is one transfer touching the session identity: a deposit
// landing, a sweep leaving, or a challenge settlement.
type Transaction struct {
	Type      TransactionType `json:"type"`
	TxID      string          `json:"txId"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    string          `json:"amount"`
	Currency  string          `json:"currency"` // "USDC" or "SOL"
	FeeSOL    string          `json:"feeSOL"`   // SOL the session paid as fee
	Timestamp time.Time       `json:"timestamp"`
	Slot      int64           `json:"slot"`
	Status    string          `json:"status"`
}

// TransactionsResponse represents response for GET /session/transactions
type TransactionsResponse struct {
	Address         string        `json:"address"`
	TotalIncomeUSDC string        `json:"total_income_USDC"` // USDC only
	TotalSpentUSDC  string        `json:"total_spent_USDC"`  // USDC only
	Transactions    []Transaction `json:"transactions"`
}

// TransactionFilter represents query parameters for GET /session/transactions
type TransactionFilter struct {
	Type     *TransactionType
	TxID     *string
	Currency *string // "USDC" or "SOL"
	From     *time.Time
	To       *time.Time
}

// Validate validates the filter parameters.
func (f *TransactionFilter) Validate() error {
	if f.Type != nil && *f.Type != TransactionTypeDebit && *f.Type != TransactionTypeCredit {
		return fmt.Errorf("type must be DEBIT or CREDIT")
	}
	if f.Currency != nil && *f.Currency != "USDC" && *f.Currency != "SOL" {
		return fmt.Errorf("currency must be USDC or SOL")
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return fmt.Errorf("to date must be after or equal to from date")
	}
	return nil
}

// Matches reports whether tx passes the filter.
func (f *TransactionFilter) Matches(tx Transaction) bool {
	if f.Type != nil && *f.Type != tx.Type {
		return false
	}
	if f.TxID != nil && *f.TxID != tx.TxID {
		return false
	}
	if f.Currency != nil && *f.Currency != tx.Currency {
		return false
	}
	if f.From != nil && tx.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && tx.Timestamp.After(*f.To) {
		return false
	}
	return true
}
