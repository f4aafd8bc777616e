package entities

import (
	"time"
)

// Wallet represents a player's credit balance
type Wallet struct {
	UserID      string    `json:"user_id"`      // Player ID from the account layer
	Balance     int64     `json:"balance"`      // Current balance in whole credits
	LastUpdated time.Time `json:"last_updated"` // When the wallet was last updated
}

// TransactionType represents the type of wallet transaction
type TransactionType string

const (
	TransactionTypeBet    TransactionType = "BET"
	TransactionTypePayout TransactionType = "PAYOUT"
)

// Transaction represents a single journal line against a wallet
type Transaction struct {
	ID           string          `json:"id"`            // Unique identifier
	UserID       string          `json:"user_id"`       // User associated with the transaction
	Amount       int64           `json:"amount"`        // Positive for credits, negative for debits
	Type         TransactionType `json:"type"`          // Type of transaction
	ReferenceID  string          `json:"reference_id"`  // Idempotency key of the wager
	Description  string          `json:"description"`   // Human-readable description
	Timestamp    time.Time       `json:"timestamp"`     // When the transaction occurred
	BalanceAfter int64           `json:"balance_after"` // Balance after this transaction
}
