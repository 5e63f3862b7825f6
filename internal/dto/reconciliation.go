package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransactionRequest is one statement line as delivered by an ingestion feed.
type BankTransactionRequest struct {
	TransactionDate time.Time       `json:"transactionDate" binding:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description" binding:"max=500"`
	Reference       string          `json:"reference" binding:"max=200"`
}

// ImportTransactionsRequest carries a batch of statement lines.
type ImportTransactionsRequest struct {
	Transactions []BankTransactionRequest `json:"transactions" binding:"required,min=1,dive"`
}

// AutoCommitRequest configures an auto-commit run.
type AutoCommitRequest struct {
	StatementID string   `json:"statementID"`                                         // Empty means every statement with unmatched lines
	Threshold   *float64 `json:"threshold,omitempty" binding:"omitempty,gte=0,lte=1"` // Nil means the configured threshold
}

// ManualMatchRequest links a bank transaction to a journal entry by hand.
type ManualMatchRequest struct {
	BankTransactionID string `json:"bankTransactionID" binding:"required"`
	JournalEntryID    string `json:"journalEntryID" binding:"required"`
	Notes             string `json:"notes" binding:"max=500"`
}
