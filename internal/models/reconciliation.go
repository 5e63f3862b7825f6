package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction is a row of the bank_transactions table.
type BankTransaction struct {
	TransactionID   string          `db:"transaction_id"`
	StatementID     string          `db:"statement_id"`
	TransactionDate time.Time       `db:"transaction_date"`
	Amount          decimal.Decimal `db:"amount"`
	Description     string          `db:"description"`
	Reference       string          `db:"reference"`
	IsMatched       bool            `db:"is_matched"`
	ImportedAt      time.Time       `db:"imported_at"`
	ImportedBy      string          `db:"imported_by"`
}

// MatchRecord is a row of the match_records table.
type MatchRecord struct {
	MatchID           string    `db:"match_id"`
	BankTransactionID string    `db:"bank_transaction_id"`
	JournalEntryID    string    `db:"journal_entry_id"`
	MatchType         string    `db:"match_type"`
	ConfidenceScore   float64   `db:"confidence_score"`
	MatchedAt         time.Time `db:"matched_at"`
	MatchedBy         string    `db:"matched_by"`
	Notes             string    `db:"notes"`
}
