package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankTransaction is one imported statement line.
type BankTransaction struct {
	TransactionID   string          `json:"transactionID"` // Primary Key (UUID)
	StatementID     string          `json:"statementID"`   // Groups lines of one import
	TransactionDate time.Time       `json:"transactionDate"`
	Amount          decimal.Decimal `json:"amount"` // Signed; negative is money out
	Description     string          `json:"description"`
	Reference       string          `json:"reference"`
	IsMatched       bool            `json:"isMatched"`
	ImportedAt      time.Time       `json:"importedAt"`
	ImportedBy      string          `json:"importedBy"`
}

// MatchType says how a match came to be.
type MatchType string

const (
	MatchAuto      MatchType = "AUTO"
	MatchManual    MatchType = "MANUAL"
	MatchSuggested MatchType = "SUGGESTED"
)

// MatchRecord links a bank transaction to a journal entry.
type MatchRecord struct {
	MatchID           string    `json:"matchID"` // Primary Key (UUID)
	BankTransactionID string    `json:"bankTransactionID"`
	JournalEntryID    string    `json:"journalEntryID"`
	MatchType         MatchType `json:"matchType"`
	ConfidenceScore   float64   `json:"confidenceScore"` // 0..1
	MatchedAt         time.Time `json:"matchedAt"`
	MatchedBy         string    `json:"matchedBy"`
	Notes             string    `json:"notes,omitempty"`
}

// ScoreBreakdown holds the per-signal scores behind a confidence value.
type ScoreBreakdown struct {
	Amount      float64 `json:"amount"`
	Date        float64 `json:"date"`
	Description float64 `json:"description"`
}

// MatchSuggestion is a scored candidate pairing.
type MatchSuggestion struct {
	BankTransactionID string         `json:"bankTransactionID"`
	JournalEntryID    string         `json:"journalEntryID"`
	Confidence        float64        `json:"confidence"`
	Breakdown         ScoreBreakdown `json:"breakdown"`
	MatchType         MatchType      `json:"matchType"`
}

// AutoMatchResult is the outcome of an auto-commit run.
type AutoMatchResult struct {
	Committed     []MatchRecord     `json:"committed"`
	PendingReview []MatchSuggestion `json:"pendingReview"`
	Unmatched     []string          `json:"unmatched"` // Bank transaction IDs with no candidate at all
}
