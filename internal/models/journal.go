package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is a row of the journal_entries table.
type JournalEntry struct {
	EntryID           string     `db:"entry_id"`
	EntryNumber       int64      `db:"entry_number"` // 0 while draft
	EntryDate         time.Time  `db:"entry_date"`
	PeriodID          string     `db:"period_id"`
	Description       string     `db:"description"`
	Reference         string     `db:"reference"`
	Status            string     `db:"status"`
	Source            string     `db:"source"`
	ReversesEntryID   *string    `db:"reverses_entry_id"`
	ReversedByEntryID *string    `db:"reversed_by_entry_id"`
	PostedAt          *time.Time `db:"posted_at"`
	PostedBy          *string    `db:"posted_by"`
	AuditFields
}

// JournalLine is a row of the journal_lines table.
type JournalLine struct {
	LineID       string          `db:"line_id"`
	EntryID      string          `db:"entry_id"`
	LineNo       int             `db:"line_no"`
	AccountID    string          `db:"account_id"`
	DebitAmount  decimal.Decimal `db:"debit_amount"`
	CreditAmount decimal.Decimal `db:"credit_amount"`
	Memo         string          `db:"memo"`
}
