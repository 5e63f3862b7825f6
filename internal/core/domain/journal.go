package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the lifecycle state of a journal entry.
type EntryStatus string

const (
	Draft    EntryStatus = "DRAFT"
	Posted   EntryStatus = "POSTED"
	Reversed EntryStatus = "REVERSED"
)

// AffectsLedger reports whether the entry's lines count toward balances.
// A reversed entry still counts; its reversal offsets it.
func (s EntryStatus) AffectsLedger() bool {
	return s == Posted || s == Reversed
}

// EntrySource records what produced an entry.
type EntrySource string

const (
	SourceManual       EntrySource = "MANUAL"
	SourceReversal     EntrySource = "REVERSAL"
	SourceClosing      EntrySource = "CLOSING"
	SourceCarryForward EntrySource = "CARRY_FORWARD"
)

// JournalLine is a single debit or credit against one account.
type JournalLine struct {
	LineID       string          `json:"lineID"`       // Primary Key (UUID)
	EntryID      string          `json:"entryID"`      // FK -> journal_entries.entry_id
	LineNo       int             `json:"lineNo"`       // 1-based position within the entry
	AccountID    string          `json:"accountID"`    // FK -> accounts.account_id
	DebitAmount  decimal.Decimal `json:"debitAmount"`  // Zero when the line is a credit
	CreditAmount decimal.Decimal `json:"creditAmount"` // Zero when the line is a debit
	Memo         string          `json:"memo"`
}

// Side returns the side carrying the non-zero amount.
func (l JournalLine) Side() EntrySide {
	if l.DebitAmount.IsPositive() {
		return Debit
	}
	return Credit
}

// Amount returns the non-zero amount of the line.
func (l JournalLine) Amount() decimal.Decimal {
	if l.DebitAmount.IsPositive() {
		return l.DebitAmount
	}
	return l.CreditAmount
}

// Swapped returns a copy of the line with its debit and credit exchanged.
func (l JournalLine) Swapped() JournalLine {
	l.DebitAmount, l.CreditAmount = l.CreditAmount, l.DebitAmount
	return l
}

// JournalEntry is a dated set of lines. Once posted, debits equal credits.
type JournalEntry struct {
	EntryID           string        `json:"entryID"`                     // Primary Key (UUID)
	EntryNumber       int64         `json:"entryNumber"`                 // Per-period sequence, zero while draft
	EntryDate         time.Time     `json:"entryDate"`                   // Calendar date of the event
	PeriodID          string        `json:"periodID"`                    // Period covering EntryDate
	Description       string        `json:"description"`                 // Free text
	Reference         string        `json:"reference"`                   // External document reference
	Status            EntryStatus   `json:"status"`                      // DRAFT, POSTED or REVERSED
	Source            EntrySource   `json:"source"`                      // MANUAL, REVERSAL, CLOSING, CARRY_FORWARD
	ReversesEntryID   string        `json:"reversesEntryID,omitempty"`   // Set on a reversal
	ReversedByEntryID string        `json:"reversedByEntryID,omitempty"` // Set on a reversed original
	PostedAt          *time.Time    `json:"postedAt,omitempty"`
	PostedBy          string        `json:"postedBy,omitempty"`
	Lines             []JournalLine `json:"lines"`
	AuditFields
}

// Totals returns the sum of debits and the sum of credits.
func (e JournalEntry) Totals() (debits, credits decimal.Decimal) {
	debits, credits = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debits = debits.Add(l.DebitAmount)
		credits = credits.Add(l.CreditAmount)
	}
	return debits, credits
}

// IsBalanced reports whether the entry has lines and debits equal credits.
func (e JournalEntry) IsBalanced() bool {
	if len(e.Lines) == 0 {
		return false
	}
	d, c := e.Totals()
	return d.Equal(c)
}

// Amount is the entry's total debit, used when comparing against bank amounts.
func (e JournalEntry) Amount() decimal.Decimal {
	d, _ := e.Totals()
	return d
}

// IsReversal reports whether the entry reverses another.
func (e JournalEntry) IsReversal() bool { return e.ReversesEntryID != "" }

// LedgerLine is a posted line joined with its entry header, as the projector folds it.
type LedgerLine struct {
	JournalLine
	EntryNumber int64       `json:"entryNumber"`
	EntryDate   time.Time   `json:"entryDate"`
	PeriodID    string      `json:"periodID"`
	Source      EntrySource `json:"source"`
	Description string      `json:"description"`
}

// EntryFilter narrows entry listings. Zero values are ignored.
type EntryFilter struct {
	PeriodID string
	Status   EntryStatus
	From     *time.Time
	To       *time.Time
}

// LineFilter narrows ledger line queries. Only lines of entries that affect the ledger are returned.
type LineFilter struct {
	AccountIDs     []string      // Empty means all accounts
	From           *time.Time    // Inclusive
	To             *time.Time    // Inclusive
	PeriodID       string        // Empty means all periods
	ExcludeSources []EntrySource // e.g. closing entries for the income statement
}
