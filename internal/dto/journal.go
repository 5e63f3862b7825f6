package dto

import (
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LineRequest is one debit or credit line of an entry request.
type LineRequest struct {
	AccountID    string          `json:"accountID" binding:"required"`
	DebitAmount  decimal.Decimal `json:"debitAmount" binding:"gte=0"`
	CreditAmount decimal.Decimal `json:"creditAmount" binding:"gte=0"`
	Memo         string          `json:"memo" binding:"max=500"`
}

// CreateEntryRequest defines the data needed to create (or replace) a draft entry.
type CreateEntryRequest struct {
	EntryDate   time.Time     `json:"entryDate" binding:"required"`
	Description string        `json:"description" binding:"max=500"`
	Reference   string        `json:"reference" binding:"max=100"`
	Lines       []LineRequest `json:"lines" binding:"required,min=1,dive"`
	Post        bool          `json:"post"` // Post immediately after creating the draft
}

// ReverseEntryRequest defines the data needed to reverse a posted entry.
type ReverseEntryRequest struct {
	Reason       string     `json:"reason" binding:"required,max=500"`
	ReversalDate *time.Time `json:"reversalDate"` // Defaults to the original entry date
}

// ListEntriesParams defines query parameters for listing entries.
type ListEntriesParams struct {
	PeriodID  string             `form:"periodID"`
	Status    domain.EntryStatus `form:"status" binding:"omitempty,oneof=DRAFT POSTED REVERSED"`
	Limit     int                `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string            `form:"nextToken"`
}

// LineResponse defines the data returned for a journal line.
type LineResponse struct {
	LineID       string          `json:"lineID"`
	LineNo       int             `json:"lineNo"`
	AccountID    string          `json:"accountID"`
	DebitAmount  decimal.Decimal `json:"debitAmount"`
	CreditAmount decimal.Decimal `json:"creditAmount"`
	Memo         string          `json:"memo,omitempty"`
}

// EntryResponse defines the data returned for a journal entry.
type EntryResponse struct {
	EntryID           string             `json:"entryID"`
	EntryNumber       int64              `json:"entryNumber"`
	EntryDate         time.Time          `json:"entryDate"`
	PeriodID          string             `json:"periodID"`
	Description       string             `json:"description"`
	Reference         string             `json:"reference,omitempty"`
	Status            domain.EntryStatus `json:"status"`
	Source            domain.EntrySource `json:"source"`
	ReversesEntryID   string             `json:"reversesEntryID,omitempty"`
	ReversedByEntryID string             `json:"reversedByEntryID,omitempty"`
	PostedAt          *time.Time         `json:"postedAt,omitempty"`
	PostedBy          string             `json:"postedBy,omitempty"`
	TotalDebit        decimal.Decimal    `json:"totalDebit"`
	TotalCredit       decimal.Decimal    `json:"totalCredit"`
	Lines             []LineResponse     `json:"lines,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	CreatedBy         string             `json:"createdBy"`
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToEntryResponse converts a domain.JournalEntry to EntryResponse DTO.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	debit, credit := e.Totals()
	lines := make([]LineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = LineResponse{
			LineID:       l.LineID,
			LineNo:       l.LineNo,
			AccountID:    l.AccountID,
			DebitAmount:  l.DebitAmount,
			CreditAmount: l.CreditAmount,
			Memo:         l.Memo,
		}
	}
	return EntryResponse{
		EntryID:           e.EntryID,
		EntryNumber:       e.EntryNumber,
		EntryDate:         e.EntryDate,
		PeriodID:          e.PeriodID,
		Description:       e.Description,
		Reference:         e.Reference,
		Status:            e.Status,
		Source:            e.Source,
		ReversesEntryID:   e.ReversesEntryID,
		ReversedByEntryID: e.ReversedByEntryID,
		PostedAt:          e.PostedAt,
		PostedBy:          e.PostedBy,
		TotalDebit:        debit,
		TotalCredit:       credit,
		Lines:             lines,
		CreatedAt:         e.CreatedAt,
		CreatedBy:         e.CreatedBy,
	}
}

// ToListEntriesResponse converts a page of entries.
func ToListEntriesResponse(entries []domain.JournalEntry, nextToken *string) ListEntriesResponse {
	res := ListEntriesResponse{Entries: make([]EntryResponse, len(entries)), NextToken: nextToken}
	for i := range entries {
		res.Entries[i] = ToEntryResponse(&entries[i])
	}
	return res
}
