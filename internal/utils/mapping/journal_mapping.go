package mapping

import (
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/models"
)

// ToModelJournalEntry converts a domain JournalEntry header to a model JournalEntry
func ToModelJournalEntry(d domain.JournalEntry) models.JournalEntry {
	return models.JournalEntry{
		EntryID:           d.EntryID,
		EntryNumber:       d.EntryNumber,
		EntryDate:         d.EntryDate,
		PeriodID:          d.PeriodID,
		Description:       d.Description,
		Reference:         d.Reference,
		Status:            string(d.Status),
		Source:            string(d.Source),
		ReversesEntryID:   nullable(d.ReversesEntryID),
		ReversedByEntryID: nullable(d.ReversedByEntryID),
		PostedAt:          d.PostedAt,
		PostedBy:          nullable(d.PostedBy),
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainJournalEntry converts a model JournalEntry to a domain JournalEntry without lines
func ToDomainJournalEntry(m models.JournalEntry) domain.JournalEntry {
	return domain.JournalEntry{
		EntryID:           m.EntryID,
		EntryNumber:       m.EntryNumber,
		EntryDate:         m.EntryDate,
		PeriodID:          m.PeriodID,
		Description:       m.Description,
		Reference:         m.Reference,
		Status:            domain.EntryStatus(m.Status),
		Source:            domain.EntrySource(m.Source),
		ReversesEntryID:   deref(m.ReversesEntryID),
		ReversedByEntryID: deref(m.ReversedByEntryID),
		PostedAt:          m.PostedAt,
		PostedBy:          deref(m.PostedBy),
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelJournalLine converts a domain JournalLine to a model JournalLine
func ToModelJournalLine(d domain.JournalLine) models.JournalLine {
	return models.JournalLine{
		LineID:       d.LineID,
		EntryID:      d.EntryID,
		LineNo:       d.LineNo,
		AccountID:    d.AccountID,
		DebitAmount:  d.DebitAmount,
		CreditAmount: d.CreditAmount,
		Memo:         d.Memo,
	}
}

// ToDomainJournalLine converts a model JournalLine to a domain JournalLine
func ToDomainJournalLine(m models.JournalLine) domain.JournalLine {
	return domain.JournalLine{
		LineID:       m.LineID,
		EntryID:      m.EntryID,
		LineNo:       m.LineNo,
		AccountID:    m.AccountID,
		DebitAmount:  m.DebitAmount,
		CreditAmount: m.CreditAmount,
		Memo:         m.Memo,
	}
}
