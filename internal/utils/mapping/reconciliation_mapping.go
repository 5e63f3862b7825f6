package mapping

import (
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/models"
)

// ToModelBankTransaction converts a domain BankTransaction to a model BankTransaction
func ToModelBankTransaction(d domain.BankTransaction) models.BankTransaction {
	return models.BankTransaction{
		TransactionID:   d.TransactionID,
		StatementID:     d.StatementID,
		TransactionDate: d.TransactionDate,
		Amount:          d.Amount,
		Description:     d.Description,
		Reference:       d.Reference,
		IsMatched:       d.IsMatched,
		ImportedAt:      d.ImportedAt,
		ImportedBy:      d.ImportedBy,
	}
}

// ToDomainBankTransaction converts a model BankTransaction to a domain BankTransaction
func ToDomainBankTransaction(m models.BankTransaction) domain.BankTransaction {
	return domain.BankTransaction{
		TransactionID:   m.TransactionID,
		StatementID:     m.StatementID,
		TransactionDate: domain.DateOnly(m.TransactionDate),
		Amount:          m.Amount,
		Description:     m.Description,
		Reference:       m.Reference,
		IsMatched:       m.IsMatched,
		ImportedAt:      m.ImportedAt,
		ImportedBy:      m.ImportedBy,
	}
}

// ToModelMatchRecord converts a domain MatchRecord to a model MatchRecord
func ToModelMatchRecord(d domain.MatchRecord) models.MatchRecord {
	return models.MatchRecord{
		MatchID:           d.MatchID,
		BankTransactionID: d.BankTransactionID,
		JournalEntryID:    d.JournalEntryID,
		MatchType:         string(d.MatchType),
		ConfidenceScore:   d.ConfidenceScore,
		MatchedAt:         d.MatchedAt,
		MatchedBy:         d.MatchedBy,
		Notes:             d.Notes,
	}
}

// ToDomainMatchRecord converts a model MatchRecord to a domain MatchRecord
func ToDomainMatchRecord(m models.MatchRecord) domain.MatchRecord {
	return domain.MatchRecord{
		MatchID:           m.MatchID,
		BankTransactionID: m.BankTransactionID,
		JournalEntryID:    m.JournalEntryID,
		MatchType:         domain.MatchType(m.MatchType),
		ConfidenceScore:   m.ConfidenceScore,
		MatchedAt:         m.MatchedAt,
		MatchedBy:         m.MatchedBy,
		Notes:             m.Notes,
	}
}
