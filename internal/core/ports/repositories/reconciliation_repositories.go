package repositories

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// BankTransactionRepository stores imported statement lines.
type BankTransactionRepository interface {
	SaveBankTransactions(ctx context.Context, txns []domain.BankTransaction) error
	FindBankTransactionByID(ctx context.Context, transactionID string) (*domain.BankTransaction, error)

	// ListBankTransactions lists a statement's lines ordered by date. unmatchedOnly skips matched lines.
	ListBankTransactions(ctx context.Context, statementID string, unmatchedOnly bool) ([]domain.BankTransaction, error)

	// ListStatementsWithUnmatched returns statement ids that still have unmatched lines.
	ListStatementsWithUnmatched(ctx context.Context) ([]string, error)
}

// MatchRepository stores active match records.
type MatchRepository interface {
	// SaveMatch persists a match and sets the transaction's matched flag. If either side already
	// has an active match, apperrors.ErrAlreadyMatched is returned and nothing is written.
	SaveMatch(ctx context.Context, match domain.MatchRecord) error

	FindMatchByID(ctx context.Context, matchID string) (*domain.MatchRecord, error)

	// DeleteMatch removes a match and clears the transaction's matched flag.
	DeleteMatch(ctx context.Context, matchID string) error

	// MatchedEntryIDs returns the journal entries that currently carry an active match.
	MatchedEntryIDs(ctx context.Context) (map[string]bool, error)
}

// ReconciliationRepositoryFacade combines all reconciliation-related repository interfaces
type ReconciliationRepositoryFacade interface {
	BankTransactionRepository
	MatchRepository
}
