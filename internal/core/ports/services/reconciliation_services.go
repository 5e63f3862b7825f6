package services

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
)

// ReconciliationSvcFacade pairs bank statement lines with posted entries.
type ReconciliationSvcFacade interface {
	ImportTransactions(ctx context.Context, statementID string, req dto.ImportTransactionsRequest, actorID string) ([]domain.BankTransaction, error)

	// SuggestMatches scores every unmatched line of the statement, best first.
	SuggestMatches(ctx context.Context, statementID string) ([]domain.MatchSuggestion, error)

	// SuggestForStatements runs SuggestMatches for several statements in parallel.
	SuggestForStatements(ctx context.Context, statementIDs []string) (map[string][]domain.MatchSuggestion, error)

	AutoCommit(ctx context.Context, req dto.AutoCommitRequest, actorID string) (*domain.AutoMatchResult, error)
	ManualMatch(ctx context.Context, req dto.ManualMatchRequest, actorID string) (*domain.MatchRecord, error)
	Unmatch(ctx context.Context, matchID string, actorID string) error
}
