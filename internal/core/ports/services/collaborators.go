package services

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// Notifier receives ledger events after commit. Errors are logged, never propagated.
type Notifier interface {
	Notify(ctx context.Context, event domain.LedgerEvent) error
}

// PostingAuthorizer decides whether an actor may post into a period.
type PostingAuthorizer interface {
	MayPost(ctx context.Context, actorID string, period domain.FiscalPeriod) (bool, error)
}

// UnmatchedHandler is told about bank transactions for which no candidate entry exists.
type UnmatchedHandler interface {
	HandleUnmatched(ctx context.Context, txns []domain.BankTransaction)
}
