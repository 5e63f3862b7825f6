package notify

import (
	"context"
	"log/slog"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/middleware"
)

// UnmatchedLog reports bank transactions that have no candidate entry. Each one is logged and,
// when a usage sink is configured, enqueued as a "bank_transaction_unmatched" event.
type UnmatchedLog struct {
	Usage middleware.EventEnqueuer // Optional
}

func (u UnmatchedLog) HandleUnmatched(ctx context.Context, txns []domain.BankTransaction) {
	logger := middleware.GetLoggerFromCtx(ctx)
	for _, t := range txns {
		logger.Warn("Bank transaction has no matching entry",
			slog.String("transaction_id", t.TransactionID),
			slog.String("statement_id", t.StatementID),
			slog.String("amount", t.Amount.String()),
			slog.String("date", t.TransactionDate.Format("2006-01-02")),
		)
		if u.Usage == nil || !u.Usage.IsInitialized() {
			continue
		}
		props := map[string]any{
			"statement_id": t.StatementID,
			"amount":       t.Amount.String(),
			"reference":    t.Reference,
		}
		if err := u.Usage.Enqueue(t.ImportedBy, "bank_transaction_unmatched", props); err != nil {
			logger.Warn("Failed to enqueue unmatched event", slog.String("error", err.Error()))
		}
	}
}
