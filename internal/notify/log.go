package notify

import (
	"context"
	"log/slog"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/middleware"
)

// LogSink writes ledger events to the request logger. It never fails.
type LogSink struct{}

func (LogSink) Notify(ctx context.Context, event domain.LedgerEvent) error {
	middleware.GetLoggerFromCtx(ctx).Info("Ledger event",
		slog.String("event", string(event.Type)),
		slog.String("aggregate_id", event.AggregateID),
		slog.String("actor_id", event.ActorID),
		slog.Any("properties", event.Properties),
	)
	return nil
}
