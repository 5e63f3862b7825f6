package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	Notifier   portssvc.Notifier
	Authorizer portssvc.PostingAuthorizer
	Now        func() time.Time
}

// ServiceOption is a functional option for configuring a service
type ServiceOption func(*BaseService)

// WithNotifier sets the sink that receives events after commit.
func WithNotifier(n portssvc.Notifier) ServiceOption {
	return func(b *BaseService) {
		b.Notifier = n
	}
}

// WithPostingAuthorizer sets the collaborator consulted before posting.
func WithPostingAuthorizer(a portssvc.PostingAuthorizer) ServiceOption {
	return func(b *BaseService) {
		b.Authorizer = a
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(b *BaseService) {
		b.Now = now
	}
}

func newBaseService(options ...ServiceOption) BaseService {
	b := BaseService{Now: func() time.Time { return time.Now().UTC() }}
	for _, option := range options {
		option(&b)
	}
	return b
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// MayPost asks the authorization collaborator whether actorID may post into period.
func (s *BaseService) MayPost(ctx context.Context, actorID string, period domain.FiscalPeriod) (bool, error) {
	if s.Authorizer != nil {
		return s.Authorizer.MayPost(ctx, actorID, period)
	}
	s.LogDebug(ctx, "No posting authorizer provided, posting allowed by default",
		slog.String("actor_id", actorID),
		slog.String("period_id", period.PeriodID))
	return true, nil
}

// Emit hands an event to the notifier. Delivery failures are logged and otherwise ignored.
func (s *BaseService) Emit(ctx context.Context, eventType domain.EventType, aggregateID, actorID string, props map[string]any) {
	if s.Notifier == nil {
		return
	}
	event := domain.LedgerEvent{
		Type:        eventType,
		AggregateID: aggregateID,
		ActorID:     actorID,
		OccurredAt:  s.Now(),
		Properties:  props,
	}
	if err := s.Notifier.Notify(ctx, event); err != nil {
		s.LogError(ctx, err, "Failed to deliver ledger event",
			slog.String("event", string(eventType)),
			slog.String("aggregate_id", aggregateID))
	}
}
