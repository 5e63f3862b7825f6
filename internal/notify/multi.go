package notify

import (
	"context"
	"errors"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
)

// Multi fans an event out to every sink and joins their errors.
type Multi []portssvc.Notifier

func (m Multi) Notify(ctx context.Context, event domain.LedgerEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ portssvc.Notifier = Multi(nil)
	_ portssvc.Notifier = LogSink{}
	_ portssvc.Notifier = (*PosthogSink)(nil)
)
