package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// PeriodReader defines read operations for fiscal periods
type PeriodReader interface {
	FindPeriodByID(ctx context.Context, periodID string) (*domain.FiscalPeriod, error)

	// FindPeriodByDate returns the period containing date, or apperrors.ErrNotFound.
	FindPeriodByDate(ctx context.Context, date time.Time) (*domain.FiscalPeriod, error)

	// ListPeriods returns all periods ordered by start date.
	ListPeriods(ctx context.Context) ([]domain.FiscalPeriod, error)

	// LockPeriod reads a period and holds it exclusively until the surrounding transaction ends.
	LockPeriod(ctx context.Context, periodID string) (*domain.FiscalPeriod, error)
}

// PeriodWriter defines write operations for fiscal periods
type PeriodWriter interface {
	SavePeriod(ctx context.Context, period domain.FiscalPeriod) error

	// UpdatePeriodStatus moves a period from one status to another. If the stored status is not
	// from, apperrors.ErrInvalidTransition is returned.
	UpdatePeriodStatus(ctx context.Context, periodID string, from, to domain.PeriodStatus, at time.Time, actorID string) error

	// NextEntryNumber atomically increments and returns the period's entry counter.
	NextEntryNumber(ctx context.Context, periodID string) (int64, error)

	// SetCarryForwardEntry links the opening balances entry to the period.
	SetCarryForwardEntry(ctx context.Context, periodID string, entryID string) error
}

// SnapshotRepository stores closing snapshots.
type SnapshotRepository interface {
	// SaveSnapshots persists snapshots. A second set for the same period yields apperrors.ErrDuplicate.
	SaveSnapshots(ctx context.Context, snapshots []domain.ClosingSnapshot) error

	ListSnapshots(ctx context.Context, periodID string) ([]domain.ClosingSnapshot, error)
}

// PeriodRepositoryFacade combines all period-related repository interfaces
type PeriodRepositoryFacade interface {
	PeriodReader
	PeriodWriter
	SnapshotRepository
}
