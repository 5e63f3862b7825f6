package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

type periodRepository struct {
	h handle
}

var _ portsrepo.PeriodRepositoryFacade = (*periodRepository)(nil)

func (r *periodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.FiscalPeriod, error) {
	var out domain.FiscalPeriod
	err := r.h.read(func(st *state) error {
		p, ok := st.periods[periodID]
		if !ok {
			return fmt.Errorf("fiscal period %s: %w", periodID, apperrors.ErrNotFound)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LockPeriod needs no extra locking here: units of work are already serialized.
func (r *periodRepository) LockPeriod(ctx context.Context, periodID string) (*domain.FiscalPeriod, error) {
	return r.FindPeriodByID(ctx, periodID)
}

func (r *periodRepository) FindPeriodByDate(ctx context.Context, date time.Time) (*domain.FiscalPeriod, error) {
	var out *domain.FiscalPeriod
	err := r.h.read(func(st *state) error {
		for _, p := range st.periods {
			if p.Contains(date) {
				found := p
				out = &found
				return nil
			}
		}
		return fmt.Errorf("fiscal period for %s: %w", date.Format(time.DateOnly), apperrors.ErrNotFound)
	})
	return out, err
}

func (r *periodRepository) ListPeriods(ctx context.Context) ([]domain.FiscalPeriod, error) {
	var out []domain.FiscalPeriod
	err := r.h.read(func(st *state) error {
		for _, p := range st.periods {
			out = append(out, p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, err
}

func (r *periodRepository) SavePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.periods[period.PeriodID]; ok {
			return fmt.Errorf("fiscal period %s: %w", period.PeriodID, apperrors.ErrDuplicate)
		}
		for _, p := range st.periods {
			if p.Overlaps(period) {
				return fmt.Errorf("fiscal period overlaps %s: %w", p.Name, apperrors.ErrConflict)
			}
		}
		st.periods[period.PeriodID] = period
		return nil
	})
}

func (r *periodRepository) UpdatePeriodStatus(ctx context.Context, periodID string, from, to domain.PeriodStatus, at time.Time, actorID string) error {
	return r.h.write(func(st *state) error {
		p, ok := st.periods[periodID]
		if !ok {
			return fmt.Errorf("fiscal period %s: %w", periodID, apperrors.ErrNotFound)
		}
		if p.Status != from {
			return fmt.Errorf("fiscal period %s is %s, not %s: %w", periodID, p.Status, from, apperrors.ErrInvalidTransition)
		}
		p.Status = to
		p.LastUpdatedAt = at
		p.LastUpdatedBy = actorID
		if to == domain.PeriodClosed {
			p.ClosedAt = &at
			p.ClosedBy = actorID
		}
		st.periods[periodID] = p
		return nil
	})
}

func (r *periodRepository) NextEntryNumber(ctx context.Context, periodID string) (int64, error) {
	var next int64
	err := r.h.write(func(st *state) error {
		p, ok := st.periods[periodID]
		if !ok {
			return fmt.Errorf("fiscal period %s: %w", periodID, apperrors.ErrNotFound)
		}
		p.LastEntryNumber++
		next = p.LastEntryNumber
		st.periods[periodID] = p
		return nil
	})
	return next, err
}

func (r *periodRepository) SetCarryForwardEntry(ctx context.Context, periodID string, entryID string) error {
	return r.h.write(func(st *state) error {
		p, ok := st.periods[periodID]
		if !ok {
			return fmt.Errorf("fiscal period %s: %w", periodID, apperrors.ErrNotFound)
		}
		if p.CarryForwardEntryID != "" {
			return fmt.Errorf("fiscal period %s already has opening balances: %w", periodID, apperrors.ErrDuplicate)
		}
		p.CarryForwardEntryID = entryID
		st.periods[periodID] = p
		return nil
	})
}

func (r *periodRepository) SaveSnapshots(ctx context.Context, snapshots []domain.ClosingSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return r.h.write(func(st *state) error {
		periodID := snapshots[0].PeriodID
		if len(st.snapshots[periodID]) > 0 {
			return fmt.Errorf("closing snapshots for %s: %w", periodID, apperrors.ErrDuplicate)
		}
		set := make([]domain.ClosingSnapshot, len(snapshots))
		copy(set, snapshots)
		st.snapshots[periodID] = set
		return nil
	})
}

func (r *periodRepository) ListSnapshots(ctx context.Context, periodID string) ([]domain.ClosingSnapshot, error) {
	var out []domain.ClosingSnapshot
	err := r.h.read(func(st *state) error {
		out = append(out, st.snapshots[periodID]...)
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, err
}
