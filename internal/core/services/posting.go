package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_core/internal/utils/accounting"
)

// postMode distinguishes user postings from entries the ledger generates itself.
type postMode int

const (
	postUser   postMode = iota // period must be Open, authorizer consulted
	postSystem                 // closing and carry-forward entries; a Closing period is accepted
)

// checkPostable verifies every line references an active detail account. System postings may
// also use inactive detail accounts, which still carry balances forward and close to retained
// earnings.
func checkPostable(ctx context.Context, reader portsrepo.AccountReader, lines []domain.JournalLine, mode postMode) error {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.AccountID)
	}
	accounts, err := reader.FindAccountsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, l := range lines {
		acc, ok := accounts[l.AccountID]
		if !ok {
			return fmt.Errorf("%w: account %s does not exist", apperrors.ErrNotPostable, l.AccountID)
		}
		if mode == postSystem && acc.Kind == domain.Detail {
			continue
		}
		if !acc.IsPostable() {
			return fmt.Errorf("%w: %s", apperrors.ErrNotPostable, acc.Code)
		}
	}
	return nil
}

// periodFor resolves the period covering date.
func periodFor(ctx context.Context, reader portsrepo.PeriodReader, date time.Time) (*domain.FiscalPeriod, error) {
	period, err := reader.FindPeriodByDate(ctx, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrNoPeriod, date.Format("2006-01-02"))
		}
		return nil, err
	}
	return period, nil
}

// postInTx moves a stored draft to Posted inside the caller's unit of work. The entry and period
// rows are locked, the balance and account checks are repeated against the state inside the
// transaction, and the entry number comes from the period's atomic counter.
func (s *BaseService) postInTx(ctx context.Context, tx portsrepo.RepositoryProvider, entryID, actorID string, mode postMode) (*domain.JournalEntry, error) {
	entry, err := tx.JournalRepo.LockEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.Draft {
		return nil, fmt.Errorf("entry %s is %s: %w", entryID, entry.Status, apperrors.ErrInvalidTransition)
	}

	period, err := tx.PeriodRepo.LockPeriod(ctx, entry.PeriodID)
	if err != nil {
		return nil, err
	}
	switch {
	case period.Status == domain.PeriodOpen:
	case period.Status == domain.PeriodClosing && mode == postSystem:
	default:
		return nil, fmt.Errorf("%w: %s is %s", apperrors.ErrPeriodClosed, period.Name, period.Status)
	}
	if !period.Contains(entry.EntryDate) {
		return nil, fmt.Errorf("%w: entry date outside %s", apperrors.ErrNoPeriod, period.Name)
	}

	if mode == postUser {
		allowed, err := s.MayPost(ctx, actorID, *period)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s may not post to %s", apperrors.ErrForbidden, actorID, period.Name)
		}
	}

	if err := accounting.ValidateBalance(entry.Lines); err != nil {
		return nil, fmt.Errorf("%w: entry %s: %v", apperrors.ErrBalanceInvariant, entryID, err)
	}
	if err := checkPostable(ctx, tx.AccountRepo, entry.Lines, mode); err != nil {
		return nil, err
	}

	number, err := tx.PeriodRepo.NextEntryNumber(ctx, period.PeriodID)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	if err := tx.JournalRepo.MarkPosted(ctx, entryID, number, now, actorID); err != nil {
		return nil, err
	}

	entry.Status = domain.Posted
	entry.EntryNumber = number
	entry.PostedAt = &now
	entry.PostedBy = actorID
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = actorID
	return entry, nil
}

// saveAndPost stores a generated entry and posts it in the same unit of work.
func (s *BaseService) saveAndPost(ctx context.Context, tx portsrepo.RepositoryProvider, entry domain.JournalEntry, actorID string, mode postMode) (*domain.JournalEntry, error) {
	if err := tx.JournalRepo.SaveEntry(ctx, entry); err != nil {
		return nil, err
	}
	return s.postInTx(ctx, tx, entry.EntryID, actorID, mode)
}
