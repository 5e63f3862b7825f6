package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_core/internal/utils/pagination"
)

type journalRepository struct {
	h handle
}

var _ portsrepo.JournalRepositoryFacade = (*journalRepository)(nil)

func copyEntry(e domain.JournalEntry, withLines bool) domain.JournalEntry {
	if withLines {
		e.Lines = slices.Clone(e.Lines)
	} else {
		e.Lines = nil
	}
	return e
}

func (r *journalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	var out domain.JournalEntry
	err := r.h.read(func(st *state) error {
		e, ok := st.entries[entryID]
		if !ok {
			return fmt.Errorf("journal entry %s: %w", entryID, apperrors.ErrNotFound)
		}
		out = copyEntry(e, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LockEntry is FindEntryByID; transactions already run one at a time.
func (r *journalRepository) LockEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.FindEntryByID(ctx, entryID)
}

func inRange(d time.Time, from, to *time.Time) bool {
	d = domain.DateOnly(d)
	if from != nil && d.Before(domain.DateOnly(*from)) {
		return false
	}
	if to != nil && d.After(domain.DateOnly(*to)) {
		return false
	}
	return true
}

func (r *journalRepository) ListEntries(ctx context.Context, filter domain.EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	var cursor *pagination.Cursor
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &c
	}

	var all []domain.JournalEntry
	err := r.h.read(func(st *state) error {
		for _, e := range st.entries {
			if filter.PeriodID != "" && e.PeriodID != filter.PeriodID {
				continue
			}
			if filter.Status != "" && e.Status != filter.Status {
				continue
			}
			if !inRange(e.EntryDate, filter.From, filter.To) {
				continue
			}
			if cursor != nil && !cursor.Follows(e.EntryDate, e.CreatedAt, e.EntryID) {
				continue
			}
			all = append(all, copyEntry(e, false))
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.After(b.EntryDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.EntryID > b.EntryID
	})

	if limit <= 0 || len(all) <= limit {
		return all, nil, nil
	}
	page := all[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(pagination.Cursor{EntryDate: last.EntryDate, CreatedAt: last.CreatedAt, ID: last.EntryID})
	return page, &token, nil
}

func (r *journalRepository) ListLedgerLines(ctx context.Context, filter domain.LineFilter) ([]domain.LedgerLine, error) {
	accounts := make(map[string]bool, len(filter.AccountIDs))
	for _, id := range filter.AccountIDs {
		accounts[id] = true
	}

	var out []domain.LedgerLine
	var postedAt = map[string]time.Time{}
	err := r.h.read(func(st *state) error {
		for _, e := range st.entries {
			if !e.Status.AffectsLedger() || slices.Contains(filter.ExcludeSources, e.Source) {
				continue
			}
			if filter.PeriodID != "" && e.PeriodID != filter.PeriodID {
				continue
			}
			if !inRange(e.EntryDate, filter.From, filter.To) {
				continue
			}
			if e.PostedAt != nil {
				postedAt[e.EntryID] = *e.PostedAt
			}
			for _, l := range e.Lines {
				if len(accounts) > 0 && !accounts[l.AccountID] {
					continue
				}
				out = append(out, domain.LedgerLine{
					JournalLine: l,
					EntryNumber: e.EntryNumber,
					EntryDate:   e.EntryDate,
					PeriodID:    e.PeriodID,
					Source:      e.Source,
					Description: e.Description,
				})
			}
		}
		return nil
	})

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.EntryDate.Equal(b.EntryDate) {
			return a.EntryDate.Before(b.EntryDate)
		}
		if pa, pb := postedAt[a.EntryID], postedAt[b.EntryID]; !pa.Equal(pb) {
			return pa.Before(pb)
		}
		if a.EntryID != b.EntryID {
			return a.EntryID < b.EntryID
		}
		return a.LineNo < b.LineNo
	})
	return out, err
}

func (r *journalRepository) ListPostedEntries(ctx context.Context, from, to time.Time) ([]domain.JournalEntry, error) {
	var out []domain.JournalEntry
	err := r.h.read(func(st *state) error {
		for _, e := range st.entries {
			if e.Status == domain.Posted && inRange(e.EntryDate, &from, &to) {
				out = append(out, copyEntry(e, true))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.Before(out[j].EntryDate)
		}
		return out[i].EntryID < out[j].EntryID
	})
	return out, err
}

func (r *journalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.entries[entry.EntryID]; ok {
			return fmt.Errorf("journal entry %s: %w", entry.EntryID, apperrors.ErrDuplicate)
		}
		st.entries[entry.EntryID] = copyEntry(entry, true)
		return nil
	})
}

func (r *journalRepository) ReplaceDraft(ctx context.Context, entry domain.JournalEntry) error {
	return r.h.write(func(st *state) error {
		cur, err := draftOf(st, entry.EntryID)
		if err != nil {
			return err
		}
		entry.Status = domain.Draft
		entry.CreatedAt, entry.CreatedBy = cur.CreatedAt, cur.CreatedBy
		st.entries[entry.EntryID] = copyEntry(entry, true)
		return nil
	})
}

func (r *journalRepository) DeleteDraft(ctx context.Context, entryID string) error {
	return r.h.write(func(st *state) error {
		if _, err := draftOf(st, entryID); err != nil {
			return err
		}
		delete(st.entries, entryID)
		return nil
	})
}

func draftOf(st *state, entryID string) (domain.JournalEntry, error) {
	e, ok := st.entries[entryID]
	if !ok {
		return e, fmt.Errorf("journal entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	if e.Status != domain.Draft {
		return e, fmt.Errorf("journal entry %s is %s: %w", entryID, e.Status, apperrors.ErrInvalidTransition)
	}
	return e, nil
}

func (r *journalRepository) MarkPosted(ctx context.Context, entryID string, entryNumber int64, postedAt time.Time, postedBy string) error {
	return r.h.write(func(st *state) error {
		e, err := draftOf(st, entryID)
		if err != nil {
			return err
		}
		e.Status = domain.Posted
		e.EntryNumber = entryNumber
		e.PostedAt = &postedAt
		e.PostedBy = postedBy
		e.LastUpdatedAt = postedAt
		e.LastUpdatedBy = postedBy
		st.entries[entryID] = e
		return nil
	})
}

func (r *journalRepository) MarkReversed(ctx context.Context, entryID string, reversalID string, at time.Time, actorID string) error {
	return r.h.write(func(st *state) error {
		e, ok := st.entries[entryID]
		if !ok {
			return fmt.Errorf("journal entry %s: %w", entryID, apperrors.ErrNotFound)
		}
		if e.Status != domain.Posted {
			return fmt.Errorf("journal entry %s is %s: %w", entryID, e.Status, apperrors.ErrInvalidTransition)
		}
		e.Status = domain.Reversed
		e.ReversedByEntryID = reversalID
		e.LastUpdatedAt = at
		e.LastUpdatedBy = actorID
		st.entries[entryID] = e
		return nil
	})
}
