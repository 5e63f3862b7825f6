package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/utils/accounting"
	"github.com/google/uuid"
)

// journalService provides the journal entry lifecycle.
type journalService struct {
	BaseService
	repos portsrepo.RepositoryProvider
	scale int32
}

// NewJournalService creates a new JournalService. scale is the number of decimal places of the
// minimum currency unit.
func NewJournalService(repos portsrepo.RepositoryProvider, scale int32, options ...ServiceOption) portssvc.JournalSvcFacade {
	return &journalService{
		BaseService: newBaseService(options...),
		repos:       repos,
		scale:       scale,
	}
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

func buildLines(entryID string, req []dto.LineRequest) []domain.JournalLine {
	lines := make([]domain.JournalLine, len(req))
	for i, l := range req {
		lines[i] = domain.JournalLine{
			LineID:       uuid.NewString(),
			EntryID:      entryID,
			LineNo:       i + 1,
			AccountID:    strings.TrimSpace(l.AccountID),
			DebitAmount:  l.DebitAmount,
			CreditAmount: l.CreditAmount,
			Memo:         l.Memo,
		}
	}
	return lines
}

// prepareDraft validates the request and resolves its period through repos. Balance is not
// required for a draft.
func (s *journalService) prepareDraft(ctx context.Context, repos portsrepo.RepositoryProvider, entry *domain.JournalEntry, req dto.CreateEntryRequest) error {
	entry.EntryDate = domain.DateOnly(req.EntryDate)
	entry.Description = strings.TrimSpace(req.Description)
	entry.Reference = strings.TrimSpace(req.Reference)
	entry.Lines = buildLines(entry.EntryID, req.Lines)

	if err := accounting.ValidateLineShape(entry.Lines, s.scale); err != nil {
		return err
	}
	if err := checkPostable(ctx, repos.AccountRepo, entry.Lines, postUser); err != nil {
		return err
	}

	period, err := periodFor(ctx, repos.PeriodRepo, entry.EntryDate)
	if err != nil {
		return err
	}
	if !period.IsOpen() {
		return fmt.Errorf("%w: %s is %s", apperrors.ErrPeriodClosed, period.Name, period.Status)
	}
	entry.PeriodID = period.PeriodID
	return nil
}

func (s *journalService) CreateDraft(ctx context.Context, req dto.CreateEntryRequest, actorID string) (*domain.JournalEntry, error) {
	now := s.Now()
	entry := domain.JournalEntry{
		EntryID: uuid.NewString(),
		Status:  domain.Draft,
		Source:  domain.SourceManual,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if err := s.prepareDraft(ctx, s.repos, &entry, req); err != nil {
		s.LogError(ctx, err, "Draft entry rejected")
		return nil, err
	}

	if req.Post {
		// Rejected before any write, draft row included.
		if err := accounting.ValidateBalance(entry.Lines); err != nil {
			s.LogError(ctx, err, "Unbalanced entry cannot be posted", slog.String("entry_id", entry.EntryID))
			return nil, err
		}
		var posted *domain.JournalEntry
		err := s.repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
			var err error
			posted, err = s.saveAndPost(ctx, tx, entry, actorID, postUser)
			return err
		})
		if err != nil {
			s.LogError(ctx, err, "Failed to create and post entry", slog.String("entry_id", entry.EntryID))
			return nil, err
		}
		s.announcePosted(ctx, posted, actorID)
		return posted, nil
	}

	if err := s.repos.JournalRepo.SaveEntry(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to save draft entry", slog.String("entry_id", entry.EntryID))
		return nil, err
	}
	s.LogInfo(ctx, "Draft entry created",
		slog.String("entry_id", entry.EntryID),
		slog.String("period_id", entry.PeriodID),
		slog.Int("lines", len(entry.Lines)))
	return &entry, nil
}

// UpdateDraft replaces a draft's header and lines in one unit of work, holding the entry lock so a
// concurrent post sees either the old lines or the new ones. With req.Post the update and the
// posting commit together.
func (s *journalService) UpdateDraft(ctx context.Context, entryID string, req dto.CreateEntryRequest, actorID string) (*domain.JournalEntry, error) {
	var result *domain.JournalEntry
	err := s.repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		entry, err := tx.JournalRepo.LockEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Status != domain.Draft {
			return fmt.Errorf("entry %s is %s: %w", entryID, entry.Status, apperrors.ErrInvalidTransition)
		}
		if err := s.prepareDraft(ctx, tx, entry, req); err != nil {
			return err
		}
		if req.Post {
			if err := accounting.ValidateBalance(entry.Lines); err != nil {
				return err
			}
		}
		entry.LastUpdatedAt = s.Now()
		entry.LastUpdatedBy = actorID

		if err := tx.JournalRepo.ReplaceDraft(ctx, *entry); err != nil {
			return err
		}
		if !req.Post {
			result = entry
			return nil
		}
		result, err = s.postInTx(ctx, tx, entryID, actorID, postUser)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to update draft entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.LogInfo(ctx, "Draft entry updated", slog.String("entry_id", entryID))
	if req.Post {
		s.announcePosted(ctx, result, actorID)
	}
	return result, nil
}

func (s *journalService) DiscardDraft(ctx context.Context, entryID string, actorID string) error {
	if err := s.repos.JournalRepo.DeleteDraft(ctx, entryID); err != nil {
		s.LogError(ctx, err, "Failed to discard draft entry", slog.String("entry_id", entryID))
		return err
	}
	s.LogInfo(ctx, "Draft entry discarded", slog.String("entry_id", entryID), slog.String("actor_id", actorID))
	return nil
}

func (s *journalService) PostEntry(ctx context.Context, entryID string, actorID string) (*domain.JournalEntry, error) {
	draft, err := s.repos.JournalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if draft.Status != domain.Draft {
		return nil, fmt.Errorf("entry %s is %s: %w", entryID, draft.Status, apperrors.ErrInvalidTransition)
	}
	// Rejected before any write.
	if err := accounting.ValidateBalance(draft.Lines); err != nil {
		s.LogError(ctx, err, "Unbalanced entry cannot be posted", slog.String("entry_id", entryID))
		return nil, err
	}

	var posted *domain.JournalEntry
	err = s.repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		var err error
		posted, err = s.postInTx(ctx, tx, entryID, actorID, postUser)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to post entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.announcePosted(ctx, posted, actorID)
	return posted, nil
}

// announcePosted logs and emits a committed posting.
func (s *journalService) announcePosted(ctx context.Context, posted *domain.JournalEntry, actorID string) {
	s.LogInfo(ctx, "Entry posted",
		slog.String("entry_id", posted.EntryID),
		slog.Int64("entry_number", posted.EntryNumber),
		slog.String("period_id", posted.PeriodID))
	s.Emit(ctx, domain.EventEntryPosted, posted.EntryID, actorID, map[string]any{
		"entry_number": posted.EntryNumber,
		"period_id":    posted.PeriodID,
		"amount":       posted.Amount().String(),
	})
}

func (s *journalService) ReverseEntry(ctx context.Context, entryID string, req dto.ReverseEntryRequest, actorID string) (*domain.JournalEntry, error) {
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, fmt.Errorf("%w: a reversal reason is required", apperrors.ErrValidation)
	}

	var reversal *domain.JournalEntry
	err := s.repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		original, err := tx.JournalRepo.FindEntryByID(ctx, entryID)
		if err != nil {
			return err
		}
		if original.Status != domain.Posted {
			return fmt.Errorf("entry %s is %s: %w", entryID, original.Status, apperrors.ErrInvalidTransition)
		}
		if original.IsReversal() {
			return fmt.Errorf("entry %s is itself a reversal: %w", entryID, apperrors.ErrInvalidTransition)
		}

		now := s.Now()
		rev := domain.JournalEntry{
			EntryID:         uuid.NewString(),
			EntryDate:       original.EntryDate,
			Description:     fmt.Sprintf("Reversal of entry %d: %s", original.EntryNumber, reason),
			Reference:       original.Reference,
			Status:          domain.Draft,
			Source:          domain.SourceReversal,
			ReversesEntryID: original.EntryID,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actorID,
				LastUpdatedAt: now,
				LastUpdatedBy: actorID,
			},
		}
		if req.ReversalDate != nil {
			rev.EntryDate = domain.DateOnly(*req.ReversalDate)
		}
		period, err := periodFor(ctx, tx.PeriodRepo, rev.EntryDate)
		if err != nil {
			return err
		}
		rev.PeriodID = period.PeriodID

		rev.Lines = make([]domain.JournalLine, len(original.Lines))
		for i, l := range original.Lines {
			swapped := l.Swapped()
			swapped.LineID = uuid.NewString()
			swapped.EntryID = rev.EntryID
			rev.Lines[i] = swapped
		}

		reversal, err = s.saveAndPost(ctx, tx, rev, actorID, postUser)
		if err != nil {
			return err
		}
		return tx.JournalRepo.MarkReversed(ctx, original.EntryID, reversal.EntryID, now, actorID)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reverse entry", slog.String("entry_id", entryID))
		return nil, err
	}

	s.LogInfo(ctx, "Entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_entry_id", reversal.EntryID))
	s.Emit(ctx, domain.EventEntryReversed, entryID, actorID, map[string]any{
		"reversal_entry_id": reversal.EntryID,
		"reason":            reason,
	})
	return reversal, nil
}

func (s *journalService) GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return s.repos.JournalRepo.FindEntryByID(ctx, entryID)
}

func (s *journalService) ListEntries(ctx context.Context, params dto.ListEntriesParams) ([]domain.JournalEntry, *string, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	filter := domain.EntryFilter{PeriodID: params.PeriodID, Status: params.Status}
	entries, next, err := s.repos.JournalRepo.ListEntries(ctx, filter, limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list entries")
		return nil, nil, err
	}
	return entries, next, nil
}
