package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/utils/matching"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// maxParallelStatements bounds concurrent statement scoring.
const maxParallelStatements = 4

// reconciliationService pairs bank statement lines with posted journal entries.
type reconciliationService struct {
	BaseService
	repos     portsrepo.RepositoryProvider
	scorer    *matching.Scorer
	unmatched portssvc.UnmatchedHandler
}

// NewReconciliationService creates a new ReconciliationService. unmatched may be nil.
func NewReconciliationService(repos portsrepo.RepositoryProvider, scorer *matching.Scorer, unmatched portssvc.UnmatchedHandler, options ...ServiceOption) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{
		BaseService: newBaseService(options...),
		repos:       repos,
		scorer:      scorer,
		unmatched:   unmatched,
	}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

func (s *reconciliationService) ImportTransactions(ctx context.Context, statementID string, req dto.ImportTransactionsRequest, actorID string) ([]domain.BankTransaction, error) {
	statementID = strings.TrimSpace(statementID)
	if statementID == "" {
		return nil, fmt.Errorf("%w: statement id is required", apperrors.ErrValidation)
	}
	if len(req.Transactions) == 0 {
		return nil, fmt.Errorf("%w: no transactions to import", apperrors.ErrValidation)
	}

	now := s.Now()
	txns := make([]domain.BankTransaction, len(req.Transactions))
	for i, t := range req.Transactions {
		if t.TransactionDate.IsZero() {
			return nil, fmt.Errorf("%w: transaction %d has no date", apperrors.ErrValidation, i+1)
		}
		txns[i] = domain.BankTransaction{
			TransactionID:   uuid.NewString(),
			StatementID:     statementID,
			TransactionDate: domain.DateOnly(t.TransactionDate),
			Amount:          t.Amount,
			Description:     strings.TrimSpace(t.Description),
			Reference:       strings.TrimSpace(t.Reference),
			ImportedAt:      now,
			ImportedBy:      actorID,
		}
	}
	if err := s.repos.ReconciliationRepo.SaveBankTransactions(ctx, txns); err != nil {
		s.LogError(ctx, err, "Failed to import bank transactions", slog.String("statement_id", statementID))
		return nil, err
	}
	s.LogInfo(ctx, "Bank transactions imported",
		slog.String("statement_id", statementID),
		slog.Int("count", len(txns)))
	return txns, nil
}

// statementScore is the scoring outcome for one statement.
type statementScore struct {
	suggestions []domain.MatchSuggestion
	orphans     []domain.BankTransaction // no candidate entry inside the window
}

// candidates returns unmatched manual entries dated within the window around [from, to].
func (s *reconciliationService) candidates(ctx context.Context, from, to time.Time) ([]domain.JournalEntry, error) {
	window := s.scorer.Config().CandidateWindowDays
	entries, err := s.repos.JournalRepo.ListPostedEntries(ctx, from.AddDate(0, 0, -window), to.AddDate(0, 0, window))
	if err != nil {
		return nil, err
	}
	matched, err := s.repos.ReconciliationRepo.MatchedEntryIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := entries[:0]
	for _, e := range entries {
		if e.Source == domain.SourceManual && !matched[e.EntryID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *reconciliationService) scoreStatement(ctx context.Context, statementID string) (*statementScore, error) {
	all, err := s.repos.ReconciliationRepo.ListBankTransactions(ctx, statementID, false)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("statement %s: %w", statementID, apperrors.ErrNotFound)
	}
	var open []domain.BankTransaction
	for _, t := range all {
		if !t.IsMatched {
			open = append(open, t)
		}
	}
	res := &statementScore{suggestions: []domain.MatchSuggestion{}}
	if len(open) == 0 {
		return res, nil
	}

	from, to := open[0].TransactionDate, open[0].TransactionDate
	for _, t := range open[1:] {
		if t.TransactionDate.Before(from) {
			from = t.TransactionDate
		}
		if t.TransactionDate.After(to) {
			to = t.TransactionDate
		}
	}
	entries, err := s.candidates(ctx, from, to)
	if err != nil {
		return nil, err
	}

	window := s.scorer.Config().CandidateWindowDays
	for _, t := range open {
		found := false
		for _, e := range entries {
			if domain.DaysBetween(t.TransactionDate, e.EntryDate) > window {
				continue
			}
			found = true
			if sug := s.scorer.Score(t, e); sug.Confidence > 0 {
				res.suggestions = append(res.suggestions, sug)
			}
		}
		if !found {
			res.orphans = append(res.orphans, t)
		}
	}
	sortSuggestions(res.suggestions)
	return res, nil
}

func sortSuggestions(sugs []domain.MatchSuggestion) {
	sort.Slice(sugs, func(i, j int) bool {
		a, b := sugs[i], sugs[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.BankTransactionID != b.BankTransactionID {
			return a.BankTransactionID < b.BankTransactionID
		}
		return a.JournalEntryID < b.JournalEntryID
	})
}

func (s *reconciliationService) SuggestMatches(ctx context.Context, statementID string) ([]domain.MatchSuggestion, error) {
	res, err := s.scoreStatement(ctx, statementID)
	if err != nil {
		s.LogError(ctx, err, "Failed to score statement", slog.String("statement_id", statementID))
		return nil, err
	}
	s.LogDebug(ctx, "Statement scored",
		slog.String("statement_id", statementID),
		slog.Int("suggestions", len(res.suggestions)))
	return res.suggestions, nil
}

// scoreStatements scores statements concurrently. Scoring only reads.
func (s *reconciliationService) scoreStatements(ctx context.Context, statementIDs []string) (map[string]*statementScore, error) {
	var mu sync.Mutex
	out := make(map[string]*statementScore, len(statementIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelStatements)
	for _, id := range statementIDs {
		id := id
		g.Go(func() error {
			res, err := s.scoreStatement(gctx, id)
			if err != nil {
				return fmt.Errorf("statement %s: %w", id, err)
			}
			mu.Lock()
			out[id] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *reconciliationService) SuggestForStatements(ctx context.Context, statementIDs []string) (map[string][]domain.MatchSuggestion, error) {
	scores, err := s.scoreStatements(ctx, statementIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to score statements", slog.Int("statements", len(statementIDs)))
		return nil, err
	}
	out := make(map[string][]domain.MatchSuggestion, len(scores))
	for id, res := range scores {
		out[id] = res.suggestions
	}
	return out, nil
}

func (s *reconciliationService) AutoCommit(ctx context.Context, req dto.AutoCommitRequest, actorID string) (*domain.AutoMatchResult, error) {
	cfg := s.scorer.Config()
	threshold := cfg.AutoCommitThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %.3f out of [0,1]", apperrors.ErrValidation, threshold)
	}

	statementIDs := []string{}
	if id := strings.TrimSpace(req.StatementID); id != "" {
		statementIDs = append(statementIDs, id)
	} else {
		ids, err := s.repos.ReconciliationRepo.ListStatementsWithUnmatched(ctx)
		if err != nil {
			return nil, err
		}
		statementIDs = ids
	}

	scores, err := s.scoreStatements(ctx, statementIDs)
	if err != nil {
		s.LogError(ctx, err, "Auto-commit scoring failed")
		return nil, err
	}
	var all []domain.MatchSuggestion
	var orphans []domain.BankTransaction
	for _, res := range scores {
		all = append(all, res.suggestions...)
		orphans = append(orphans, res.orphans...)
	}
	sortSuggestions(all)

	result := &domain.AutoMatchResult{
		Committed:     []domain.MatchRecord{},
		PendingReview: []domain.MatchSuggestion{},
		Unmatched:     []string{},
	}
	usedTxn := map[string]bool{}
	usedEntry := map[string]bool{}
	err = s.repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		now := s.Now()
		for _, sug := range all {
			if sug.Confidence < threshold {
				break
			}
			if usedTxn[sug.BankTransactionID] || usedEntry[sug.JournalEntryID] {
				continue
			}
			match := domain.MatchRecord{
				MatchID:           uuid.NewString(),
				BankTransactionID: sug.BankTransactionID,
				JournalEntryID:    sug.JournalEntryID,
				MatchType:         domain.MatchAuto,
				ConfidenceScore:   sug.Confidence,
				MatchedAt:         now,
				MatchedBy:         actorID,
			}
			if err := tx.ReconciliationRepo.SaveMatch(ctx, match); err != nil {
				if errors.Is(err, apperrors.ErrAlreadyMatched) {
					continue
				}
				return err
			}
			usedTxn[sug.BankTransactionID] = true
			usedEntry[sug.JournalEntryID] = true
			result.Committed = append(result.Committed, match)
		}
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Auto-commit failed")
		return nil, err
	}

	for _, sug := range all {
		if sug.Confidence >= threshold || sug.Confidence < cfg.ReviewThreshold {
			continue
		}
		if usedTxn[sug.BankTransactionID] || usedEntry[sug.JournalEntryID] {
			continue
		}
		result.PendingReview = append(result.PendingReview, sug)
	}
	for _, t := range orphans {
		result.Unmatched = append(result.Unmatched, t.TransactionID)
	}
	sort.Strings(result.Unmatched)
	if len(orphans) > 0 && s.unmatched != nil {
		s.unmatched.HandleUnmatched(ctx, orphans)
	}

	s.LogInfo(ctx, "Auto-commit finished",
		slog.Int("statements", len(statementIDs)),
		slog.Int("committed", len(result.Committed)),
		slog.Int("pending_review", len(result.PendingReview)),
		slog.Int("unmatched", len(result.Unmatched)))
	for _, m := range result.Committed {
		s.Emit(ctx, domain.EventMatchAutoCommitted, m.MatchID, actorID, map[string]any{
			"bank_transaction_id": m.BankTransactionID,
			"journal_entry_id":    m.JournalEntryID,
			"confidence":          m.ConfidenceScore,
		})
	}
	return result, nil
}

func (s *reconciliationService) ManualMatch(ctx context.Context, req dto.ManualMatchRequest, actorID string) (*domain.MatchRecord, error) {
	var match domain.MatchRecord
	err := s.repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		txn, err := tx.ReconciliationRepo.FindBankTransactionByID(ctx, req.BankTransactionID)
		if err != nil {
			return err
		}
		entry, err := tx.JournalRepo.FindEntryByID(ctx, req.JournalEntryID)
		if err != nil {
			return err
		}
		if entry.Status != domain.Posted {
			return fmt.Errorf("entry %s is %s: %w", entry.EntryID, entry.Status, apperrors.ErrInvalidTransition)
		}

		match = domain.MatchRecord{
			MatchID:           uuid.NewString(),
			BankTransactionID: txn.TransactionID,
			JournalEntryID:    entry.EntryID,
			MatchType:         domain.MatchManual,
			ConfidenceScore:   s.scorer.Score(*txn, *entry).Confidence,
			MatchedAt:         s.Now(),
			MatchedBy:         actorID,
			Notes:             strings.TrimSpace(req.Notes),
		}
		// The match row and the transaction's matched flag change together.
		return tx.ReconciliationRepo.SaveMatch(ctx, match)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to save manual match",
			slog.String("bank_transaction_id", req.BankTransactionID),
			slog.String("journal_entry_id", req.JournalEntryID))
		return nil, err
	}

	s.LogInfo(ctx, "Manual match recorded",
		slog.String("match_id", match.MatchID),
		slog.String("bank_transaction_id", match.BankTransactionID),
		slog.String("journal_entry_id", match.JournalEntryID))
	s.Emit(ctx, domain.EventMatchManual, match.MatchID, actorID, map[string]any{
		"bank_transaction_id": match.BankTransactionID,
		"journal_entry_id":    match.JournalEntryID,
		"confidence":          match.ConfidenceScore,
	})
	return &match, nil
}

func (s *reconciliationService) Unmatch(ctx context.Context, matchID string, actorID string) error {
	var match *domain.MatchRecord
	err := s.repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		var err error
		if match, err = tx.ReconciliationRepo.FindMatchByID(ctx, matchID); err != nil {
			return err
		}
		return tx.ReconciliationRepo.DeleteMatch(ctx, matchID)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to remove match", slog.String("match_id", matchID))
		return err
	}
	s.LogInfo(ctx, "Match removed", slog.String("match_id", matchID))
	s.Emit(ctx, domain.EventMatchRemoved, matchID, actorID, map[string]any{
		"bank_transaction_id": match.BankTransactionID,
		"journal_entry_id":    match.JournalEntryID,
	})
	return nil
}
