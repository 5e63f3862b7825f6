package services

import (
	"context"
	"errors"
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
	"github.com/shopspring/decimal"
)

// periodService opens fiscal periods and runs the year-end close.
type periodService struct {
	BaseService
	repos                     portsrepo.RepositoryProvider
	retainedEarningsAccountID string
}

// NewPeriodService creates a new PeriodService. retainedEarningsAccountID is the equity account
// that receives net income when a close request does not name one.
func NewPeriodService(repos portsrepo.RepositoryProvider, retainedEarningsAccountID string, options ...ServiceOption) portssvc.PeriodSvcFacade {
	return &periodService{
		BaseService:               newBaseService(options...),
		repos:                     repos,
		retainedEarningsAccountID: retainedEarningsAccountID,
	}
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

func (s *periodService) OpenPeriod(ctx context.Context, req dto.OpenPeriodRequest, actorID string) (*domain.FiscalPeriod, error) {
	name := strings.TrimSpace(req.Name)
	start, end := domain.DateOnly(req.StartDate), domain.DateOnly(req.EndDate)
	if name == "" {
		return nil, fmt.Errorf("%w: period name is required", apperrors.ErrValidation)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: period ends before it starts", apperrors.ErrValidation)
	}

	now := s.Now()
	period := domain.FiscalPeriod{
		PeriodID:  uuid.NewString(),
		Name:      name,
		StartDate: start,
		EndDate:   end,
		Status:    domain.PeriodOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	err := s.repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		prev, err := tx.PeriodRepo.FindPeriodByDate(ctx, start.AddDate(0, 0, -1))
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			prev = nil
		}
		if prev != nil {
			// Waits out a close in progress, so exactly one side writes the carry-forward.
			if prev, err = tx.PeriodRepo.LockPeriod(ctx, prev.PeriodID); err != nil {
				return err
			}
		}
		if err := tx.PeriodRepo.SavePeriod(ctx, period); err != nil {
			return err
		}
		if prev == nil || prev.Status != domain.PeriodClosed {
			return nil
		}
		entryID, err := s.carryForward(ctx, tx, *prev, period, actorID)
		if err != nil {
			return err
		}
		period.CarryForwardEntryID = entryID
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to open fiscal period", slog.String("name", name))
		return nil, err
	}

	s.LogInfo(ctx, "Fiscal period opened",
		slog.String("period_id", period.PeriodID),
		slog.String("name", period.Name),
		slog.String("carry_forward_entry_id", period.CarryForwardEntryID))
	s.Emit(ctx, domain.EventPeriodOpened, period.PeriodID, actorID, map[string]any{
		"name":       period.Name,
		"start_date": period.StartDate.Format("2006-01-02"),
		"end_date":   period.EndDate.Format("2006-01-02"),
	})
	return &period, nil
}

// carryForward posts the opening balances of next from the snapshots of prev. It returns the
// entry id, or "" when every snapshot is zero.
func (s *periodService) carryForward(ctx context.Context, tx portsrepo.RepositoryProvider, prev, next domain.FiscalPeriod, actorID string) (string, error) {
	snapshots, err := tx.PeriodRepo.ListSnapshots(ctx, prev.PeriodID)
	if err != nil {
		return "", err
	}

	now := s.Now()
	entry := domain.JournalEntry{
		EntryID:     uuid.NewString(),
		EntryDate:   next.StartDate,
		PeriodID:    next.PeriodID,
		Description: "Opening balances carried forward from " + prev.Name,
		Status:      domain.Draft,
		Source:      domain.SourceCarryForward,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	for _, snap := range snapshots {
		line, ok := accounting.LineForBalance(snap.AccountID, snap.ClosingBalance, snap.NormalSide)
		if !ok {
			continue
		}
		line.LineID = uuid.NewString()
		line.EntryID = entry.EntryID
		line.LineNo = len(entry.Lines) + 1
		entry.Lines = append(entry.Lines, line)
	}
	if len(entry.Lines) == 0 {
		s.LogDebug(ctx, "Nothing to carry forward", slog.String("from_period_id", prev.PeriodID))
		return "", nil
	}

	if _, err := s.saveAndPost(ctx, tx, entry, actorID, postSystem); err != nil {
		return "", err
	}
	if err := tx.PeriodRepo.SetCarryForwardEntry(ctx, next.PeriodID, entry.EntryID); err != nil {
		return "", err
	}
	s.LogInfo(ctx, "Opening balances carried forward",
		slog.String("from_period_id", prev.PeriodID),
		slog.String("to_period_id", next.PeriodID),
		slog.String("entry_id", entry.EntryID),
		slog.Int("lines", len(entry.Lines)))
	return entry.EntryID, nil
}

// retainedEarnings resolves and checks the account that receives net income.
func (s *periodService) retainedEarnings(ctx context.Context, requested string) (*domain.Account, error) {
	id := strings.TrimSpace(requested)
	if id == "" {
		id = s.retainedEarningsAccountID
	}
	if id == "" {
		return nil, fmt.Errorf("%w: no retained earnings account configured", apperrors.ErrValidation)
	}
	acc, err := s.repos.AccountRepo.FindAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: retained earnings account %s does not exist", apperrors.ErrValidation, id)
		}
		return nil, err
	}
	if acc.AccountType != domain.Equity {
		return nil, fmt.Errorf("%w: retained earnings account %s is not an equity account", apperrors.ErrValidation, acc.Code)
	}
	if !acc.IsPostable() {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotPostable, acc.Code)
	}
	return acc, nil
}

func (s *periodService) ClosePeriod(ctx context.Context, periodID string, req dto.ClosePeriodRequest, actorID string) (*domain.FiscalPeriod, error) {
	logger := s.GetLogger(ctx).With(slog.String("period_id", periodID))

	period, err := s.repos.PeriodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.Status != domain.PeriodOpen {
		return nil, fmt.Errorf("period %s is %s: %w", period.Name, period.Status, apperrors.ErrInvalidTransition)
	}
	re, err := s.retainedEarnings(ctx, req.RetainedEarningsAccountID)
	if err != nil {
		return nil, err
	}
	periods, err := s.repos.PeriodRepo.ListPeriods(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range periods {
		if p.StartDate.Before(period.StartDate) && p.Status != domain.PeriodClosed {
			return nil, fmt.Errorf("earlier period %s is %s: %w", p.Name, p.Status, apperrors.ErrInvalidTransition)
		}
	}

	// Committed on its own so postings into the period fail from here on.
	err = s.repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		if _, err := tx.PeriodRepo.LockPeriod(ctx, periodID); err != nil {
			return err
		}
		return tx.PeriodRepo.UpdatePeriodStatus(ctx, periodID, domain.PeriodOpen, domain.PeriodClosing, s.Now(), actorID)
	})
	if err != nil {
		logger.Error("Failed to start closing", slog.String("error", err.Error()))
		return nil, err
	}
	logger.Info("Fiscal period closing")

	var netIncome decimal.Decimal
	var closingEntryID string
	err = s.repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		if _, err := tx.PeriodRepo.LockPeriod(ctx, periodID); err != nil {
			return err
		}
		var err error
		closingEntryID, netIncome, err = s.transferNetIncome(ctx, tx, *period, re.AccountID, actorID)
		if err != nil {
			return err
		}
		if err := s.snapshot(ctx, tx, *period); err != nil {
			return err
		}
		next, err := tx.PeriodRepo.FindPeriodByDate(ctx, period.EndDate.AddDate(0, 0, 1))
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if next != nil && next.CarryForwardEntryID == "" {
			if _, err := s.carryForward(ctx, tx, *period, *next, actorID); err != nil {
				return err
			}
		}
		return tx.PeriodRepo.UpdatePeriodStatus(ctx, periodID, domain.PeriodClosing, domain.PeriodClosed, s.Now(), actorID)
	})
	if err != nil {
		logger.Error("Closing failed, reopening period", slog.String("error", err.Error()))
		if revertErr := s.repos.PeriodRepo.UpdatePeriodStatus(ctx, periodID, domain.PeriodClosing, domain.PeriodOpen, s.Now(), actorID); revertErr != nil {
			logger.Error("Failed to reopen period after closing failure", slog.String("error", revertErr.Error()))
			return nil, errors.Join(err, revertErr)
		}
		return nil, err
	}

	closed, err := s.repos.PeriodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	logger.Info("Fiscal period closed",
		slog.String("closing_entry_id", closingEntryID),
		slog.String("net_income", netIncome.String()))
	s.Emit(ctx, domain.EventPeriodClosed, periodID, actorID, map[string]any{
		"name":             closed.Name,
		"net_income":       netIncome.String(),
		"closing_entry_id": closingEntryID,
	})
	return closed, nil
}

// transferNetIncome sweeps every revenue and expense account of the period to zero and posts the
// difference to the retained earnings account. It returns "" when nothing needed sweeping.
func (s *periodService) transferNetIncome(ctx context.Context, tx portsrepo.RepositoryProvider, period domain.FiscalPeriod, reAccountID, actorID string) (string, decimal.Decimal, error) {
	p := projector{repos: tx}
	c, err := p.loadChart(ctx)
	if err != nil {
		return "", decimal.Zero, err
	}
	lines, err := tx.JournalRepo.ListLedgerLines(ctx, domain.LineFilter{PeriodID: period.PeriodID})
	if err != nil {
		return "", decimal.Zero, err
	}

	// Debit-positive net per income statement account.
	net := make(map[string]decimal.Decimal)
	for _, l := range lines {
		if acc, ok := c.accounts[l.AccountID]; ok && acc.AccountType.IsIncomeStatement() {
			net[l.AccountID] = net[l.AccountID].Add(accounting.SignedLineAmount(l.JournalLine, domain.Debit))
		}
	}

	now := s.Now()
	entry := domain.JournalEntry{
		EntryID:     uuid.NewString(),
		EntryDate:   period.EndDate,
		PeriodID:    period.PeriodID,
		Description: "Net income transfer for " + period.Name,
		Status:      domain.Draft,
		Source:      domain.SourceClosing,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	debits, credits := decimal.Zero, decimal.Zero
	for _, acc := range c.sortedByCode(func(a domain.Account) bool { return a.AccountType.IsIncomeStatement() }) {
		line, ok := accounting.LineForBalance(acc.AccountID, net[acc.AccountID], domain.Credit)
		if !ok {
			continue
		}
		line.LineID = uuid.NewString()
		line.EntryID = entry.EntryID
		line.LineNo = len(entry.Lines) + 1
		entry.Lines = append(entry.Lines, line)
		debits = debits.Add(line.DebitAmount)
		credits = credits.Add(line.CreditAmount)
	}
	if len(entry.Lines) == 0 {
		return "", decimal.Zero, nil
	}

	netIncome := debits.Sub(credits)
	if line, ok := accounting.LineForBalance(reAccountID, netIncome, domain.Credit); ok {
		line.LineID = uuid.NewString()
		line.EntryID = entry.EntryID
		line.LineNo = len(entry.Lines) + 1
		entry.Lines = append(entry.Lines, line)
	}

	if _, err := s.saveAndPost(ctx, tx, entry, actorID, postSystem); err != nil {
		return "", decimal.Zero, err
	}
	return entry.EntryID, netIncome, nil
}

// snapshot freezes the balance of every balance sheet detail account at period end.
func (s *periodService) snapshot(ctx context.Context, tx portsrepo.RepositoryProvider, period domain.FiscalPeriod) error {
	p := projector{repos: tx}
	c, err := p.loadChart(ctx)
	if err != nil {
		return err
	}
	balances, err := p.balancesAsOf(ctx, c, period.EndDate)
	if err != nil {
		return err
	}
	now := s.Now()
	accounts := c.sortedByCode(func(a domain.Account) bool {
		return a.Kind == domain.Detail && a.AccountType.IsBalanceSheet()
	})
	snapshots := make([]domain.ClosingSnapshot, 0, len(accounts))
	for _, a := range accounts {
		snapshots = append(snapshots, domain.ClosingSnapshot{
			PeriodID:       period.PeriodID,
			AccountID:      a.AccountID,
			NormalSide:     a.NormalSide,
			ClosingBalance: balances[a.AccountID],
			CreatedAt:      now,
		})
	}
	if len(snapshots) == 0 {
		return nil
	}
	return tx.PeriodRepo.SaveSnapshots(ctx, snapshots)
}

func (s *periodService) GetPeriodByID(ctx context.Context, periodID string) (*domain.FiscalPeriod, error) {
	return s.repos.PeriodRepo.FindPeriodByID(ctx, periodID)
}

func (s *periodService) ListPeriods(ctx context.Context) ([]domain.FiscalPeriod, error) {
	return s.repos.PeriodRepo.ListPeriods(ctx)
}

func (s *periodService) ListSnapshots(ctx context.Context, periodID string) ([]domain.ClosingSnapshot, error) {
	if _, err := s.repos.PeriodRepo.FindPeriodByID(ctx, periodID); err != nil {
		return nil, err
	}
	return s.repos.PeriodRepo.ListSnapshots(ctx, periodID)
}
