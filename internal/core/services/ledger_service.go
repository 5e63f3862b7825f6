package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/utils/accounting"
	"github.com/shopspring/decimal"
)

// chart is the account tree held as an arena keyed by id plus a children index.
type chart struct {
	accounts map[string]domain.Account
	children map[string][]string
}

func newChart(accounts []domain.Account) chart {
	c := chart{
		accounts: make(map[string]domain.Account, len(accounts)),
		children: make(map[string][]string),
	}
	for _, a := range accounts {
		c.accounts[a.AccountID] = a
		if a.ParentAccountID != "" {
			c.children[a.ParentAccountID] = append(c.children[a.ParentAccountID], a.AccountID)
		}
	}
	return c
}

// subtree returns id and every descendant. The visited set stops at a corrupt cycle.
func (c chart) subtree(id string) []string {
	visited := map[string]bool{}
	var out []string
	var walk func(string)
	walk = func(cur string) {
		if visited[cur] {
			return
		}
		visited[cur] = true
		out = append(out, cur)
		for _, child := range c.children[cur] {
			walk(child)
		}
	}
	walk(id)
	return out
}

// sortedByCode returns accounts ordered by code.
func (c chart) sortedByCode(filter func(domain.Account) bool) []domain.Account {
	out := make([]domain.Account, 0, len(c.accounts))
	for _, a := range c.accounts {
		if filter(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// projector folds posted lines into balances and statements. It holds no state of its own and can
// run against root repositories or against those of an open unit of work.
type projector struct {
	repos portsrepo.RepositoryProvider
}

func (p projector) loadChart(ctx context.Context) (chart, error) {
	accounts, err := p.repos.AccountRepo.ListAccounts(ctx)
	if err != nil {
		return chart{}, err
	}
	return newChart(accounts), nil
}

// foldHorizon returns the first date that must be folded for a balance on asOf: the start of the
// latest period whose opening balances were carried forward, or nil when nothing was carried.
func (p projector) foldHorizon(ctx context.Context, asOf time.Time) (*time.Time, error) {
	periods, err := p.repos.PeriodRepo.ListPeriods(ctx)
	if err != nil {
		return nil, err
	}
	var horizon *time.Time
	for i := range periods {
		pd := periods[i]
		if pd.CarryForwardEntryID == "" || pd.StartDate.After(domain.DateOnly(asOf)) {
			continue
		}
		if horizon == nil || pd.StartDate.After(*horizon) {
			start := domain.DateOnly(pd.StartDate)
			horizon = &start
		}
	}
	return horizon, nil
}

// linesAsOf returns ledger lines between the fold horizon and asOf for the given accounts.
func (p projector) linesAsOf(ctx context.Context, accountIDs []string, asOf time.Time) ([]domain.LedgerLine, error) {
	horizon, err := p.foldHorizon(ctx, asOf)
	if err != nil {
		return nil, err
	}
	to := domain.DateOnly(asOf)
	return p.repos.JournalRepo.ListLedgerLines(ctx, domain.LineFilter{
		AccountIDs: accountIDs,
		From:       horizon,
		To:         &to,
	})
}

func (p projector) balance(ctx context.Context, c chart, accountID string, asOf time.Time) (decimal.Decimal, error) {
	target, ok := c.accounts[accountID]
	if !ok {
		return decimal.Zero, fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	lines, err := p.linesAsOf(ctx, c.subtree(accountID), asOf)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(accounting.SignedLineAmount(l.JournalLine, target.NormalSide))
	}
	return total, nil
}

// balancesAsOf returns the balance of every detail account on asOf, signed by each account's own
// normal side.
func (p projector) balancesAsOf(ctx context.Context, c chart, asOf time.Time) (map[string]decimal.Decimal, error) {
	lines, err := p.linesAsOf(ctx, nil, asOf)
	if err != nil {
		return nil, err
	}
	out := make(map[string]decimal.Decimal)
	for _, l := range lines {
		acc, ok := c.accounts[l.AccountID]
		if !ok {
			continue
		}
		out[l.AccountID] = out[l.AccountID].Add(accounting.SignedLineAmount(l.JournalLine, acc.NormalSide))
	}
	return out, nil
}

// netByType sums lines per account signed by the account type's default side, so contra accounts
// show as negative amounts within their section.
func netByType(c chart, lines []domain.LedgerLine) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, l := range lines {
		acc, ok := c.accounts[l.AccountID]
		if !ok {
			continue
		}
		out[l.AccountID] = out[l.AccountID].Add(accounting.SignedLineAmount(l.JournalLine, acc.AccountType.DefaultNormalSide()))
	}
	return out
}

func section(c chart, net map[string]decimal.Decimal, t domain.AccountType) ([]domain.AccountAmount, decimal.Decimal) {
	total := decimal.Zero
	rows := []domain.AccountAmount{}
	for _, a := range c.sortedByCode(func(a domain.Account) bool { return a.AccountType == t }) {
		amount, ok := net[a.AccountID]
		if !ok || amount.IsZero() {
			continue
		}
		rows = append(rows, domain.AccountAmount{AccountID: a.AccountID, Code: a.Code, Name: a.Name, NetAmount: amount})
		total = total.Add(amount)
	}
	return rows, total
}

// ledgerService answers balance and statement queries from the posted lines.
type ledgerService struct {
	BaseService
	projector
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(repos portsrepo.RepositoryProvider, options ...ServiceOption) portssvc.LedgerSvcFacade {
	return &ledgerService{
		BaseService: newBaseService(options...),
		projector:   projector{repos: repos},
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) Balance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error) {
	c, err := s.loadChart(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	bal, err := s.balance(ctx, c, accountID, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to compute balance", slog.String("account_id", accountID))
		return decimal.Zero, err
	}
	return bal, nil
}

func (s *ledgerService) TrialBalance(ctx context.Context, periodID string) (*domain.TrialBalance, error) {
	period, err := s.repos.PeriodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	c, err := s.loadChart(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := s.repos.JournalRepo.ListLedgerLines(ctx, domain.LineFilter{PeriodID: periodID})
	if err != nil {
		s.LogError(ctx, err, "Failed to load ledger lines", slog.String("period_id", periodID))
		return nil, err
	}

	debits := make(map[string]decimal.Decimal)
	credits := make(map[string]decimal.Decimal)
	for _, l := range lines {
		debits[l.AccountID] = debits[l.AccountID].Add(l.DebitAmount)
		credits[l.AccountID] = credits[l.AccountID].Add(l.CreditAmount)
	}

	tb := &domain.TrialBalance{
		PeriodID:    periodID,
		From:        period.StartDate,
		To:          period.EndDate,
		Rows:        []domain.TrialBalanceRow{},
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, a := range c.sortedByCode(func(a domain.Account) bool {
		_, d := debits[a.AccountID]
		_, cr := credits[a.AccountID]
		return d || cr
	}) {
		row := domain.TrialBalanceRow{
			AccountID:   a.AccountID,
			Code:        a.Code,
			AccountName: a.Name,
			AccountType: a.AccountType,
			Debit:       debits[a.AccountID],
			Credit:      credits[a.AccountID],
		}
		tb.Rows = append(tb.Rows, row)
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
	}
	tb.Balanced = tb.TotalDebit.Equal(tb.TotalCredit)
	if !tb.Balanced {
		s.LogError(ctx, apperrors.ErrBalanceInvariant, "Trial balance does not balance",
			slog.String("period_id", periodID),
			slog.String("total_debit", tb.TotalDebit.String()),
			slog.String("total_credit", tb.TotalCredit.String()))
	}
	return tb, nil
}

func (s *ledgerService) IncomeStatement(ctx context.Context, from, to time.Time) (*domain.IncomeStatement, error) {
	from, to = domain.DateOnly(from), domain.DateOnly(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end before start", apperrors.ErrValidation)
	}
	c, err := s.loadChart(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := s.repos.JournalRepo.ListLedgerLines(ctx, domain.LineFilter{
		From:           &from,
		To:             &to,
		ExcludeSources: []domain.EntrySource{domain.SourceClosing},
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to load ledger lines for income statement")
		return nil, err
	}
	net := netByType(c, lines)

	is := &domain.IncomeStatement{From: from, To: to}
	is.Revenue, is.TotalRevenue = section(c, net, domain.Revenue)
	is.Expenses, is.TotalExpenses = section(c, net, domain.Expense)
	is.NetIncome = is.TotalRevenue.Sub(is.TotalExpenses)
	return is, nil
}

func (s *ledgerService) BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheet, error) {
	asOf = domain.DateOnly(asOf)
	c, err := s.loadChart(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := s.linesAsOf(ctx, nil, asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to load ledger lines for balance sheet")
		return nil, err
	}
	net := netByType(c, lines)

	bs := &domain.BalanceSheet{AsOf: asOf}
	bs.Assets, bs.TotalAssets = section(c, net, domain.Asset)
	bs.Liabilities, bs.TotalLiabilities = section(c, net, domain.Liability)
	var equity decimal.Decimal
	bs.Equity, equity = section(c, net, domain.Equity)
	_, revenue := section(c, net, domain.Revenue)
	_, expenses := section(c, net, domain.Expense)
	bs.CurrentEarnings = revenue.Sub(expenses)
	bs.TotalEquity = equity.Add(bs.CurrentEarnings)
	bs.Balanced = bs.TotalAssets.Equal(bs.TotalLiabilities.Add(bs.TotalEquity))
	return bs, nil
}

func (s *ledgerService) AccountActivity(ctx context.Context, accountID string, from, to time.Time) (*domain.AccountActivity, error) {
	from, to = domain.DateOnly(from), domain.DateOnly(to)
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end before start", apperrors.ErrValidation)
	}
	c, err := s.loadChart(ctx)
	if err != nil {
		return nil, err
	}
	target, ok := c.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
	}
	opening, err := s.balance(ctx, c, accountID, from.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	// Opening balances entries restate what the opening balance already holds.
	lines, err := s.repos.JournalRepo.ListLedgerLines(ctx, domain.LineFilter{
		AccountIDs:     c.subtree(accountID),
		From:           &from,
		To:             &to,
		ExcludeSources: []domain.EntrySource{domain.SourceCarryForward},
	})
	if err != nil {
		return nil, err
	}

	activity := &domain.AccountActivity{
		AccountID:      accountID,
		From:           from,
		To:             to,
		OpeningBalance: opening,
		Lines:          make([]domain.ActivityLine, 0, len(lines)),
	}
	running := opening
	for _, l := range lines {
		running = running.Add(accounting.SignedLineAmount(l.JournalLine, target.NormalSide))
		activity.Lines = append(activity.Lines, domain.ActivityLine{
			EntryID:        l.EntryID,
			EntryNumber:    l.EntryNumber,
			EntryDate:      l.EntryDate,
			Description:    l.Description,
			Memo:           l.Memo,
			Debit:          l.DebitAmount,
			Credit:         l.CreditAmount,
			RunningBalance: running,
		})
	}
	activity.ClosingBalance = running
	return activity, nil
}
