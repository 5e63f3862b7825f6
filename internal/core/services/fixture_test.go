package services_test

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/core/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/SscSPs/ledger_core/internal/repositories/memory"
	"github.com/SscSPs/ledger_core/internal/utils/matching"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const actor = "user-1"

var errSinkDown = errors.New("sink unavailable")

// ledgerSuite wires every service to a fresh in-memory store.
type ledgerSuite struct {
	suite.Suite
	ctx   context.Context
	store *memory.Store
	repos portsrepo.RepositoryProvider

	accounts portssvc.AccountSvcFacade
	journal  portssvc.JournalSvcFacade
	ledger   portssvc.LedgerSvcFacade
	periods  portssvc.PeriodSvcFacade
	recon    portssvc.ReconciliationSvcFacade

	retainedEarnings *domain.Account
}

func (s *ledgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore()
	s.repos = s.store.Repositories()
	s.wire(s.repos, nil)
}

// wire (re)builds the services over repos. unmatched may be nil.
func (s *ledgerSuite) wire(repos portsrepo.RepositoryProvider, unmatched portssvc.UnmatchedHandler, options ...services.ServiceOption) {
	scorer, err := matching.NewScorer(matching.DefaultConfig())
	s.Require().NoError(err)

	reID := ""
	if s.retainedEarnings != nil {
		reID = s.retainedEarnings.AccountID
	}
	s.accounts = services.NewAccountService(repos, options...)
	s.journal = services.NewJournalService(repos, 2, options...)
	s.ledger = services.NewLedgerService(repos, options...)
	s.periods = services.NewPeriodService(repos, reID, options...)
	s.recon = services.NewReconciliationService(repos, scorer, unmatched, options...)
}

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func debit(acc *domain.Account, amount string) dto.LineRequest {
	return dto.LineRequest{AccountID: acc.AccountID, DebitAmount: dec(amount)}
}

func credit(acc *domain.Account, amount string) dto.LineRequest {
	return dto.LineRequest{AccountID: acc.AccountID, CreditAmount: dec(amount)}
}

func (s *ledgerSuite) account(code string, t domain.AccountType, kind domain.AccountKind, parent *domain.Account) *domain.Account {
	req := dto.CreateAccountRequest{Code: code, Name: code, AccountType: t, Kind: kind}
	if parent != nil {
		req.ParentAccountID = &parent.AccountID
	}
	acc, err := s.accounts.CreateAccount(s.ctx, req, actor)
	s.Require().NoError(err)
	return acc
}

func (s *ledgerSuite) detail(code string, t domain.AccountType) *domain.Account {
	return s.account(code, t, domain.Detail, nil)
}

func (s *ledgerSuite) period(name, start, end string) *domain.FiscalPeriod {
	p, err := s.periods.OpenPeriod(s.ctx, dto.OpenPeriodRequest{Name: name, StartDate: date(start), EndDate: date(end)}, actor)
	s.Require().NoError(err)
	return p
}

func (s *ledgerSuite) draft(on, description string, lines ...dto.LineRequest) *domain.JournalEntry {
	e, err := s.journal.CreateDraft(s.ctx, dto.CreateEntryRequest{EntryDate: date(on), Description: description, Lines: lines}, actor)
	s.Require().NoError(err)
	return e
}

func (s *ledgerSuite) post(on, description string, lines ...dto.LineRequest) *domain.JournalEntry {
	e, err := s.journal.CreateDraft(s.ctx, dto.CreateEntryRequest{EntryDate: date(on), Description: description, Lines: lines, Post: true}, actor)
	s.Require().NoError(err)
	s.Require().Equal(domain.Posted, e.Status)
	return e
}

func (s *ledgerSuite) balance(acc *domain.Account, asOf string) decimal.Decimal {
	b, err := s.ledger.Balance(s.ctx, acc.AccountID, date(asOf))
	s.Require().NoError(err)
	return b
}

// assertAmount compares decimals by value so 1000 and 1000.00 are equal.
func (s *ledgerSuite) assertAmount(expected string, actual decimal.Decimal, msgAndArgs ...any) {
	s.Truef(dec(expected).Equal(actual), "expected %s, got %s %v", expected, actual.String(), msgAndArgs)
}

// MockPostingAuthorizer is a mock type for the PostingAuthorizer collaborator
type MockPostingAuthorizer struct {
	mock.Mock
}

func (m *MockPostingAuthorizer) MayPost(ctx context.Context, actorID string, period domain.FiscalPeriod) (bool, error) {
	args := m.Called(ctx, actorID, period)
	return args.Bool(0), args.Error(1)
}

// MockNotifier is a mock type for the Notifier collaborator
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, event domain.LedgerEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockUnmatchedHandler is a mock type for the UnmatchedHandler collaborator
type MockUnmatchedHandler struct {
	mock.Mock
}

func (m *MockUnmatchedHandler) HandleUnmatched(ctx context.Context, txns []domain.BankTransaction) {
	m.Called(ctx, txns)
}

func reverseReq(reason string) dto.ReverseEntryRequest {
	return dto.ReverseEntryRequest{Reason: reason}
}
