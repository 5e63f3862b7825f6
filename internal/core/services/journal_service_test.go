package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_core/internal/core/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// skewedLines inflates the first line of every entry it locks.
type skewedLines struct {
	portsrepo.JournalRepositoryFacade
}

func (r skewedLines) LockEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	entry, err := r.JournalRepositoryFacade.LockEntry(ctx, entryID)
	if err != nil || len(entry.Lines) == 0 {
		return entry, err
	}
	first := &entry.Lines[0]
	if first.DebitAmount.IsPositive() {
		first.DebitAmount = first.DebitAmount.Add(dec("0.01"))
	} else {
		first.CreditAmount = first.CreditAmount.Add(dec("0.01"))
	}
	return entry, nil
}

// skewingTx hands out transaction repositories whose locked entries no longer balance.
type skewingTx struct {
	inner portsrepo.TransactionManager
}

func (t skewingTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos portsrepo.RepositoryProvider) error) error {
	return t.inner.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		tx.JournalRepo = skewedLines{tx.JournalRepo}
		return fn(ctx, tx)
	})
}

type JournalServiceTestSuite struct {
	ledgerSuite
	fy24   *domain.FiscalPeriod
	assets *domain.Account
	cash   *domain.Account
	rent   *domain.Account
}

func TestJournalService(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}

func (s *JournalServiceTestSuite) SetupTest() {
	s.ledgerSuite.SetupTest()
	s.fy24 = s.period("FY2024", "2024-01-01", "2024-12-31")
	s.assets = s.account("1000", domain.Asset, domain.Header, nil)
	s.cash = s.account("1010", domain.Asset, domain.Detail, s.assets)
	s.rent = s.detail("4010", domain.Revenue)
}

func (s *JournalServiceTestSuite) TestPostEntry_AssignsSequentialNumbers() {
	first := s.post("2024-06-01", "June rent", debit(s.cash, "1000"), credit(s.rent, "1000"))
	second := s.post("2024-06-02", "June rent 2", debit(s.cash, "500"), credit(s.rent, "500"))

	s.Equal(int64(1), first.EntryNumber)
	s.Equal(int64(2), second.EntryNumber)
	s.Equal(s.fy24.PeriodID, first.PeriodID)
	s.Equal(actor, first.PostedBy)
	s.Require().NotNil(first.PostedAt)

	stored, err := s.journal.GetEntryByID(s.ctx, first.EntryID)
	s.Require().NoError(err)
	s.Equal(domain.Posted, stored.Status)
	s.Len(stored.Lines, 2)
	s.True(stored.IsBalanced())
}

func (s *JournalServiceTestSuite) TestCreateDraft_RejectsMalformedLines() {
	cases := []struct {
		name  string
		lines []dto.LineRequest
		want  error
	}{
		{"empty", nil, apperrors.ErrEmptyLines},
		{"both sides", []dto.LineRequest{{AccountID: s.cash.AccountID, DebitAmount: dec("10"), CreditAmount: dec("10")}}, apperrors.ErrInvalidLine},
		{"neither side", []dto.LineRequest{{AccountID: s.cash.AccountID}}, apperrors.ErrInvalidLine},
		{"negative", []dto.LineRequest{debit(s.cash, "-5")}, apperrors.ErrInvalidLine},
		{"below currency unit", []dto.LineRequest{debit(s.cash, "10.005"), credit(s.rent, "10.005")}, apperrors.ErrInvalidScale},
		{"header account", []dto.LineRequest{debit(s.assets, "10"), credit(s.rent, "10")}, apperrors.ErrNotPostable},
		{"unknown account", []dto.LineRequest{{AccountID: "missing", DebitAmount: dec("10")}, credit(s.rent, "10")}, apperrors.ErrNotPostable},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.journal.CreateDraft(s.ctx, dto.CreateEntryRequest{EntryDate: date("2024-06-01"), Lines: tc.lines}, actor)
			s.ErrorIs(err, tc.want)
			s.True(apperrors.IsValidation(err))
		})
	}
}

func (s *JournalServiceTestSuite) TestCreateDraft_NoPeriod() {
	_, err := s.journal.CreateDraft(s.ctx, dto.CreateEntryRequest{
		EntryDate: date("2023-06-01"),
		Lines:     []dto.LineRequest{debit(s.cash, "1"), credit(s.rent, "1")},
	}, actor)
	s.ErrorIs(err, apperrors.ErrNoPeriod)
}

func (s *JournalServiceTestSuite) TestPostEntry_UnbalancedRejectedBeforePersisting() {
	draft := s.draft("2024-06-01", "typo", debit(s.cash, "1000"), credit(s.rent, "999"))

	_, err := s.journal.PostEntry(s.ctx, draft.EntryID, actor)
	s.ErrorIs(err, apperrors.ErrUnbalanced)
	s.True(apperrors.IsValidation(err))

	stored, err := s.journal.GetEntryByID(s.ctx, draft.EntryID)
	s.Require().NoError(err)
	s.Equal(domain.Draft, stored.Status)
	s.Zero(stored.EntryNumber)

	period, err := s.periods.GetPeriodByID(s.ctx, s.fy24.PeriodID)
	s.Require().NoError(err)
	s.Zero(period.LastEntryNumber, "no number is consumed by a rejected post")
	s.assertAmount("0", s.balance(s.cash, "2024-12-31"))
}

func (s *JournalServiceTestSuite) TestCreateAndPost_UnbalancedLeavesNoRow() {
	_, err := s.journal.CreateDraft(s.ctx, dto.CreateEntryRequest{
		EntryDate: date("2024-06-01"),
		Lines:     []dto.LineRequest{debit(s.cash, "1000"), credit(s.rent, "900")},
		Post:      true,
	}, actor)
	s.ErrorIs(err, apperrors.ErrUnbalanced)
	s.True(apperrors.IsValidation(err))

	entries, _, err := s.journal.ListEntries(s.ctx, dto.ListEntriesParams{})
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *JournalServiceTestSuite) TestUpdateAndPost_UnbalancedKeepsDraft() {
	draft := s.draft("2024-06-01", "rent", debit(s.cash, "100"), credit(s.rent, "100"))

	_, err := s.journal.UpdateDraft(s.ctx, draft.EntryID, dto.CreateEntryRequest{
		EntryDate: date("2024-06-02"),
		Lines:     []dto.LineRequest{debit(s.cash, "100"), credit(s.rent, "90")},
		Post:      true,
	}, actor)
	s.ErrorIs(err, apperrors.ErrUnbalanced)

	stored, err := s.journal.GetEntryByID(s.ctx, draft.EntryID)
	s.Require().NoError(err)
	s.Equal(domain.Draft, stored.Status)
	s.Equal(date("2024-06-01"), stored.EntryDate, "the rejected update is not applied")
	s.True(stored.Amount().Equal(dec("100")))
}

func (s *JournalServiceTestSuite) TestUpdateAndPost_CommitsTogether() {
	draft := s.draft("2024-06-01", "rent", debit(s.cash, "100"), credit(s.rent, "100"))

	posted, err := s.journal.UpdateDraft(s.ctx, draft.EntryID, dto.CreateEntryRequest{
		EntryDate: date("2024-06-02"),
		Lines:     []dto.LineRequest{debit(s.cash, "150"), credit(s.rent, "150")},
		Post:      true,
	}, actor)
	s.Require().NoError(err)
	s.Equal(domain.Posted, posted.Status)
	s.Equal(int64(1), posted.EntryNumber)
	s.assertAmount("150", s.balance(s.cash, "2024-12-31"))
}

func (s *JournalServiceTestSuite) TestPostEntry_ImbalanceAtCommitIsIntegrityError() {
	draft := s.draft("2024-06-01", "rent", debit(s.cash, "100"), credit(s.rent, "100"))

	skewed := s.repos
	skewed.TxManager = skewingTx{inner: s.repos.TxManager}
	s.wire(skewed, nil)

	_, err := s.journal.PostEntry(s.ctx, draft.EntryID, actor)
	s.ErrorIs(err, apperrors.ErrBalanceInvariant)
	s.True(apperrors.IsIntegrity(err))
	s.False(apperrors.IsValidation(err))

	stored, err := s.journal.GetEntryByID(s.ctx, draft.EntryID)
	s.Require().NoError(err)
	s.Equal(domain.Draft, stored.Status)
	s.Zero(stored.EntryNumber)
	s.Nil(stored.PostedAt)

	period, err := s.periods.GetPeriodByID(s.ctx, s.fy24.PeriodID)
	s.Require().NoError(err)
	s.Zero(period.LastEntryNumber, "the aborted transaction consumes no number")
	s.assertAmount("0", s.balance(s.cash, "2024-12-31"))
}

func (s *JournalServiceTestSuite) TestPostEntry_RevalidatesAccountsAtCommit() {
	draft := s.draft("2024-06-01", "rent", debit(s.cash, "100"), credit(s.rent, "100"))
	s.Require().NoError(s.accounts.DeactivateAccount(s.ctx, s.rent.AccountID, actor))

	_, err := s.journal.PostEntry(s.ctx, draft.EntryID, actor)
	s.ErrorIs(err, apperrors.ErrNotPostable)
}

func (s *JournalServiceTestSuite) TestPostEntry_ClosedPeriod() {
	re := s.detail("3100", domain.Equity)
	draft := s.draft("2024-06-01", "late", debit(s.cash, "100"), credit(s.rent, "100"))

	_, err := s.periods.ClosePeriod(s.ctx, s.fy24.PeriodID, dto.ClosePeriodRequest{RetainedEarningsAccountID: re.AccountID}, actor)
	s.Require().NoError(err)

	_, err = s.journal.PostEntry(s.ctx, draft.EntryID, actor)
	s.ErrorIs(err, apperrors.ErrPeriodClosed)
	s.True(apperrors.IsState(err))

	_, err = s.journal.CreateDraft(s.ctx, dto.CreateEntryRequest{
		EntryDate: date("2024-07-01"),
		Lines:     []dto.LineRequest{debit(s.cash, "1"), credit(s.rent, "1")},
	}, actor)
	s.ErrorIs(err, apperrors.ErrPeriodClosed)
}

func (s *JournalServiceTestSuite) TestPostEntry_AuthorizerDenies() {
	auth := new(MockPostingAuthorizer)
	auth.On("MayPost", mock.Anything, actor, mock.MatchedBy(func(p domain.FiscalPeriod) bool {
		return p.PeriodID == s.fy24.PeriodID
	})).Return(false, nil).Once()
	s.wire(s.repos, nil, services.WithPostingAuthorizer(auth))

	draft := s.draft("2024-06-01", "rent", debit(s.cash, "100"), credit(s.rent, "100"))
	_, err := s.journal.PostEntry(s.ctx, draft.EntryID, actor)
	s.ErrorIs(err, apperrors.ErrForbidden)

	stored, err := s.journal.GetEntryByID(s.ctx, draft.EntryID)
	s.Require().NoError(err)
	s.Equal(domain.Draft, stored.Status)
	auth.AssertExpectations(s.T())
}

func (s *JournalServiceTestSuite) TestPostEntry_NotifiesAfterCommit() {
	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e domain.LedgerEvent) bool {
		return e.Type == domain.EventEntryPosted
	})).Return(errSinkDown).Once()
	s.wire(s.repos, nil, services.WithNotifier(notifier))

	entry := s.post("2024-06-01", "rent", debit(s.cash, "100"), credit(s.rent, "100"))
	s.Equal(domain.Posted, entry.Status, "a failing sink does not undo the posting")
	notifier.AssertExpectations(s.T())
}

func (s *JournalServiceTestSuite) TestReverseEntry_Symmetry() {
	s.post("2024-05-01", "opening", debit(s.cash, "250"), credit(s.rent, "250"))
	before := map[string]string{
		s.cash.AccountID: s.balance(s.cash, "2024-12-31").String(),
		s.rent.AccountID: s.balance(s.rent, "2024-12-31").String(),
	}

	original := s.post("2024-06-01", "rent", debit(s.cash, "1000"), credit(s.rent, "1000"))
	reversal, err := s.journal.ReverseEntry(s.ctx, original.EntryID, dto.ReverseEntryRequest{Reason: "duplicate"}, actor)
	s.Require().NoError(err)

	s.Equal(domain.Posted, reversal.Status)
	s.Equal(domain.SourceReversal, reversal.Source)
	s.Equal(original.EntryID, reversal.ReversesEntryID)
	s.Equal(original.EntryDate, reversal.EntryDate)
	s.Require().Len(reversal.Lines, len(original.Lines))
	for i, l := range reversal.Lines {
		s.True(l.DebitAmount.Equal(original.Lines[i].CreditAmount))
		s.True(l.CreditAmount.Equal(original.Lines[i].DebitAmount))
		s.Equal(original.Lines[i].AccountID, l.AccountID)
	}

	stored, err := s.journal.GetEntryByID(s.ctx, original.EntryID)
	s.Require().NoError(err)
	s.Equal(domain.Reversed, stored.Status)
	s.Equal(reversal.EntryID, stored.ReversedByEntryID)
	s.Equal(original.Lines, stored.Lines, "reversal never touches the original lines")

	s.assertAmount(before[s.cash.AccountID], s.balance(s.cash, "2024-12-31"))
	s.assertAmount(before[s.rent.AccountID], s.balance(s.rent, "2024-12-31"))

	_, err = s.journal.ReverseEntry(s.ctx, original.EntryID, dto.ReverseEntryRequest{Reason: "again"}, actor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
	_, err = s.journal.ReverseEntry(s.ctx, reversal.EntryID, dto.ReverseEntryRequest{Reason: "undo"}, actor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *JournalServiceTestSuite) TestReverseEntry_OnDraft() {
	draft := s.draft("2024-06-01", "rent", debit(s.cash, "100"), credit(s.rent, "100"))
	_, err := s.journal.ReverseEntry(s.ctx, draft.EntryID, dto.ReverseEntryRequest{Reason: "no"}, actor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
	s.True(apperrors.IsState(err))
}

func (s *JournalServiceTestSuite) TestReverseEntry_WithDate() {
	original := s.post("2024-06-01", "rent", debit(s.cash, "100"), credit(s.rent, "100"))
	on := date("2024-07-15")
	reversal, err := s.journal.ReverseEntry(s.ctx, original.EntryID, dto.ReverseEntryRequest{Reason: "late", ReversalDate: &on}, actor)
	s.Require().NoError(err)
	s.Equal(on, reversal.EntryDate)

	s.assertAmount("100", s.balance(s.cash, "2024-06-30"))
	s.assertAmount("0", s.balance(s.cash, "2024-07-31"))
}

func (s *JournalServiceTestSuite) TestUpdateAndDiscardDraft() {
	draft := s.draft("2024-06-01", "rent", debit(s.cash, "100"), credit(s.rent, "100"))

	updated, err := s.journal.UpdateDraft(s.ctx, draft.EntryID, dto.CreateEntryRequest{
		EntryDate:   date("2024-06-03"),
		Description: "rent, corrected",
		Lines:       []dto.LineRequest{debit(s.cash, "120"), credit(s.rent, "120")},
	}, actor)
	s.Require().NoError(err)
	s.Equal(date("2024-06-03"), updated.EntryDate)
	s.True(updated.Amount().Equal(dec("120")))

	s.Require().NoError(s.journal.DiscardDraft(s.ctx, draft.EntryID, actor))
	_, err = s.journal.GetEntryByID(s.ctx, draft.EntryID)
	s.ErrorIs(err, apperrors.ErrNotFound)

	posted := s.post("2024-06-01", "rent", debit(s.cash, "100"), credit(s.rent, "100"))
	s.ErrorIs(s.journal.DiscardDraft(s.ctx, posted.EntryID, actor), apperrors.ErrInvalidTransition)
	_, err = s.journal.UpdateDraft(s.ctx, posted.EntryID, dto.CreateEntryRequest{
		EntryDate: date("2024-06-01"),
		Lines:     []dto.LineRequest{debit(s.cash, "1"), credit(s.rent, "1")},
	}, actor)
	s.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (s *JournalServiceTestSuite) TestConcurrentPosting_UniqueNumbers() {
	const n = 25
	var wg sync.WaitGroup
	numbers := make(chan int64, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := s.journal.CreateDraft(s.ctx, dto.CreateEntryRequest{
				EntryDate: date("2024-06-01"),
				Lines:     []dto.LineRequest{debit(s.cash, "10"), credit(s.rent, "10")},
				Post:      true,
			}, actor)
			if err != nil {
				errs <- err
				return
			}
			numbers <- e.EntryNumber
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		s.NoError(err)
	}
	seen := map[int64]bool{}
	for num := range numbers {
		s.False(seen[num], "entry number %d handed out twice", num)
		seen[num] = true
	}
	s.Len(seen, n)
	for i := int64(1); i <= n; i++ {
		s.True(seen[i], "entry number %d missing", i)
	}
	s.assertAmount("250", s.balance(s.cash, "2024-12-31"))
}

func (s *JournalServiceTestSuite) TestListEntries_Paginates() {
	for _, d := range []string{"2024-01-10", "2024-02-10", "2024-03-10"} {
		s.post(d, "entry "+d, debit(s.cash, "1"), credit(s.rent, "1"))
	}

	page, next, err := s.journal.ListEntries(s.ctx, dto.ListEntriesParams{Limit: 2})
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Require().NotNil(next)
	s.Equal(date("2024-03-10"), page[0].EntryDate)
	s.True(page[0].EntryDate.After(page[1].EntryDate) || page[0].EntryDate.Equal(page[1].EntryDate))

	rest, next, err := s.journal.ListEntries(s.ctx, dto.ListEntriesParams{Limit: 2, NextToken: next})
	s.Require().NoError(err)
	s.Nil(next)
	s.Require().Len(rest, 1)
	s.Equal(date("2024-01-10"), rest[0].EntryDate)

	drafts, _, err := s.journal.ListEntries(s.ctx, dto.ListEntriesParams{Status: domain.Draft})
	s.Require().NoError(err)
	s.Empty(drafts)
}
