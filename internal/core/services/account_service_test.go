package services_test

import (
	"testing"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/stretchr/testify/suite"
)

type AccountServiceTestSuite struct {
	ledgerSuite
}

func TestAccountService(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (s *AccountServiceTestSuite) TestCreateAccount_DefaultsNormalSide() {
	cash := s.detail("1010", domain.Asset)
	rent := s.detail("4010", domain.Revenue)

	s.Equal(domain.Debit, cash.NormalSide)
	s.Equal(domain.Credit, rent.NormalSide)
	s.True(cash.IsActive)
	s.Equal(actor, cash.CreatedBy)
}

func (s *AccountServiceTestSuite) TestCreateAccount_ContraOverride() {
	acc, err := s.accounts.CreateAccount(s.ctx, dto.CreateAccountRequest{
		Code: "1590", Name: "Accumulated Depreciation", AccountType: domain.Asset, Kind: domain.Detail, NormalSide: domain.Credit,
	}, actor)
	s.Require().NoError(err)
	s.Equal(domain.Credit, acc.NormalSide)
}

func (s *AccountServiceTestSuite) TestCreateAccount_DuplicateCodeCaseInsensitive() {
	s.detail("CASH-01", domain.Asset)

	_, err := s.accounts.CreateAccount(s.ctx, dto.CreateAccountRequest{
		Code: "cash-01", Name: "Other", AccountType: domain.Asset, Kind: domain.Detail,
	}, actor)
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *AccountServiceTestSuite) TestCreateAccount_ParentRules() {
	assets := s.account("1000", domain.Asset, domain.Header, nil)
	cash := s.account("1010", domain.Asset, domain.Detail, assets)
	s.Equal(assets.AccountID, cash.ParentAccountID)

	cases := []struct {
		name   string
		parent string
		typ    domain.AccountType
	}{
		{"detail parent", cash.AccountID, domain.Asset},
		{"type mismatch", assets.AccountID, domain.Expense},
		{"unknown parent", "missing", domain.Asset},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			parent := tc.parent
			_, err := s.accounts.CreateAccount(s.ctx, dto.CreateAccountRequest{
				Code: "X-" + tc.name, Name: "x", AccountType: tc.typ, Kind: domain.Detail, ParentAccountID: &parent,
			}, actor)
			s.ErrorIs(err, apperrors.ErrValidation)
		})
	}
}

func (s *AccountServiceTestSuite) TestIsPostable() {
	assets := s.account("1000", domain.Asset, domain.Header, nil)
	cash := s.account("1010", domain.Asset, domain.Detail, assets)

	ok, err := s.accounts.IsPostable(s.ctx, cash.AccountID)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.accounts.IsPostable(s.ctx, assets.AccountID)
	s.Require().NoError(err)
	s.False(ok, "header accounts are not postable")

	ok, err = s.accounts.IsPostable(s.ctx, "missing")
	s.Require().NoError(err)
	s.False(ok)

	s.Require().NoError(s.accounts.DeactivateAccount(s.ctx, cash.AccountID, actor))
	ok, err = s.accounts.IsPostable(s.ctx, cash.AccountID)
	s.Require().NoError(err)
	s.False(ok, "inactive accounts are not postable")
}

func (s *AccountServiceTestSuite) TestReparent_RejectsCycle() {
	root := s.account("1000", domain.Asset, domain.Header, nil)
	mid := s.account("1100", domain.Asset, domain.Header, root)
	leaf := s.account("1110", domain.Asset, domain.Header, mid)

	_, err := s.accounts.ReparentAccount(s.ctx, root.AccountID, leaf.AccountID, actor)
	s.ErrorIs(err, apperrors.ErrCycle)
	s.True(apperrors.IsValidation(err))

	_, err = s.accounts.ReparentAccount(s.ctx, mid.AccountID, mid.AccountID, actor)
	s.ErrorIs(err, apperrors.ErrCycle)

	moved, err := s.accounts.ReparentAccount(s.ctx, leaf.AccountID, root.AccountID, actor)
	s.Require().NoError(err)
	s.Equal(root.AccountID, moved.ParentAccountID)

	moved, err = s.accounts.ReparentAccount(s.ctx, leaf.AccountID, "", actor)
	s.Require().NoError(err)
	s.True(moved.IsRoot())
}

func (s *AccountServiceTestSuite) TestReparent_RejectsAccountWithPostedLines() {
	s.period("FY2024", "2024-01-01", "2024-12-31")
	assets := s.account("1000", domain.Asset, domain.Header, nil)
	cash := s.detail("1010", domain.Asset)
	rent := s.detail("4010", domain.Revenue)
	s.post("2024-06-01", "rent", debit(cash, "1000"), credit(rent, "1000"))

	_, err := s.accounts.ReparentAccount(s.ctx, cash.AccountID, assets.AccountID, actor)
	s.ErrorIs(err, apperrors.ErrAccountInUse)
	s.True(apperrors.IsState(err))
}

func (s *AccountServiceTestSuite) TestDeactivate_RejectsPostedLinesInOpenPeriod() {
	s.period("FY2024", "2024-01-01", "2024-12-31")
	cash := s.detail("1010", domain.Asset)
	rent := s.detail("4010", domain.Revenue)
	s.post("2024-06-01", "rent", debit(cash, "1000"), credit(rent, "1000"))

	err := s.accounts.DeactivateAccount(s.ctx, rent.AccountID, actor)
	s.ErrorIs(err, apperrors.ErrAccountInUse)

	acc, err := s.accounts.GetAccountByID(s.ctx, rent.AccountID)
	s.Require().NoError(err)
	s.True(acc.IsActive)
}

func (s *AccountServiceTestSuite) TestDeactivate_HeaderWithActiveChildren() {
	assets := s.account("1000", domain.Asset, domain.Header, nil)
	cash := s.account("1010", domain.Asset, domain.Detail, assets)

	s.ErrorIs(s.accounts.DeactivateAccount(s.ctx, assets.AccountID, actor), apperrors.ErrAccountInUse)

	s.Require().NoError(s.accounts.DeactivateAccount(s.ctx, cash.AccountID, actor))
	s.Require().NoError(s.accounts.DeactivateAccount(s.ctx, assets.AccountID, actor))
	s.Require().NoError(s.accounts.DeactivateAccount(s.ctx, assets.AccountID, actor), "deactivating twice is a no-op")
}

func (s *AccountServiceTestSuite) TestUpdateAccount_NameOnly() {
	cash := s.detail("1010", domain.Asset)
	name := "Petty Cash"

	updated, err := s.accounts.UpdateAccount(s.ctx, cash.AccountID, dto.UpdateAccountRequest{Name: &name}, actor)
	s.Require().NoError(err)
	s.Equal(name, updated.Name)
	s.Equal("1010", updated.Code)

	byCode, err := s.accounts.GetAccountByCode(s.ctx, "1010")
	s.Require().NoError(err)
	s.Equal(name, byCode.Name)

	empty := "  "
	_, err = s.accounts.UpdateAccount(s.ctx, cash.AccountID, dto.UpdateAccountRequest{Name: &empty}, actor)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *AccountServiceTestSuite) TestChart_NestsChildrenOrderedByCode() {
	assets := s.account("1000", domain.Asset, domain.Header, nil)
	s.account("1020", domain.Asset, domain.Detail, assets)
	s.account("1010", domain.Asset, domain.Detail, assets)
	s.detail("4010", domain.Revenue)

	chart, err := s.accounts.Chart(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(chart, 2)

	s.Equal("1000", chart[0].Code)
	s.Require().Len(chart[0].Children, 2)
	s.Equal("1010", chart[0].Children[0].Code)
	s.Equal("1020", chart[0].Children[1].Code)
	s.Empty(chart[0].Children[0].Children)

	s.Equal("4010", chart[1].Code)
	s.Empty(chart[1].Children)
}
