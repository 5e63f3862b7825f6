package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerSvcFacade derives balances and statements from posted lines. Nothing is cached.
type LedgerSvcFacade interface {
	// Balance returns the account's balance on asOf, signed by its normal side.
	// Header accounts roll up their descendants.
	Balance(ctx context.Context, accountID string, asOf time.Time) (decimal.Decimal, error)

	TrialBalance(ctx context.Context, periodID string) (*domain.TrialBalance, error)
	IncomeStatement(ctx context.Context, from, to time.Time) (*domain.IncomeStatement, error)
	BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheet, error)
	AccountActivity(ctx context.Context, accountID string, from, to time.Time) (*domain.AccountActivity, error)
}
