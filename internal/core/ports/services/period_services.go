package services

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
)

// PeriodSvcFacade manages fiscal periods and the year-end close.
type PeriodSvcFacade interface {
	// OpenPeriod creates an open period. If the period that ends the day before is closed,
	// its balances are carried forward immediately.
	OpenPeriod(ctx context.Context, req dto.OpenPeriodRequest, actorID string) (*domain.FiscalPeriod, error)

	// ClosePeriod runs Open -> Closing -> Closed. Any failure puts the period back to Open.
	ClosePeriod(ctx context.Context, periodID string, req dto.ClosePeriodRequest, actorID string) (*domain.FiscalPeriod, error)

	GetPeriodByID(ctx context.Context, periodID string) (*domain.FiscalPeriod, error)
	ListPeriods(ctx context.Context) ([]domain.FiscalPeriod, error)
	ListSnapshots(ctx context.Context, periodID string) ([]domain.ClosingSnapshot, error)
}
