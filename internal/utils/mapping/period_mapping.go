package mapping

import (
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/models"
)

// ToModelFiscalPeriod converts a domain FiscalPeriod to a model FiscalPeriod
func ToModelFiscalPeriod(d domain.FiscalPeriod) models.FiscalPeriod {
	return models.FiscalPeriod{
		PeriodID:            d.PeriodID,
		Name:                d.Name,
		StartDate:           d.StartDate,
		EndDate:             d.EndDate,
		Status:              string(d.Status),
		LastEntryNumber:     d.LastEntryNumber,
		CarryForwardEntryID: nullable(d.CarryForwardEntryID),
		ClosedAt:            d.ClosedAt,
		ClosedBy:            nullable(d.ClosedBy),
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainFiscalPeriod converts a model FiscalPeriod to a domain FiscalPeriod
func ToDomainFiscalPeriod(m models.FiscalPeriod) domain.FiscalPeriod {
	return domain.FiscalPeriod{
		PeriodID:            m.PeriodID,
		Name:                m.Name,
		StartDate:           domain.DateOnly(m.StartDate),
		EndDate:             domain.DateOnly(m.EndDate),
		Status:              domain.PeriodStatus(m.Status),
		LastEntryNumber:     m.LastEntryNumber,
		CarryForwardEntryID: deref(m.CarryForwardEntryID),
		ClosedAt:            m.ClosedAt,
		ClosedBy:            deref(m.ClosedBy),
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelClosingSnapshot converts a domain ClosingSnapshot to a model ClosingSnapshot
func ToModelClosingSnapshot(d domain.ClosingSnapshot) models.ClosingSnapshot {
	return models.ClosingSnapshot{
		PeriodID:       d.PeriodID,
		AccountID:      d.AccountID,
		NormalSide:     string(d.NormalSide),
		ClosingBalance: d.ClosingBalance,
		CreatedAt:      d.CreatedAt,
	}
}

// ToDomainClosingSnapshot converts a model ClosingSnapshot to a domain ClosingSnapshot
func ToDomainClosingSnapshot(m models.ClosingSnapshot) domain.ClosingSnapshot {
	return domain.ClosingSnapshot{
		PeriodID:       m.PeriodID,
		AccountID:      m.AccountID,
		NormalSide:     domain.EntrySide(m.NormalSide),
		ClosingBalance: m.ClosingBalance,
		CreatedAt:      m.CreatedAt,
	}
}
