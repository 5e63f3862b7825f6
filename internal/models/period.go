package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FiscalPeriod is a row of the fiscal_periods table.
type FiscalPeriod struct {
	PeriodID            string     `db:"period_id"`
	Name                string     `db:"name"`
	StartDate           time.Time  `db:"start_date"`
	EndDate             time.Time  `db:"end_date"`
	Status              string     `db:"status"`
	LastEntryNumber     int64      `db:"last_entry_number"`
	CarryForwardEntryID *string    `db:"carry_forward_entry_id"`
	ClosedAt            *time.Time `db:"closed_at"`
	ClosedBy            *string    `db:"closed_by"`
	AuditFields
}

// ClosingSnapshot is a row of the closing_snapshots table.
type ClosingSnapshot struct {
	PeriodID       string          `db:"period_id"`
	AccountID      string          `db:"account_id"`
	NormalSide     string          `db:"normal_side"`
	ClosingBalance decimal.Decimal `db:"closing_balance"`
	CreatedAt      time.Time       `db:"created_at"`
}
