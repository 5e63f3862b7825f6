package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodStatus is the lifecycle state of a fiscal period.
type PeriodStatus string

const (
	PeriodOpen    PeriodStatus = "OPEN"
	PeriodClosing PeriodStatus = "CLOSING"
	PeriodClosed  PeriodStatus = "CLOSED"
)

// FiscalPeriod is a contiguous date range into which entries are posted.
type FiscalPeriod struct {
	PeriodID            string       `json:"periodID"`  // Primary Key (UUID)
	Name                string       `json:"name"`      // e.g. "FY2024"
	StartDate           time.Time    `json:"startDate"` // Inclusive
	EndDate             time.Time    `json:"endDate"`   // Inclusive
	Status              PeriodStatus `json:"status"`
	LastEntryNumber     int64        `json:"lastEntryNumber"`               // Highest number handed out
	CarryForwardEntryID string       `json:"carryForwardEntryID,omitempty"` // Opening balances entry
	ClosedAt            *time.Time   `json:"closedAt,omitempty"`
	ClosedBy            string       `json:"closedBy,omitempty"`
	AuditFields
}

// Contains reports whether the calendar date falls within the period.
func (p FiscalPeriod) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(p.StartDate)) && !d.After(DateOnly(p.EndDate))
}

// Overlaps reports whether the two periods share at least one day.
func (p FiscalPeriod) Overlaps(o FiscalPeriod) bool {
	return !DateOnly(p.EndDate).Before(DateOnly(o.StartDate)) && !DateOnly(o.EndDate).Before(DateOnly(p.StartDate))
}

func (p FiscalPeriod) IsOpen() bool { return p.Status == PeriodOpen }

// ClosingSnapshot freezes one balance sheet account's balance at period end.
type ClosingSnapshot struct {
	PeriodID       string          `json:"periodID"`
	AccountID      string          `json:"accountID"`
	NormalSide     EntrySide       `json:"normalSide"`
	ClosingBalance decimal.Decimal `json:"closingBalance"` // Signed by the account's normal side
	CreatedAt      time.Time       `json:"createdAt"`
}
