package dto

import "time"

// OpenPeriodRequest defines the data needed to open a fiscal period.
type OpenPeriodRequest struct {
	Name      string    `json:"name" binding:"required,max=100"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required,gtfield=StartDate"`
}

// ClosePeriodRequest optionally overrides the configured retained earnings account.
type ClosePeriodRequest struct {
	RetainedEarningsAccountID string `json:"retainedEarningsAccountID"`
}
