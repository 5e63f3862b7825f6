package domain

import "time"

// EventType names a ledger event sent to notifiers.
type EventType string

const (
	EventEntryPosted        EventType = "entry.posted"
	EventEntryReversed      EventType = "entry.reversed"
	EventPeriodOpened       EventType = "period.opened"
	EventPeriodClosed       EventType = "period.closed"
	EventMatchAutoCommitted EventType = "match.auto_committed"
	EventMatchManual        EventType = "match.manual"
	EventMatchRemoved       EventType = "match.removed"
)

// LedgerEvent is a fact emitted after a successful commit.
type LedgerEvent struct {
	Type        EventType      `json:"type"`
	AggregateID string         `json:"aggregateID"`
	ActorID     string         `json:"actorID"`
	OccurredAt  time.Time      `json:"occurredAt"`
	Properties  map[string]any `json:"properties,omitempty"`
}
