package services

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
)

// JournalReaderSvc defines read operations for journal entries
type JournalReaderSvc interface {
	GetEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)
	ListEntries(ctx context.Context, params dto.ListEntriesParams) ([]domain.JournalEntry, *string, error)
}

// JournalWriterSvc defines the entry lifecycle operations
type JournalWriterSvc interface {
	// CreateDraft validates line shape and postability and stores a draft.
	CreateDraft(ctx context.Context, req dto.CreateEntryRequest, actorID string) (*domain.JournalEntry, error)

	// UpdateDraft replaces a draft's date, text and lines.
	UpdateDraft(ctx context.Context, entryID string, req dto.CreateEntryRequest, actorID string) (*domain.JournalEntry, error)

	// DiscardDraft deletes a draft. Posted entries can only be reversed.
	DiscardDraft(ctx context.Context, entryID string, actorID string) error

	// PostEntry makes a draft visible to the ledger.
	PostEntry(ctx context.Context, entryID string, actorID string) (*domain.JournalEntry, error)

	// ReverseEntry posts the debit/credit mirror of a posted entry.
	ReverseEntry(ctx context.Context, entryID string, req dto.ReverseEntryRequest, actorID string) (*domain.JournalEntry, error)
}

// JournalSvcFacade combines all journal-related service interfaces
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
