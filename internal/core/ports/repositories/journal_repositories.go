package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_core/internal/core/domain"
)

// JournalReader defines read operations for journal data
type JournalReader interface {
	// FindEntryByID retrieves an entry together with its lines ordered by line number.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves entries matching filter, newest first, with cursor pagination.
	// Lines are not loaded.
	ListEntries(ctx context.Context, filter domain.EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)

	// ListLedgerLines retrieves lines of posted and reversed entries, ordered by entry date then entry number.
	ListLedgerLines(ctx context.Context, filter domain.LineFilter) ([]domain.LedgerLine, error)

	// ListPostedEntries retrieves posted entries (lines included) dated within [from, to].
	ListPostedEntries(ctx context.Context, from, to time.Time) ([]domain.JournalEntry, error)
}

// JournalWriter defines write operations for journal data
type JournalWriter interface {
	// SaveEntry persists a new entry and its lines.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// LockEntry retrieves an entry with its lines and blocks concurrent writers to it until the
	// surrounding transaction ends.
	LockEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ReplaceDraft overwrites a draft's header fields and lines.
	ReplaceDraft(ctx context.Context, entry domain.JournalEntry) error

	// DeleteDraft removes a draft and its lines. Non-draft entries yield apperrors.ErrInvalidTransition.
	DeleteDraft(ctx context.Context, entryID string) error

	// MarkPosted moves a draft to posted with the given number.
	MarkPosted(ctx context.Context, entryID string, entryNumber int64, postedAt time.Time, postedBy string) error

	// MarkReversed flags a posted entry as reversed by reversalID.
	MarkReversed(ctx context.Context, entryID string, reversalID string, at time.Time, actorID string) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}
