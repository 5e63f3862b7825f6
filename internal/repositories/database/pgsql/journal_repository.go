package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_core/internal/models"
	"github.com/SscSPs/ledger_core/internal/utils/mapping"
	"github.com/SscSPs/ledger_core/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
)

type PgxJournalRepository struct {
	BaseRepository
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryFacade
var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

const entryColumns = `entry_id, entry_number, entry_date, period_id, description, reference, status, source,
	reverses_entry_id, reversed_by_entry_id, posted_at, posted_by,
	created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, entry_id, line_no, account_id, debit_amount, credit_amount, memo`

const insertLine = `
	INSERT INTO journal_lines (` + lineColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
`

func (r *PgxJournalRepository) queryEntries(ctx context.Context, query string, args ...any) ([]domain.JournalEntry, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	modelEntries, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.JournalEntry])
	if err != nil {
		return nil, err
	}
	out := make([]domain.JournalEntry, 0, len(modelEntries))
	for _, m := range modelEntries {
		out = append(out, mapping.ToDomainJournalEntry(m))
	}
	return out, nil
}

// linesFor loads the lines of entryIDs grouped by entry, each group ordered by line number.
func (r *PgxJournalRepository) linesFor(ctx context.Context, entryIDs []string) (map[string][]domain.JournalLine, error) {
	out := make(map[string][]domain.JournalLine, len(entryIDs))
	if len(entryIDs) == 0 {
		return out, nil
	}
	rows, err := r.DB.Query(ctx,
		`SELECT `+lineColumns+` FROM journal_lines WHERE entry_id = ANY($1) ORDER BY entry_id, line_no`, entryIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal lines: %w", err)
	}
	modelLines, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.JournalLine])
	if err != nil {
		return nil, fmt.Errorf("failed to scan journal lines: %w", err)
	}
	for _, m := range modelLines {
		out[m.EntryID] = append(out[m.EntryID], mapping.ToDomainJournalLine(m))
	}
	return out, nil
}

// FindEntryByID retrieves an entry with its lines.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE entry_id = $1`, entryID)
}

// LockEntry retrieves an entry with its lines and holds a row lock on the header until the
// transaction ends. Line writers update the header first, so they queue behind the lock.
func (r *PgxJournalRepository) LockEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	return r.findEntry(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE entry_id = $1 FOR UPDATE`, entryID)
}

func (r *PgxJournalRepository) findEntry(ctx context.Context, query, entryID string) (*domain.JournalEntry, error) {
	rows, err := r.DB.Query(ctx, query, entryID)
	if err != nil {
		return nil, notFound(err, "journal entry", entryID)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.JournalEntry])
	if err != nil {
		return nil, notFound(err, "journal entry", entryID)
	}
	entry := mapping.ToDomainJournalEntry(m)

	lines, err := r.linesFor(ctx, []string{entryID})
	if err != nil {
		return nil, err
	}
	entry.Lines = lines[entryID]
	return &entry, nil
}

// ListEntries pages through entry headers ordered by (entry_date, created_at, entry_id) descending.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, filter domain.EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	var cond conditions
	if filter.PeriodID != "" {
		cond.add("period_id = ?", filter.PeriodID)
	}
	if filter.Status != "" {
		cond.add("status = ?", string(filter.Status))
	}
	if filter.From != nil {
		cond.add("entry_date >= ?", domain.DateOnly(*filter.From))
	}
	if filter.To != nil {
		cond.add("entry_date <= ?", domain.DateOnly(*filter.To))
	}
	if nextToken != nil && *nextToken != "" {
		c, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cond.add("(entry_date, created_at, entry_id) < (?, ?, ?)", c.EntryDate, c.CreatedAt, c.ID)
	}

	query := `SELECT ` + entryColumns + ` FROM journal_entries` + cond.where() +
		` ORDER BY entry_date DESC, created_at DESC, entry_id DESC`
	args := cond.args
	if limit > 0 {
		args = append(args, limit+1)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	entries, err := r.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	if limit <= 0 || len(entries) <= limit {
		return entries, nil, nil
	}
	page := entries[:limit]
	last := page[len(page)-1]
	token := pagination.EncodeToken(pagination.Cursor{EntryDate: last.EntryDate, CreatedAt: last.CreatedAt, ID: last.EntryID})
	return page, &token, nil
}

// ListLedgerLines returns lines of posted and reversed entries in ledger order.
func (r *PgxJournalRepository) ListLedgerLines(ctx context.Context, filter domain.LineFilter) ([]domain.LedgerLine, error) {
	var cond conditions
	cond.add("e.status IN ('POSTED', 'REVERSED')")
	if len(filter.AccountIDs) > 0 {
		cond.add("l.account_id = ANY(?)", filter.AccountIDs)
	}
	if filter.PeriodID != "" {
		cond.add("e.period_id = ?", filter.PeriodID)
	}
	if filter.From != nil {
		cond.add("e.entry_date >= ?", domain.DateOnly(*filter.From))
	}
	if filter.To != nil {
		cond.add("e.entry_date <= ?", domain.DateOnly(*filter.To))
	}
	if len(filter.ExcludeSources) > 0 {
		sources := make([]string, 0, len(filter.ExcludeSources))
		for _, s := range filter.ExcludeSources {
			sources = append(sources, string(s))
		}
		cond.add("NOT (e.source = ANY(?))", sources)
	}

	query := `
		SELECT l.line_id, l.entry_id, l.line_no, l.account_id, l.debit_amount, l.credit_amount, l.memo,
		       e.entry_number, e.entry_date, e.period_id, e.source, e.description
		FROM journal_lines l
		JOIN journal_entries e ON e.entry_id = l.entry_id` + cond.where() + `
		ORDER BY e.entry_date, e.posted_at, e.entry_id, l.line_no`

	rows, err := r.DB.Query(ctx, query, cond.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger lines: %w", err)
	}
	defer rows.Close()

	var out []domain.LedgerLine
	for rows.Next() {
		var (
			m      models.JournalLine
			ll     domain.LedgerLine
			source string
		)
		if err := rows.Scan(
			&m.LineID, &m.EntryID, &m.LineNo, &m.AccountID, &m.DebitAmount, &m.CreditAmount, &m.Memo,
			&ll.EntryNumber, &ll.EntryDate, &ll.PeriodID, &source, &ll.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger line: %w", err)
		}
		ll.JournalLine = mapping.ToDomainJournalLine(m)
		ll.EntryDate = domain.DateOnly(ll.EntryDate)
		ll.Source = domain.EntrySource(source)
		out = append(out, ll)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger lines: %w", err)
	}
	return out, nil
}

// ListPostedEntries returns posted entries dated within [from, to], lines included.
func (r *PgxJournalRepository) ListPostedEntries(ctx context.Context, from, to time.Time) ([]domain.JournalEntry, error) {
	entries, err := r.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM journal_entries
		WHERE status = 'POSTED' AND entry_date BETWEEN $1 AND $2
		ORDER BY entry_date, period_id, entry_number`,
		domain.DateOnly(from), domain.DateOnly(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list posted entries: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.EntryID)
	}
	lines, err := r.linesFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].Lines = lines[entries[i].EntryID]
	}
	return entries, nil
}

func queueLines(b *pgx.Batch, lines []domain.JournalLine) {
	for _, l := range lines {
		m := mapping.ToModelJournalLine(l)
		b.Queue(insertLine, m.LineID, m.EntryID, m.LineNo, m.AccountID, m.DebitAmount, m.CreditAmount, m.Memo)
	}
}

// SaveEntry inserts the entry header and its lines in one batch.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	b := &pgx.Batch{}
	b.Queue(`
		INSERT INTO journal_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);`,
		m.EntryID, m.EntryNumber, m.EntryDate, m.PeriodID, m.Description, m.Reference, m.Status, m.Source,
		m.ReversesEntryID, m.ReversedByEntryID, m.PostedAt, m.PostedBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	queueLines(b, entry.Lines)

	if err := r.sendBatch(ctx, b); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: journal entry %s", apperrors.ErrDuplicate, m.EntryID)
		}
		return fmt.Errorf("failed to save journal entry %s: %w", m.EntryID, err)
	}
	return nil
}

// transitionFailed explains why a status-guarded statement touched no row.
func (r *PgxJournalRepository) transitionFailed(ctx context.Context, entryID string) error {
	var status string
	err := r.DB.QueryRow(ctx, `SELECT status FROM journal_entries WHERE entry_id = $1`, entryID).Scan(&status)
	if err != nil {
		return notFound(err, "journal entry", entryID)
	}
	return fmt.Errorf("journal entry %s is %s: %w", entryID, status, apperrors.ErrInvalidTransition)
}

// ReplaceDraft overwrites a draft header and swaps its lines.
func (r *PgxJournalRepository) ReplaceDraft(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	tag, err := r.DB.Exec(ctx, `
		UPDATE journal_entries
		SET entry_date = $2, period_id = $3, description = $4, reference = $5,
		    last_updated_at = $6, last_updated_by = $7
		WHERE entry_id = $1 AND status = 'DRAFT';`,
		m.EntryID, m.EntryDate, m.PeriodID, m.Description, m.Reference, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update draft %s: %w", m.EntryID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.transitionFailed(ctx, m.EntryID)
	}

	b := &pgx.Batch{}
	b.Queue(`DELETE FROM journal_lines WHERE entry_id = $1`, m.EntryID)
	queueLines(b, entry.Lines)
	if err := r.sendBatch(ctx, b); err != nil {
		return fmt.Errorf("failed to replace lines of draft %s: %w", m.EntryID, err)
	}
	return nil
}

// DeleteDraft removes a draft; its lines go with it through the foreign key cascade.
func (r *PgxJournalRepository) DeleteDraft(ctx context.Context, entryID string) error {
	tag, err := r.DB.Exec(ctx, `DELETE FROM journal_entries WHERE entry_id = $1 AND status = 'DRAFT'`, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.transitionFailed(ctx, entryID)
	}
	return nil
}

func (r *PgxJournalRepository) MarkPosted(ctx context.Context, entryID string, entryNumber int64, postedAt time.Time, postedBy string) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE journal_entries
		SET status = 'POSTED', entry_number = $2, posted_at = $3, posted_by = $4,
		    last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1 AND status = 'DRAFT';`,
		entryID, entryNumber, postedAt, postedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: entry number %d already used", apperrors.ErrConflict, entryNumber)
		}
		return fmt.Errorf("failed to post journal entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.transitionFailed(ctx, entryID)
	}
	return nil
}

func (r *PgxJournalRepository) MarkReversed(ctx context.Context, entryID string, reversalID string, at time.Time, actorID string) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE journal_entries
		SET status = 'REVERSED', reversed_by_entry_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE entry_id = $1 AND status = 'POSTED';`,
		entryID, reversalID, at, actorID,
	)
	if err != nil {
		return fmt.Errorf("failed to reverse journal entry %s: %w", entryID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.transitionFailed(ctx, entryID)
	}
	return nil
}
