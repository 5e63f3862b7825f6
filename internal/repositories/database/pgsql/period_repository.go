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
	"github.com/jackc/pgx/v5"
)

type PgxPeriodRepository struct {
	BaseRepository
}

// Ensure PgxPeriodRepository implements portsrepo.PeriodRepositoryFacade
var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

const periodColumns = `period_id, name, start_date, end_date, status, last_entry_number,
	carry_forward_entry_id, closed_at, closed_by,
	created_at, created_by, last_updated_at, last_updated_by`

func (r *PgxPeriodRepository) findOne(ctx context.Context, key string, query string, args ...any) (*domain.FiscalPeriod, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, notFound(err, "fiscal period", key)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.FiscalPeriod])
	if err != nil {
		return nil, notFound(err, "fiscal period", key)
	}
	p := mapping.ToDomainFiscalPeriod(m)
	return &p, nil
}

func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.FiscalPeriod, error) {
	return r.findOne(ctx, periodID, `SELECT `+periodColumns+` FROM fiscal_periods WHERE period_id = $1`, periodID)
}

// LockPeriod takes a row lock on the period for the rest of the transaction.
func (r *PgxPeriodRepository) LockPeriod(ctx context.Context, periodID string) (*domain.FiscalPeriod, error) {
	return r.findOne(ctx, periodID, `SELECT `+periodColumns+` FROM fiscal_periods WHERE period_id = $1 FOR UPDATE`, periodID)
}

func (r *PgxPeriodRepository) FindPeriodByDate(ctx context.Context, date time.Time) (*domain.FiscalPeriod, error) {
	d := domain.DateOnly(date)
	return r.findOne(ctx, d.Format(time.DateOnly),
		`SELECT `+periodColumns+` FROM fiscal_periods WHERE $1 BETWEEN start_date AND end_date`, d)
}

func (r *PgxPeriodRepository) ListPeriods(ctx context.Context) ([]domain.FiscalPeriod, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+periodColumns+` FROM fiscal_periods ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("failed to list fiscal periods: %w", err)
	}
	modelPeriods, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.FiscalPeriod])
	if err != nil {
		return nil, fmt.Errorf("failed to scan fiscal periods: %w", err)
	}
	out := make([]domain.FiscalPeriod, 0, len(modelPeriods))
	for _, m := range modelPeriods {
		out = append(out, mapping.ToDomainFiscalPeriod(m))
	}
	return out, nil
}

// SavePeriod inserts the period unless it overlaps an existing one. The table-level exclusion
// constraint backs the same rule under concurrent inserts.
func (r *PgxPeriodRepository) SavePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	m := mapping.ToModelFiscalPeriod(period)
	query := `
		INSERT INTO fiscal_periods (` + periodColumns + `)
		SELECT $1::text, $2::text, $3::date, $4::date, $5::text, $6::bigint,
		       $7::text, $8::timestamptz, $9::text,
		       $10::timestamptz, $11::text, $12::timestamptz, $13::text
		WHERE NOT EXISTS (
			SELECT 1 FROM fiscal_periods WHERE start_date <= $4::date AND end_date >= $3::date
		);
	`
	tag, err := r.DB.Exec(ctx, query,
		m.PeriodID, m.Name, m.StartDate, m.EndDate, m.Status, m.LastEntryNumber,
		m.CarryForwardEntryID, m.ClosedAt, m.ClosedBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("fiscal period %s: %w", m.PeriodID, apperrors.ErrDuplicate)
		}
		if isExclusionViolation(err) {
			return fmt.Errorf("fiscal period %s overlaps an existing period: %w", m.Name, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to save fiscal period %s: %w", m.PeriodID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("fiscal period %s overlaps an existing period: %w", m.Name, apperrors.ErrConflict)
	}
	return nil
}

func (r *PgxPeriodRepository) UpdatePeriodStatus(ctx context.Context, periodID string, from, to domain.PeriodStatus, at time.Time, actorID string) error {
	var closedAt *time.Time
	var closedBy *string
	if to == domain.PeriodClosed {
		closedAt, closedBy = &at, &actorID
	}
	tag, err := r.DB.Exec(ctx, `
		UPDATE fiscal_periods
		SET status = $3, closed_at = $4, closed_by = $5, last_updated_at = $6, last_updated_by = $7
		WHERE period_id = $1 AND status = $2;`,
		periodID, string(from), string(to), closedAt, closedBy, at, actorID,
	)
	if err != nil {
		return fmt.Errorf("failed to update status of fiscal period %s: %w", periodID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	p, err := r.FindPeriodByID(ctx, periodID)
	if err != nil {
		return err
	}
	return fmt.Errorf("fiscal period %s is %s, not %s: %w", periodID, p.Status, from, apperrors.ErrInvalidTransition)
}

// NextEntryNumber bumps the counter in place; the row lock it takes serializes concurrent posters.
func (r *PgxPeriodRepository) NextEntryNumber(ctx context.Context, periodID string) (int64, error) {
	var next int64
	err := r.DB.QueryRow(ctx, `
		UPDATE fiscal_periods SET last_entry_number = last_entry_number + 1
		WHERE period_id = $1
		RETURNING last_entry_number;`, periodID).Scan(&next)
	if err != nil {
		return 0, notFound(err, "fiscal period", periodID)
	}
	return next, nil
}

func (r *PgxPeriodRepository) SetCarryForwardEntry(ctx context.Context, periodID string, entryID string) error {
	tag, err := r.DB.Exec(ctx, `
		UPDATE fiscal_periods SET carry_forward_entry_id = $2
		WHERE period_id = $1 AND carry_forward_entry_id IS NULL;`, periodID, entryID)
	if err != nil {
		return fmt.Errorf("failed to link opening balances to fiscal period %s: %w", periodID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	if _, err := r.FindPeriodByID(ctx, periodID); err != nil {
		return err
	}
	return fmt.Errorf("fiscal period %s already has opening balances: %w", periodID, apperrors.ErrDuplicate)
}

// SaveSnapshots writes a period's closing snapshots. The primary key on (period_id, account_id)
// rejects a second set.
func (r *PgxPeriodRepository) SaveSnapshots(ctx context.Context, snapshots []domain.ClosingSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, s := range snapshots {
		m := mapping.ToModelClosingSnapshot(s)
		b.Queue(`
			INSERT INTO closing_snapshots (period_id, account_id, normal_side, closing_balance, created_at)
			VALUES ($1, $2, $3, $4, $5);`,
			m.PeriodID, m.AccountID, m.NormalSide, m.ClosingBalance, m.CreatedAt)
	}
	if err := r.sendBatch(ctx, b); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("closing snapshots for %s: %w", snapshots[0].PeriodID, apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to save closing snapshots for %s: %w", snapshots[0].PeriodID, err)
	}
	return nil
}

func (r *PgxPeriodRepository) ListSnapshots(ctx context.Context, periodID string) ([]domain.ClosingSnapshot, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT period_id, account_id, normal_side, closing_balance, created_at
		FROM closing_snapshots WHERE period_id = $1 ORDER BY account_id`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to list closing snapshots for %s: %w", periodID, err)
	}
	modelSnaps, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.ClosingSnapshot])
	if err != nil {
		return nil, fmt.Errorf("failed to scan closing snapshots for %s: %w", periodID, err)
	}
	out := make([]domain.ClosingSnapshot, 0, len(modelSnaps))
	for _, m := range modelSnaps {
		out = append(out, mapping.ToDomainClosingSnapshot(m))
	}
	return out, nil
}
