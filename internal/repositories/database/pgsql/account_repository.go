package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_core/internal/models"
	"github.com/SscSPs/ledger_core/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
)

type PgxAccountRepository struct {
	BaseRepository
}

// Ensure PgxAccountRepository implements portsrepo.AccountRepositoryFacade
var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

const accountColumns = `account_id, code, name, account_type, normal_side, kind, parent_account_id,
	description, is_active, created_at, created_by, last_updated_at, last_updated_by`

func (r *PgxAccountRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]domain.Account, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	modelAccs, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, err
	}
	out := make([]domain.Account, 0, len(modelAccs))
	for _, m := range modelAccs {
		out = append(out, mapping.ToDomainAccount(m))
	}
	return out, nil
}

func (r *PgxAccountRepository) findOne(ctx context.Context, what, key, query string) (*domain.Account, error) {
	rows, err := r.DB.Query(ctx, query, key)
	if err != nil {
		return nil, notFound(err, what, key)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Account])
	if err != nil {
		return nil, notFound(err, what, key)
	}
	acc := mapping.ToDomainAccount(m)
	return &acc, nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return r.findOne(ctx, "account", accountID,
		`SELECT `+accountColumns+` FROM accounts WHERE account_id = $1`)
}

// FindAccountByCode retrieves an account by code, ignoring case.
func (r *PgxAccountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	return r.findOne(ctx, "account code", code,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(code) = lower($1)`)
}

// FindAccountsByIDs retrieves multiple accounts. Unknown ids are simply absent from the map.
func (r *PgxAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	if len(accountIDs) == 0 {
		return out, nil
	}
	accs, err := r.queryAccounts(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_id = ANY($1)`, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to find accounts by ids: %w", err)
	}
	for _, a := range accs {
		out[a.AccountID] = a
	}
	return out, nil
}

func (r *PgxAccountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	accs, err := r.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accs, nil
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := r.DB.Exec(ctx, query,
		m.AccountID, m.Code, m.Name, m.AccountType, m.NormalSide, m.Kind, m.ParentAccountID,
		m.Description, m.IsActive, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account code %s already exists", apperrors.ErrDuplicate, m.Code)
		}
		return fmt.Errorf("failed to save account %s: %w", m.AccountID, err)
	}
	return nil
}

// UpdateAccount rewrites the mutable columns of an account.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	m := mapping.ToModelAccount(account)
	query := `
		UPDATE accounts
		SET name = $2, description = $3, parent_account_id = $4, is_active = $5,
		    last_updated_at = $6, last_updated_by = $7
		WHERE account_id = $1;
	`
	tag, err := r.DB.Exec(ctx, query,
		m.AccountID, m.Name, m.Description, m.ParentAccountID, m.IsActive, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %s: %w", m.AccountID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %s: %w", m.AccountID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxAccountRepository) HasPostedLines(ctx context.Context, accountID string) (bool, error) {
	return r.hasPostedLines(ctx, accountID, false)
}

func (r *PgxAccountRepository) HasPostedLinesInOpenPeriods(ctx context.Context, accountID string) (bool, error) {
	return r.hasPostedLines(ctx, accountID, true)
}

func (r *PgxAccountRepository) hasPostedLines(ctx context.Context, accountID string, openOnly bool) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM journal_lines l
			JOIN journal_entries e ON e.entry_id = l.entry_id
			JOIN fiscal_periods p ON p.period_id = e.period_id
			WHERE l.account_id = $1
			  AND e.status IN ('POSTED', 'REVERSED')
			  AND (NOT $2 OR p.status <> 'CLOSED')
		);
	`
	var found bool
	if err := r.DB.QueryRow(ctx, query, accountID, openOnly).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to check usage of account %s: %w", accountID, err)
	}
	return found, nil
}
