package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgxpool.Pool and pgx.Tx the repositories use.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	DB Querier
}

// sendBatch runs b and reports the first failing statement.
func (r *BaseRepository) sendBatch(ctx context.Context, b *pgx.Batch) error {
	br := r.DB.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return err
		}
	}
	return br.Close()
}

const (
	uniqueViolation    = "23505"
	exclusionViolation = "23P01"
)

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func isUniqueViolation(err error) bool    { return hasCode(err, uniqueViolation) }
func isExclusionViolation(err error) bool { return hasCode(err, exclusionViolation) }

// notFound maps pgx.ErrNoRows to apperrors.ErrNotFound and wraps anything else.
func notFound(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, apperrors.ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %s: %w", what, id, err)
}

// PgxTransactionManager runs units of work on a pooled connection.
type PgxTransactionManager struct {
	pool *pgxpool.Pool
}

var _ portsrepo.TransactionManager = (*PgxTransactionManager)(nil)

// WithinTransaction begins a transaction, hands fn repositories bound to it and commits when fn
// succeeds. Any error rolls the transaction back.
func (m *PgxTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos portsrepo.RepositoryProvider) error) error {
	tx, err := m.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}

	if err := fn(ctx, providerFor(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, apperrors.NewAppError(500, "failed to rollback transaction", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// conditions accumulates WHERE clauses with positional arguments.
type conditions struct {
	clauses []string
	args    []any
}

// add appends clause, replacing each "?" with the next placeholder bound to the matching arg.
func (c *conditions) add(clause string, args ...any) {
	var b strings.Builder
	i := 0
	for _, ch := range clause {
		if ch == '?' && i < len(args) {
			c.args = append(c.args, args[i])
			fmt.Fprintf(&b, "$%d", len(c.args))
			i++
			continue
		}
		b.WriteRune(ch)
	}
	c.clauses = append(c.clauses, b.String())
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}
