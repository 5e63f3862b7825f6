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

type PgxReconciliationRepository struct {
	BaseRepository
}

// Ensure PgxReconciliationRepository implements portsrepo.ReconciliationRepositoryFacade
var _ portsrepo.ReconciliationRepositoryFacade = (*PgxReconciliationRepository)(nil)

const bankTxnColumns = `transaction_id, statement_id, transaction_date, amount, description, reference,
	is_matched, imported_at, imported_by`

const matchColumns = `match_id, bank_transaction_id, journal_entry_id, match_type, confidence_score,
	matched_at, matched_by, notes`

func (r *PgxReconciliationRepository) SaveBankTransactions(ctx context.Context, txns []domain.BankTransaction) error {
	if len(txns) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, t := range txns {
		m := mapping.ToModelBankTransaction(t)
		b.Queue(`
			INSERT INTO bank_transactions (`+bankTxnColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
			m.TransactionID, m.StatementID, m.TransactionDate, m.Amount, m.Description, m.Reference,
			m.IsMatched, m.ImportedAt, m.ImportedBy)
	}
	if err := r.sendBatch(ctx, b); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: bank transaction already imported", apperrors.ErrDuplicate)
		}
		return fmt.Errorf("failed to import bank transactions: %w", err)
	}
	return nil
}

func (r *PgxReconciliationRepository) FindBankTransactionByID(ctx context.Context, transactionID string) (*domain.BankTransaction, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+bankTxnColumns+` FROM bank_transactions WHERE transaction_id = $1`, transactionID)
	if err != nil {
		return nil, notFound(err, "bank transaction", transactionID)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.BankTransaction])
	if err != nil {
		return nil, notFound(err, "bank transaction", transactionID)
	}
	t := mapping.ToDomainBankTransaction(m)
	return &t, nil
}

func (r *PgxReconciliationRepository) ListBankTransactions(ctx context.Context, statementID string, unmatchedOnly bool) ([]domain.BankTransaction, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT `+bankTxnColumns+` FROM bank_transactions
		WHERE statement_id = $1 AND (NOT $2 OR NOT is_matched)
		ORDER BY transaction_date, transaction_id`, statementID, unmatchedOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank transactions of %s: %w", statementID, err)
	}
	modelTxns, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.BankTransaction])
	if err != nil {
		return nil, fmt.Errorf("failed to scan bank transactions of %s: %w", statementID, err)
	}
	out := make([]domain.BankTransaction, 0, len(modelTxns))
	for _, m := range modelTxns {
		out = append(out, mapping.ToDomainBankTransaction(m))
	}
	return out, nil
}

func (r *PgxReconciliationRepository) ListStatementsWithUnmatched(ctx context.Context) ([]string, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT DISTINCT statement_id FROM bank_transactions
		WHERE NOT is_matched ORDER BY statement_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan statements: %w", err)
	}
	return ids, nil
}

// SaveMatch inserts the match and flags the bank transaction. The unique constraints on both
// sides turn a competing match into apperrors.ErrAlreadyMatched.
func (r *PgxReconciliationRepository) SaveMatch(ctx context.Context, match domain.MatchRecord) error {
	if _, err := r.FindBankTransactionByID(ctx, match.BankTransactionID); err != nil {
		return err
	}
	m := mapping.ToModelMatchRecord(match)
	tag, err := r.DB.Exec(ctx, `
		INSERT INTO match_records (`+matchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING;`,
		m.MatchID, m.BankTransactionID, m.JournalEntryID, m.MatchType, m.ConfidenceScore,
		m.MatchedAt, m.MatchedBy, m.Notes)
	if err != nil {
		return fmt.Errorf("failed to save match %s: %w", m.MatchID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bank transaction %s or journal entry %s: %w",
			m.BankTransactionID, m.JournalEntryID, apperrors.ErrAlreadyMatched)
	}
	if _, err := r.DB.Exec(ctx, `UPDATE bank_transactions SET is_matched = TRUE WHERE transaction_id = $1`, m.BankTransactionID); err != nil {
		return fmt.Errorf("failed to flag bank transaction %s: %w", m.BankTransactionID, err)
	}
	return nil
}

func (r *PgxReconciliationRepository) FindMatchByID(ctx context.Context, matchID string) (*domain.MatchRecord, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+matchColumns+` FROM match_records WHERE match_id = $1`, matchID)
	if err != nil {
		return nil, notFound(err, "match", matchID)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.MatchRecord])
	if err != nil {
		return nil, notFound(err, "match", matchID)
	}
	rec := mapping.ToDomainMatchRecord(m)
	return &rec, nil
}

func (r *PgxReconciliationRepository) DeleteMatch(ctx context.Context, matchID string) error {
	var txnID string
	err := r.DB.QueryRow(ctx, `DELETE FROM match_records WHERE match_id = $1 RETURNING bank_transaction_id`, matchID).Scan(&txnID)
	if err != nil {
		return notFound(err, "match", matchID)
	}
	if _, err := r.DB.Exec(ctx, `UPDATE bank_transactions SET is_matched = FALSE WHERE transaction_id = $1`, txnID); err != nil {
		return fmt.Errorf("failed to clear bank transaction %s: %w", txnID, err)
	}
	return nil
}

func (r *PgxReconciliationRepository) MatchedEntryIDs(ctx context.Context) (map[string]bool, error) {
	rows, err := r.DB.Query(ctx, `SELECT journal_entry_id FROM match_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to list matched entries: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan matched entries: %w", err)
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
