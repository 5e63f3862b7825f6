package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

type reconciliationRepository struct {
	h handle
}

var _ portsrepo.ReconciliationRepositoryFacade = (*reconciliationRepository)(nil)

func (r *reconciliationRepository) SaveBankTransactions(ctx context.Context, txns []domain.BankTransaction) error {
	return r.h.write(func(st *state) error {
		for _, t := range txns {
			if _, ok := st.bankTxns[t.TransactionID]; ok {
				return fmt.Errorf("bank transaction %s: %w", t.TransactionID, apperrors.ErrDuplicate)
			}
			st.bankTxns[t.TransactionID] = t
		}
		return nil
	})
}

func (r *reconciliationRepository) FindBankTransactionByID(ctx context.Context, transactionID string) (*domain.BankTransaction, error) {
	var out domain.BankTransaction
	err := r.h.read(func(st *state) error {
		t, ok := st.bankTxns[transactionID]
		if !ok {
			return fmt.Errorf("bank transaction %s: %w", transactionID, apperrors.ErrNotFound)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *reconciliationRepository) ListBankTransactions(ctx context.Context, statementID string, unmatchedOnly bool) ([]domain.BankTransaction, error) {
	var out []domain.BankTransaction
	err := r.h.read(func(st *state) error {
		for _, t := range st.bankTxns {
			if t.StatementID != statementID || (unmatchedOnly && t.IsMatched) {
				continue
			}
			out = append(out, t)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TransactionDate.Equal(out[j].TransactionDate) {
			return out[i].TransactionDate.Before(out[j].TransactionDate)
		}
		return out[i].TransactionID < out[j].TransactionID
	})
	return out, err
}

func (r *reconciliationRepository) ListStatementsWithUnmatched(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	err := r.h.read(func(st *state) error {
		for _, t := range st.bankTxns {
			if !t.IsMatched {
				seen[t.StatementID] = true
			}
		}
		return nil
	})
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, err
}

func (r *reconciliationRepository) SaveMatch(ctx context.Context, match domain.MatchRecord) error {
	return r.h.write(func(st *state) error {
		t, ok := st.bankTxns[match.BankTransactionID]
		if !ok {
			return fmt.Errorf("bank transaction %s: %w", match.BankTransactionID, apperrors.ErrNotFound)
		}
		for _, m := range st.matches {
			if m.BankTransactionID == match.BankTransactionID {
				return fmt.Errorf("bank transaction %s: %w", match.BankTransactionID, apperrors.ErrAlreadyMatched)
			}
			if m.JournalEntryID == match.JournalEntryID {
				return fmt.Errorf("journal entry %s: %w", match.JournalEntryID, apperrors.ErrAlreadyMatched)
			}
		}
		st.matches[match.MatchID] = match
		t.IsMatched = true
		st.bankTxns[t.TransactionID] = t
		return nil
	})
}

func (r *reconciliationRepository) FindMatchByID(ctx context.Context, matchID string) (*domain.MatchRecord, error) {
	var out domain.MatchRecord
	err := r.h.read(func(st *state) error {
		m, ok := st.matches[matchID]
		if !ok {
			return fmt.Errorf("match %s: %w", matchID, apperrors.ErrNotFound)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *reconciliationRepository) DeleteMatch(ctx context.Context, matchID string) error {
	return r.h.write(func(st *state) error {
		m, ok := st.matches[matchID]
		if !ok {
			return fmt.Errorf("match %s: %w", matchID, apperrors.ErrNotFound)
		}
		delete(st.matches, matchID)
		if t, ok := st.bankTxns[m.BankTransactionID]; ok {
			t.IsMatched = false
			st.bankTxns[t.TransactionID] = t
		}
		return nil
	})
}

func (r *reconciliationRepository) MatchedEntryIDs(ctx context.Context) (map[string]bool, error) {
	out := map[string]bool{}
	err := r.h.read(func(st *state) error {
		for _, m := range st.matches {
			out[m.JournalEntryID] = true
		}
		return nil
	})
	return out, err
}
