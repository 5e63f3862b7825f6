package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
)

type accountRepository struct {
	h handle
}

var _ portsrepo.AccountRepositoryFacade = (*accountRepository)(nil)

func (r *accountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	var out domain.Account
	err := r.h.read(func(st *state) error {
		acc, ok := st.accounts[accountID]
		if !ok {
			return fmt.Errorf("account %s: %w", accountID, apperrors.ErrNotFound)
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *accountRepository) FindAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	var out *domain.Account
	err := r.h.read(func(st *state) error {
		for _, acc := range st.accounts {
			if strings.EqualFold(acc.Code, code) {
				a := acc
				out = &a
				return nil
			}
		}
		return fmt.Errorf("account code %s: %w", code, apperrors.ErrNotFound)
	})
	return out, err
}

func (r *accountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(accountIDs))
	err := r.h.read(func(st *state) error {
		for _, id := range accountIDs {
			if acc, ok := st.accounts[id]; ok {
				out[id] = acc
			}
		}
		return nil
	})
	return out, err
}

func (r *accountRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var out []domain.Account
	err := r.h.read(func(st *state) error {
		out = make([]domain.Account, 0, len(st.accounts))
		for _, acc := range st.accounts {
			out = append(out, acc)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i].Code) < strings.ToLower(out[j].Code) })
	return out, err
}

func codeTaken(st *state, code, exceptID string) bool {
	for id, acc := range st.accounts {
		if id != exceptID && strings.EqualFold(acc.Code, code) {
			return true
		}
	}
	return false
}

func (r *accountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.accounts[account.AccountID]; ok {
			return fmt.Errorf("account %s: %w", account.AccountID, apperrors.ErrDuplicate)
		}
		if codeTaken(st, account.Code, "") {
			return fmt.Errorf("account code %s: %w", account.Code, apperrors.ErrDuplicate)
		}
		st.accounts[account.AccountID] = account
		return nil
	})
}

func (r *accountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	return r.h.write(func(st *state) error {
		if _, ok := st.accounts[account.AccountID]; !ok {
			return fmt.Errorf("account %s: %w", account.AccountID, apperrors.ErrNotFound)
		}
		if codeTaken(st, account.Code, account.AccountID) {
			return fmt.Errorf("account code %s: %w", account.Code, apperrors.ErrDuplicate)
		}
		st.accounts[account.AccountID] = account
		return nil
	})
}

func (r *accountRepository) HasPostedLines(ctx context.Context, accountID string) (bool, error) {
	return r.hasPostedLines(accountID, false)
}

func (r *accountRepository) HasPostedLinesInOpenPeriods(ctx context.Context, accountID string) (bool, error) {
	return r.hasPostedLines(accountID, true)
}

func (r *accountRepository) hasPostedLines(accountID string, openOnly bool) (bool, error) {
	found := false
	err := r.h.read(func(st *state) error {
		for _, e := range st.entries {
			if !e.Status.AffectsLedger() {
				continue
			}
			if openOnly {
				if p, ok := st.periods[e.PeriodID]; ok && p.Status == domain.PeriodClosed {
					continue
				}
			}
			for _, l := range e.Lines {
				if l.AccountID == accountID {
					found = true
					return nil
				}
			}
		}
		return nil
	})
	return found, err
}
