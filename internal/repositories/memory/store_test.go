package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPeriod() domain.FiscalPeriod {
	return domain.FiscalPeriod{
		PeriodID:  "fy24",
		Name:      "FY2024",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Status:    domain.PeriodOpen,
	}
}

func TestWithinTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()
	boom := errors.New("boom")

	err := repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		require.NoError(t, tx.PeriodRepo.SavePeriod(ctx, testPeriod()))
		_, err := tx.PeriodRepo.FindPeriodByID(ctx, "fy24")
		require.NoError(t, err, "writes are visible inside the unit of work")
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repos.PeriodRepo.FindPeriodByID(ctx, "fy24")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestWithinTransaction_CommitIsVisible(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()

	err := repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		return tx.PeriodRepo.SavePeriod(ctx, testPeriod())
	})
	require.NoError(t, err)

	p, err := repos.PeriodRepo.FindPeriodByDate(ctx, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "fy24", p.PeriodID)
}

func TestNextEntryNumber_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repos := store.Repositories()
	require.NoError(t, repos.PeriodRepo.SavePeriod(ctx, testPeriod()))

	const n = 50
	var wg sync.WaitGroup
	numbers := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
				next, err := tx.PeriodRepo.NextEntryNumber(ctx, "fy24")
				numbers <- next
				return err
			})
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[int64]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "entry number %d handed out twice", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestSaveMatch_RejectsSecondActiveMatch(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	require.NoError(t, repos.ReconciliationRepo.SaveBankTransactions(ctx, []domain.BankTransaction{
		{TransactionID: "t1", StatementID: "s1", Amount: decimal.NewFromInt(10)},
		{TransactionID: "t2", StatementID: "s1", Amount: decimal.NewFromInt(10)},
	}))

	require.NoError(t, repos.ReconciliationRepo.SaveMatch(ctx, domain.MatchRecord{MatchID: "m1", BankTransactionID: "t1", JournalEntryID: "e1"}))
	err := repos.ReconciliationRepo.SaveMatch(ctx, domain.MatchRecord{MatchID: "m2", BankTransactionID: "t1", JournalEntryID: "e2"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyMatched)
	err = repos.ReconciliationRepo.SaveMatch(ctx, domain.MatchRecord{MatchID: "m3", BankTransactionID: "t2", JournalEntryID: "e1"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyMatched)

	unmatched, err := repos.ReconciliationRepo.ListBankTransactions(ctx, "s1", true)
	require.NoError(t, err)
	require.Len(t, unmatched, 1)
	assert.Equal(t, "t2", unmatched[0].TransactionID)

	require.NoError(t, repos.ReconciliationRepo.DeleteMatch(ctx, "m1"))
	unmatched, err = repos.ReconciliationRepo.ListBankTransactions(ctx, "s1", true)
	require.NoError(t, err)
	assert.Len(t, unmatched, 2)
}

func TestListEntries_Paginates(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, repos.JournalRepo.SaveEntry(ctx, domain.JournalEntry{
			EntryID:     id,
			EntryDate:   base.AddDate(0, 0, i),
			Status:      domain.Draft,
			AuditFields: domain.AuditFields{CreatedAt: base},
		}))
	}

	var ids []string
	var token *string
	for {
		page, next, err := repos.JournalRepo.ListEntries(ctx, domain.EntryFilter{}, 2, token)
		require.NoError(t, err)
		for _, e := range page {
			ids = append(ids, e.EntryID)
		}
		if next == nil {
			break
		}
		token = next
	}
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, ids)
}
