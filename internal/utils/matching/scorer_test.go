package matching

import (
	"testing"
	"time"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(id string, date time.Time, amount, description string) domain.JournalEntry {
	amt := decimal.RequireFromString(amount)
	return domain.JournalEntry{
		EntryID:     id,
		EntryDate:   date,
		Description: description,
		Status:      domain.Posted,
		Lines: []domain.JournalLine{
			{AccountID: "bank", DebitAmount: amt, CreditAmount: decimal.Zero},
			{AccountID: "ar", DebitAmount: decimal.Zero, CreditAmount: amt},
		},
	}
}

func TestScorer_InvoiceScenario(t *testing.T) {
	s, err := NewScorer(DefaultConfig())
	require.NoError(t, err)

	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	txn := domain.BankTransaction{
		TransactionID:   "tx-1",
		TransactionDate: day,
		Amount:          decimal.NewFromInt(28750),
		Description:     "INV-2024-001",
	}
	got := s.Score(txn, entry("je-1", day, "28750", "Customer payment INV-2024-001"))

	assert.Equal(t, 1.0, got.Breakdown.Amount)
	assert.Equal(t, 1.0, got.Breakdown.Date)
	assert.Equal(t, 1.0, got.Breakdown.Description)
	assert.GreaterOrEqual(t, got.Confidence, DefaultConfig().AutoCommitThreshold)
	assert.Equal(t, "tx-1", got.BankTransactionID)
	assert.Equal(t, "je-1", got.JournalEntryID)
}

func TestScorer_FarApartPairScoresLow(t *testing.T) {
	s, err := NewScorer(DefaultConfig())
	require.NoError(t, err)

	txn := domain.BankTransaction{
		TransactionDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Amount:          decimal.NewFromInt(-1000),
		Description:     "office rent june",
	}
	got := s.Score(txn, entry("je", time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), "1060", "office rent june"))

	assert.Zero(t, got.Breakdown.Amount)
	assert.Zero(t, got.Breakdown.Date)
	assert.Less(t, got.Confidence, 0.3)
}

func TestScorer_ConfidenceBounds(t *testing.T) {
	s, err := NewScorer(DefaultConfig())
	require.NoError(t, err)
	base := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	amounts := []string{"0.01", "95", "99.5", "100", "104.99", "250"}
	descs := []string{"", "x", "payroll january", "ACME corp payroll january 2024"}
	for _, a := range amounts {
		for _, desc := range descs {
			for gap := -40; gap <= 40; gap += 3 {
				txn := domain.BankTransaction{TransactionDate: base, Amount: decimal.NewFromInt(100), Description: "ACME payroll"}
				got := s.Score(txn, entry("e", base.AddDate(0, 0, gap), a, desc))
				assert.GreaterOrEqual(t, got.Confidence, 0.0)
				assert.LessOrEqual(t, got.Confidence, 1.0)
			}
		}
	}
}

func TestAmountScore(t *testing.T) {
	tol := 0.05
	assert.Equal(t, 1.0, AmountScore(decimal.NewFromInt(100), decimal.NewFromInt(100), tol))
	assert.InDelta(t, 0.6*(1-0.02/0.05), AmountScore(decimal.NewFromInt(100), decimal.NewFromInt(98), tol), 1e-9)
	assert.Zero(t, AmountScore(decimal.NewFromInt(100), decimal.NewFromInt(105), tol))
	assert.Zero(t, AmountScore(decimal.Zero, decimal.NewFromInt(5), tol))
}

func TestDateScore(t *testing.T) {
	cases := map[int]float64{0: 1, 1: 0.8, 3: 0.8, 4: 0.5, 7: 0.5, 8: 0.2, 14: 0.2, 15: 0, 90: 0}
	for days, want := range cases {
		assert.Equal(t, want, DateScore(days), "days=%d", days)
	}
}

func TestDescriptionScore(t *testing.T) {
	assert.Equal(t, 1.0, DescriptionScore("INV-2024-001", "payment inv 2024 001"))
	assert.Equal(t, 0.6, DescriptionScore("inv 2024 001 acme", "inv 2024 zzz yyy"))
	assert.Equal(t, 0.3, DescriptionScore("alpha beta gamma delta", "alpha x y z"))
	assert.Equal(t, 0.0, DescriptionScore("alpha", "omega"))
	assert.Equal(t, 0.0, DescriptionScore("", "omega"))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.AmountWeight = 0.95
	cfg.DateWeight = 0.05
	cfg.DescriptionWeight = 0
	err := cfg.Validate()
	assert.ErrorIs(t, err, apperrors.ErrValidation, "a single signal must not reach the auto-commit threshold")

	cfg = DefaultConfig()
	cfg.ReviewThreshold = 0.95
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.DateWeight = 0.4
	assert.Error(t, cfg.Validate(), "weights must sum to one")
}
