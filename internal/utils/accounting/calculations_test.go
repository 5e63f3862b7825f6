package accounting

import (
	"testing"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSignedAmount(t *testing.T) {
	assert.True(t, SignedAmount(d("100"), d("0"), domain.Debit).Equal(d("100")))
	assert.True(t, SignedAmount(d("100"), d("0"), domain.Credit).Equal(d("-100")))
	assert.True(t, SignedAmount(d("0"), d("40"), domain.Credit).Equal(d("40")))
	assert.True(t, SignedAmount(d("10"), d("40"), domain.Debit).Equal(d("-30")))
}

func TestValidateLineShape(t *testing.T) {
	tests := []struct {
		name    string
		lines   []domain.JournalLine
		wantErr error
	}{
		{"empty", nil, apperrors.ErrEmptyLines},
		{"both sides", []domain.JournalLine{{DebitAmount: d("1"), CreditAmount: d("1")}}, apperrors.ErrInvalidLine},
		{"neither side", []domain.JournalLine{{DebitAmount: d("0"), CreditAmount: d("0")}}, apperrors.ErrInvalidLine},
		{"negative", []domain.JournalLine{{DebitAmount: d("-5"), CreditAmount: d("0")}}, apperrors.ErrInvalidLine},
		{"sub-cent", []domain.JournalLine{{DebitAmount: d("1.005"), CreditAmount: d("0")}}, apperrors.ErrInvalidScale},
		{"ok", []domain.JournalLine{{DebitAmount: d("1.05"), CreditAmount: d("0")}, {DebitAmount: d("0"), CreditAmount: d("1.05")}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLineShape(tt.lines, 2)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestValidateBalance(t *testing.T) {
	err := ValidateBalance([]domain.JournalLine{
		{DebitAmount: d("100"), CreditAmount: d("0")},
		{DebitAmount: d("0"), CreditAmount: d("99.99")},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnbalanced)

	assert.NoError(t, ValidateBalance([]domain.JournalLine{
		{DebitAmount: d("100"), CreditAmount: d("0")},
		{DebitAmount: d("0"), CreditAmount: d("60")},
		{DebitAmount: d("0"), CreditAmount: d("40")},
	}))
}

func TestLineForBalance(t *testing.T) {
	l, ok := LineForBalance("cash", d("250"), domain.Debit)
	require.True(t, ok)
	assert.True(t, l.DebitAmount.Equal(d("250")))
	assert.True(t, l.CreditAmount.IsZero())

	l, ok = LineForBalance("loan", d("-75"), domain.Credit)
	require.True(t, ok)
	assert.True(t, l.DebitAmount.Equal(d("75")), "negative credit-normal balance sits on the debit side")

	_, ok = LineForBalance("empty", decimal.Zero, domain.Debit)
	assert.False(t, ok)
}
