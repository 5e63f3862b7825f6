package accounting

import (
	"fmt"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedAmount applies the account's normal side to a debit/credit pair.
// DEBIT to a debit-normal account -> Positive (+)
// CREDIT to a debit-normal account -> Negative (-)
// and the inverse for credit-normal accounts.
func SignedAmount(debit, credit decimal.Decimal, normalSide domain.EntrySide) decimal.Decimal {
	if normalSide == domain.Debit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// SignedLineAmount is SignedAmount for a single journal line.
func SignedLineAmount(line domain.JournalLine, normalSide domain.EntrySide) decimal.Decimal {
	return SignedAmount(line.DebitAmount, line.CreditAmount, normalSide)
}

// FitsScale reports whether d has no digits below the minimum currency unit.
func FitsScale(d decimal.Decimal, scale int32) bool {
	return d.Equal(d.Truncate(scale))
}

// ValidateLineShape checks the structural rules of an entry's lines: at least one line,
// non-negative amounts, exactly one non-zero side per line and amounts within scale.
func ValidateLineShape(lines []domain.JournalLine, scale int32) error {
	if len(lines) == 0 {
		return apperrors.ErrEmptyLines
	}
	for i, l := range lines {
		if l.DebitAmount.IsNegative() || l.CreditAmount.IsNegative() {
			return fmt.Errorf("%w: line %d has a negative amount", apperrors.ErrInvalidLine, i+1)
		}
		if l.DebitAmount.IsZero() == l.CreditAmount.IsZero() {
			return fmt.Errorf("%w: line %d", apperrors.ErrInvalidLine, i+1)
		}
		if !FitsScale(l.Amount(), scale) {
			return fmt.Errorf("%w: line %d amount %s", apperrors.ErrInvalidScale, i+1, l.Amount().String())
		}
	}
	return nil
}

// ValidateBalance checks that debits equal credits across the lines.
func ValidateBalance(lines []domain.JournalLine) error {
	if len(lines) == 0 {
		return apperrors.ErrEmptyLines
	}
	debits, credits := decimal.Zero, decimal.Zero
	for _, l := range lines {
		debits = debits.Add(l.DebitAmount)
		credits = credits.Add(l.CreditAmount)
	}
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits %s, credits %s", apperrors.ErrUnbalanced, debits.String(), credits.String())
	}
	return nil
}

// LineForBalance builds the line that moves an account by a signed balance on its normal side.
// A negative balance lands on the opposite side. Zero balances return false.
func LineForBalance(accountID string, balance decimal.Decimal, normalSide domain.EntrySide) (domain.JournalLine, bool) {
	if balance.IsZero() {
		return domain.JournalLine{}, false
	}
	side := normalSide
	if balance.IsNegative() {
		side = normalSide.Opposite()
	}
	line := domain.JournalLine{AccountID: accountID, DebitAmount: decimal.Zero, CreditAmount: decimal.Zero}
	if side == domain.Debit {
		line.DebitAmount = balance.Abs()
	} else {
		line.CreditAmount = balance.Abs()
	}
	return line, true
}
