package matching

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Config holds the tunable weights, bands and thresholds of the matcher.
type Config struct {
	AutoCommitThreshold float64 // Suggestions at or above are committed automatically
	ReviewThreshold     float64 // Suggestions at or above are surfaced for manual review
	AmountWeight        float64
	DateWeight          float64
	DescriptionWeight   float64
	AmountTolerance     float64 // Relative difference beyond which the amount signal is zero
	CandidateWindowDays int     // Entries further than this from the bank date are not scored
}

// DefaultConfig returns the starting configuration.
func DefaultConfig() Config {
	return Config{
		AutoCommitThreshold: 0.9,
		ReviewThreshold:     0.7,
		AmountWeight:        0.5,
		DateWeight:          0.3,
		DescriptionWeight:   0.2,
		AmountTolerance:     0.05,
		CandidateWindowDays: 30,
	}
}

// Validate rejects configurations where scores could leave [0,1] or a single
// signal could reach the auto-commit threshold on its own.
func (c Config) Validate() error {
	var errs []error
	for name, w := range map[string]float64{"amount": c.AmountWeight, "date": c.DateWeight, "description": c.DescriptionWeight} {
		if w < 0 || w >= c.AutoCommitThreshold {
			errs = append(errs, fmt.Errorf("%s weight %.3f must be in [0, auto-commit threshold)", name, w))
		}
	}
	if sum := c.AmountWeight + c.DateWeight + c.DescriptionWeight; math.Abs(sum-1) > 1e-9 {
		errs = append(errs, fmt.Errorf("weights must sum to 1, got %.4f", sum))
	}
	if c.AutoCommitThreshold <= 0 || c.AutoCommitThreshold > 1 {
		errs = append(errs, fmt.Errorf("auto-commit threshold %.3f out of (0,1]", c.AutoCommitThreshold))
	}
	if c.ReviewThreshold <= 0 || c.ReviewThreshold > c.AutoCommitThreshold {
		errs = append(errs, fmt.Errorf("review threshold %.3f out of (0, auto-commit threshold]", c.ReviewThreshold))
	}
	if c.AmountTolerance <= 0 || c.AmountTolerance >= 1 {
		errs = append(errs, fmt.Errorf("amount tolerance %.3f out of (0,1)", c.AmountTolerance))
	}
	if c.CandidateWindowDays <= 0 {
		errs = append(errs, fmt.Errorf("candidate window must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", apperrors.ErrValidation, errors.Join(errs...))
	}
	return nil
}

// Scorer computes match confidence between bank transactions and journal entries.
type Scorer struct {
	cfg Config
}

// NewScorer returns a scorer for a validated configuration.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Config returns the scorer's configuration.
func (s *Scorer) Config() Config { return s.cfg }

// Score pairs a bank transaction with a journal entry. The entry amount is its total debit,
// compared against the absolute bank amount.
func (s *Scorer) Score(txn domain.BankTransaction, entry domain.JournalEntry) domain.MatchSuggestion {
	breakdown := domain.ScoreBreakdown{
		Amount:      AmountScore(txn.Amount.Abs(), entry.Amount(), s.cfg.AmountTolerance),
		Date:        DateScore(domain.DaysBetween(txn.TransactionDate, entry.EntryDate)),
		Description: DescriptionScore(txn.Description+" "+txn.Reference, entry.Description+" "+entry.Reference),
	}
	confidence := breakdown.Amount*s.cfg.AmountWeight +
		breakdown.Date*s.cfg.DateWeight +
		breakdown.Description*s.cfg.DescriptionWeight

	return domain.MatchSuggestion{
		BankTransactionID: txn.TransactionID,
		JournalEntryID:    entry.EntryID,
		Confidence:        clamp(round4(confidence)),
		Breakdown:         breakdown,
		MatchType:         domain.MatchSuggested,
	}
}

// AmountScore is 1 for equal amounts, decays linearly from 0.6 to 0 across the tolerance
// band, and is 0 beyond it.
func AmountScore(bank, entry decimal.Decimal, tolerance float64) float64 {
	if bank.Equal(entry) {
		return 1
	}
	if bank.IsZero() {
		return 0
	}
	ratio, _ := bank.Sub(entry).Abs().Div(bank.Abs()).Float64()
	if ratio >= tolerance {
		return 0
	}
	return 0.6 * (1 - ratio/tolerance)
}

// DateScore buckets a day gap: same day 1, up to 3 days 0.8, up to 7 days 0.5,
// up to 14 days 0.2, otherwise 0.
func DateScore(days int) float64 {
	switch {
	case days <= 0:
		return 1
	case days <= 3:
		return 0.8
	case days <= 7:
		return 0.5
	case days <= 14:
		return 0.2
	}
	return 0
}

// DescriptionScore buckets the token overlap coefficient of two texts:
// 0.8 and above scores 1, 0.5 scores 0.6, 0.2 scores 0.3, below that 0.
func DescriptionScore(a, b string) float64 {
	overlap := TokenOverlap(Tokenize(a), Tokenize(b))
	switch {
	case overlap >= 0.8:
		return 1
	case overlap >= 0.5:
		return 0.6
	case overlap >= 0.2:
		return 0.3
	}
	return 0
}

// Tokenize lowercases s and splits it on anything that is not a letter or digit.
func Tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}

// TokenOverlap is |a ∩ b| / min(|a|, |b|), or 0 if either set is empty.
func TokenOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := 0
	for t := range small {
		if _, ok := large[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}

func round4(f float64) float64 { return math.Round(f*1e4) / 1e4 }

func clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
