package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) IsInitialized() bool { return m.Called().Bool(0) }

func (m *mockEnqueuer) Enqueue(distinctID string, event string, properties map[string]any) error {
	return m.Called(distinctID, event, properties).Error(0)
}

func TestUnmatchedLog_EnqueuesEachTransaction(t *testing.T) {
	usage := new(mockEnqueuer)
	usage.On("IsInitialized").Return(true)
	usage.On("Enqueue", "importer", "bank_transaction_unmatched", mock.Anything).Return(nil).Once()
	usage.On("Enqueue", "importer", "bank_transaction_unmatched", mock.Anything).Return(errors.New("queue full")).Once()

	ctx := middleware.WithLogger(context.Background(), discardLogger())
	UnmatchedLog{Usage: usage}.HandleUnmatched(ctx, []domain.BankTransaction{
		{TransactionID: "t1", StatementID: "s1", Amount: decimal.NewFromInt(-10), ImportedBy: "importer"},
		{TransactionID: "t2", StatementID: "s1", Amount: decimal.NewFromInt(5), ImportedBy: "importer"},
	})

	usage.AssertNumberOfCalls(t, "Enqueue", 2)
}

func TestUnmatchedLog_WithoutUsageOnlyLogs(t *testing.T) {
	ctx := middleware.WithLogger(context.Background(), discardLogger())
	UnmatchedLog{}.HandleUnmatched(ctx, []domain.BankTransaction{{TransactionID: "t1"}})
}
