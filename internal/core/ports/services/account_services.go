package services

import (
	"context"

	"github.com/SscSPs/ledger_core/internal/core/domain"
	"github.com/SscSPs/ledger_core/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID resolves an account by its unique identifier.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountByCode resolves an account by code, case-insensitively.
	GetAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// ListAccounts returns the whole chart ordered by code.
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	// Chart returns the account tree; roots and siblings are ordered by code.
	Chart(ctx context.Context) ([]domain.AccountNode, error)

	// IsPostable reports whether the account is an active detail account.
	IsPostable(ctx context.Context, accountID string) (bool, error)
}

// AccountWriterSvc defines write operations for account data
type AccountWriterSvc interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error)

	// UpdateAccount changes name and description, which stay mutable after posting.
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, actorID string) (*domain.Account, error)

	// ReparentAccount moves an account; empty newParentID makes it a root.
	ReparentAccount(ctx context.Context, accountID string, newParentID string, actorID string) (*domain.Account, error)

	DeactivateAccount(ctx context.Context, accountID string, actorID string) error
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
}
