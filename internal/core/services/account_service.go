package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/ledger_core/internal/apperrors"
	"github.com/SscSPs/ledger_core/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/dto"
	"github.com/google/uuid"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	repos portsrepo.RepositoryProvider
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(repos portsrepo.RepositoryProvider, options ...ServiceOption) portssvc.AccountSvcFacade {
	return &accountService{
		BaseService: newBaseService(options...),
		repos:       repos,
	}
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, actorID string) (*domain.Account, error) {
	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: code and name are required", apperrors.ErrValidation)
	}
	if !req.AccountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type %q", apperrors.ErrValidation, req.AccountType)
	}
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown account kind %q", apperrors.ErrValidation, req.Kind)
	}
	normalSide := req.NormalSide
	if normalSide == "" {
		normalSide = req.AccountType.DefaultNormalSide()
	}
	if !normalSide.IsValid() {
		return nil, fmt.Errorf("%w: unknown normal side %q", apperrors.ErrValidation, normalSide)
	}

	parentID := ""
	if req.ParentAccountID != nil {
		parentID = strings.TrimSpace(*req.ParentAccountID)
	}
	if parentID != "" {
		if _, err := s.validParent(ctx, s.repos.AccountRepo, parentID, req.AccountType); err != nil {
			s.LogError(ctx, err, "Invalid parent account", slog.String("parent_id", parentID))
			return nil, err
		}
	}

	if existing, err := s.repos.AccountRepo.FindAccountByCode(ctx, code); err == nil {
		return nil, fmt.Errorf("account code %s already used by %s: %w", code, existing.AccountID, apperrors.ErrDuplicate)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	now := s.Now()
	account := domain.Account{
		AccountID:       uuid.NewString(),
		Code:            code,
		Name:            name,
		AccountType:     req.AccountType,
		NormalSide:      normalSide,
		Kind:            req.Kind,
		ParentAccountID: parentID,
		Description:     req.Description,
		IsActive:        true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}

	if err := s.repos.AccountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account", slog.String("code", code))
		return nil, err
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("code", account.Code))
	return &account, nil
}

// validParent resolves parentID and checks that it can hold a child of the given type.
func (s *accountService) validParent(ctx context.Context, reader portsrepo.AccountReader, parentID string, accountType domain.AccountType) (*domain.Account, error) {
	parent, err := reader.FindAccountByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: parent account %s does not exist", apperrors.ErrValidation, parentID)
		}
		return nil, err
	}
	switch {
	case parent.Kind != domain.Header:
		return nil, fmt.Errorf("%w: parent %s is not a header account", apperrors.ErrValidation, parent.Code)
	case !parent.IsActive:
		return nil, fmt.Errorf("%w: parent %s is inactive", apperrors.ErrValidation, parent.Code)
	case parent.AccountType != accountType:
		return nil, fmt.Errorf("%w: parent %s is %s, child is %s", apperrors.ErrValidation, parent.Code, parent.AccountType, accountType)
	}
	return parent, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.repos.AccountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to get account", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

func (s *accountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	return s.repos.AccountRepo.FindAccountByCode(ctx, strings.TrimSpace(code))
}

func (s *accountService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.repos.AccountRepo.ListAccounts(ctx)
}

func (s *accountService) Chart(ctx context.Context) ([]domain.AccountNode, error) {
	accounts, err := s.repos.AccountRepo.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	byID := indexAccounts(accounts)
	children := make(map[string][]domain.Account)
	var roots []domain.Account
	for _, a := range accounts {
		if _, ok := byID[a.ParentAccountID]; a.ParentAccountID == "" || !ok {
			roots = append(roots, a)
			continue
		}
		children[a.ParentAccountID] = append(children[a.ParentAccountID], a)
	}

	var build func(level []domain.Account) []domain.AccountNode
	build = func(level []domain.Account) []domain.AccountNode {
		nodes := make([]domain.AccountNode, 0, len(level))
		for _, a := range level {
			nodes = append(nodes, domain.AccountNode{Account: a, Children: build(children[a.AccountID])})
		}
		return nodes
	}
	return build(roots), nil
}

func (s *accountService) IsPostable(ctx context.Context, accountID string) (bool, error) {
	account, err := s.repos.AccountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return account.IsPostable(), nil
}

func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, actorID string) (*domain.Account, error) {
	account, err := s.repos.AccountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", apperrors.ErrValidation)
		}
		account.Name = name
	}
	if req.Description != nil {
		account.Description = *req.Description
	}
	account.LastUpdatedAt = s.Now()
	account.LastUpdatedBy = actorID

	if err := s.repos.AccountRepo.UpdateAccount(ctx, *account); err != nil {
		s.LogError(ctx, err, "Failed to update account", slog.String("account_id", accountID))
		return nil, err
	}
	s.LogInfo(ctx, "Account updated successfully", slog.String("account_id", accountID))
	return account, nil
}

func (s *accountService) ReparentAccount(ctx context.Context, accountID string, newParentID string, actorID string) (*domain.Account, error) {
	var updated *domain.Account
	err := s.repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		account, err := tx.AccountRepo.FindAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		if account.ParentAccountID == newParentID {
			updated = account
			return nil
		}

		used, err := tx.AccountRepo.HasPostedLines(ctx, accountID)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("%w: %s is referenced by posted lines", apperrors.ErrAccountInUse, account.Code)
		}

		if newParentID != "" {
			if _, err := s.validParent(ctx, tx.AccountRepo, newParentID, account.AccountType); err != nil {
				return err
			}
			chart, err := tx.AccountRepo.ListAccounts(ctx)
			if err != nil {
				return err
			}
			if createsCycle(indexAccounts(chart), accountID, newParentID) {
				return apperrors.ErrCycle
			}
		}

		account.ParentAccountID = newParentID
		account.LastUpdatedAt = s.Now()
		account.LastUpdatedBy = actorID
		if err := tx.AccountRepo.UpdateAccount(ctx, *account); err != nil {
			return err
		}
		updated = account
		return nil
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reparent account",
			slog.String("account_id", accountID),
			slog.String("new_parent_id", newParentID))
		return nil, err
	}

	s.LogInfo(ctx, "Account reparented successfully",
		slog.String("account_id", accountID),
		slog.String("parent_id", newParentID))
	return updated, nil
}

// createsCycle walks up from newParentID and reports whether it reaches accountID.
func createsCycle(byID map[string]domain.Account, accountID, newParentID string) bool {
	seen := map[string]bool{}
	for cur := newParentID; cur != ""; cur = byID[cur].ParentAccountID {
		if cur == accountID || seen[cur] {
			return true
		}
		seen[cur] = true
	}
	return false
}

func indexAccounts(accounts []domain.Account) map[string]domain.Account {
	byID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		byID[a.AccountID] = a
	}
	return byID
}

func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, actorID string) error {
	err := s.repos.TxManager.WithinTransaction(ctx, func(ctx context.Context, tx portsrepo.RepositoryProvider) error {
		account, err := tx.AccountRepo.FindAccountByID(ctx, accountID)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return nil
		}

		used, err := tx.AccountRepo.HasPostedLinesInOpenPeriods(ctx, accountID)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("%w: %s has posted lines in an open period", apperrors.ErrAccountInUse, account.Code)
		}

		if account.Kind == domain.Header {
			chart, err := tx.AccountRepo.ListAccounts(ctx)
			if err != nil {
				return err
			}
			for _, child := range chart {
				if child.ParentAccountID == accountID && child.IsActive {
					return fmt.Errorf("%w: %s has active child %s", apperrors.ErrAccountInUse, account.Code, child.Code)
				}
			}
		}

		account.IsActive = false
		account.LastUpdatedAt = s.Now()
		account.LastUpdatedBy = actorID
		return tx.AccountRepo.UpdateAccount(ctx, *account)
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to deactivate account", slog.String("account_id", accountID))
		return err
	}

	s.LogInfo(ctx, "Account deactivated successfully", slog.String("account_id", accountID))
	return nil
}
