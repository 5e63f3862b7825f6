package services

import (
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_core/internal/core/ports/services"
	"github.com/SscSPs/ledger_core/internal/platform/config"
	"github.com/SscSPs/ledger_core/internal/utils/matching"
)

// Collaborators are the external capabilities the ledger core consumes. Any of them may be nil.
type Collaborators struct {
	Notifier   portssvc.Notifier
	Authorizer portssvc.PostingAuthorizer
	Unmatched  portssvc.UnmatchedHandler
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, collab Collaborators) (*portssvc.ServiceContainer, error) {
	scorer, err := matching.NewScorer(cfg.Matching)
	if err != nil {
		return nil, err
	}

	options := []ServiceOption{
		WithNotifier(collab.Notifier),
		WithPostingAuthorizer(collab.Authorizer),
	}

	container := &portssvc.ServiceContainer{
		Account:        NewAccountService(repos, options...),
		Journal:        NewJournalService(repos, cfg.CurrencyScale, options...),
		Ledger:         NewLedgerService(repos, options...),
		Period:         NewPeriodService(repos, cfg.RetainedEarningsAccountID, options...),
		Reconciliation: NewReconciliationService(repos, scorer, collab.Unmatched, options...),
	}
	return container, nil
}
