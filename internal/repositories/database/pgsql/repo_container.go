package pgsql

import (
	portsrepo "github.com/SscSPs/ledger_core/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires the Postgres repositories around dbPool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	repos := providerFor(dbPool)
	repos.TxManager = &PgxTransactionManager{pool: dbPool}
	return repos
}

// providerFor binds every repository to db. Without a TxManager the result is only usable
// inside WithinTransaction or for plain reads.
func providerFor(db Querier) portsrepo.RepositoryProvider {
	base := BaseRepository{DB: db}
	return portsrepo.RepositoryProvider{
		AccountRepo:        &PgxAccountRepository{BaseRepository: base},
		JournalRepo:        &PgxJournalRepository{BaseRepository: base},
		PeriodRepo:         &PgxPeriodRepository{BaseRepository: base},
		ReconciliationRepo: &PgxReconciliationRepository{BaseRepository: base},
	}
}
