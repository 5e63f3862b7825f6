package repositories

import (
	"context"
)

// TransactionManager runs a unit of work atomically. fn receives repositories bound to the
// transaction; when fn returns an error nothing it wrote is kept.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos RepositoryProvider) error) error
}
