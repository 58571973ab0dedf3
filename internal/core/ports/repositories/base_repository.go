package repositories

import (
	"context"
)

// TransactionManager runs work inside one atomic, isolated unit of the store.
type TransactionManager interface {
	// RunInTx executes fn as a single unit. The context passed to fn carries the
	// unit; repository methods suffixed InTx, and LockAccountsForUpdate, join it
	// when called with that context. A non-nil error from fn rolls the unit back.
	// Calling RunInTx with a context that already carries a unit joins it.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
