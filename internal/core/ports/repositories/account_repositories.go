package repositories

import (
	"context"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AccountReader defines read operations for account data
type AccountReader interface {
	// FindAccountByID retrieves a specific account by its unique identifier.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// FindAccountByHandle retrieves an account by its owner handle.
	FindAccountByHandle(ctx context.Context, ownerHandle string) (*domain.Account, error)
}

// AccountWriter defines write operations for account data
type AccountWriter interface {
	// CreateAccount persists a new account with a zero balance. It fails with
	// apperrors.ErrDuplicateHandle, apperrors.ErrDuplicateNationalID or
	// apperrors.ErrInvalidNationalID.
	CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error)
}

// AccountTransactionSupport defines balance operations that only run inside
// a unit started by TransactionManager.RunInTx.
type AccountTransactionSupport interface {
	// LockAccountsForUpdate locks the accounts in ascending id order and returns
	// them keyed by id. Missing ids fail with apperrors.ErrNotFound.
	LockAccountsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// AdjustBalanceInTx adds delta to the balance and returns the updated account.
	// It fails with apperrors.ErrInsufficientFunds if the result would fall below minResult.
	AdjustBalanceInTx(ctx context.Context, accountID string, delta decimal.Decimal, minResult decimal.Decimal) (*domain.Account, error)
}

// AccountRepositoryFacade combines all account-related repository interfaces
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}
