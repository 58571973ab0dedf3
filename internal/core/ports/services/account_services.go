package services

import (
	"context"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/SscSPs/janseva_bank/internal/dto"
)

// AccountReaderSvc defines read operations for account data
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its unique identifier.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountByHandle retrieves an account by its owner handle.
	GetAccountByHandle(ctx context.Context, ownerHandle string) (*domain.Account, error)
}

// AccountRegistrationSvc defines account onboarding and sign-in.
type AccountRegistrationSvc interface {
	// Register creates an account with a zero balance.
	Register(ctx context.Context, req dto.RegisterRequest) (*domain.Account, error)

	// Authenticate resolves a handle and password to an account.
	Authenticate(ctx context.Context, ownerHandle string, password string) (*domain.Account, error)
}

// AccountSvcFacade combines all account-related service interfaces
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountRegistrationSvc
}
