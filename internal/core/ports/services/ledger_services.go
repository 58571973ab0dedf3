package services

import (
	"context"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/SscSPs/janseva_bank/internal/dto"
	"github.com/shopspring/decimal"
)

// LedgerMutatorSvc moves money. Every call is one atomic unit.
type LedgerMutatorSvc interface {
	// Deposit credits amount to the account.
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Account, error)

	// Withdraw debits amount from the account if the balance covers it.
	Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Account, error)

	// Transfer moves amount from the sender to the account owned by receiverHandle.
	// It returns the updated sender and receiver.
	Transfer(ctx context.Context, senderID string, receiverHandle string, amount decimal.Decimal) (*domain.Account, *domain.Account, error)
}

// LedgerHistorySvc reads the transaction log.
type LedgerHistorySvc interface {
	// History returns all entries of the account, newest first.
	History(ctx context.Context, accountID string) ([]domain.LedgerEntry, error)

	// HistoryPage returns one page of History.
	HistoryPage(ctx context.Context, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// LedgerSvcFacade combines the ledger service interfaces
type LedgerSvcFacade interface {
	LedgerMutatorSvc
	LedgerHistorySvc
}
