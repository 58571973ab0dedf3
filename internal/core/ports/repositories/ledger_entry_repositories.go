package repositories

import (
	"context"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
)

// LedgerEntryWriter appends to the transaction log.
type LedgerEntryWriter interface {
	// AppendEntryInTx appends entry inside the current unit and returns it with
	// its assigned ID and CreatedAt.
	AppendEntryInTx(ctx context.Context, entry domain.LedgerEntry) (*domain.LedgerEntry, error)
}

// LedgerEntryReader reads the transaction log. Results are newest first.
type LedgerEntryReader interface {
	// ListEntriesByAccountID returns every entry of the account.
	ListEntriesByAccountID(ctx context.Context, accountID string) ([]domain.LedgerEntry, error)

	// ListEntriesByAccountIDPage returns at most limit entries after the position
	// encoded in nextToken, and a token for the following page if there is one.
	ListEntriesByAccountIDPage(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error)
}

// LedgerEntryRepositoryFacade combines the transaction log interfaces
type LedgerEntryRepositoryFacade interface {
	LedgerEntryReader
	LedgerEntryWriter
}
