package dto

import (
	"time"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AmountRequest is the body of deposit and withdraw requests.
// Amount is decimal text such as "50.00".
type AmountRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// TransferRequest is the body of a transfer request.
type TransferRequest struct {
	ReceiverHandle string `json:"receiverHandle" binding:"required,max=100"`
	Amount         string `json:"amount" binding:"required"`
}

// TransferResponse reports the sender's new balance. The receiver is
// identified by handle only.
type TransferResponse struct {
	Account        AccountResponse `json:"account"`
	ReceiverHandle string          `json:"receiverHandle"`
	Amount         decimal.Decimal `json:"amount"`
}

// LedgerEntryResponse is one history line.
type LedgerEntryResponse struct {
	ID          int64            `json:"id"`
	Kind        domain.EntryKind `json:"kind"`
	Amount      decimal.Decimal  `json:"amount"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// ListEntriesParams defines query parameters for listing history.
type ListEntriesParams struct {
	Limit     int     `form:"limit,default=20" binding:"min=0,max=100"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse wraps one page of history.
type ListEntriesResponse struct {
	Entries   []LedgerEntryResponse `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}

// ToLedgerEntryResponse converts a domain.LedgerEntry to its DTO.
func ToLedgerEntryResponse(e *domain.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:          e.ID,
		Kind:        e.Kind,
		Amount:      e.Amount.Round(domain.AmountScale),
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

// ToLedgerEntryResponses converts a slice of entries, preserving order.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	resp := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		resp[i] = ToLedgerEntryResponse(&entries[i])
	}
	return resp
}
