package dto

import (
	"time"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RegisterRequest defines the data needed to open a new account.
type RegisterRequest struct {
	OwnerHandle string `json:"ownerHandle" binding:"required,max=100"`
	NationalID  string `json:"nationalID" binding:"required,nationalid"`
	// bcrypt ignores input past 72 bytes.
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// AccountResponse defines the data returned for the caller's own account.
type AccountResponse struct {
	ID          string          `json:"id"`
	OwnerHandle string          `json:"ownerHandle"`
	Balance     decimal.Decimal `json:"balance"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ToAccountResponse converts a domain.Account to AccountResponse DTO.
// The national id and password hash are never returned.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		ID:          acc.ID,
		OwnerHandle: acc.OwnerHandle,
		Balance:     acc.Balance.Round(domain.AmountScale),
		CreatedAt:   acc.CreatedAt,
	}
}
