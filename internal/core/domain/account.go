package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a customer account holding a single balance.
// Balance is never negative and only changes through the ledger.
type Account struct {
	ID           string          `json:"id"`
	OwnerHandle  string          `json:"ownerHandle"`
	NationalID   string          `json:"nationalID"`
	PasswordHash string          `json:"-"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"createdAt"`
}
