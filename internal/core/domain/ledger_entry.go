package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind is the side of a monetary event recorded against one account.
type EntryKind string

const (
	EntryDeposit     EntryKind = "deposit"
	EntryWithdrawal  EntryKind = "withdrawal"
	EntryTransferOut EntryKind = "transfer_out"
	EntryTransferIn  EntryKind = "transfer_in"
)

// IsValid reports whether k is one of the known entry kinds.
func (k EntryKind) IsValid() bool {
	switch k {
	case EntryDeposit, EntryWithdrawal, EntryTransferOut, EntryTransferIn:
		return true
	}
	return false
}

// IsDebit reports whether the entry reduced the account balance.
func (k EntryKind) IsDebit() bool {
	return k == EntryWithdrawal || k == EntryTransferOut
}

// LedgerEntry is an immutable audit record of one side of a ledger operation.
type LedgerEntry struct {
	ID          int64           `json:"id"`
	AccountID   string          `json:"accountID"`
	Kind        EntryKind       `json:"kind"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// SignedAmount returns the entry's effect on the account balance.
func (e LedgerEntry) SignedAmount() decimal.Decimal {
	if e.Kind.IsDebit() {
		return e.Amount.Neg()
	}
	return e.Amount
}
