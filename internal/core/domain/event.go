package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerOperation names a committed ledger operation.
type LedgerOperation string

const (
	OperationDeposit  LedgerOperation = "deposit"
	OperationWithdraw LedgerOperation = "withdraw"
	OperationTransfer LedgerOperation = "transfer"
)

// LedgerEvent describes a ledger operation after it has committed.
// Entries holds every entry the operation appended.
type LedgerEvent struct {
	EventID    string          `json:"eventID"`
	Operation  LedgerOperation `json:"operation"`
	AccountID  string          `json:"accountID"`
	Amount     decimal.Decimal `json:"amount"`
	Entries    []LedgerEntry   `json:"entries"`
	OccurredAt time.Time       `json:"occurredAt"`
}
