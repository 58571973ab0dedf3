package memory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/shopspring/decimal"
)

type recordType string

const (
	recordAccountCreated recordType = "account_created"
	recordUnitCommitted  recordType = "unit_committed"
)

// walRecord is one line of the write-ahead log.
type walRecord struct {
	Type     recordType                 `json:"type"`
	Account  *walAccount                `json:"account,omitempty"`
	Balances map[string]decimal.Decimal `json:"balances,omitempty"`
	Entries  []domain.LedgerEntry       `json:"entries,omitempty"`
}

// walAccount mirrors domain.Account including the password hash,
// which domain.Account leaves out of its JSON form.
type walAccount struct {
	ID           string    `json:"id"`
	OwnerHandle  string    `json:"ownerHandle"`
	NationalID   string    `json:"nationalID"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func accountCreatedRecord(acc domain.Account) walRecord {
	return walRecord{
		Type: recordAccountCreated,
		Account: &walAccount{
			ID:           acc.ID,
			OwnerHandle:  acc.OwnerHandle,
			NationalID:   acc.NationalID,
			PasswordHash: acc.PasswordHash,
			CreatedAt:    acc.CreatedAt,
		},
	}
}

func (s *Store) replay() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Replay(func(raw json.RawMessage) error {
		var rec walRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		switch rec.Type {
		case recordAccountCreated:
			if rec.Account == nil {
				return fmt.Errorf("account record without account")
			}
			s.insertAccountLocked(domain.Account{
				ID:           rec.Account.ID,
				OwnerHandle:  rec.Account.OwnerHandle,
				NationalID:   rec.Account.NationalID,
				PasswordHash: rec.Account.PasswordHash,
				Balance:      decimal.Zero,
				CreatedAt:    rec.Account.CreatedAt,
			})
		case recordUnitCommitted:
			s.applyCommitLocked(rec)
		default:
			return fmt.Errorf("unknown wal record type %q", rec.Type)
		}
		return nil
	})
}
