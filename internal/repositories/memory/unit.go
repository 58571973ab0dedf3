package memory

import (
	"context"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/shopspring/decimal"
)

type unitKey struct{}

// unit is the state of one open RunInTx call.
type unit struct {
	locks    map[string]chan struct{}
	accounts map[string]domain.Account
	balances map[string]decimal.Decimal
	dirty    map[string]struct{}
	entries  []domain.LedgerEntry
}

func newUnit() *unit {
	return &unit{
		locks:    make(map[string]chan struct{}),
		accounts: make(map[string]domain.Account),
		balances: make(map[string]decimal.Decimal),
		dirty:    make(map[string]struct{}),
	}
}

// view returns the locked account with the unit's pending balance.
func (u *unit) view(accountID string) domain.Account {
	acc := u.accounts[accountID]
	acc.Balance = u.balances[accountID]
	return acc
}

func unitFromCtx(ctx context.Context) (*unit, error) {
	u, ok := ctx.Value(unitKey{}).(*unit)
	if !ok {
		return nil, apperrors.NewAppError(500, "memory store: operation requires RunInTx", nil)
	}
	return u, nil
}

// RunInTx implements repositories.TransactionManager.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(unitKey{}).(*unit); ok {
		return fn(ctx)
	}

	u := newUnit()
	defer s.release(u)

	if err := fn(context.WithValue(ctx, unitKey{}, u)); err != nil {
		return err
	}
	return s.commit(u)
}

// commit publishes the unit's balances and entries. Locks are still held.
func (s *Store) commit(u *unit) error {
	if len(u.dirty) == 0 && len(u.entries) == 0 {
		return nil
	}

	rec := walRecord{Type: recordUnitCommitted, Balances: make(map[string]decimal.Decimal, len(u.dirty)), Entries: u.entries}
	for id := range u.dirty {
		rec.Balances[id] = u.balances[id]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wal != nil {
		if err := s.wal.Append(rec); err != nil {
			return apperrors.NewAppError(500, "failed to write unit to wal", err)
		}
	}
	s.applyCommitLocked(rec)
	return nil
}

func (s *Store) applyCommitLocked(rec walRecord) {
	for id, balance := range rec.Balances {
		if acc, ok := s.accounts[id]; ok {
			acc.account.Balance = balance
		}
	}
	for _, entry := range rec.Entries {
		s.entries[entry.AccountID] = append(s.entries[entry.AccountID], entry)
		if entry.ID > s.nextEntryID {
			s.nextEntryID = entry.ID
		}
	}
}

func (s *Store) release(u *unit) {
	for _, lock := range u.locks {
		<-lock
	}
}
