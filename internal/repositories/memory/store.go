// Package memory implements the account store and transaction log in process.
// Units lock accounts with per-account semaphores taken in ascending id order;
// a unit's changes become visible only when it commits. With a WAL attached,
// every commit is written and synced before it is applied, and NewStore
// replays the log on start.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/SscSPs/janseva_bank/internal/core/ports/repositories"
	"github.com/SscSPs/janseva_bank/pkg/wal"
	"github.com/shopspring/decimal"
)

const defaultLockTimeout = 3 * time.Second

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds how long a unit waits for an account lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithWAL makes the store durable through w.
func WithWAL(w *wal.WAL) Option {
	return func(s *Store) { s.wal = w }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithAppendHook installs fn to run before every log append; an error from fn
// fails the append. Used to inject storage faults.
func WithAppendHook(fn func(entry domain.LedgerEntry) error) Option {
	return func(s *Store) { s.appendHook = fn }
}

// Store is the in-process store. It satisfies the account, ledger entry and
// transaction manager ports.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]*accountRecord
	byHandle     map[string]string
	byNationalID map[string]string
	entries      map[string][]domain.LedgerEntry
	nextEntryID  int64

	lockTimeout time.Duration
	wal         *wal.WAL
	now         func() time.Time
	appendHook  func(entry domain.LedgerEntry) error
}

type accountRecord struct {
	account domain.Account
	// lock is a one-slot semaphore owned by at most one unit.
	lock chan struct{}
}

var (
	_ repositories.AccountRepositoryFacade     = (*Store)(nil)
	_ repositories.LedgerEntryRepositoryFacade = (*Store)(nil)
	_ repositories.TransactionManager          = (*Store)(nil)
)

// NewStore creates a store, replaying the WAL when one is configured.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		accounts:     make(map[string]*accountRecord),
		byHandle:     make(map[string]string),
		byNationalID: make(map[string]string),
		entries:      make(map[string][]domain.LedgerEntry),
		lockTimeout:  defaultLockTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.wal != nil {
		if err := s.replay(); err != nil {
			return nil, fmt.Errorf("failed to replay ledger wal: %w", err)
		}
	}
	return s, nil
}

// NewRepositoryProvider exposes s through every repository port.
func NewRepositoryProvider(s *Store) repositories.RepositoryProvider {
	return repositories.RepositoryProvider{
		AccountRepo:     s,
		LedgerEntryRepo: s,
		TxManager:       s,
	}
}

// Close closes the WAL, if any.
func (s *Store) Close() error {
	if s.wal != nil {
		return s.wal.Close()
	}
	return nil
}

// CreateAccount implements repositories.AccountWriter.
func (s *Store) CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	if err := domain.ValidateNationalID(account.NationalID); err != nil {
		return nil, err
	}
	if account.ID == "" || account.OwnerHandle == "" {
		return nil, fmt.Errorf("%w: account id and owner handle are required", apperrors.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byHandle[account.OwnerHandle]; exists {
		return nil, apperrors.ErrDuplicateHandle
	}
	if _, exists := s.byNationalID[account.NationalID]; exists {
		return nil, apperrors.ErrDuplicateNationalID
	}
	if _, exists := s.accounts[account.ID]; exists {
		return nil, fmt.Errorf("%w: account id %s", apperrors.ErrDuplicate, account.ID)
	}

	account.Balance = decimal.Zero
	if account.CreatedAt.IsZero() {
		account.CreatedAt = s.now().UTC()
	}

	if s.wal != nil {
		if err := s.wal.Append(accountCreatedRecord(account)); err != nil {
			return nil, apperrors.NewAppError(500, "failed to write account to wal", err)
		}
	}
	s.insertAccountLocked(account)

	created := account
	return &created, nil
}

// FindAccountByID implements repositories.AccountReader.
func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.accounts[accountID]
	if !ok {
		return nil, apperrors.NewNotFoundError("account " + accountID)
	}
	acc := rec.account
	return &acc, nil
}

// FindAccountByHandle implements repositories.AccountReader.
func (s *Store) FindAccountByHandle(ctx context.Context, ownerHandle string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHandle[ownerHandle]
	if !ok {
		return nil, apperrors.NewNotFoundError("account with handle " + ownerHandle)
	}
	acc := s.accounts[id].account
	return &acc, nil
}

// LockAccountsForUpdate implements repositories.AccountTransactionSupport.
func (s *Store) LockAccountsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	u, err := unitFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range sortedUnique(accountIDs) {
		if err := s.acquire(ctx, u, id); err != nil {
			return nil, err
		}
	}

	locked := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		locked[id] = u.view(id)
	}
	return locked, nil
}

// AdjustBalanceInTx implements repositories.AccountTransactionSupport.
func (s *Store) AdjustBalanceInTx(ctx context.Context, accountID string, delta decimal.Decimal, minResult decimal.Decimal) (*domain.Account, error) {
	u, err := unitFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.acquire(ctx, u, accountID); err != nil {
		return nil, err
	}

	newBalance := u.balances[accountID].Add(delta)
	if newBalance.LessThan(minResult) {
		return nil, apperrors.ErrInsufficientFunds
	}
	u.balances[accountID] = newBalance
	u.dirty[accountID] = struct{}{}

	acc := u.view(accountID)
	return &acc, nil
}

// acquire takes the account's lock for u unless u already holds it.
func (s *Store) acquire(ctx context.Context, u *unit, accountID string) error {
	if _, held := u.locks[accountID]; held {
		return nil
	}

	s.mu.RLock()
	rec, ok := s.accounts[accountID]
	s.mu.RUnlock()
	if !ok {
		return apperrors.NewNotFoundError("account " + accountID)
	}

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case rec.lock <- struct{}{}:
	case <-timer.C:
		return fmt.Errorf("%w: lock wait on account %s exceeded %s", apperrors.ErrBusy, accountID, s.lockTimeout)
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", apperrors.ErrBusy, ctx.Err())
	}

	// Read after locking: a unit that held the lock has committed by now.
	s.mu.RLock()
	acc := rec.account
	s.mu.RUnlock()

	u.locks[accountID] = rec.lock
	u.accounts[accountID] = acc
	u.balances[accountID] = acc.Balance
	return nil
}

func (s *Store) insertAccountLocked(account domain.Account) {
	s.accounts[account.ID] = &accountRecord{account: account, lock: make(chan struct{}, 1)}
	s.byHandle[account.OwnerHandle] = account.ID
	s.byNationalID[account.NationalID] = account.ID
}

func sortedUnique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
