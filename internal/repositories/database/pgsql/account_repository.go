package pgsql

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/SscSPs/janseva_bank/internal/core/domain"
	portsrepo "github.com/SscSPs/janseva_bank/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const accountColumns = `id, owner_handle, national_id, password_hash, balance, created_at`

// PgxAccountRepository stores accounts in the accounts table.
type PgxAccountRepository struct {
	*BaseRepository
}

func newPgxAccountRepository(base *BaseRepository) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository: base}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var acc domain.Account
	if err := row.Scan(&acc.ID, &acc.OwnerHandle, &acc.NationalID, &acc.PasswordHash, &acc.Balance, &acc.CreatedAt); err != nil {
		return nil, err
	}
	return &acc, nil
}

// CreateAccount inserts a new account with a zero balance.
func (r *PgxAccountRepository) CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	if err := domain.ValidateNationalID(account.NationalID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO accounts (id, owner_handle, national_id, password_hash, balance)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING ` + accountColumns + `;
	`
	created, err := scanAccount(r.conn(ctx).QueryRow(ctx, query,
		account.ID,
		account.OwnerHandle,
		account.NationalID,
		account.PasswordHash,
	))
	if err != nil {
		return nil, translateError(err, "failed to save account "+account.OwnerHandle)
	}
	return created, nil
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1;`

	acc, err := scanAccount(r.conn(ctx).QueryRow(ctx, query, accountID))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFoundError("account " + accountID)
		}
		return nil, translateError(err, "failed to find account "+accountID)
	}
	return acc, nil
}

// FindAccountByHandle retrieves an account by its owner handle.
func (r *PgxAccountRepository) FindAccountByHandle(ctx context.Context, ownerHandle string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE owner_handle = $1;`

	acc, err := scanAccount(r.conn(ctx).QueryRow(ctx, query, ownerHandle))
	if err != nil {
		if isNoRows(err) {
			return nil, apperrors.NewNotFoundError("account with handle " + ownerHandle)
		}
		return nil, translateError(err, "failed to find account by handle")
	}
	return acc, nil
}

// LockAccountsForUpdate selects the accounts FOR UPDATE. Rows are locked in
// id order, so two units locking overlapping sets cannot deadlock.
func (r *PgxAccountRepository) LockAccountsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	tx, err := r.txConn(ctx)
	if err != nil {
		return nil, err
	}

	ids := uniqueSorted(accountIDs)
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE;`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		return nil, translateError(err, "failed to lock accounts")
	}
	defer rows.Close()

	locked := make(map[string]domain.Account, len(ids))
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, translateError(err, "failed to scan locked account")
		}
		locked[acc.ID] = *acc
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "error iterating locked accounts")
	}

	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return nil, apperrors.NewNotFoundError("account " + id)
		}
	}
	return locked, nil
}

// AdjustBalanceInTx applies balance += delta unless the result would drop below minResult.
func (r *PgxAccountRepository) AdjustBalanceInTx(ctx context.Context, accountID string, delta decimal.Decimal, minResult decimal.Decimal) (*domain.Account, error) {
	tx, err := r.txConn(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE accounts
		SET balance = balance + $2
		WHERE id = $1 AND balance + $2 >= $3
		RETURNING ` + accountColumns + `;
	`
	acc, err := scanAccount(tx.QueryRow(ctx, query, accountID, delta, minResult))
	if err == nil {
		return acc, nil
	}
	if !isNoRows(err) {
		return nil, translateError(err, fmt.Sprintf("failed to adjust balance of account %s", accountID))
	}

	// No row matched: either the account is missing or the guard rejected the change.
	if _, findErr := r.FindAccountByID(ctx, accountID); findErr != nil {
		return nil, findErr
	}
	return nil, apperrors.ErrInsufficientFunds
}

func uniqueSorted(ids []string) []string {
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
