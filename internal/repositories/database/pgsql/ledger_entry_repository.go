package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/SscSPs/janseva_bank/internal/core/domain"
	portsrepo "github.com/SscSPs/janseva_bank/internal/core/ports/repositories"
	"github.com/SscSPs/janseva_bank/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
)

const ledgerEntryColumns = `id, account_id, kind, amount, description, created_at`

// newest first; id breaks ties between entries of one unit
const ledgerEntryOrder = `ORDER BY created_at DESC, id DESC`

// PgxLedgerEntryRepository is the append-only transaction log.
type PgxLedgerEntryRepository struct {
	*BaseRepository
}

func newPgxLedgerEntryRepository(base *BaseRepository) *PgxLedgerEntryRepository {
	return &PgxLedgerEntryRepository{BaseRepository: base}
}

var _ portsrepo.LedgerEntryRepositoryFacade = (*PgxLedgerEntryRepository)(nil)

// AppendEntryInTx inserts entry inside the current transaction.
func (r *PgxLedgerEntryRepository) AppendEntryInTx(ctx context.Context, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	tx, err := r.txConn(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO ledger_entries (account_id, kind, amount, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at;
	`
	err = tx.QueryRow(ctx, query, entry.AccountID, string(entry.Kind), entry.Amount, entry.Description).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return nil, translateError(err, "failed to append ledger entry for account "+entry.AccountID)
	}
	return &entry, nil
}

// ListEntriesByAccountID returns every entry of the account, newest first.
func (r *PgxLedgerEntryRepository) ListEntriesByAccountID(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE account_id = $1 ` + ledgerEntryOrder + `;`

	rows, err := r.conn(ctx).Query(ctx, query, accountID)
	if err != nil {
		return nil, translateError(err, "failed to query ledger entries for account "+accountID)
	}
	return collectEntries(rows, accountID)
}

// ListEntriesByAccountIDPage returns one keyset-paginated page of entries.
func (r *PgxLedgerEntryRepository) ListEntriesByAccountIDPage(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// One extra row tells whether another page exists.
	fetchLimit := limit + 1

	query := `SELECT ` + ledgerEntryColumns + ` FROM ledger_entries WHERE account_id = $1`
	args := []any{accountID}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, err := pagination.DecodeEntryCursor(*nextToken)
		if err != nil {
			return nil, nil, errors.Join(apperrors.ErrValidation, err)
		}
		query += ` AND (created_at, id) < ($2, $3)`
		args = append(args, lastCreatedAt, lastID)
	}
	args = append(args, fetchLimit)
	query += " " + ledgerEntryOrder + " LIMIT $" + strconv.Itoa(len(args)) + ";"

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, nil, translateError(err, "failed to query ledger entries for account "+accountID)
	}
	entries, err := collectEntries(rows, accountID)
	if err != nil {
		return nil, nil, err
	}

	if len(entries) <= limit {
		return entries, nil, nil
	}
	entries = entries[:limit]
	last := entries[limit-1]
	token := pagination.EncodeEntryCursor(last.CreatedAt, last.ID)
	return entries, &token, nil
}

func collectEntries(rows pgx.Rows, accountID string) ([]domain.LedgerEntry, error) {
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0)
	for rows.Next() {
		var e domain.LedgerEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.AccountID, &kind, &e.Amount, &e.Description, &e.CreatedAt); err != nil {
			return nil, translateError(err, "failed to scan ledger entry for account "+accountID)
		}
		e.Kind = domain.EntryKind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "error iterating ledger entries for account "+accountID)
	}
	return entries, nil
}
