package mysql

import (
	"context"
	"errors"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/SscSPs/janseva_bank/internal/core/domain"
	portsrepo "github.com/SscSPs/janseva_bank/internal/core/ports/repositories"
	"github.com/SscSPs/janseva_bank/internal/utils/pagination"
	"gorm.io/gorm"
)

// GormLedgerEntryRepository is the append-only transaction log.
type GormLedgerEntryRepository struct {
	*BaseRepository
}

func newGormLedgerEntryRepository(base *BaseRepository) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{BaseRepository: base}
}

var _ portsrepo.LedgerEntryRepositoryFacade = (*GormLedgerEntryRepository)(nil)

// AppendEntryInTx inserts entry inside the current transaction.
func (r *GormLedgerEntryRepository) AppendEntryInTx(ctx context.Context, entry domain.LedgerEntry) (*domain.LedgerEntry, error) {
	tx, err := r.txConn(ctx)
	if err != nil {
		return nil, err
	}

	model := sqlLedgerEntry{
		AccountID:   entry.AccountID,
		Kind:        string(entry.Kind),
		Amount:      entry.Amount,
		Description: entry.Description,
		CreatedAt:   r.timestamp(),
	}
	if err := tx.Create(&model).Error; err != nil {
		return nil, translateError(err, "failed to append ledger entry for account "+entry.AccountID)
	}
	created := model.toDomain()
	return &created, nil
}

// ListEntriesByAccountID returns every entry of the account, newest first.
func (r *GormLedgerEntryRepository) ListEntriesByAccountID(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	var models []sqlLedgerEntry
	err := newestFirst(r.conn(ctx).Where("account_id = ?", accountID)).Find(&models).Error
	if err != nil {
		return nil, translateError(err, "failed to query ledger entries for account "+accountID)
	}
	return toDomainEntries(models), nil
}

// ListEntriesByAccountIDPage returns one keyset-paginated page of entries.
func (r *GormLedgerEntryRepository) ListEntriesByAccountIDPage(ctx context.Context, accountID string, limit int, nextToken *string) ([]domain.LedgerEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.conn(ctx).Where("account_id = ?", accountID)
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, err := pagination.DecodeEntryCursor(*nextToken)
		if err != nil {
			return nil, nil, errors.Join(apperrors.ErrValidation, err)
		}
		query = query.Where("((created_at < ?) OR (created_at = ? AND id < ?))", lastCreatedAt, lastCreatedAt, lastID)
	}

	var models []sqlLedgerEntry
	// One extra row tells whether another page exists.
	if err := newestFirst(query).Limit(limit + 1).Find(&models).Error; err != nil {
		return nil, nil, translateError(err, "failed to query ledger entries for account "+accountID)
	}
	entries := toDomainEntries(models)

	if len(entries) <= limit {
		return entries, nil, nil
	}
	entries = entries[:limit]
	last := entries[limit-1]
	token := pagination.EncodeEntryCursor(last.CreatedAt, last.ID)
	return entries, &token, nil
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

func toDomainEntries(models []sqlLedgerEntry) []domain.LedgerEntry {
	entries := make([]domain.LedgerEntry, 0, len(models))
	for i := range models {
		entries = append(entries, models[i].toDomain())
	}
	return entries
}
