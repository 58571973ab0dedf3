package mysql

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/SscSPs/janseva_bank/internal/core/domain"
	portsrepo "github.com/SscSPs/janseva_bank/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAccountRepository stores accounts in the accounts table.
type GormAccountRepository struct {
	*BaseRepository
}

func newGormAccountRepository(base *BaseRepository) *GormAccountRepository {
	return &GormAccountRepository{BaseRepository: base}
}

var _ portsrepo.AccountRepositoryFacade = (*GormAccountRepository)(nil)

// CreateAccount inserts a new account with a zero balance.
func (r *GormAccountRepository) CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	if err := domain.ValidateNationalID(account.NationalID); err != nil {
		return nil, err
	}

	model := sqlAccount{
		ID:           account.ID,
		OwnerHandle:  account.OwnerHandle,
		NationalID:   account.NationalID,
		PasswordHash: account.PasswordHash,
		Balance:      decimal.Zero,
		CreatedAt:    r.timestamp(),
	}
	if err := r.conn(ctx).Create(&model).Error; err != nil {
		mapped := translateError(err, "failed to save account "+account.OwnerHandle)
		if errors.Is(mapped, apperrors.ErrDuplicate) {
			return nil, r.resolveDuplicate(ctx, account)
		}
		return nil, mapped
	}
	return model.toDomain(), nil
}

// resolveDuplicate finds which unique column a rejected insert collided on.
func (r *GormAccountRepository) resolveDuplicate(ctx context.Context, account domain.Account) error {
	var count int64
	if err := r.conn(ctx).Model(&sqlAccount{}).Where("owner_handle = ?", account.OwnerHandle).Count(&count).Error; err == nil && count > 0 {
		return apperrors.ErrDuplicateHandle
	}
	if err := r.conn(ctx).Model(&sqlAccount{}).Where("national_id = ?", account.NationalID).Count(&count).Error; err == nil && count > 0 {
		return apperrors.ErrDuplicateNationalID
	}
	return fmt.Errorf("%w: account id %s", apperrors.ErrDuplicate, account.ID)
}

// FindAccountByID retrieves an account by its ID.
func (r *GormAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	var model sqlAccount
	if err := r.conn(ctx).Where("id = ?", accountID).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("account " + accountID)
		}
		return nil, translateError(err, "failed to find account "+accountID)
	}
	return model.toDomain(), nil
}

// FindAccountByHandle retrieves an account by its owner handle.
func (r *GormAccountRepository) FindAccountByHandle(ctx context.Context, ownerHandle string) (*domain.Account, error) {
	var model sqlAccount
	if err := r.conn(ctx).Where("owner_handle = ?", ownerHandle).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("account with handle " + ownerHandle)
		}
		return nil, translateError(err, "failed to find account by handle")
	}
	return model.toDomain(), nil
}

// LockAccountsForUpdate selects the accounts FOR UPDATE in id order.
func (r *GormAccountRepository) LockAccountsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	tx, err := r.txConn(ctx)
	if err != nil {
		return nil, err
	}

	ids := uniqueSorted(accountIDs)
	var models []sqlAccount
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Find(&models).Error
	if err != nil {
		return nil, translateError(err, "failed to lock accounts")
	}

	locked := make(map[string]domain.Account, len(models))
	for i := range models {
		locked[models[i].ID] = *models[i].toDomain()
	}
	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return nil, apperrors.NewNotFoundError("account " + id)
		}
	}
	return locked, nil
}

// AdjustBalanceInTx applies balance += delta unless the result would drop below minResult.
func (r *GormAccountRepository) AdjustBalanceInTx(ctx context.Context, accountID string, delta decimal.Decimal, minResult decimal.Decimal) (*domain.Account, error) {
	tx, err := r.txConn(ctx)
	if err != nil {
		return nil, err
	}

	result := tx.Model(&sqlAccount{}).
		Where("id = ? AND balance + ? >= ?", accountID, delta, minResult).
		Update("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return nil, translateError(result.Error, fmt.Sprintf("failed to adjust balance of account %s", accountID))
	}

	acc, err := r.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrInsufficientFunds
	}
	return acc, nil
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
