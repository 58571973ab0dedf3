package mysql

import (
	"context"
	"time"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// sqlAccount maps the accounts table.
type sqlAccount struct {
	ID           string          `gorm:"column:id;type:char(36);primaryKey"`
	OwnerHandle  string          `gorm:"column:owner_handle;type:varchar(100);not null;uniqueIndex:uq_accounts_owner_handle"`
	NationalID   string          `gorm:"column:national_id;type:char(12);not null;uniqueIndex:uq_accounts_national_id"`
	PasswordHash string          `gorm:"column:password_hash;type:varchar(255);not null"`
	Balance      decimal.Decimal `gorm:"column:balance;type:decimal(15,2);not null;default:0;check:ck_accounts_balance_non_negative,balance >= 0"`
	CreatedAt    time.Time       `gorm:"column:created_at;type:datetime(6);not null"`
}

func (*sqlAccount) TableName() string {
	return "accounts"
}

// sqlLedgerEntry maps the ledger_entries table.
type sqlLedgerEntry struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	AccountID   string          `gorm:"column:account_id;type:char(36);not null;index:idx_ledger_entries_account_history,priority:1"`
	Kind        string          `gorm:"column:kind;type:enum('deposit','withdrawal','transfer_out','transfer_in');not null"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(15,2);not null;check:ck_ledger_entries_amount_positive,amount > 0"`
	Description string          `gorm:"column:description;type:varchar(255);not null;default:''"`
	CreatedAt   time.Time       `gorm:"column:created_at;type:datetime(6);not null;index:idx_ledger_entries_account_history,priority:2"`
}

func (*sqlLedgerEntry) TableName() string {
	return "ledger_entries"
}

// fkLedgerEntriesAccount ties every ledger entry to an existing account.
const fkLedgerEntriesAccount = "fk_ledger_entries_account"

// AutoMigrate creates or updates the ledger tables.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx).Set("gorm:table_options", "ENGINE=InnoDB")
	if err := tx.AutoMigrate(&sqlAccount{}, &sqlLedgerEntry{}); err != nil {
		return err
	}
	return ensureLedgerEntryForeignKey(tx)
}

// ensureLedgerEntryForeignKey adds the account_id foreign key once. Entries
// are never deleted, so the key restricts both updates and deletes.
func ensureLedgerEntryForeignKey(db *gorm.DB) error {
	if db.Migrator().HasConstraint(&sqlLedgerEntry{}, fkLedgerEntriesAccount) {
		return nil
	}
	return addLedgerEntryForeignKey(db).Error
}

func addLedgerEntryForeignKey(db *gorm.DB) *gorm.DB {
	return db.Exec(
		"ALTER TABLE ledger_entries ADD CONSTRAINT " + fkLedgerEntriesAccount +
			" FOREIGN KEY (account_id) REFERENCES accounts (id) ON UPDATE RESTRICT ON DELETE RESTRICT",
	)
}

func (m *sqlAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:           m.ID,
		OwnerHandle:  m.OwnerHandle,
		NationalID:   m.NationalID,
		PasswordHash: m.PasswordHash,
		Balance:      m.Balance,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func (m *sqlLedgerEntry) toDomain() domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:          m.ID,
		AccountID:   m.AccountID,
		Kind:        domain.EntryKind(m.Kind),
		Amount:      m.Amount,
		Description: m.Description,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}
