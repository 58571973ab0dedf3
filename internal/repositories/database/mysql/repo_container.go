package mysql

import (
	"time"

	portsrepo "github.com/SscSPs/janseva_bank/internal/core/ports/repositories"
	"gorm.io/gorm"
)

// NewRepositoryProvider builds the MySQL-backed repositories on one shared
// BaseRepository so that they join the same transactions.
func NewRepositoryProvider(db *gorm.DB, lockTimeout time.Duration) portsrepo.RepositoryProvider {
	base := &BaseRepository{DB: db, LockTimeout: lockTimeout}

	return portsrepo.RepositoryProvider{
		AccountRepo:     newGormAccountRepository(base),
		LedgerEntryRepo: newGormLedgerEntryRepository(base),
		TxManager:       base,
	}
}
