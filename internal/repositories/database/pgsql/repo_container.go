package pgsql

import (
	"time"

	portsrepo "github.com/SscSPs/janseva_bank/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider builds the PostgreSQL-backed repositories. They share
// one BaseRepository so that all of them join the same transactions.
func NewRepositoryProvider(dbPool *pgxpool.Pool, lockTimeout time.Duration) portsrepo.RepositoryProvider {
	base := &BaseRepository{Pool: dbPool, LockTimeout: lockTimeout}

	return portsrepo.RepositoryProvider{
		AccountRepo:     newPgxAccountRepository(base),
		LedgerEntryRepo: newPgxLedgerEntryRepository(base),
		TxManager:       base,
	}
}
