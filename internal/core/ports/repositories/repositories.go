package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// All three must be backed by the same store so that they share atomic units.
type RepositoryProvider struct {
	AccountRepo     AccountRepositoryFacade
	LedgerEntryRepo LedgerEntryRepositoryFacade
	TxManager       TransactionManager
}
