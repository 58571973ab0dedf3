package services

import (
	"github.com/SscSPs/janseva_bank/internal/core/ports/publishers"
	portsrepo "github.com/SscSPs/janseva_bank/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/janseva_bank/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider, publisher publishers.LedgerEventPublisher) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Account: NewAccountService(repos.AccountRepo),
		Ledger: NewLedgerService(
			repos.AccountRepo,
			repos.LedgerEntryRepo,
			repos.TxManager,
			WithEventPublisher(publisher),
		),
	}
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade = (*accountService)(nil)
	_ portssvc.LedgerSvcFacade  = (*ledgerService)(nil)
)
