package publishers

import (
	"context"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
)

// LedgerEventPublisher delivers committed ledger events to downstream consumers.
// Publishing happens after commit, so a failure never undoes the operation.
type LedgerEventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event domain.LedgerEvent) error
	Close() error
}
