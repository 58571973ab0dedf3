package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/SscSPs/janseva_bank/internal/core/ports/publishers"
	portsrepo "github.com/SscSPs/janseva_bank/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/janseva_bank/internal/core/ports/services"
	"github.com/SscSPs/janseva_bank/internal/dto"
	"github.com/SscSPs/janseva_bank/internal/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultHistoryPageSize = 20

// ledgerService implements the LedgerSvcFacade interface. It holds no state
// of its own between calls; the store is the only arbiter of isolation.
type ledgerService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
	entryRepo   portsrepo.LedgerEntryRepositoryFacade
	txManager   portsrepo.TransactionManager
	publisher   publishers.LedgerEventPublisher
	now         func() time.Time
}

// LedgerServiceOption is a functional option for configuring the ledger service
type LedgerServiceOption func(*ledgerService)

// WithEventPublisher sets where committed ledger events are sent.
func WithEventPublisher(p publishers.LedgerEventPublisher) LedgerServiceOption {
	return func(s *ledgerService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLedgerClock replaces time.Now for event timestamps.
func WithLedgerClock(now func() time.Time) LedgerServiceOption {
	return func(s *ledgerService) {
		s.now = now
	}
}

// NewLedgerService creates a ledger service. All three ports must be backed by
// the same store.
func NewLedgerService(
	accountRepo portsrepo.AccountRepositoryFacade,
	entryRepo portsrepo.LedgerEntryRepositoryFacade,
	txManager portsrepo.TransactionManager,
	options ...LedgerServiceOption,
) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		txManager:   txManager,
		publisher:   events.NopPublisher{},
		now:         time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Deposit credits amount to the account.
func (s *ledgerService) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		s.LogDebug(ctx, "Rejected deposit amount", slog.String("account_id", accountID), slog.String("amount", amount.String()))
		return nil, err
	}

	var updated *domain.Account
	var entries []domain.LedgerEntry
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.accountRepo.LockAccountsForUpdate(txCtx, []string{accountID})
		if err != nil {
			return err
		}
		if err := checkBalanceCeiling(locked[accountID].Balance, amount); err != nil {
			return err
		}

		updated, err = s.accountRepo.AdjustBalanceInTx(txCtx, accountID, amount, decimal.Zero)
		if err != nil {
			return err
		}
		entry, err := s.entryRepo.AppendEntryInTx(txCtx, domain.LedgerEntry{
			AccountID:   accountID,
			Kind:        domain.EntryDeposit,
			Amount:      amount,
			Description: "deposit",
		})
		if err != nil {
			return err
		}
		entries = []domain.LedgerEntry{*entry}
		return nil
	})
	if err != nil {
		return nil, s.classify(ctx, err, "Deposit failed", slog.String("account_id", accountID))
	}

	s.LogInfo(ctx, "Deposit committed",
		slog.String("account_id", accountID),
		slog.String("amount", amount.String()),
		slog.String("balance", updated.Balance.String()))
	s.publish(ctx, domain.OperationDeposit, accountID, amount, entries)
	return updated, nil
}

// Withdraw debits amount from the account if the balance covers it. The
// balance is checked while the account row is locked.
func (s *ledgerService) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		s.LogDebug(ctx, "Rejected withdrawal amount", slog.String("account_id", accountID), slog.String("amount", amount.String()))
		return nil, err
	}

	var updated *domain.Account
	var entries []domain.LedgerEntry
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.accountRepo.LockAccountsForUpdate(txCtx, []string{accountID})
		if err != nil {
			return err
		}
		if locked[accountID].Balance.LessThan(amount) {
			return apperrors.ErrInsufficientFunds
		}

		updated, err = s.accountRepo.AdjustBalanceInTx(txCtx, accountID, amount.Neg(), decimal.Zero)
		if err != nil {
			return err
		}
		entry, err := s.entryRepo.AppendEntryInTx(txCtx, domain.LedgerEntry{
			AccountID:   accountID,
			Kind:        domain.EntryWithdrawal,
			Amount:      amount,
			Description: "withdrawal",
		})
		if err != nil {
			return err
		}
		entries = []domain.LedgerEntry{*entry}
		return nil
	})
	if err != nil {
		return nil, s.classify(ctx, err, "Withdrawal failed", slog.String("account_id", accountID))
	}

	s.LogInfo(ctx, "Withdrawal committed",
		slog.String("account_id", accountID),
		slog.String("amount", amount.String()),
		slog.String("balance", updated.Balance.String()))
	s.publish(ctx, domain.OperationWithdraw, accountID, amount, entries)
	return updated, nil
}

// Transfer moves amount from the sender to the account owned by receiverHandle.
func (s *ledgerService) Transfer(ctx context.Context, senderID string, receiverHandle string, amount decimal.Decimal) (*domain.Account, *domain.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		s.LogDebug(ctx, "Rejected transfer amount", slog.String("sender_id", senderID), slog.String("amount", amount.String()))
		return nil, nil, err
	}

	receiver, err := s.accountRepo.FindAccountByHandle(ctx, receiverHandle)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.LogDebug(ctx, "Transfer receiver not found", slog.String("receiver_handle", receiverHandle))
			return nil, nil, apperrors.ErrReceiverNotFound
		}
		return nil, nil, s.classify(ctx, err, "Failed to resolve transfer receiver", slog.String("receiver_handle", receiverHandle))
	}
	if receiver.ID == senderID {
		return nil, nil, apperrors.ErrSelfTransfer
	}
	receiverID := receiver.ID

	var sender *domain.Account
	var entries []domain.LedgerEntry
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// LockAccountsForUpdate orders the ids itself.
		locked, err := s.accountRepo.LockAccountsForUpdate(txCtx, []string{senderID, receiverID})
		if err != nil {
			return err
		}
		lockedSender, lockedReceiver := locked[senderID], locked[receiverID]
		if lockedSender.Balance.LessThan(amount) {
			return apperrors.ErrInsufficientFunds
		}
		if err := checkBalanceCeiling(lockedReceiver.Balance, amount); err != nil {
			return err
		}

		sender, err = s.accountRepo.AdjustBalanceInTx(txCtx, senderID, amount.Neg(), decimal.Zero)
		if err != nil {
			return err
		}
		receiver, err = s.accountRepo.AdjustBalanceInTx(txCtx, receiverID, amount, decimal.Zero)
		if err != nil {
			return err
		}

		out, err := s.entryRepo.AppendEntryInTx(txCtx, domain.LedgerEntry{
			AccountID:   senderID,
			Kind:        domain.EntryTransferOut,
			Amount:      amount,
			Description: "transfer to " + lockedReceiver.OwnerHandle,
		})
		if err != nil {
			return err
		}
		in, err := s.entryRepo.AppendEntryInTx(txCtx, domain.LedgerEntry{
			AccountID:   receiverID,
			Kind:        domain.EntryTransferIn,
			Amount:      amount,
			Description: "transfer from " + lockedSender.OwnerHandle,
		})
		if err != nil {
			return err
		}
		entries = []domain.LedgerEntry{*out, *in}
		return nil
	})
	if err != nil {
		return nil, nil, s.classify(ctx, err, "Transfer failed",
			slog.String("sender_id", senderID),
			slog.String("receiver_id", receiverID))
	}

	s.LogInfo(ctx, "Transfer committed",
		slog.String("sender_id", senderID),
		slog.String("receiver_id", receiverID),
		slog.String("amount", amount.String()))
	s.publish(ctx, domain.OperationTransfer, senderID, amount, entries)
	return sender, receiver, nil
}

// History returns all entries of the account, newest first.
func (s *ledgerService) History(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, s.classify(ctx, err, "Failed to load account for history", slog.String("account_id", accountID))
	}
	entries, err := s.entryRepo.ListEntriesByAccountID(ctx, accountID)
	if err != nil {
		return nil, s.classify(ctx, err, "Failed to list ledger entries", slog.String("account_id", accountID))
	}
	return entries, nil
}

// HistoryPage returns one keyset-paginated page of History.
func (s *ledgerService) HistoryPage(ctx context.Context, accountID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, s.classify(ctx, err, "Failed to load account for history", slog.String("account_id", accountID))
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultHistoryPageSize
	}

	entries, nextToken, err := s.entryRepo.ListEntriesByAccountIDPage(ctx, accountID, limit, params.NextToken)
	if err != nil {
		return nil, s.classify(ctx, err, "Failed to list ledger entries", slog.String("account_id", accountID))
	}

	s.LogDebug(ctx, "Ledger entries listed", slog.String("account_id", accountID), slog.Int("count", len(entries)))
	return &dto.ListEntriesResponse{
		Entries:   dto.ToLedgerEntryResponses(entries),
		NextToken: nextToken,
	}, nil
}

// classify passes typed ledger outcomes through and hides everything else
// behind apperrors.ErrInternal.
func (s *ledgerService) classify(ctx context.Context, err error, msg string, keyvals ...any) error {
	switch {
	case errors.Is(err, apperrors.ErrBusy):
		s.LogWarn(ctx, err, msg+": store busy", keyvals...)
		return err
	case apperrors.IsLedgerOutcome(err):
		s.LogDebug(ctx, msg, append(keyvals, slog.String("reason", err.Error()))...)
		return err
	}
	s.LogError(ctx, err, msg, keyvals...)
	return fmt.Errorf("%w: %s: %w", apperrors.ErrInternal, msg, err)
}

// publish hands a committed operation to the event publisher. The operation
// has already committed, so failures are only logged.
func (s *ledgerService) publish(ctx context.Context, op domain.LedgerOperation, accountID string, amount decimal.Decimal, entries []domain.LedgerEntry) {
	event := domain.LedgerEvent{
		EventID:    uuid.NewString(),
		Operation:  op,
		AccountID:  accountID,
		Amount:     amount,
		Entries:    entries,
		OccurredAt: s.now().UTC(),
	}
	if err := s.publisher.PublishLedgerEvent(context.WithoutCancel(ctx), event); err != nil {
		s.LogWarn(ctx, err, "Failed to publish ledger event",
			slog.String("event_id", event.EventID),
			slog.String("operation", string(op)))
	}
}

// checkBalanceCeiling rejects credits that would push a balance past what the
// store can represent.
func checkBalanceCeiling(balance, credit decimal.Decimal) error {
	if balance.Add(credit).GreaterThan(domain.MaxAmount) {
		return fmt.Errorf("%w: resulting balance would exceed %s", apperrors.ErrInvalidAmount, domain.MaxAmount.StringFixed(domain.AmountScale))
	}
	return nil
}
