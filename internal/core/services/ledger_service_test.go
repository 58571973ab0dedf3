package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/SscSPs/janseva_bank/internal/core/domain"
	portssvc "github.com/SscSPs/janseva_bank/internal/core/ports/services"
	"github.com/SscSPs/janseva_bank/internal/core/services"
	"github.com/SscSPs/janseva_bank/internal/dto"
	"github.com/SscSPs/janseva_bank/internal/repositories/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockLedgerEventPublisher is a mock type for the LedgerEventPublisher interface
type MockLedgerEventPublisher struct {
	mock.Mock
}

func (m *MockLedgerEventPublisher) PublishLedgerEvent(ctx context.Context, event domain.LedgerEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockLedgerEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// LedgerServiceTestSuite runs the ledger service against the in-process store.
type LedgerServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memory.Store
	publisher *MockLedgerEventPublisher
	service   portssvc.LedgerSvcFacade
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.newService(memory.WithLockTimeout(time.Second))
}

func (suite *LedgerServiceTestSuite) newService(opts ...memory.Option) {
	store, err := memory.NewStore(opts...)
	suite.Require().NoError(err)
	suite.store = store
	suite.publisher = new(MockLedgerEventPublisher)
	suite.publisher.On("PublishLedgerEvent", mock.Anything, mock.AnythingOfType("domain.LedgerEvent")).Return(nil).Maybe()
	suite.service = services.NewLedgerService(store, store, store, services.WithEventPublisher(suite.publisher))
}

func (suite *LedgerServiceTestSuite) openAccount(handle, nationalID string) *domain.Account {
	acc, err := suite.store.CreateAccount(suite.ctx, domain.Account{
		ID:           uuid.NewString(),
		OwnerHandle:  handle,
		NationalID:   nationalID,
		PasswordHash: "hash",
	})
	suite.Require().NoError(err)
	return acc
}

func (suite *LedgerServiceTestSuite) balanceOf(accountID string) decimal.Decimal {
	acc, err := suite.store.FindAccountByID(suite.ctx, accountID)
	suite.Require().NoError(err)
	return acc.Balance
}

func (suite *LedgerServiceTestSuite) assertBalance(expected string, accountID string) {
	actual := suite.balanceOf(accountID)
	suite.Truef(dec(expected).Equal(actual), "expected balance %s, got %s", expected, actual)
}

func (suite *LedgerServiceTestSuite) history(accountID string) []domain.LedgerEntry {
	entries, err := suite.service.History(suite.ctx, accountID)
	suite.Require().NoError(err)
	return entries
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func (suite *LedgerServiceTestSuite) TestDepositWithdrawTransferScenario() {
	alice := suite.openAccount("alice", "111111111111")
	bob := suite.openAccount("bob", "222222222222")

	acc, err := suite.service.Deposit(suite.ctx, alice.ID, dec("100.00"))
	suite.Require().NoError(err)
	suite.True(dec("100").Equal(acc.Balance))

	acc, err = suite.service.Withdraw(suite.ctx, alice.ID, dec("30.50"))
	suite.Require().NoError(err)
	suite.True(dec("69.50").Equal(acc.Balance))

	sender, receiver, err := suite.service.Transfer(suite.ctx, alice.ID, "bob", dec("19.50"))
	suite.Require().NoError(err)
	suite.True(dec("50").Equal(sender.Balance))
	suite.True(dec("19.50").Equal(receiver.Balance))
	suite.assertBalance("50.00", alice.ID)
	suite.assertBalance("19.50", bob.ID)

	aliceEntries := suite.history(alice.ID)
	suite.Require().Len(aliceEntries, 3)
	suite.Equal(domain.EntryTransferOut, aliceEntries[0].Kind)
	suite.Equal("transfer to bob", aliceEntries[0].Description)
	suite.Equal(domain.EntryWithdrawal, aliceEntries[1].Kind)
	suite.Equal("withdrawal", aliceEntries[1].Description)
	suite.Equal(domain.EntryDeposit, aliceEntries[2].Kind)
	suite.Equal("deposit", aliceEntries[2].Description)

	bobEntries := suite.history(bob.ID)
	suite.Require().Len(bobEntries, 1)
	suite.Equal(domain.EntryTransferIn, bobEntries[0].Kind)
	suite.Equal("transfer from alice", bobEntries[0].Description)
	suite.True(dec("19.50").Equal(bobEntries[0].Amount))

	suite.publisher.AssertNumberOfCalls(suite.T(), "PublishLedgerEvent", 3)
}

func (suite *LedgerServiceTestSuite) TestAmountValidation() {
	alice := suite.openAccount("alice", "111111111111")
	suite.openAccount("bob", "222222222222")

	for _, amount := range []string{"0", "-5", "10.005", "10000000000000.00"} {
		_, err := suite.service.Deposit(suite.ctx, alice.ID, dec(amount))
		suite.ErrorIsf(err, apperrors.ErrInvalidAmount, "deposit %s", amount)
		_, err = suite.service.Withdraw(suite.ctx, alice.ID, dec(amount))
		suite.ErrorIsf(err, apperrors.ErrInvalidAmount, "withdraw %s", amount)
		_, _, err = suite.service.Transfer(suite.ctx, alice.ID, "bob", dec(amount))
		suite.ErrorIsf(err, apperrors.ErrInvalidAmount, "transfer %s", amount)
	}

	_, err := suite.service.Deposit(suite.ctx, alice.ID, dec("10.500"))
	suite.NoError(err)
	suite.assertBalance("10.50", alice.ID)
	suite.Len(suite.history(alice.ID), 1)
}

func (suite *LedgerServiceTestSuite) TestDeposit_BalanceCeiling() {
	alice := suite.openAccount("alice", "111111111111")

	_, err := suite.service.Deposit(suite.ctx, alice.ID, domain.MaxAmount)
	suite.Require().NoError(err)

	_, err = suite.service.Deposit(suite.ctx, alice.ID, dec("0.01"))
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	suite.True(domain.MaxAmount.Equal(suite.balanceOf(alice.ID)))
}

func (suite *LedgerServiceTestSuite) TestUnknownAccount() {
	missing := uuid.NewString()

	_, err := suite.service.Deposit(suite.ctx, missing, dec("1"))
	suite.ErrorIs(err, apperrors.ErrNotFound)
	_, err = suite.service.Withdraw(suite.ctx, missing, dec("1"))
	suite.ErrorIs(err, apperrors.ErrNotFound)
	_, err = suite.service.History(suite.ctx, missing)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerServiceTestSuite) TestWithdraw_InsufficientFunds() {
	alice := suite.openAccount("alice", "111111111111")
	_, err := suite.service.Deposit(suite.ctx, alice.ID, dec("20"))
	suite.Require().NoError(err)

	_, err = suite.service.Withdraw(suite.ctx, alice.ID, dec("20.01"))

	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	suite.assertBalance("20", alice.ID)
	suite.Len(suite.history(alice.ID), 1)
}

func (suite *LedgerServiceTestSuite) TestWithdraw_ExactBalance() {
	alice := suite.openAccount("alice", "111111111111")
	_, err := suite.service.Deposit(suite.ctx, alice.ID, dec("20"))
	suite.Require().NoError(err)

	acc, err := suite.service.Withdraw(suite.ctx, alice.ID, dec("20"))

	suite.Require().NoError(err)
	suite.True(acc.Balance.IsZero())
}

func (suite *LedgerServiceTestSuite) TestTransfer_TypedFailures() {
	alice := suite.openAccount("alice", "111111111111")
	bob := suite.openAccount("bob", "222222222222")
	_, err := suite.service.Deposit(suite.ctx, alice.ID, dec("10"))
	suite.Require().NoError(err)

	_, _, err = suite.service.Transfer(suite.ctx, alice.ID, "nobody", dec("1"))
	suite.ErrorIs(err, apperrors.ErrReceiverNotFound)

	_, _, err = suite.service.Transfer(suite.ctx, alice.ID, "alice", dec("1"))
	suite.ErrorIs(err, apperrors.ErrSelfTransfer)

	_, _, err = suite.service.Transfer(suite.ctx, alice.ID, "bob", dec("10.01"))
	suite.ErrorIs(err, apperrors.ErrInsufficientFunds)

	suite.assertBalance("10", alice.ID)
	suite.assertBalance("0", bob.ID)
	suite.Len(suite.history(alice.ID), 1)
	suite.Empty(suite.history(bob.ID))
}

func (suite *LedgerServiceTestSuite) TestTransfer_UnknownSender() {
	suite.openAccount("bob", "222222222222")

	_, _, err := suite.service.Transfer(suite.ctx, uuid.NewString(), "bob", dec("1"))

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.NotErrorIs(err, apperrors.ErrReceiverNotFound)
}

func (suite *LedgerServiceTestSuite) TestConcurrentWithdrawalsNeverOverdraw() {
	alice := suite.openAccount("alice", "111111111111")
	_, err := suite.service.Deposit(suite.ctx, alice.ID, dec("100"))
	suite.Require().NoError(err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = suite.service.Withdraw(suite.ctx, alice.ID, dec("80"))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
	}
	suite.Equal(1, succeeded)
	suite.assertBalance("20", alice.ID)
	suite.Len(suite.history(alice.ID), 2)
}

func (suite *LedgerServiceTestSuite) TestOppositeTransfersDoNotDeadlock() {
	alice := suite.openAccount("alice", "111111111111")
	bob := suite.openAccount("bob", "222222222222")
	_, err := suite.service.Deposit(suite.ctx, alice.ID, dec("1000"))
	suite.Require().NoError(err)
	_, err = suite.service.Deposit(suite.ctx, bob.ID, dec("1000"))
	suite.Require().NoError(err)

	const rounds = 50
	var wg sync.WaitGroup
	errs := make(chan error, 2*rounds)
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, err := suite.service.Transfer(suite.ctx, alice.ID, "bob", dec("10"))
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, _, err := suite.service.Transfer(suite.ctx, bob.ID, "alice", dec("5"))
			errs <- err
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		suite.FailNow("opposite-direction transfers did not finish")
	}
	close(errs)
	for err := range errs {
		suite.NoError(err)
	}

	suite.assertBalance("750", alice.ID)
	suite.assertBalance("1250", bob.ID)
	suite.Len(suite.history(alice.ID), 1+2*rounds)
}

func (suite *LedgerServiceTestSuite) TestTotalBalanceIsConserved() {
	handles := []string{"alice", "bob", "carol"}
	ids := make([]string, len(handles))
	for i, h := range handles {
		ids[i] = suite.openAccount(h, "00000000000"+string(rune('1'+i))).ID
		_, err := suite.service.Deposit(suite.ctx, ids[i], dec("100"))
		suite.Require().NoError(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from := ids[i%3]
			to := handles[(i+1)%3]
			_, _, err := suite.service.Transfer(suite.ctx, from, to, dec("7.25"))
			if err != nil {
				suite.ErrorIs(err, apperrors.ErrInsufficientFunds)
			}
		}(i)
	}
	wg.Wait()

	total := decimal.Zero
	for _, id := range ids {
		balance := suite.balanceOf(id)
		suite.False(balance.IsNegative())
		total = total.Add(balance)

		// Replaying the log reproduces the balance.
		replayed := decimal.Zero
		for _, e := range suite.history(id) {
			replayed = replayed.Add(e.SignedAmount())
		}
		suite.True(balance.Equal(replayed), "log replay of %s gives %s, balance is %s", id, replayed, balance)
	}
	suite.True(dec("300").Equal(total), "total is %s", total)
}

func (suite *LedgerServiceTestSuite) TestFailedAppendRollsBackTransfer() {
	failing := errors.New("disk full")
	suite.newService(memory.WithAppendHook(func(entry domain.LedgerEntry) error {
		if entry.Kind == domain.EntryTransferIn {
			return failing
		}
		return nil
	}))
	alice := suite.openAccount("alice", "111111111111")
	bob := suite.openAccount("bob", "222222222222")
	_, err := suite.service.Deposit(suite.ctx, alice.ID, dec("50"))
	suite.Require().NoError(err)

	_, _, err = suite.service.Transfer(suite.ctx, alice.ID, "bob", dec("20"))

	suite.ErrorIs(err, apperrors.ErrInternal)
	suite.NotContains(err.Error(), "busy")
	suite.assertBalance("50", alice.ID)
	suite.assertBalance("0", bob.ID)
	suite.Len(suite.history(alice.ID), 1)
	suite.Empty(suite.history(bob.ID))
	suite.publisher.AssertNumberOfCalls(suite.T(), "PublishLedgerEvent", 1)
}

func (suite *LedgerServiceTestSuite) TestLockTimeoutIsBusyWithoutPartialEffect() {
	suite.newService(memory.WithLockTimeout(20 * time.Millisecond))
	alice := suite.openAccount("alice", "111111111111")
	_, err := suite.service.Deposit(suite.ctx, alice.ID, dec("50"))
	suite.Require().NoError(err)

	locked := make(chan struct{})
	release := make(chan struct{})
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		_ = suite.store.RunInTx(suite.ctx, func(ctx context.Context) error {
			_, err := suite.store.LockAccountsForUpdate(ctx, []string{alice.ID})
			close(locked)
			<-release
			return err
		})
	}()
	<-locked

	_, err = suite.service.Withdraw(suite.ctx, alice.ID, dec("10"))
	close(release)
	<-finished

	suite.ErrorIs(err, apperrors.ErrBusy)
	suite.assertBalance("50", alice.ID)
	suite.Len(suite.history(alice.ID), 1)

	// The aborted unit left nothing behind, so a retry succeeds.
	acc, err := suite.service.Withdraw(suite.ctx, alice.ID, dec("10"))
	suite.Require().NoError(err)
	suite.True(dec("40").Equal(acc.Balance))
}

func (suite *LedgerServiceTestSuite) TestHistoryIsRepeatable() {
	alice := suite.openAccount("alice", "111111111111")
	for _, amount := range []string{"1", "2", "3"} {
		_, err := suite.service.Deposit(suite.ctx, alice.ID, dec(amount))
		suite.Require().NoError(err)
	}

	first := suite.history(alice.ID)
	second := suite.history(alice.ID)

	suite.Equal(first, second)
	suite.Require().Len(first, 3)
	suite.Greater(first[0].ID, first[1].ID)
	suite.Greater(first[1].ID, first[2].ID)
}

func (suite *LedgerServiceTestSuite) TestHistoryPage() {
	alice := suite.openAccount("alice", "111111111111")
	for i := 1; i <= 5; i++ {
		_, err := suite.service.Deposit(suite.ctx, alice.ID, decimal.NewFromInt(int64(i)))
		suite.Require().NoError(err)
	}

	page, err := suite.service.HistoryPage(suite.ctx, alice.ID, dto.ListEntriesParams{Limit: 3})
	suite.Require().NoError(err)
	suite.Len(page.Entries, 3)
	suite.Require().NotNil(page.NextToken)

	rest, err := suite.service.HistoryPage(suite.ctx, alice.ID, dto.ListEntriesParams{Limit: 3, NextToken: page.NextToken})
	suite.Require().NoError(err)
	suite.Len(rest.Entries, 2)
	suite.Nil(rest.NextToken)

	bad := "not-a-token"
	_, err = suite.service.HistoryPage(suite.ctx, alice.ID, dto.ListEntriesParams{NextToken: &bad})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *LedgerServiceTestSuite) TestPublishFailureDoesNotFailCommittedDeposit() {
	store, err := memory.NewStore()
	suite.Require().NoError(err)
	publisher := new(MockLedgerEventPublisher)
	publisher.On("PublishLedgerEvent", mock.Anything, mock.MatchedBy(func(e domain.LedgerEvent) bool {
		return e.Operation == domain.OperationDeposit && len(e.Entries) == 1 && e.EventID != ""
	})).Return(errors.New("broker unavailable")).Once()
	service := services.NewLedgerService(store, store, store, services.WithEventPublisher(publisher))

	acc, err := store.CreateAccount(suite.ctx, domain.Account{ID: uuid.NewString(), OwnerHandle: "alice", NationalID: "111111111111"})
	suite.Require().NoError(err)

	updated, err := service.Deposit(suite.ctx, acc.ID, dec("5"))

	suite.Require().NoError(err)
	suite.True(dec("5").Equal(updated.Balance))
	publisher.AssertExpectations(suite.T())
}

func (suite *LedgerServiceTestSuite) TestTransferEventCarriesBothEntries() {
	store, err := memory.NewStore()
	suite.Require().NoError(err)
	publisher := new(MockLedgerEventPublisher)
	publisher.On("PublishLedgerEvent", mock.Anything, mock.MatchedBy(func(e domain.LedgerEvent) bool {
		return e.Operation == domain.OperationDeposit
	})).Return(nil).Once()
	publisher.On("PublishLedgerEvent", mock.Anything, mock.MatchedBy(func(e domain.LedgerEvent) bool {
		return e.Operation == domain.OperationTransfer &&
			len(e.Entries) == 2 &&
			e.Entries[0].Kind == domain.EntryTransferOut &&
			e.Entries[1].Kind == domain.EntryTransferIn
	})).Return(nil).Once()
	service := services.NewLedgerService(store, store, store, services.WithEventPublisher(publisher))

	alice, err := store.CreateAccount(suite.ctx, domain.Account{ID: uuid.NewString(), OwnerHandle: "alice", NationalID: "111111111111"})
	suite.Require().NoError(err)
	_, err = store.CreateAccount(suite.ctx, domain.Account{ID: uuid.NewString(), OwnerHandle: "bob", NationalID: "222222222222"})
	suite.Require().NoError(err)

	_, err = service.Deposit(suite.ctx, alice.ID, dec("5"))
	suite.Require().NoError(err)
	_, _, err = service.Transfer(suite.ctx, alice.ID, "bob", dec("5"))
	suite.Require().NoError(err)

	publisher.AssertExpectations(suite.T())
}
