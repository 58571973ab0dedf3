package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/SscSPs/janseva_bank/internal/core/domain"
	portssvc "github.com/SscSPs/janseva_bank/internal/core/ports/services"
	"github.com/SscSPs/janseva_bank/internal/core/services"
	"github.com/SscSPs/janseva_bank/internal/dto"
	"github.com/SscSPs/janseva_bank/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

// MockAccountRepository is a mock type for the AccountRepositoryFacade interface
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountByHandle(ctx context.Context, ownerHandle string) (*domain.Account, error) {
	args := m.Called(ctx, ownerHandle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) LockAccountsForUpdate(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) AdjustBalanceInTx(ctx context.Context, accountID string, delta decimal.Decimal, minResult decimal.Decimal) (*domain.Account, error) {
	args := m.Called(ctx, accountID, delta, minResult)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

// --- Test Suite Setup ---

type AccountServiceTestSuite struct {
	suite.Suite
	mockRepo   *MockAccountRepository
	service    portssvc.AccountSvcFacade
	ctx        context.Context
	validReq   dto.RegisterRequest
	storedHash string
}

func (suite *AccountServiceTestSuite) SetupSuite() {
	utils.PasswordCost = bcrypt.MinCost
	hash, err := utils.HashPassword("correct horse")
	suite.Require().NoError(err)
	suite.storedHash = hash
}

func (suite *AccountServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockAccountRepository)
	suite.service = services.NewAccountService(suite.mockRepo)
	suite.ctx = context.Background()
	suite.validReq = dto.RegisterRequest{
		OwnerHandle: "alice",
		NationalID:  "123456789012",
		Password:    "correct horse",
	}
}

func (suite *AccountServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
}

func TestAccountServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

// --- Test Cases ---

func (suite *AccountServiceTestSuite) TestRegister_Success() {
	suite.mockRepo.On("CreateAccount", suite.ctx, mock.MatchedBy(func(acc domain.Account) bool {
		_, err := uuid.Parse(acc.ID)
		return err == nil &&
			acc.OwnerHandle == "alice" &&
			acc.NationalID == "123456789012" &&
			acc.PasswordHash != "correct horse" &&
			utils.CheckPasswordHash("correct horse", acc.PasswordHash)
	})).Return(&domain.Account{
		ID:          uuid.NewString(),
		OwnerHandle: "alice",
		NationalID:  "123456789012",
		Balance:     decimal.Zero,
		CreatedAt:   time.Now(),
	}, nil).Once()

	acc, err := suite.service.Register(suite.ctx, suite.validReq)

	suite.Require().NoError(err)
	suite.Equal("alice", acc.OwnerHandle)
	suite.True(acc.Balance.IsZero())
}

func (suite *AccountServiceTestSuite) TestRegister_InvalidNationalID() {
	req := suite.validReq
	req.NationalID = "12345678901a"

	acc, err := suite.service.Register(suite.ctx, req)

	suite.Nil(acc)
	suite.ErrorIs(err, apperrors.ErrInvalidNationalID)
	suite.mockRepo.AssertNotCalled(suite.T(), "CreateAccount", mock.Anything, mock.Anything)
}

func (suite *AccountServiceTestSuite) TestRegister_ShortPassword() {
	req := suite.validReq
	req.Password = "short"

	_, err := suite.service.Register(suite.ctx, req)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AccountServiceTestSuite) TestRegister_DuplicateHandle() {
	suite.mockRepo.On("CreateAccount", suite.ctx, mock.AnythingOfType("domain.Account")).
		Return(nil, apperrors.ErrDuplicateHandle).Once()

	acc, err := suite.service.Register(suite.ctx, suite.validReq)

	suite.Nil(acc)
	suite.ErrorIs(err, apperrors.ErrDuplicateHandle)
}

func (suite *AccountServiceTestSuite) TestRegister_DuplicateNationalID() {
	suite.mockRepo.On("CreateAccount", suite.ctx, mock.AnythingOfType("domain.Account")).
		Return(nil, apperrors.ErrDuplicateNationalID).Once()

	_, err := suite.service.Register(suite.ctx, suite.validReq)

	suite.ErrorIs(err, apperrors.ErrDuplicateNationalID)
}

func (suite *AccountServiceTestSuite) TestRegister_StoreFailureIsInternal() {
	storeErr := errors.New("connection reset by peer")
	suite.mockRepo.On("CreateAccount", suite.ctx, mock.AnythingOfType("domain.Account")).
		Return(nil, storeErr).Once()

	_, err := suite.service.Register(suite.ctx, suite.validReq)

	suite.ErrorIs(err, apperrors.ErrInternal)
	suite.False(apperrors.IsLedgerOutcome(err))
}

func (suite *AccountServiceTestSuite) TestAuthenticate_Success() {
	stored := &domain.Account{ID: uuid.NewString(), OwnerHandle: "alice", PasswordHash: suite.storedHash}
	suite.mockRepo.On("FindAccountByHandle", suite.ctx, "alice").Return(stored, nil).Once()

	acc, err := suite.service.Authenticate(suite.ctx, "alice", "correct horse")

	suite.Require().NoError(err)
	suite.Equal(stored.ID, acc.ID)
}

func (suite *AccountServiceTestSuite) TestAuthenticate_WrongPassword() {
	stored := &domain.Account{ID: uuid.NewString(), OwnerHandle: "alice", PasswordHash: suite.storedHash}
	suite.mockRepo.On("FindAccountByHandle", suite.ctx, "alice").Return(stored, nil).Once()

	acc, err := suite.service.Authenticate(suite.ctx, "alice", "battery staple")

	suite.Nil(acc)
	suite.ErrorIs(err, apperrors.ErrInvalidCredentials)
}

func (suite *AccountServiceTestSuite) TestAuthenticate_UnknownHandleLooksLikeWrongPassword() {
	suite.mockRepo.On("FindAccountByHandle", suite.ctx, "mallory").
		Return(nil, apperrors.NewNotFoundError("account with handle mallory")).Once()

	_, err := suite.service.Authenticate(suite.ctx, "mallory", "whatever1")

	suite.ErrorIs(err, apperrors.ErrInvalidCredentials)
	suite.NotErrorIs(err, apperrors.ErrNotFound)
}

func (suite *AccountServiceTestSuite) TestGetAccountByID() {
	stored := &domain.Account{ID: uuid.NewString(), OwnerHandle: "alice"}
	suite.mockRepo.On("FindAccountByID", suite.ctx, stored.ID).Return(stored, nil).Once()
	missingID := uuid.NewString()
	suite.mockRepo.On("FindAccountByID", suite.ctx, missingID).
		Return(nil, apperrors.NewNotFoundError("account "+missingID)).Once()

	acc, err := suite.service.GetAccountByID(suite.ctx, stored.ID)
	suite.Require().NoError(err)
	suite.Equal(stored, acc)

	_, err = suite.service.GetAccountByID(suite.ctx, missingID)
	assert.ErrorIs(suite.T(), err, apperrors.ErrNotFound)
}
