package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/SscSPs/janseva_bank/internal/core/domain"
	"github.com/SscSPs/janseva_bank/internal/dto"
	"github.com/SscSPs/janseva_bank/internal/handlers"
	"github.com/SscSPs/janseva_bank/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AuthHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockAccountService *MockAccountService
}

func (suite *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	handlers.RegisterValidators()
	suite.mockAccountService = new(MockAccountService)
	suite.router = gin.New()
	cfg := &config.Config{
		JWTSecret:         testJWTSecret,
		JWTExpiryDuration: time.Hour,
		JWTIssuer:         "janseva-test",
	}
	handlers.RegisterAuthRoutes(suite.router, cfg, suite.mockAccountService, nil)
}

func (suite *AuthHandlerTestSuite) TearDownTest() {
	suite.mockAccountService.AssertExpectations(suite.T())
}

func (suite *AuthHandlerTestSuite) post(path string, body any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(body)
	suite.Require().NoError(err)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *AuthHandlerTestSuite) TestLogin_Success() {
	accountID := uuid.NewString()
	suite.mockAccountService.On("Authenticate", mock.Anything, "alice", "correct horse").
		Return(&domain.Account{ID: accountID, OwnerHandle: "alice"}, nil).Once()

	w := suite.post("/api/v1/auth/login", dto.LoginRequest{OwnerHandle: "alice", Password: "correct horse"})

	suite.Require().Equal(http.StatusOK, w.Code)
	var resp dto.LoginResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.True(resp.ExpiresAt.After(time.Now()))

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	suite.Require().NoError(err)
	suite.Equal(accountID, claims.Subject)
	suite.Equal("janseva-test", claims.Issuer)
}

func (suite *AuthHandlerTestSuite) TestLogin_InvalidCredentials() {
	suite.mockAccountService.On("Authenticate", mock.Anything, "alice", "wrong-password").
		Return(nil, apperrors.ErrInvalidCredentials).Once()

	w := suite.post("/api/v1/auth/login", dto.LoginRequest{OwnerHandle: "alice", Password: "wrong-password"})

	suite.Equal(http.StatusUnauthorized, w.Code)
	suite.Contains(w.Body.String(), "Invalid handle or password")
}

func (suite *AuthHandlerTestSuite) TestLogin_MissingFields() {
	w := suite.post("/api/v1/auth/login", map[string]string{"ownerHandle": "alice"})
	suite.Equal(http.StatusBadRequest, w.Code)
}

func (suite *AuthHandlerTestSuite) TestRegister_Success() {
	req := dto.RegisterRequest{OwnerHandle: "alice", NationalID: "123456789012", Password: "correct horse"}
	suite.mockAccountService.On("Register", mock.Anything, req).Return(&domain.Account{
		ID:          uuid.NewString(),
		OwnerHandle: "alice",
		NationalID:  "123456789012",
		Balance:     decimal.Zero,
		CreatedAt:   time.Now().UTC(),
	}, nil).Once()

	w := suite.post("/api/v1/auth/register", req)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.AccountResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("alice", resp.OwnerHandle)
	suite.True(resp.Balance.IsZero())
	suite.NotContains(w.Body.String(), "123456789012")
}

func (suite *AuthHandlerTestSuite) TestRegister_InvalidNationalIDRejectedByBinding() {
	for _, id := range []string{"12345", "12345678901a", "1234567890123"} {
		w := suite.post("/api/v1/auth/register", dto.RegisterRequest{OwnerHandle: "alice", NationalID: id, Password: "correct horse"})
		suite.Equal(http.StatusBadRequest, w.Code, "national id %q", id)
	}
	suite.mockAccountService.AssertNotCalled(suite.T(), "Register", mock.Anything, mock.Anything)
}

func (suite *AuthHandlerTestSuite) TestRegister_Conflicts() {
	cases := []struct {
		handle string
		err    error
		msg    string
	}{
		{"taken", apperrors.ErrDuplicateHandle, "Owner handle is already taken"},
		{"twin", apperrors.ErrDuplicateNationalID, "National ID is already registered"},
	}
	for _, tc := range cases {
		req := dto.RegisterRequest{OwnerHandle: tc.handle, NationalID: "123456789012", Password: "correct horse"}
		suite.mockAccountService.On("Register", mock.Anything, req).Return(nil, tc.err).Once()

		w := suite.post("/api/v1/auth/register", req)

		suite.Equal(http.StatusConflict, w.Code)
		suite.Contains(w.Body.String(), tc.msg)
	}
}

func TestAuthHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}
