package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/janseva_bank/internal/core/domain"
	portssvc "github.com/SscSPs/janseva_bank/internal/core/ports/services"
	"github.com/SscSPs/janseva_bank/internal/dto"
	"github.com/SscSPs/janseva_bank/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler handles money movement and history requests.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// registerLedgerRoutes registers the ledger routes on an authenticated group.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	ledger := rg.Group("/ledger")
	{
		ledger.POST("/deposit", h.deposit)
		ledger.POST("/withdraw", h.withdraw)
		ledger.POST("/transfer", h.transfer)
		ledger.GET("/history", h.history)
	}
}

// deposit godoc
// @Summary Deposit money
// @Description Credits the authenticated account
// @Tags ledger
// @Accept json
// @Produce json
// @Param deposit body dto.AmountRequest true "Amount to deposit"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse "Invalid amount"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Failure 503 {object} ErrorResponse "Ledger busy, retry"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /ledger/deposit [post]
func (h *ledgerHandler) deposit(c *gin.Context) {
	accountID, req, ok := bindAmountRequest(c)
	if !ok {
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.ledgerService.Deposit(c.Request.Context(), accountID, amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// withdraw godoc
// @Summary Withdraw money
// @Description Debits the authenticated account if its balance covers the amount
// @Tags ledger
// @Accept json
// @Produce json
// @Param withdraw body dto.AmountRequest true "Amount to withdraw"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} ErrorResponse "Invalid amount"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 422 {object} ErrorResponse "Insufficient funds"
// @Failure 503 {object} ErrorResponse "Ledger busy, retry"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /ledger/withdraw [post]
func (h *ledgerHandler) withdraw(c *gin.Context) {
	accountID, req, ok := bindAmountRequest(c)
	if !ok {
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.ledgerService.Withdraw(c.Request.Context(), accountID, amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// transfer godoc
// @Summary Transfer money
// @Description Moves money from the authenticated account to the account with the given owner handle
// @Tags ledger
// @Accept json
// @Produce json
// @Param transfer body dto.TransferRequest true "Receiver and amount"
// @Success 200 {object} dto.TransferResponse
// @Failure 400 {object} ErrorResponse "Invalid amount"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Receiver not found"
// @Failure 422 {object} ErrorResponse "Insufficient funds or self transfer"
// @Failure 503 {object} ErrorResponse "Ledger busy, retry"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /ledger/transfer [post]
func (h *ledgerHandler) transfer(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	senderID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		logger.Error("Account ID not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for transfer", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sender, receiver, err := h.ledgerService.Transfer(c.Request.Context(), senderID, req.ReceiverHandle, amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.TransferResponse{
		Account:        dto.ToAccountResponse(sender),
		ReceiverHandle: receiver.OwnerHandle,
		Amount:         amount.Round(domain.AmountScale),
	})
}

// history godoc
// @Summary List transactions
// @Description Lists the authenticated account's ledger entries, newest first, with keyset pagination
// @Tags ledger
// @Produce json
// @Param limit query int false "Maximum number of entries to return (default 20, max 100)"
// @Param nextToken query string false "Token for fetching the next page"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} ErrorResponse "Invalid query parameters"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /ledger/history [get]
func (h *ledgerHandler) history(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		logger.Error("Account ID not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query parameters for history", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters: " + err.Error()})
		return
	}

	page, err := h.ledgerService.HistoryPage(c.Request.Context(), accountID, params)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// bindAmountRequest reads the caller's account id and an AmountRequest body,
// writing the error response itself when either is missing.
func bindAmountRequest(c *gin.Context) (string, dto.AmountRequest, bool) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AmountRequest

	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		logger.Error("Account ID not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return "", req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for amount request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error()})
		return "", req, false
	}
	return accountID, req, true
}
