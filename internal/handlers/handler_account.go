package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/janseva_bank/internal/core/ports/services"
	"github.com/SscSPs/janseva_bank/internal/dto"
	"github.com/SscSPs/janseva_bank/internal/middleware"
	"github.com/gin-gonic/gin"
)

// accountHandler serves the authenticated account's own details.
type accountHandler struct {
	accountService portssvc.AccountReaderSvc
}

func newAccountHandler(as portssvc.AccountReaderSvc) *accountHandler {
	return &accountHandler{accountService: as}
}

// registerAccountRoutes registers routes related to the caller's account.
func registerAccountRoutes(rg *gin.RouterGroup, accountService portssvc.AccountReaderSvc) {
	h := newAccountHandler(accountService)
	rg.GET("/account", h.getAccount)
}

// getAccount godoc
// @Summary Get the caller's account
// @Description Returns the owner handle and current balance of the authenticated account
// @Tags accounts
// @Produce json
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /account [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accountID, ok := middleware.GetAccountIDFromContext(c)
	if !ok {
		logger.Error("Account ID not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	account, err := h.accountService.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	logger.Debug("Account retrieved", slog.String("account_id", account.ID))
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}
