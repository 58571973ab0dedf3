package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/SscSPs/janseva_bank/internal/middleware"
	"github.com/gin-gonic/gin"
)

// busyRetryAfterSeconds is sent in Retry-After when the store is contended.
const busyRetryAfterSeconds = "1"

// ErrorResponse is a generic error response structure for handlers.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondWithError maps err to a status code and a message safe to show to
// the caller. Store failures are logged and answered with a generic message.
func respondWithError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	switch {
	case errors.Is(err, apperrors.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Amount must be a positive number with at most two decimal places"})
	case errors.Is(err, apperrors.ErrInvalidNationalID):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "National ID must be exactly 12 digits"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientFunds):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "Insufficient funds"})
	case errors.Is(err, apperrors.ErrSelfTransfer):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "Cannot transfer to your own account"})
	case errors.Is(err, apperrors.ErrReceiverNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Receiver not found"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Account not found"})
	case errors.Is(err, apperrors.ErrDuplicateHandle):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Owner handle is already taken"})
	case errors.Is(err, apperrors.ErrDuplicateNationalID):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "National ID is already registered"})
	case errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Account already exists"})
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid handle or password"})
	case errors.Is(err, apperrors.ErrBusy):
		logger.Warn("Ledger busy", slog.String("error", err.Error()))
		c.Header("Retry-After", busyRetryAfterSeconds)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "The ledger is busy, please try again"})
	default:
		logger.Error("Request failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}
