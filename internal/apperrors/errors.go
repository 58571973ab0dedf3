package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal indicates a failure of the underlying store or another dependency.
// Its details are never shown to API callers.
var ErrInternal = errors.New("internal error")

// ErrUnauthorized indicates that the caller could not be authenticated.
var ErrUnauthorized = errors.New("unauthorized")

// Ledger errors. Each wraps one of the categories above where one applies, so
// callers may match either the specific error or its category.
var (
	ErrInvalidAmount       = fmt.Errorf("%w: amount must be positive with at most two decimal places", ErrValidation)
	ErrInvalidNationalID   = fmt.Errorf("%w: national id must be exactly 12 digits", ErrValidation)
	ErrDuplicateHandle     = fmt.Errorf("%w: owner handle is already registered", ErrDuplicate)
	ErrDuplicateNationalID = fmt.Errorf("%w: national id is already registered", ErrDuplicate)
	ErrReceiverNotFound    = fmt.Errorf("%w: receiver account", ErrNotFound)
	ErrInvalidCredentials  = fmt.Errorf("%w: invalid handle or password", ErrUnauthorized)
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrSelfTransfer        = errors.New("cannot transfer to the same account")
	// ErrBusy reports that the store could not acquire the locks it needed in time.
	// Nothing was applied and the operation may be retried as a whole.
	ErrBusy = errors.New("ledger is busy, please retry")
)

// AppError carries an HTTP-style code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports 5xx AppErrors as ErrInternal.
func (e *AppError) Is(target error) bool {
	return target == ErrInternal && e.Code >= 500
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError wraps ErrNotFound with the name of the missing resource.
func NewNotFoundError(resource string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, resource)
}

// IsLedgerOutcome reports whether err is one of the typed results a ledger
// operation may legitimately return, as opposed to a store failure.
func IsLedgerOutcome(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrSelfTransfer) ||
		errors.Is(err, ErrBusy)
}
