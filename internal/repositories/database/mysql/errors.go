package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	mysqldriver "github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the ledger reacts to.
const (
	erDupEntry                = 1062
	erLockWaitTimeout         = 1205
	erLockDeadlock            = 1213
	erNoReferencedRow         = 1452
	erCheckConstraintViolated = 3819
)

// Check constraints declared in models.go. MySQL reports a violated check
// only by name inside the error message, so 3819 is mapped per constraint.
const (
	ckBalanceNonNegative = "ck_accounts_balance_non_negative"
	ckAmountPositive     = "ck_ledger_entries_amount_positive"
)

// mapMySQLError turns server errors with a ledger meaning into typed errors,
// keyed on the error number. A duplicate key maps to apperrors.ErrDuplicate;
// callers that need the violated column look it up.
func mapMySQLError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperrors.ErrBusy, err)
	}

	var myErr *mysqldriver.MySQLError
	if !errors.As(err, &myErr) {
		return err
	}
	switch myErr.Number {
	case erLockWaitTimeout, erLockDeadlock:
		return fmt.Errorf("%w: mysql error %d", apperrors.ErrBusy, myErr.Number)
	case erDupEntry:
		return fmt.Errorf("%w: mysql error %d", apperrors.ErrDuplicate, myErr.Number)
	case erNoReferencedRow:
		return apperrors.NewNotFoundError("account")
	case erCheckConstraintViolated:
		switch {
		case strings.Contains(myErr.Message, ckBalanceNonNegative):
			return apperrors.ErrInsufficientFunds
		case strings.Contains(myErr.Message, ckAmountPositive):
			return apperrors.ErrInvalidAmount
		}
	}
	return err
}

// translateError maps err with mapMySQLError, wrapping anything left
// unmapped as an internal error described by msg.
func translateError(err error, msg string) error {
	if mapped := mapMySQLError(err); mapped != err {
		return mapped
	}
	return apperrors.NewAppError(500, msg, err)
}
