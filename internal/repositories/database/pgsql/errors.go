package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the ledger reacts to.
const (
	sqlStateUniqueViolation      = "23505"
	sqlStateCheckViolation       = "23514"
	sqlStateForeignKeyViolation  = "23503"
	sqlStateLockNotAvailable     = "55P03"
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// Constraint names from the migrations.
const (
	constraintOwnerHandleUnique   = "uq_accounts_owner_handle"
	constraintNationalIDUnique    = "uq_accounts_national_id"
	constraintNationalIDDigits    = "ck_accounts_national_id_digits"
	constraintBalanceNonNegative  = "ck_accounts_balance_non_negative"
	constraintLedgerEntryAccount  = "fk_ledger_entries_account"
	constraintLedgerEntryPositive = "ck_ledger_entries_amount_positive"
)

// mapPgError turns PostgreSQL errors that carry a ledger meaning into typed
// errors. The cause is taken from the SQLSTATE and constraint name, never from
// the message text. Errors without such a meaning are returned unchanged.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", apperrors.ErrBusy, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlStateLockNotAvailable, sqlStateSerializationFailure, sqlStateDeadlockDetected:
		return fmt.Errorf("%w: %s", apperrors.ErrBusy, pgErr.Code)
	case sqlStateUniqueViolation:
		switch pgErr.ConstraintName {
		case constraintOwnerHandleUnique:
			return apperrors.ErrDuplicateHandle
		case constraintNationalIDUnique:
			return apperrors.ErrDuplicateNationalID
		}
		return fmt.Errorf("%w: %s", apperrors.ErrDuplicate, pgErr.ConstraintName)
	case sqlStateCheckViolation:
		switch pgErr.ConstraintName {
		case constraintBalanceNonNegative:
			return apperrors.ErrInsufficientFunds
		case constraintNationalIDDigits:
			return apperrors.ErrInvalidNationalID
		case constraintLedgerEntryPositive:
			return apperrors.ErrInvalidAmount
		}
	case sqlStateForeignKeyViolation:
		if pgErr.ConstraintName == constraintLedgerEntryAccount {
			return apperrors.NewNotFoundError("account")
		}
	}
	return err
}

// translateError maps err with mapPgError, wrapping anything left unmapped
// as an internal error described by msg.
func translateError(err error, msg string) error {
	if mapped := mapPgError(err); mapped != err {
		return mapped
	}
	return apperrors.NewAppError(500, msg, err)
}
