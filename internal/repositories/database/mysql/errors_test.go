package mysql

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestMapMySQLError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "lock wait timeout", err: &mysqldriver.MySQLError{Number: 1205}, want: apperrors.ErrBusy},
		{name: "deadlock", err: &mysqldriver.MySQLError{Number: 1213}, want: apperrors.ErrBusy},
		{name: "wrapped deadlock", err: fmt.Errorf("exec: %w", &mysqldriver.MySQLError{Number: 1213}), want: apperrors.ErrBusy},
		{name: "duplicate entry", err: &mysqldriver.MySQLError{Number: 1062}, want: apperrors.ErrDuplicate},
		{name: "missing parent row", err: &mysqldriver.MySQLError{Number: 1452}, want: apperrors.ErrNotFound},
		{
			name: "negative balance check",
			err:  &mysqldriver.MySQLError{Number: 3819, Message: "Check constraint 'ck_accounts_balance_non_negative' is violated."},
			want: apperrors.ErrInsufficientFunds,
		},
		{
			name: "non-positive amount check",
			err:  &mysqldriver.MySQLError{Number: 3819, Message: "Check constraint 'ck_ledger_entries_amount_positive' is violated."},
			want: apperrors.ErrInvalidAmount,
		},
		{name: "deadline", err: context.DeadlineExceeded, want: apperrors.ErrBusy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapMySQLError(tt.err), tt.want)
		})
	}
}

func TestMapMySQLError_PassesThroughOtherErrors(t *testing.T) {
	assert.Nil(t, mapMySQLError(nil))
	assert.Same(t, apperrors.ErrSelfTransfer, mapMySQLError(apperrors.ErrSelfTransfer))

	plain := errors.New("Duplicate entry 'alice' for key 'accounts.uq_accounts_owner_handle'")
	assert.Same(t, plain, mapMySQLError(plain))

	err := translateError(errors.New("bad connection"), "failed to find account")
	assert.ErrorIs(t, err, apperrors.ErrInternal)

	unknownCheck := &mysqldriver.MySQLError{Number: 3819, Message: "Check constraint 'ck_other' is violated."}
	assert.Same(t, unknownCheck, mapMySQLError(unknownCheck))
	assert.NotErrorIs(t, mapMySQLError(&mysqldriver.MySQLError{Number: 3819, Message: "Check constraint 'ck_ledger_entries_amount_positive' is violated."}), apperrors.ErrInsufficientFunds)
}
