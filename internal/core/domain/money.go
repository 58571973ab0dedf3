package domain

import (
	"fmt"
	"strings"

	"github.com/SscSPs/janseva_bank/internal/apperrors"
	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits money carries.
const AmountScale int32 = 2

// MaxAmount is the largest value a NUMERIC(15,2) balance column can hold.
var MaxAmount = decimal.RequireFromString("9999999999999.99")

// ValidateAmount checks that amount is positive, fits the balance column and
// has no more than two fractional digits. Finer amounts are rejected, never rounded.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: got %s", apperrors.ErrInvalidAmount, amount.String())
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return fmt.Errorf("%w: got %s", apperrors.ErrInvalidAmount, amount.String())
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%w: exceeds %s", apperrors.ErrInvalidAmount, MaxAmount.StringFixed(AmountScale))
	}
	return nil
}

// ParseAmount parses user-entered text into a validated amount.
func ParseAmount(text string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a number", apperrors.ErrInvalidAmount, text)
	}
	if err := ValidateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

// NationalIDLength is the number of digits in a national id.
const NationalIDLength = 12

// ValidateNationalID checks that id is exactly twelve ASCII digits.
func ValidateNationalID(id string) error {
	if len(id) != NationalIDLength {
		return apperrors.ErrInvalidNationalID
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return apperrors.ErrInvalidNationalID
		}
	}
	return nil
}
