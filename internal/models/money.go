package models

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency of every ledger amount.
const Currency = money.GBP

// minorUnitExp is the number of decimal places in a minor unit.
const minorUnitExp = 2

// MaxAmount is the largest magnitude a ledger amount column (NUMERIC(14,2)) holds.
var MaxAmount = decimal.New(99999999999999, -minorUnitExp)

// InAmountRange reports whether amount fits the ledger amount column.
func InAmountRange(amount decimal.Decimal) bool {
	return amount.Abs().LessThanOrEqual(MaxAmount)
}

// ToMinorUnits converts a decimal amount to pence. Amounts with more than two
// decimal places fail rather than round, and amounts outside the ledger range fail.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.Equal(amount.Truncate(minorUnitExp)) {
		return 0, &PrecisionLossError{Amount: amount.String()}
	}
	if !InAmountRange(amount) {
		return 0, &AmountOutOfRangeError{Amount: amount.String()}
	}
	return amount.Shift(minorUnitExp).IntPart(), nil
}

// FromMinorUnits converts pence back to a decimal amount.
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnitExp)
}

// ToMoney converts a decimal amount to a go-money value.
func ToMoney(amount decimal.Decimal) (*money.Money, error) {
	minor, err := ToMinorUnits(amount)
	if err != nil {
		return nil, err
	}
	return money.New(minor, Currency), nil
}
