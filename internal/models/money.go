package models

import "github.com/shopspring/decimal"

// AmountScale is the number of decimal places the amount columns keep.
const AmountScale = 2

// MaxAmount is the smallest value that no longer fits a NUMERIC(15,2) column.
var MaxAmount = decimal.New(1, 13)

// ValidAmount reports whether d can be stored as a money amount without
// rounding: positive, at most two decimal places, and below MaxAmount.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Round(AmountScale)) && d.LessThan(MaxAmount)
}
