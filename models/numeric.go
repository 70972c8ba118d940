package models

import "github.com/shopspring/decimal"

// Column shapes of the decimal fields. Values are validated against these so
// the database never rounds or rejects what the application accepted.
const (
	QuantityPrecision = 14
	QuantityScale     = 4
	MoneyPrecision    = 14
	MoneyScale        = 2
)

// FitsNumeric reports whether d can be stored in a numeric(precision, scale)
// column exactly.
func FitsNumeric(d decimal.Decimal, precision, scale int32) bool {
	if !d.Equal(d.Round(scale)) {
		return false
	}
	return d.Abs().LessThan(decimal.New(1, precision-scale))
}

// FitsQuantity reports whether d fits a numeric(14,4) column.
func FitsQuantity(d decimal.Decimal) bool {
	return FitsNumeric(d, QuantityPrecision, QuantityScale)
}

// FitsMoney reports whether d fits a numeric(14,2) column.
func FitsMoney(d decimal.Decimal) bool {
	return FitsNumeric(d, MoneyPrecision, MoneyScale)
}
