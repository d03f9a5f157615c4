package utils

import (
	"github.com/shopspring/decimal"
)

// ToDisplay converts base denomination units (e.g. uzig) to display units (ZIG).
func ToDisplay(base decimal.Decimal, decimals int32) decimal.Decimal {
	return base.Shift(-decimals)
}

// ToBase converts display units to base units, floored to a whole number
// since the chain only accepts integral base amounts.
func ToBase(display decimal.Decimal, decimals int32) decimal.Decimal {
	return display.Shift(decimals).Floor()
}

// FormatDisplay renders base units as a display amount with full precision,
// e.g. 10490000 -> "10.490000".
func FormatDisplay(base decimal.Decimal, decimals int32) string {
	return ToDisplay(base, decimals).StringFixed(decimals)
}
