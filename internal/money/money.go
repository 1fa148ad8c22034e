// Package money holds the rupee rounding and display rules shared by the TDS
// and ECR engines. Amounts are always shopspring decimals; paise are never
// carried into statutory figures.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	Hundred = decimal.NewFromInt(100)
	Twelve  = decimal.NewFromInt(12)
)

// Round rounds to the nearest whole rupee, halves away from zero
// (ROUND_HALF_UP as Indian payroll applies it).
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// Truncate drops paise without rounding. ECR amounts are written this way.
func Truncate(d decimal.Decimal) int64 {
	return d.Truncate(0).IntPart()
}

// Percent returns pct% of d, exact.
func Percent(d decimal.Decimal, pct string) decimal.Decimal {
	return d.Mul(decimal.RequireFromString(pct)).Div(Hundred)
}

// NonNegative floors d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Parse reads a user-entered amount. Blank input is zero.
func Parse(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

var inPrinter = message.NewPrinter(language.MustParse("en-IN"))

// Display renders whole rupees with Indian digit grouping, e.g. "12,34,567".
func Display(d decimal.Decimal) string {
	return inPrinter.Sprintf("%d", Round(d).IntPart())
}

// DisplayExact renders an amount with two decimals for breakdown tables.
func DisplayExact(d decimal.Decimal) string {
	return d.StringFixed(2)
}
