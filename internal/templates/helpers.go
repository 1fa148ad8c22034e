package templates

import (
	"html/template"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/csg33k/statutory-payroll/internal/money"
)

var funcs = template.FuncMap{
	"rupees": rupees,
	"exact":  money.DisplayExact,
	"itoa":   itoa,
	"month":  func(t time.Time) string { return t.Format("Jan 2006") },
	"seq":    func(i int) int { return i + 1 },
	"pct":    func(d decimal.Decimal) string { return d.Mul(money.Hundred).String() + "%" },
}

// rupees renders a whole-rupee amount with Indian grouping, e.g. "₹12,34,567".
func rupees(d decimal.Decimal) string {
	return "₹" + money.Display(d)
}

// itoa converts an int64 to a string, used for building URL paths.
func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
