// Package slabs defines the income-tax slab tables for each regime as
// immutable data, following the Finance Act rates effective FY 2024-25.
package slabs

import (
	"github.com/shopspring/decimal"

	"github.com/csg33k/statutory-payroll/internal/domain"
)

// Slab is one marginal bracket. Upper is ignored when Open is set.
type Slab struct {
	Lower decimal.Decimal
	Upper decimal.Decimal
	Open  bool
	Rate  decimal.Decimal // fraction, 0.05 == 5%
}

func (s Slab) Width() decimal.Decimal { return s.Upper.Sub(s.Lower) }

// Table is everything the calculator needs to know about one regime.
type Table struct {
	Regime            domain.TaxRegime
	StandardDeduction decimal.Decimal
	Slabs             []Slab

	// Old regime only. Zero values disable the rule.
	ItemisedAllowed bool
	Section80CCap   decimal.Decimal
	RebateIncome    decimal.Decimal // 87A applies at or below this taxable income
	RebateMaximum   decimal.Decimal
}

var CessRate = decimal.RequireFromString("0.04")

// ForRegime returns a fresh copy of the regime's table so callers cannot
// mutate shared state.
func ForRegime(r domain.TaxRegime) (Table, bool) {
	switch r {
	case domain.RegimeNew:
		return newRegime(), true
	case domain.RegimeOld:
		return oldRegime(), true
	}
	return Table{}, false
}

func newRegime() Table {
	return Table{
		Regime:            domain.RegimeNew,
		StandardDeduction: decimal.NewFromInt(75_000),
		Slabs: []Slab{
			bounded(0, 300_000, "0"),
			bounded(300_000, 700_000, "0.05"),
			bounded(700_000, 1_000_000, "0.10"),
			bounded(1_000_000, 1_200_000, "0.15"),
			bounded(1_200_000, 1_500_000, "0.20"),
			open(1_500_000, "0.30"),
		},
	}
}

func oldRegime() Table {
	return Table{
		Regime:            domain.RegimeOld,
		StandardDeduction: decimal.NewFromInt(50_000),
		Slabs: []Slab{
			bounded(0, 250_000, "0"),
			bounded(250_000, 500_000, "0.05"),
			bounded(500_000, 1_000_000, "0.20"),
			open(1_000_000, "0.30"),
		},
		Section80CCap:   decimal.NewFromInt(150_000),
		RebateIncome:    decimal.NewFromInt(500_000),
		RebateMaximum:   decimal.NewFromInt(12_500),
		ItemisedAllowed: true,
	}
}

func bounded(lower, upper int64, rate string) Slab {
	return Slab{
		Lower: decimal.NewFromInt(lower),
		Upper: decimal.NewFromInt(upper),
		Rate:  decimal.RequireFromString(rate),
	}
}

func open(lower int64, rate string) Slab {
	return Slab{
		Lower: decimal.NewFromInt(lower),
		Open:  true,
		Rate:  decimal.RequireFromString(rate),
	}
}

// Apply walks the slabs in order and returns the income and exact tax that
// fell in each one. Slabs beyond the taxable income are omitted.
func Apply(income decimal.Decimal, slabs []Slab) []domain.SlabDetail {
	var out []domain.SlabDetail
	remaining := income
	for _, s := range slabs {
		if !remaining.IsPositive() {
			break
		}
		inSlab := remaining
		if !s.Open {
			inSlab = decimal.Min(remaining, s.Width())
		}
		out = append(out, domain.SlabDetail{
			Lower:  s.Lower,
			Upper:  s.Upper,
			Open:   s.Open,
			Rate:   s.Rate,
			Income: inSlab,
			Tax:    inSlab.Mul(s.Rate),
		})
		remaining = remaining.Sub(inSlab)
	}
	return out
}

// Tax is the exact marginal tax on income. Negative income yields zero.
func Tax(income decimal.Decimal, slabs []Slab) decimal.Decimal {
	total := decimal.Zero
	for _, d := range Apply(income, slabs) {
		total = total.Add(d.Tax)
	}
	return total
}
