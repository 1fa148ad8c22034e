// Package tds computes monthly income-tax withholding (Tax Deducted at
// Source) on salary under the new and old regimes.
package tds

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/csg33k/statutory-payroll/internal/adapters/tds/slabs"
	"github.com/csg33k/statutory-payroll/internal/domain"
	"github.com/csg33k/statutory-payroll/internal/money"
)

// Calculator is stateless; the zero value is ready to use and safe for
// concurrent calls.
type Calculator struct{}

func New() *Calculator { return &Calculator{} }

// Calculate satisfies ports.TaxCalculator.
func (c *Calculator) Calculate(_ context.Context, in domain.TDSInput) (*domain.TDSBreakdown, error) {
	return Calculate(in)
}

// Calculate produces the withholding breakdown for one employee.
func Calculate(in domain.TDSInput) (*domain.TDSBreakdown, error) {
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("tds: %w", err)
	}
	table, _ := slabs.ForRegime(in.Regime)

	deductions := table.StandardDeduction
	if table.ItemisedAllowed {
		deductions = deductions.
			Add(decimal.Min(in.Deductions80C, table.Section80CCap)).
			Add(in.Deductions80D).
			Add(in.OtherDeductions).
			Add(in.HRAExemption)
	}

	taxable := money.Round(money.NonNegative(in.AnnualGross.Sub(deductions)))
	details := slabs.Apply(taxable, table.Slabs)

	slabTax := decimal.Zero
	for _, d := range details {
		slabTax = slabTax.Add(d.Tax)
	}
	grossTax := money.Round(slabTax)

	rebate := decimal.Zero
	if table.RebateMaximum.IsPositive() && taxable.LessThanOrEqual(table.RebateIncome) {
		rebate = decimal.Min(grossTax, table.RebateMaximum)
		grossTax = grossTax.Sub(rebate)
	}

	cess := money.Round(grossTax.Mul(slabs.CessRate))
	total := grossTax.Add(cess)

	return &domain.TDSBreakdown{
		AnnualIncome:      in.AnnualGross,
		TaxableIncome:     taxable,
		Regime:            in.Regime,
		StandardDeduction: deductions,
		Rebate:            rebate,
		GrossTax:          grossTax,
		Cess:              cess,
		TotalTax:          total,
		MonthlyTDS:        money.Round(total.Div(money.Twelve)),
		Slabs:             details,
	}, nil
}
