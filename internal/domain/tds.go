package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownRegime  = errors.New("unknown tax regime")
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// TaxRegime selects the income-tax slab structure an employee elected.
type TaxRegime string

const (
	RegimeNew TaxRegime = "new"
	RegimeOld TaxRegime = "old"
)

// ParseTaxRegime accepts "new" or "old" in any case. Anything else is an
// error rather than a silent fall back to the old regime.
func ParseTaxRegime(s string) (TaxRegime, error) {
	switch TaxRegime(strings.ToLower(strings.TrimSpace(s))) {
	case RegimeNew:
		return RegimeNew, nil
	case RegimeOld:
		return RegimeOld, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegime, s)
}

// TDSInput is one employee's annualised salary and declared deductions.
// Deductions other than the standard deduction only apply to the old regime.
type TDSInput struct {
	AnnualGross     decimal.Decimal
	Regime          TaxRegime
	Deductions80C   decimal.Decimal
	Deductions80D   decimal.Decimal
	OtherDeductions decimal.Decimal
	HRAExemption    decimal.Decimal
}

// Validate rejects unknown regimes and negative amounts.
func (in TDSInput) Validate() error {
	if in.Regime != RegimeNew && in.Regime != RegimeOld {
		return fmt.Errorf("%w: %q", ErrUnknownRegime, string(in.Regime))
	}
	for _, f := range []struct {
		name string
		v    decimal.Decimal
	}{
		{"annual gross", in.AnnualGross},
		{"80C deductions", in.Deductions80C},
		{"80D deductions", in.Deductions80D},
		{"other deductions", in.OtherDeductions},
		{"HRA exemption", in.HRAExemption},
	} {
		if f.v.IsNegative() {
			return fmt.Errorf("%s %s: %w", f.name, f.v.String(), ErrNegativeAmount)
		}
	}
	return nil
}

// SlabDetail is the share of taxable income that fell inside one slab.
type SlabDetail struct {
	Lower  decimal.Decimal
	Upper  decimal.Decimal // zero when Open
	Open   bool            // top slab, no upper bound
	Rate   decimal.Decimal
	Income decimal.Decimal
	Tax    decimal.Decimal // exact, not rounded
}

// TDSBreakdown is the full withholding computation for one employee.
// TotalTax == GrossTax + Cess, and GrossTax is already net of Rebate.
type TDSBreakdown struct {
	AnnualIncome      decimal.Decimal
	TaxableIncome     decimal.Decimal
	Regime            TaxRegime
	StandardDeduction decimal.Decimal // every deduction applied, not just the standard one
	Rebate            decimal.Decimal
	GrossTax          decimal.Decimal
	Cess              decimal.Decimal
	TotalTax          decimal.Decimal
	MonthlyTDS        decimal.Decimal
	Slabs             []SlabDetail
}
