package ecr

import (
	"github.com/shopspring/decimal"

	"github.com/csg33k/statutory-payroll/internal/adapters/ecr/spec"
	"github.com/csg33k/statutory-payroll/internal/money"
)

// Split is the statutory three-way division of a member's PF contribution.
type Split struct {
	EmployeePF  decimal.Decimal
	EmployerEPS decimal.Decimal
	EmployerEPF decimal.Decimal
}

// Contributions derives the standard split from a PF wage: employee 12% of
// the PF wage, employer EPS 8.33% of the EPS-capped wage, and the remainder of
// the employer's matching 12% to EPF. Each share is rounded to the rupee.
func Contributions(pfWage decimal.Decimal) Split {
	pfWage = money.NonNegative(pfWage)
	employee := money.Round(pfWage.Mul(spec.EmployeePFRate))
	eps := money.Round(decimal.Min(pfWage, spec.EPSWageCeiling).Mul(spec.EmployerEPSRate))
	return Split{
		EmployeePF:  employee,
		EmployerEPS: eps,
		EmployerEPF: money.NonNegative(employee.Sub(eps)),
	}
}
