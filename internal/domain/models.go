package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by repositories when a run or employee is missing.
var ErrNotFound = errors.New("not found")

// PayrollRun is one establishment's wage month, persisted so the ECR file and
// challan report can be regenerated.
type PayrollRun struct {
	ID                int64
	EstablishmentID   string // EPFO establishment code, e.g. "KABLR0012345"
	EstablishmentName string
	WageMonth         time.Time // only year and month are significant
	Employees         []EmployeePayroll
	Notes             string
	CreatedAt         time.Time
	GeneratedAt       *time.Time
}

// EmployeePayroll holds the monthly figures the payroll run computed for one
// member. Absent amounts are zero; PFWage falls back to Basic when not set.
type EmployeePayroll struct {
	ID          int64
	RunID       int64
	UAN         string
	Name        string
	Basic       decimal.Decimal
	Gross       decimal.Decimal
	PFWage      decimal.NullDecimal
	EmployeePF  decimal.Decimal
	EmployerEPS decimal.Decimal
	EmployerEPF decimal.Decimal
	NCPDays     int
	Refund      decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EffectivePFWage returns PFWage, or Basic when PFWage was not supplied.
func (e EmployeePayroll) EffectivePFWage() decimal.Decimal {
	if e.PFWage.Valid {
		return e.PFWage.Decimal
	}
	return e.Basic
}

// ECRRecord is one member line of the Electronic Challan cum Return.
type ECRRecord struct {
	UAN             string
	MemberName      string
	GrossWages      decimal.Decimal
	EPFWages        decimal.Decimal
	EPSWages        decimal.Decimal // min(EPFWages, EPS ceiling)
	EDLIWages       decimal.Decimal
	EPFContribution decimal.Decimal // employee PF + employer EPF share
	EPSContribution decimal.Decimal // employer EPS share
	EPFEPSDiff      decimal.Decimal // employer EPF share alone
	NCPDays         int
	RefundAdvance   decimal.Decimal
}

// EmployeeContribution is the member's own share, recovered from the record.
func (r ECRRecord) EmployeeContribution() decimal.Decimal {
	return r.EPFContribution.Sub(r.EPFEPSDiff)
}

// ECRSummary aggregates one ECR batch.
type ECRSummary struct {
	TotalRecords              int
	TotalGrossWages           decimal.Decimal
	TotalEPFWages             decimal.Decimal
	TotalEmployeeContribution decimal.Decimal
	TotalEmployerEPS          decimal.Decimal
	TotalEmployerEPF          decimal.Decimal
	TotalContribution         decimal.Decimal
	AdminCharges              decimal.Decimal
	EDLICharges               decimal.Decimal
}

// TotalRemittance is the challan amount: contributions plus both charges.
func (s ECRSummary) TotalRemittance() decimal.Decimal {
	return s.TotalContribution.Add(s.AdminCharges).Add(s.EDLICharges)
}
