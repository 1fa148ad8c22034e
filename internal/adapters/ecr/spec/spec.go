// Package spec defines the EPFO ECR 2.0 member-line layout and the statutory
// constants used to build it. The line is pipe-delimited, one member per line,
// fields in the fixed order below. Amounts are whole rupees without a decimal
// point.
package spec

import "github.com/shopspring/decimal"

const (
	Delimiter      = "|"
	LineTerminator = "\n"
	MaxNameLen     = 50
)

type FieldType int

const (
	Alpha   FieldType = iota // uppercased, cut to MaxLen
	Numeric                  // digits expected, written trimmed and unpadded
	Amount                   // rupees truncated to an integer
	Count                    // plain integer
)

type Field struct {
	Name        string
	Type        FieldType
	MaxLen      int // 0 means unbounded
	Description string
}

// Layout is the member line, in file order.
var Layout = []Field{
	{Name: "UAN", Type: Numeric, MaxLen: 12, Description: "Universal Account Number"},
	{Name: "MemberName", Type: Alpha, MaxLen: MaxNameLen, Description: "Member name as per UAN records"},
	{Name: "GrossWages", Type: Amount, Description: "Gross wages for the month"},
	{Name: "EPFWages", Type: Amount, Description: "Wages on which EPF is computed"},
	{Name: "EPSWages", Type: Amount, Description: "EPF wages capped at the EPS ceiling"},
	{Name: "EDLIWages", Type: Amount, Description: "Wages on which EDLI is computed"},
	{Name: "EPFContribution", Type: Amount, Description: "Employee share plus employer EPF share"},
	{Name: "EPSContribution", Type: Amount, Description: "Employer EPS share"},
	{Name: "EPFEPSDiff", Type: Amount, Description: "Employer EPF share (EPF minus EPS)"},
	{Name: "NCPDays", Type: Count, Description: "Non-contributing period days"},
	{Name: "RefundAdvance", Type: Amount, Description: "Refund of advances"},
}

func FieldCount() int { return len(Layout) }

// Statutory rates and ceilings under the EPF & MP Act, 1952.
var (
	EPSWageCeiling  = decimal.NewFromInt(15_000)
	EDLIChargeCap   = decimal.NewFromInt(75)
	AdminChargeRate = decimal.RequireFromString("0.005")
	EDLIChargeRate  = decimal.RequireFromString("0.005")
	EmployeePFRate  = decimal.RequireFromString("0.12")
	EmployerEPSRate = decimal.RequireFromString("0.0833")
	MaxNCPDays      = 31
)

// FilenamePattern takes the establishment ID and the MMYYYY wage month.
const FilenamePattern = "ECR_%s_%s.txt"

// WageMonthLayout formats a wage month as MMYYYY.
const WageMonthLayout = "012006"
