// Package ecr builds the EPFO Electronic Challan cum Return: per-member
// contribution records, the establishment summary and the pipe-delimited
// upload file.
package ecr

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/csg33k/statutory-payroll/internal/adapters/ecr/spec"
	"github.com/csg33k/statutory-payroll/internal/domain"
	"github.com/csg33k/statutory-payroll/internal/money"
)

// Generator is stateless and safe for concurrent use.
type Generator struct{}

func New() *Generator { return &Generator{} }

// Records satisfies ports.ECRGenerator.
func (g *Generator) Records(payroll []domain.EmployeePayroll) []domain.ECRRecord {
	return Records(payroll)
}

// Summarize satisfies ports.ECRGenerator.
func (g *Generator) Summarize(records []domain.ECRRecord) domain.ECRSummary {
	return Summarize(records)
}

// Filename satisfies ports.ECRGenerator.
func (g *Generator) Filename(establishmentID string, wageMonth time.Time) string {
	return Filename(establishmentID, wageMonth)
}

// Generate writes one line per record, in input order.
func (g *Generator) Generate(ctx context.Context, records []domain.ECRRecord, w io.Writer) error {
	for i := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := buildLine(&records[i])
		if err != nil {
			return fmt.Errorf("ecr: record %d (UAN %q): %w", i, records[i].UAN, err)
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Records and summary
// ---------------------------------------------------------------------------

// Records converts payroll lines into ECR records. Employees with zero PF
// wage are kept; filtering is the caller's decision.
func Records(payroll []domain.EmployeePayroll) []domain.ECRRecord {
	out := make([]domain.ECRRecord, len(payroll))
	for i := range payroll {
		out[i] = Record(&payroll[i])
	}
	return out
}

// Record builds the ECR line for one member.
func Record(e *domain.EmployeePayroll) domain.ECRRecord {
	pfWage := e.EffectivePFWage()
	return domain.ECRRecord{
		UAN:             e.UAN,
		MemberName:      e.Name,
		GrossWages:      e.Gross,
		EPFWages:        pfWage,
		EPSWages:        decimal.Min(pfWage, spec.EPSWageCeiling),
		EDLIWages:       pfWage,
		EPFContribution: e.EmployeePF.Add(e.EmployerEPF),
		EPSContribution: e.EmployerEPS,
		EPFEPSDiff:      e.EmployerEPF,
		NCPDays:         e.NCPDays,
		RefundAdvance:   e.Refund,
	}
}

// Summarize totals a batch. Admin charges are rounded once on the aggregate;
// EDLI charges are capped and rounded per member, then summed.
func Summarize(records []domain.ECRRecord) domain.ECRSummary {
	s := domain.ECRSummary{TotalRecords: len(records)}
	edli := decimal.Zero
	for i := range records {
		r := &records[i]
		s.TotalGrossWages = s.TotalGrossWages.Add(r.GrossWages)
		s.TotalEPFWages = s.TotalEPFWages.Add(r.EPFWages)
		s.TotalEmployeeContribution = s.TotalEmployeeContribution.Add(r.EmployeeContribution())
		s.TotalEmployerEPS = s.TotalEmployerEPS.Add(r.EPSContribution)
		s.TotalEmployerEPF = s.TotalEmployerEPF.Add(r.EPFEPSDiff)
		edli = edli.Add(EDLICharge(r.EDLIWages))
	}
	s.TotalContribution = s.TotalEmployeeContribution.Add(s.TotalEmployerEPS).Add(s.TotalEmployerEPF)
	s.AdminCharges = money.Round(s.TotalEPFWages.Mul(spec.AdminChargeRate))
	s.EDLICharges = edli
	return s
}

// EDLICharge is one member's EDLI administrative charge, capped then rounded.
func EDLICharge(edliWages decimal.Decimal) decimal.Decimal {
	return money.Round(decimal.Min(edliWages.Mul(spec.EDLIChargeRate), spec.EDLIChargeCap))
}

// ---------------------------------------------------------------------------
// File
// ---------------------------------------------------------------------------

// File renders the whole ECR upload as a string. The member lines carry no
// establishment or wage-month data; those only appear in Filename.
func File(records []domain.ECRRecord) (string, error) {
	var b strings.Builder
	if err := New().Generate(context.Background(), records, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Filename returns ECR_<establishment>_<MMYYYY>.txt.
func Filename(establishmentID string, wageMonth time.Time) string {
	return fmt.Sprintf(spec.FilenamePattern, establishmentID, wageMonth.Format(spec.WageMonthLayout))
}

func buildLine(r *domain.ECRRecord) (string, error) {
	values := map[string]string{
		"UAN":             strings.TrimSpace(r.UAN),
		"MemberName":      r.MemberName,
		"GrossWages":      amount(r.GrossWages),
		"EPFWages":        amount(r.EPFWages),
		"EPSWages":        amount(r.EPSWages),
		"EDLIWages":       amount(r.EDLIWages),
		"EPFContribution": amount(r.EPFContribution),
		"EPSContribution": amount(r.EPSContribution),
		"EPFEPSDiff":      amount(r.EPFEPSDiff),
		"NCPDays":         strconv.Itoa(r.NCPDays),
		"RefundAdvance":   amount(r.RefundAdvance),
	}
	fields := make([]string, 0, spec.FieldCount())
	for _, f := range spec.Layout {
		v, ok := values[f.Name]
		if !ok {
			// Layout and builder out of step: a generator bug, not user error.
			return "", fmt.Errorf("no value for layout field %q", f.Name)
		}
		if f.Type == spec.Alpha {
			v = alpha(v, f.MaxLen)
		}
		fields = append(fields, v)
	}
	return strings.Join(fields, spec.Delimiter) + spec.LineTerminator, nil
}

// ---------------------------------------------------------------------------
// Formatting helpers
// ---------------------------------------------------------------------------

// amount writes whole rupees; paise are dropped, not rounded.
func amount(d decimal.Decimal) string {
	return strconv.FormatInt(money.Truncate(d), 10)
}

// alpha uppercases and cuts to n runes. The delimiter and line breaks are
// replaced with spaces so a name can never shift the columns, and leading or
// trailing whitespace is stripped before the cut.
func alpha(s string, n int) string {
	s = strings.NewReplacer(spec.Delimiter, " ", "\r", " ", "\n", " ").Replace(s)
	s = strings.ToUpper(strings.TrimSpace(s))
	if n > 0 {
		if r := []rune(s); len(r) > n {
			return string(r[:n])
		}
	}
	return s
}
