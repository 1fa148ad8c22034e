// Package pdf generates a human-readable challan summary for one wage-month
// ECR batch. The report shows the establishment header, one table row per
// member, and the contribution and charge totals that make up the remittance.
package pdf

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"

	"github.com/csg33k/statutory-payroll/internal/domain"
	"github.com/csg33k/statutory-payroll/internal/money"
)

// column widths in mm for the landscape A4 member table
var memberCols = []struct {
	title string
	width float64
	align string
}{
	{"#", 10, "C"},
	{"UAN", 30, "L"},
	{"Member Name", 61, "L"},
	{"Gross", 24, "R"},
	{"EPF Wages", 24, "R"},
	{"EPS Wages", 24, "R"},
	{"EE Share", 22, "R"},
	{"ER EPS", 22, "R"},
	{"ER EPF", 22, "R"},
	{"NCP", 12, "C"},
}

// GenerateChallanPDF writes the challan summary for run to w.
func GenerateChallanPDF(run *domain.PayrollRun, records []domain.ECRRecord, sum domain.ECRSummary, w io.Writer) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("{nb}")
	pdf.SetFooterFunc(func() { drawFooter(pdf, run) })

	pdf.AddPage()
	drawHeader(pdf, run)
	drawMembers(pdf, records)
	drawSummary(pdf, sum)

	return pdf.Output(w)
}

func drawHeader(pdf *fpdf.Fpdf, run *domain.PayrollRun) {
	pageW, _ := pdf.GetPageSize()
	marginL, marginT, marginR, _ := pdf.GetMargins()
	contentW := pageW - marginL - marginR

	// ── Header bar ───────────────────────────────────────────────────────────
	pdf.SetFillColor(30, 30, 30)
	pdf.Rect(marginL, marginT, contentW, 10, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetXY(marginL+2, marginT+1.5)
	pdf.CellFormat(contentW-4, 7, "ECR CHALLAN SUMMARY  EPF / EPS / EDLI", "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	// ── Establishment section ────────────────────────────────────────────────
	y := marginT + 13
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(marginL, y)
	pdf.CellFormat(contentW, 5.5, "ESTABLISHMENT", "LRT", 1, "L", true, 0, "")
	y += 5.5

	colHalf := contentW / 2
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(marginL, y)
	pdf.CellFormat(colHalf, 6, "Name: "+run.EstablishmentName, "LB", 0, "L", false, 0, "")
	pdf.CellFormat(colHalf, 6, fmt.Sprintf("Code: %s   Wage Month: %s",
		run.EstablishmentID, run.WageMonth.Format("January 2006")), "RB", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func drawMembers(pdf *fpdf.Fpdf, records []domain.ECRRecord) {
	marginL, _, _, _ := pdf.GetMargins()

	header := func() {
		pdf.SetFillColor(30, 30, 30)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetX(marginL)
		for _, c := range memberCols {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
	}
	header()

	if len(records) == 0 {
		pdf.SetFont("Helvetica", "I", 8.5)
		pdf.SetX(marginL)
		pdf.CellFormat(tableWidth(), 6.5, "No members in this wage month.", "1", 1, "C", false, 0, "")
		return
	}

	_, pageH := pdf.GetPageSize()
	_, _, _, marginB := pdf.GetMargins()
	rowH := 6.5
	pdf.SetFont("Helvetica", "", 8.5)
	for i, r := range records {
		if pdf.GetY()+rowH > pageH-marginB-8 {
			pdf.AddPage()
			header()
			pdf.SetFont("Helvetica", "", 8.5)
		}
		if i%2 == 0 {
			pdf.SetFillColor(250, 250, 250)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		cells := []string{
			fmt.Sprint(i + 1),
			r.UAN,
			r.MemberName,
			money.Display(r.GrossWages),
			money.Display(r.EPFWages),
			money.Display(r.EPSWages),
			money.Display(r.EmployeeContribution()),
			money.Display(r.EPSContribution),
			money.Display(r.EPFEPSDiff),
			fmt.Sprint(r.NCPDays),
		}
		pdf.SetX(marginL)
		for j, c := range memberCols {
			pdf.CellFormat(c.width, rowH, cells[j], "1", 0, c.align, true, 0, "")
		}
		pdf.Ln(-1)
	}
}

func drawSummary(pdf *fpdf.Fpdf, sum domain.ECRSummary) {
	marginL, _, _, _ := pdf.GetMargins()
	labelW, valueW := 70.0, 40.0

	rows := []struct {
		label string
		value decimal.Decimal
		bold  bool
	}{
		{"Total Gross Wages", sum.TotalGrossWages, false},
		{"Total EPF Wages", sum.TotalEPFWages, false},
		{"Employee Share (A/c 1)", sum.TotalEmployeeContribution, false},
		{"Employer EPF Share (A/c 1)", sum.TotalEmployerEPF, false},
		{"Employer EPS Share (A/c 10)", sum.TotalEmployerEPS, false},
		{"Total Contribution", sum.TotalContribution, true},
		{"Administrative Charges (A/c 2)", sum.AdminCharges, false},
		{"EDLI Charges (A/c 21)", sum.EDLICharges, false},
		{"Total Remittance", sum.TotalRemittance(), true},
	}

	pdf.Ln(5)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetX(marginL)
	pdf.CellFormat(labelW+valueW, 5.5, fmt.Sprintf("SUMMARY  (%d members)", sum.TotalRecords), "1", 1, "L", true, 0, "")
	for _, r := range rows {
		if r.bold {
			pdf.SetFont("Helvetica", "B", 9)
		} else {
			pdf.SetFont("Helvetica", "", 9)
		}
		pdf.SetX(marginL)
		pdf.CellFormat(labelW, 6, r.label, "1", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, "Rs. "+money.Display(r.value), "1", 1, "R", false, 0, "")
	}
}

func drawFooter(pdf *fpdf.Fpdf, run *domain.PayrollRun) {
	pageW, _ := pdf.GetPageSize()
	marginL, _, marginR, _ := pdf.GetMargins()
	contentW := pageW - marginL - marginR

	pdf.SetY(-15)
	pdf.SetFont("Helvetica", "I", 7.5)
	pdf.SetTextColor(130, 130, 130)
	pdf.CellFormat(contentW/2, 5, "Generated by Statutory Payroll", "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/2, 5, fmt.Sprintf("%s | %s | Page %d of {nb}",
		run.EstablishmentID, run.WageMonth.Format("01/2006"), pdf.PageNo()), "", 0, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func tableWidth() float64 {
	var w float64
	for _, c := range memberCols {
		w += c.width
	}
	return w
}
