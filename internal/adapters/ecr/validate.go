package ecr

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/csg33k/statutory-payroll/internal/adapters/ecr/spec"
	"github.com/csg33k/statutory-payroll/internal/domain"
)

// Issue is an advisory problem with one record. EPFO will reject the upload
// for most of these, but the file is still generated as given.
type Issue struct {
	Index   int
	UAN     string
	Field   string
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("line %d (UAN %s): %s: %s", i.Index+1, i.UAN, i.Field, i.Message)
}

// Validate reports every issue found, in record order.
func Validate(records []domain.ECRRecord) []Issue {
	var issues []Issue
	for i := range records {
		r := &records[i]
		add := func(field, msg string) {
			issues = append(issues, Issue{Index: i, UAN: r.UAN, Field: field, Message: msg})
		}

		uan := strings.TrimSpace(r.UAN)
		if !isUAN(uan) {
			add("UAN", "must be exactly 12 digits")
		}
		if strings.TrimSpace(r.MemberName) == "" {
			add("MemberName", "is empty")
		} else if len([]rune(strings.TrimSpace(r.MemberName))) > spec.MaxNameLen {
			add("MemberName", fmt.Sprintf("longer than %d characters, will be truncated", spec.MaxNameLen))
		}
		if r.NCPDays < 0 || r.NCPDays > spec.MaxNCPDays {
			add("NCPDays", fmt.Sprintf("must be between 0 and %d", spec.MaxNCPDays))
		}
		for _, a := range []struct {
			name string
			v    decimal.Decimal
		}{
			{"GrossWages", r.GrossWages},
			{"EPFWages", r.EPFWages},
			{"EPFContribution", r.EPFContribution},
			{"EPSContribution", r.EPSContribution},
			{"EPFEPSDiff", r.EPFEPSDiff},
			{"RefundAdvance", r.RefundAdvance},
		} {
			if a.v.IsNegative() {
				add(a.name, "is negative")
			}
		}
		if r.EPFWages.GreaterThan(r.GrossWages) && r.GrossWages.IsPositive() {
			add("EPFWages", "exceeds gross wages")
		}
	}
	return issues
}

// isUAN reports whether s is exactly 12 ASCII digits.
func isUAN(s string) bool {
	if len(s) != 12 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
