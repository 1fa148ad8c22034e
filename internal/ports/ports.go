package ports

import (
	"context"
	"io"
	"time"

	"github.com/csg33k/statutory-payroll/internal/domain"
)

// RunRepository defines persistence operations for wage-month runs.
type RunRepository interface {
	CreateRun(ctx context.Context, r *domain.PayrollRun) error
	GetRun(ctx context.Context, id int64) (*domain.PayrollRun, error)
	ListRuns(ctx context.Context) ([]domain.PayrollRun, error)
	UpdateRun(ctx context.Context, r *domain.PayrollRun) error
	DeleteRun(ctx context.Context, id int64) error
	MarkGenerated(ctx context.Context, id int64, at time.Time) error

	AddEmployee(ctx context.Context, runID int64, e *domain.EmployeePayroll) error
	GetEmployee(ctx context.Context, id int64) (*domain.EmployeePayroll, error)
	UpdateEmployee(ctx context.Context, e *domain.EmployeePayroll) error
	DeleteEmployee(ctx context.Context, id int64) error
}

// ECRGenerator defines the EPFO return generation port.
type ECRGenerator interface {
	Records(payroll []domain.EmployeePayroll) []domain.ECRRecord
	Summarize(records []domain.ECRRecord) domain.ECRSummary

	// Generate writes the pipe-delimited upload file, one line per record.
	Generate(ctx context.Context, records []domain.ECRRecord, w io.Writer) error

	Filename(establishmentID string, wageMonth time.Time) string
}

// TaxCalculator defines the TDS computation port.
type TaxCalculator interface {
	Calculate(ctx context.Context, in domain.TDSInput) (*domain.TDSBreakdown, error)
}
