package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/csg33k/statutory-payroll/internal/domain"
	"github.com/csg33k/statutory-payroll/internal/ports"
)

var _ ports.RunRepository = (*Repository)(nil)

// wageMonthLayout is the storage format of runs.wage_month.
const wageMonthLayout = "2006-01"

type Repository struct {
	db *sql.DB
}

// New opens the SQLite database. Schema migrations are managed by dbmate;
// run `dbmate up` before starting the server.
func New(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

// DB exposes the handle for migrations in tests.
func (r *Repository) DB() *sql.DB { return r.db }

func (r *Repository) Close() error { return r.db.Close() }

// ── Runs ──────────────────────────────────────────────────────────────────────

func (r *Repository) CreateRun(ctx context.Context, run *domain.PayrollRun) error {
	run.CreatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (establishment_id, establishment_name, wage_month, notes, created_at)
		VALUES (?,?,?,?,?)`,
		run.EstablishmentID, run.EstablishmentName,
		run.WageMonth.Format(wageMonthLayout), run.Notes, run.CreatedAt,
	)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	run.ID = id
	return nil
}

func (r *Repository) GetRun(ctx context.Context, id int64) (*domain.PayrollRun, error) {
	run := &domain.PayrollRun{}
	var wageMonth string
	var generatedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, establishment_id, establishment_name, wage_month, notes,
		       created_at, generated_at
		FROM runs WHERE id=?`, id).Scan(
		&run.ID, &run.EstablishmentID, &run.EstablishmentName, &wageMonth, &run.Notes,
		&run.CreatedAt, &generatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if run.WageMonth, err = time.Parse(wageMonthLayout, wageMonth); err != nil {
		return nil, fmt.Errorf("run %d: wage month %q: %w", id, wageMonth, err)
	}
	if generatedAt.Valid {
		run.GeneratedAt = &generatedAt.Time
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+employeeColumns+`
		FROM run_employees WHERE run_id=? ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		run.Employees = append(run.Employees, *e)
	}
	return run, rows.Err()
}

func (r *Repository) ListRuns(ctx context.Context) ([]domain.PayrollRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, establishment_id, establishment_name, wage_month, notes, created_at
		FROM runs ORDER BY wage_month DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []domain.PayrollRun
	for rows.Next() {
		var run domain.PayrollRun
		var wageMonth string
		if err := rows.Scan(&run.ID, &run.EstablishmentID, &run.EstablishmentName,
			&wageMonth, &run.Notes, &run.CreatedAt); err != nil {
			return nil, err
		}
		if run.WageMonth, err = time.Parse(wageMonthLayout, wageMonth); err != nil {
			return nil, fmt.Errorf("run %d: wage month %q: %w", run.ID, wageMonth, err)
		}
		list = append(list, run)
	}
	return list, rows.Err()
}

func (r *Repository) UpdateRun(ctx context.Context, run *domain.PayrollRun) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE runs
		SET establishment_id=?, establishment_name=?, wage_month=?, notes=?
		WHERE id=?`,
		run.EstablishmentID, run.EstablishmentName,
		run.WageMonth.Format(wageMonthLayout), run.Notes, run.ID,
	)
	return affected(res, err, "run", run.ID)
}

// DeleteRun removes the run; its employees go with it via ON DELETE CASCADE.
func (r *Repository) DeleteRun(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id=?`, id)
	return affected(res, err, "run", id)
}

// MarkGenerated stamps the time the ECR file was last produced.
func (r *Repository) MarkGenerated(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE runs SET generated_at=? WHERE id=?`, at, id)
	return affected(res, err, "run", id)
}

// ── Employees ─────────────────────────────────────────────────────────────────

const employeeColumns = `id, run_id, uan, name, basic, gross, pf_wage,
		       employee_pf, employer_eps, employer_epf, ncp_days, refund,
		       created_at, updated_at`

func (r *Repository) AddEmployee(ctx context.Context, runID int64, e *domain.EmployeePayroll) error {
	now := time.Now()
	e.RunID = runID
	e.CreatedAt = now
	e.UpdatedAt = now
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO run_employees (
			run_id, uan, name, basic, gross, pf_wage,
			employee_pf, employer_eps, employer_epf, ncp_days, refund,
			created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, e.UAN, e.Name, e.Basic, e.Gross, e.PFWage,
		e.EmployeePF, e.EmployerEPS, e.EmployerEPF, e.NCPDays, e.Refund,
		now, now,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("run %d: %w", runID, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	e.ID = id
	return nil
}

func (r *Repository) GetEmployee(ctx context.Context, id int64) (*domain.EmployeePayroll, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+employeeColumns+`
		FROM run_employees WHERE id=?`, id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("employee %d: %w", id, domain.ErrNotFound)
	}
	return e, err
}

func (r *Repository) UpdateEmployee(ctx context.Context, e *domain.EmployeePayroll) error {
	e.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, `
		UPDATE run_employees
		SET uan=?, name=?, basic=?, gross=?, pf_wage=?,
		    employee_pf=?, employer_eps=?, employer_epf=?, ncp_days=?, refund=?,
		    updated_at=?
		WHERE id=?`,
		e.UAN, e.Name, e.Basic, e.Gross, e.PFWage,
		e.EmployeePF, e.EmployerEPS, e.EmployerEPF, e.NCPDays, e.Refund,
		e.UpdatedAt, e.ID,
	)
	return affected(res, err, "employee", e.ID)
}

func (r *Repository) DeleteEmployee(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM run_employees WHERE id=?`, id)
	return affected(res, err, "employee", id)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...any) error
}

// scanEmployee reads one row selected with employeeColumns. Amounts are
// stored as decimal strings and scan straight into decimal.Decimal.
func scanEmployee(s scanner) (*domain.EmployeePayroll, error) {
	e := &domain.EmployeePayroll{}
	if err := s.Scan(
		&e.ID, &e.RunID, &e.UAN, &e.Name, &e.Basic, &e.Gross, &e.PFWage,
		&e.EmployeePF, &e.EmployerEPS, &e.EmployerEPF, &e.NCPDays, &e.Refund,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return e, nil
}

// isForeignKeyViolation reports an insert that referenced a missing parent row.
func isForeignKeyViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

func affected(res sql.Result, err error, what string, id int64) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, domain.ErrNotFound)
	}
	return nil
}
