package handlers_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/statutory-payroll/internal/adapters/ecr"
	"github.com/csg33k/statutory-payroll/internal/adapters/tds"
	"github.com/csg33k/statutory-payroll/internal/domain"
	"github.com/csg33k/statutory-payroll/internal/handlers"
	"github.com/csg33k/statutory-payroll/internal/metrics"
)

// ---------------------------------------------------------------------------
// In-memory repository
// ---------------------------------------------------------------------------

type memRepo struct {
	mu        sync.Mutex
	nextID    int64
	runs      map[int64]*domain.PayrollRun
	employees map[int64]*domain.EmployeePayroll
}

func newMemRepo() *memRepo {
	return &memRepo{runs: map[int64]*domain.PayrollRun{}, employees: map[int64]*domain.EmployeePayroll{}}
}

func (m *memRepo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memRepo) CreateRun(_ context.Context, r *domain.PayrollRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.id()
	cp := *r
	m.runs[r.ID] = &cp
	return nil
}

func (m *memRepo) GetRun(_ context.Context, id int64) (*domain.PayrollRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %d: %w", id, domain.ErrNotFound)
	}
	cp := *r
	cp.Employees = nil
	var ids []int64
	for eid, e := range m.employees {
		if e.RunID == id {
			ids = append(ids, eid)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, eid := range ids {
		cp.Employees = append(cp.Employees, *m.employees[eid])
	}
	return &cp, nil
}

func (m *memRepo) ListRuns(_ context.Context) ([]domain.PayrollRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PayrollRun
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memRepo) UpdateRun(_ context.Context, r *domain.PayrollRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[r.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *r
	m.runs[r.ID] = &cp
	return nil
}

func (m *memRepo) DeleteRun(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.runs, id)
	for eid, e := range m.employees {
		if e.RunID == id {
			delete(m.employees, eid)
		}
	}
	return nil
}

func (m *memRepo) MarkGenerated(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return domain.ErrNotFound
	}
	r.GeneratedAt = &at
	return nil
}

func (m *memRepo) AddEmployee(_ context.Context, runID int64, e *domain.EmployeePayroll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.runs[runID]; !ok {
		return domain.ErrNotFound
	}
	e.ID, e.RunID = m.id(), runID
	cp := *e
	m.employees[e.ID] = &cp
	return nil
}

func (m *memRepo) GetEmployee(_ context.Context, id int64) (*domain.EmployeePayroll, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memRepo) UpdateEmployee(_ context.Context, e *domain.EmployeePayroll) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[e.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *e
	m.employees[e.ID] = &cp
	return nil
}

func (m *memRepo) DeleteEmployee(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.employees, id)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type fixture struct {
	repo   *memRepo
	server *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemRepo()
	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handlers.New(repo, ecr.New(), tds.New(), metrics.New(reg), logger).
		WithDefaultEstablishment("KABLR0012345").
		WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return &fixture{repo: repo, server: srv}
}

func (f *fixture) do(t *testing.T, method, path string, form url.Values, headers ...string) (*http.Response, string) {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, f.server.URL+path, body)
	require.NoError(t, err)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func (f *fixture) seedRun(t *testing.T) *domain.PayrollRun {
	t.Helper()
	run := &domain.PayrollRun{
		EstablishmentID:   "KABLR0012345",
		EstablishmentName: "Acme",
		WageMonth:         time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.repo.CreateRun(context.Background(), run))
	return run
}

func (f *fixture) seedEmployee(t *testing.T, runID int64) *domain.EmployeePayroll {
	t.Helper()
	e := &domain.EmployeePayroll{
		UAN:         "100123456789",
		Name:        "Rajesh Kumar",
		Basic:       decimal.NewFromInt(25000),
		Gross:       decimal.NewFromInt(50000),
		EmployeePF:  decimal.NewFromInt(3000),
		EmployerEPS: decimal.NewFromInt(1250),
		EmployerEPF: decimal.NewFromInt(1750),
	}
	require.NoError(t, f.repo.AddEmployee(context.Background(), runID, e))
	return e
}

// ---------------------------------------------------------------------------
// Runs
// ---------------------------------------------------------------------------

func TestIndex(t *testing.T) {
	f := newFixture(t)
	f.seedRun(t)

	resp, body := f.do(t, "GET", "/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Jan 2025")
	assert.Contains(t, body, `value="KABLR0012345"`)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestUnknownPathIs404(t *testing.T) {
	resp, _ := newFixture(t).do(t, "GET", "/nope", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateRun(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, "POST", "/runs", url.Values{
		"establishment_id": {" kablr0012345 "},
		"wage_month":       {"2025-03"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/runs/1", resp.Header.Get("HX-Redirect"))

	run, err := f.repo.GetRun(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "KABLR0012345", run.EstablishmentID)
	assert.Equal(t, time.March, run.WageMonth.Month())
}

func TestCreateRun_BadInput(t *testing.T) {
	f := newFixture(t)
	cases := map[string]url.Values{
		"missing establishment": {"wage_month": {"2025-03"}},
		"bad month":             {"establishment_id": {"X"}, "wage_month": {"March"}},
	}
	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			resp, _ := f.do(t, "POST", "/runs", form)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestViewRun(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)
	f.seedEmployee(t, run.ID)

	resp, body := f.do(t, "GET", fmt.Sprintf("/runs/%d", run.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "100123456789|RAJESH KUMAR|50000|25000|15000|25000|4750|1250|1750|0|0")
	assert.Contains(t, body, "ECR_KABLR0012345_012025.txt")
}

func TestViewRun_NotFoundAndBadID(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, "GET", "/runs/42", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.do(t, "GET", "/runs/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteRun(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)
	resp, _ := f.do(t, "DELETE", fmt.Sprintf("/runs/%d", run.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("HX-Redirect"))

	resp, _ = f.do(t, "DELETE", fmt.Sprintf("/runs/%d", run.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateRun(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)
	f.seedEmployee(t, run.ID)

	resp, _ := f.do(t, "PUT", fmt.Sprintf("/runs/%d", run.ID), url.Values{
		"establishment_id":   {"mhban0054321"},
		"establishment_name": {"Acme West"},
		"wage_month":         {"2025-02"},
		"notes":              {"arrears"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, fmt.Sprintf("/runs/%d", run.ID), resp.Header.Get("HX-Redirect"))

	got, err := f.repo.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, "MHBAN0054321", got.EstablishmentID)
	assert.Equal(t, "Acme West", got.EstablishmentName)
	assert.Equal(t, time.February, got.WageMonth.Month())
	assert.Equal(t, "arrears", got.Notes)
	assert.Len(t, got.Employees, 1, "members survive a header edit")

	_, body := f.do(t, "GET", fmt.Sprintf("/runs/%d", run.ID), nil)
	assert.Contains(t, body, "ECR_MHBAN0054321_022025.txt")
}

func TestUpdateRun_Errors(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)
	good := url.Values{"establishment_id": {"X"}, "wage_month": {"2025-02"}}

	resp, _ := f.do(t, "PUT", "/runs/99", good)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.do(t, "PUT", fmt.Sprintf("/runs/%d", run.ID), url.Values{"establishment_id": {"X"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	got, err := f.repo.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, "KABLR0012345", got.EstablishmentID, "rejected edit leaves the run alone")
}

// ---------------------------------------------------------------------------
// Employees
// ---------------------------------------------------------------------------

func TestAddEmployee_DerivesContributions(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)

	resp, body := f.do(t, "POST", fmt.Sprintf("/runs/%d/employees", run.ID), url.Values{
		"uan":   {"100123456789"},
		"name":  {"Rajesh Kumar"},
		"basic": {"25000"},
		"gross": {"50000"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "<!DOCTYPE html>", "fragment only")
	assert.Contains(t, body, "RAJESH KUMAR|50000|25000|15000|25000|4750|1250|1750|0|0")

	got, err := f.repo.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, got.Employees, 1)
	assert.True(t, got.Employees[0].EmployeePF.Equal(decimal.NewFromInt(3000)))
	assert.False(t, got.Employees[0].PFWage.Valid)
}

func TestAddEmployee_ExplicitValues(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)

	resp, _ := f.do(t, "POST", fmt.Sprintf("/runs/%d/employees", run.ID), url.Values{
		"uan":         {"100123456789"},
		"name":        {"Priya"},
		"basic":       {"20000"},
		"pf_wage":     {"15000"},
		"ncp_days":    {"3"},
		"employee_pf": {"1800"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := f.repo.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	e := got.Employees[0]
	assert.True(t, e.PFWage.Valid)
	assert.Equal(t, 3, e.NCPDays)
	assert.True(t, e.EmployeePF.Equal(decimal.NewFromInt(1800)))
	assert.True(t, e.EmployerEPS.IsZero(), "supplied fields are taken as given")
}

func TestAddEmployee_BadInput(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)
	path := fmt.Sprintf("/runs/%d/employees", run.ID)

	resp, _ := f.do(t, "POST", path, url.Values{"uan": {"1"}, "name": {"A"}, "basic": {"lots"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = f.do(t, "POST", path, url.Values{"basic": {"100"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = f.do(t, "POST", "/runs/99/employees", url.Values{"uan": {"1"}, "name": {"A"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEditEmployee(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)
	e := f.seedEmployee(t, run.ID)

	resp, body := f.do(t, "GET", fmt.Sprintf("/employees/%d/edit", e.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "<!DOCTYPE html>", "fragment only")
	assert.Contains(t, body, fmt.Sprintf(`hx-put="/employees/%d"`, e.ID))
	assert.Contains(t, body, `value="Rajesh Kumar"`)
	assert.Contains(t, body, `name="employee_pf" value="3000"`)

	resp, _ = f.do(t, "GET", "/employees/99/edit", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateEmployee(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)
	e := f.seedEmployee(t, run.ID)

	resp, body := f.do(t, "PUT", fmt.Sprintf("/employees/%d", e.ID), url.Values{
		"uan":      {"100123456789"},
		"name":     {"Rajesh K"},
		"basic":    {"10000"},
		"gross":    {"20000"},
		"ncp_days": {"2"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "RAJESH K|20000|10000|10000|10000|1567|833|367|2|0")

	got, err := f.repo.GetEmployee(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.RunID)
	assert.Equal(t, 2, got.NCPDays)
	assert.True(t, got.EmployeePF.Equal(decimal.NewFromInt(1200)), "blank contributions are derived again")
}

func TestUpdateEmployee_Errors(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)
	e := f.seedEmployee(t, run.ID)

	resp, _ := f.do(t, "PUT", "/employees/99", url.Values{"uan": {"1"}, "name": {"A"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = f.do(t, "PUT", fmt.Sprintf("/employees/%d", e.ID), url.Values{"uan": {"1"}, "name": {"A"}, "gross": {"many"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	got, err := f.repo.GetEmployee(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rajesh Kumar", got.Name)
}

func TestDeleteEmployee(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)
	e := f.seedEmployee(t, run.ID)

	resp, body := f.do(t, "DELETE", fmt.Sprintf("/employees/%d?run=%d", e.ID, run.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No employees yet.")

	resp, _ = f.do(t, "DELETE", fmt.Sprintf("/employees/%d", e.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// ---------------------------------------------------------------------------
// Downloads
// ---------------------------------------------------------------------------

func TestDownloadECR(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)
	f.seedEmployee(t, run.ID)

	resp, body := f.do(t, "GET", fmt.Sprintf("/runs/%d/ecr", run.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "100123456789|RAJESH KUMAR|50000|25000|15000|25000|4750|1250|1750|0|0\n", body)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="ECR_KABLR0012345_012025.txt"`)

	got, err := f.repo.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.GeneratedAt)

	_, metricsBody := f.do(t, "GET", "/metrics", nil)
	assert.Contains(t, metricsBody, "payroll_ecr_files_generated_total 1")
	assert.Contains(t, metricsBody, "payroll_ecr_records_generated_total 1")
}

func TestDownloadECR_EmptyRun(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)
	resp, _ := f.do(t, "GET", fmt.Sprintf("/runs/%d/ecr", run.ID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownloadPDF(t *testing.T) {
	f := newFixture(t)
	run := f.seedRun(t)
	f.seedEmployee(t, run.ID)

	resp, body := f.do(t, "GET", fmt.Sprintf("/runs/%d/pdf", run.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "%PDF-"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "ECR_KABLR0012345_012025_challan.pdf")
}

// ---------------------------------------------------------------------------
// TDS
// ---------------------------------------------------------------------------

func TestTDSForm(t *testing.T) {
	resp, body := newFixture(t).do(t, "GET", "/tds", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="annual_gross"`)
}

func TestCalculateTDS_Fragment(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, "POST", "/tds", url.Values{
		"regime":       {"new"},
		"annual_gross": {"1000000"},
	}, "HX-Request", "true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, "₹44,200")
	assert.Contains(t, body, "₹3,683")

	_, metricsBody := f.do(t, "GET", "/metrics", nil)
	assert.Contains(t, metricsBody, `payroll_tds_calculations_total{regime="new"} 1`)
}

func TestCalculateTDS_Errors(t *testing.T) {
	f := newFixture(t)
	cases := map[string]url.Values{
		"unknown regime":  {"regime": {"flat"}, "annual_gross": {"100"}},
		"not a number":    {"regime": {"old"}, "annual_gross": {"ten lakh"}},
		"negative amount": {"regime": {"old"}, "annual_gross": {"-1"}},
	}
	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			resp, body := f.do(t, "POST", "/tds", form)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Contains(t, body, "<!DOCTYPE html>")

			resp, body = f.do(t, "POST", "/tds", form, "HX-Request", "true")
			assert.Equal(t, http.StatusOK, resp.StatusCode, "htmx only swaps 2xx responses")
			assert.Contains(t, body, `class="card issue"`)
		})
	}
}

func TestRequestIDPropagated(t *testing.T) {
	const id = "2f1c3b8e-4a5d-4e6f-8a9b-0c1d2e3f4a5b"
	resp, _ := newFixture(t).do(t, "GET", "/tds", nil, "X-Request-ID", id)
	assert.Equal(t, id, resp.Header.Get("X-Request-ID"))
}
