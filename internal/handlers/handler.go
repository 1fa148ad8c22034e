package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/csg33k/statutory-payroll/internal/adapters/ecr"
	"github.com/csg33k/statutory-payroll/internal/adapters/pdf"
	"github.com/csg33k/statutory-payroll/internal/domain"
	"github.com/csg33k/statutory-payroll/internal/metrics"
	"github.com/csg33k/statutory-payroll/internal/money"
	"github.com/csg33k/statutory-payroll/internal/ports"
	"github.com/csg33k/statutory-payroll/internal/templates"
)

// errBadRequest marks form problems that map to 400.
var errBadRequest = errors.New("bad request")

type Handler struct {
	repo    ports.RunRepository
	gen     ports.ECRGenerator
	calc    ports.TaxCalculator
	metrics *metrics.Recorder
	log     *slog.Logger

	defaultEstablishment string
	metricsHandler       http.Handler
	now                  func() time.Time
}

func New(repo ports.RunRepository, gen ports.ECRGenerator, calc ports.TaxCalculator, m *metrics.Recorder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		repo:           repo,
		gen:            gen,
		calc:           calc,
		metrics:        m,
		log:            logger,
		metricsHandler: promhttp.Handler(),
		now:            time.Now,
	}
}

// WithDefaultEstablishment pre-fills the establishment code on the new-run form.
func (h *Handler) WithDefaultEstablishment(id string) *Handler {
	h.defaultEstablishment = id
	return h
}

// WithMetricsHandler replaces the /metrics endpoint, e.g. with one bound to a
// private registry.
func (h *Handler) WithMetricsHandler(mh http.Handler) *Handler {
	h.metricsHandler = mh
	return h
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("POST /runs", h.createRun)
	mux.HandleFunc("GET /runs/{id}", h.viewRun)
	mux.HandleFunc("PUT /runs/{id}", h.updateRun)
	mux.HandleFunc("DELETE /runs/{id}", h.deleteRun)
	mux.HandleFunc("POST /runs/{id}/employees", h.addEmployee)
	mux.HandleFunc("GET /employees/{id}/edit", h.editEmployee)
	mux.HandleFunc("PUT /employees/{id}", h.updateEmployee)
	mux.HandleFunc("DELETE /employees/{id}", h.deleteEmployee)
	mux.HandleFunc("GET /runs/{id}/ecr", h.downloadECR)
	mux.HandleFunc("GET /runs/{id}/pdf", h.downloadPDF)
	mux.HandleFunc("GET /tds", h.tdsForm)
	mux.HandleFunc("POST /tds", h.calculateTDS)
	mux.Handle("GET /metrics", h.metricsHandler)
	return h.requestLog(mux)
}

// ── Runs ──────────────────────────────────────────────────────────────────────

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	runs, err := h.repo.ListRuns(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render(w, r, templates.Index(templates.IndexView{
		Runs:                   runs,
		DefaultEstablishmentID: h.defaultEstablishment,
	}))
}

func (h *Handler) createRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	run, err := parseRunForm(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.repo.CreateRun(r.Context(), run); err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.InfoContext(r.Context(), "run created",
		"run_id", run.ID, "establishment", run.EstablishmentID, "wage_month", run.WageMonth.Format("2006-01"))
	w.Header().Set("HX-Redirect", fmt.Sprintf("/runs/%d", run.ID))
	w.WriteHeader(http.StatusCreated)
}

// updateRun edits the run header; members and generated_at are untouched.
func (h *Handler) updateRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	edit, err := parseRunForm(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	run.EstablishmentID = edit.EstablishmentID
	run.EstablishmentName = edit.EstablishmentName
	run.WageMonth = edit.WageMonth
	run.Notes = edit.Notes
	if err := h.repo.UpdateRun(r.Context(), run); err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.InfoContext(r.Context(), "run updated", "run_id", run.ID)
	w.Header().Set("HX-Redirect", fmt.Sprintf("/runs/%d", run.ID))
	w.WriteHeader(http.StatusOK)
}

func parseRunForm(r *http.Request) (*domain.PayrollRun, error) {
	run := &domain.PayrollRun{
		EstablishmentID:   strings.ToUpper(strings.TrimSpace(r.FormValue("establishment_id"))),
		EstablishmentName: strings.TrimSpace(r.FormValue("establishment_name")),
		Notes:             r.FormValue("notes"),
	}
	if run.EstablishmentID == "" {
		return nil, fmt.Errorf("%w: establishment code is required", errBadRequest)
	}
	month, err := time.Parse("2006-01", strings.TrimSpace(r.FormValue("wage_month")))
	if err != nil {
		return nil, fmt.Errorf("%w: wage month must be YYYY-MM", errBadRequest)
	}
	run.WageMonth = month
	return run, nil
}

func (h *Handler) viewRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	v, err := h.detailView(r, run)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render(w, r, templates.Detail(v))
}

func (h *Handler) deleteRun(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.repo.DeleteRun(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("HX-Redirect", "/")
	w.WriteHeader(http.StatusOK)
}

// ── Employees ─────────────────────────────────────────────────────────────────

func (h *Handler) addEmployee(w http.ResponseWriter, r *http.Request) {
	runID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	e, err := parseEmployeeForm(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.repo.AddEmployee(r.Context(), runID, e); err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderEmployeeList(w, r, runID)
}

func (h *Handler) editEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	e, err := h.repo.GetEmployee(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render(w, r, templates.EmployeeEdit(templates.EmployeeEditView{Employee: e}))
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	existing, err := h.repo.GetEmployee(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	e, err := parseEmployeeForm(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	e.ID, e.RunID, e.CreatedAt = existing.ID, existing.RunID, existing.CreatedAt
	if err := h.repo.UpdateEmployee(r.Context(), e); err != nil {
		h.fail(w, r, err)
		return
	}
	h.renderEmployeeList(w, r, e.RunID)
}

func (h *Handler) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	empID, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	runID, _ := strconv.ParseInt(r.URL.Query().Get("run"), 10, 64)

	if err := h.repo.DeleteEmployee(r.Context(), empID); err != nil {
		h.fail(w, r, err)
		return
	}
	if runID > 0 {
		h.renderEmployeeList(w, r, runID)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) renderEmployeeList(w http.ResponseWriter, r *http.Request, runID int64) {
	run, err := h.repo.GetRun(r.Context(), runID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v, err := h.detailView(r, run)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render(w, r, templates.EmployeeList(v))
}

// parseEmployeeForm reads one member line. When all three contribution
// fields are blank they are derived from the PF wage.
func parseEmployeeForm(r *http.Request) (*domain.EmployeePayroll, error) {
	var firstErr error
	amount := func(name string) decimal.Decimal {
		d, err := money.Parse(strings.TrimSpace(r.FormValue(name)))
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: %s: not a number", errBadRequest, name)
		}
		return d
	}

	e := &domain.EmployeePayroll{
		UAN:    strings.TrimSpace(r.FormValue("uan")),
		Name:   strings.TrimSpace(r.FormValue("name")),
		Basic:  amount("basic"),
		Gross:  amount("gross"),
		Refund: amount("refund"),
	}
	if strings.TrimSpace(r.FormValue("pf_wage")) != "" {
		e.PFWage = decimal.NewNullDecimal(amount("pf_wage"))
	}
	if s := strings.TrimSpace(r.FormValue("ncp_days")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%w: ncp_days: not a whole number", errBadRequest)
		}
		e.NCPDays = n
	}

	if blank(r, "employee_pf", "employer_eps", "employer_epf") {
		split := ecr.Contributions(e.EffectivePFWage())
		e.EmployeePF, e.EmployerEPS, e.EmployerEPF = split.EmployeePF, split.EmployerEPS, split.EmployerEPF
	} else {
		e.EmployeePF = amount("employee_pf")
		e.EmployerEPS = amount("employer_eps")
		e.EmployerEPF = amount("employer_epf")
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if e.UAN == "" || e.Name == "" {
		return nil, fmt.Errorf("%w: UAN and name are required", errBadRequest)
	}
	return e, nil
}

// ── Downloads ─────────────────────────────────────────────────────────────────

func (h *Handler) downloadECR(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	if len(run.Employees) == 0 {
		h.fail(w, r, fmt.Errorf("%w: no employees in wage month", errBadRequest))
		return
	}
	records := h.gen.Records(run.Employees)
	var buf bytes.Buffer
	if err := h.gen.Generate(r.Context(), records, &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.repo.MarkGenerated(r.Context(), run.ID, h.now()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.ECRGenerated(len(records))
	h.log.InfoContext(r.Context(), "ecr generated", "run_id", run.ID, "records", len(records))

	filename := h.gen.Filename(run.EstablishmentID, run.WageMonth)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(buf.Bytes())
}

func (h *Handler) downloadPDF(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	records := h.gen.Records(run.Employees)
	var buf bytes.Buffer
	if err := pdf.GenerateChallanPDF(run, records, h.gen.Summarize(records), &buf); err != nil {
		h.fail(w, r, err)
		return
	}
	filename := strings.TrimSuffix(h.gen.Filename(run.EstablishmentID, run.WageMonth), ".txt") + "_challan.pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Write(buf.Bytes())
}

// ── TDS ───────────────────────────────────────────────────────────────────────

var tdsFields = []string{"regime", "annual_gross", "deductions_80c", "deductions_80d", "hra_exemption", "other_deductions"}

func (h *Handler) tdsForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, templates.TDSForm(templates.TDSView{Form: map[string]string{"regime": string(domain.RegimeNew)}}))
}

func (h *Handler) calculateTDS(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	v := templates.TDSView{Form: map[string]string{}}
	for _, f := range tdsFields {
		v.Form[f] = strings.TrimSpace(r.FormValue(f))
	}

	in, err := parseTDSForm(v.Form)
	if err == nil {
		v.Result, err = h.calc.Calculate(r.Context(), in)
	}
	if err != nil {
		v.Error = err.Error()
		h.log.InfoContext(r.Context(), "tds rejected", "err", err)
	} else {
		h.metrics.TDSCalculated(in.Regime)
	}

	// htmx swaps only the result; a plain form post gets the whole page back.
	if r.Header.Get("HX-Request") == "true" {
		render(w, r, templates.TDSResult(v))
		return
	}
	if err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
	}
	render(w, r, templates.TDSForm(v))
}

func parseTDSForm(form map[string]string) (domain.TDSInput, error) {
	regime, err := domain.ParseTaxRegime(form["regime"])
	if err != nil {
		return domain.TDSInput{}, err
	}
	in := domain.TDSInput{Regime: regime}
	for _, f := range []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"annual_gross", &in.AnnualGross},
		{"deductions_80c", &in.Deductions80C},
		{"deductions_80d", &in.Deductions80D},
		{"hra_exemption", &in.HRAExemption},
		{"other_deductions", &in.OtherDeductions},
	} {
		d, err := money.Parse(form[f.name])
		if err != nil {
			return domain.TDSInput{}, fmt.Errorf("%w: %s: not a number", errBadRequest, f.name)
		}
		*f.dst = d
	}
	return in, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*domain.PayrollRun, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	run, err := h.repo.GetRun(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return run, true
}

func (h *Handler) detailView(r *http.Request, run *domain.PayrollRun) (templates.DetailView, error) {
	records := h.gen.Records(run.Employees)
	var buf bytes.Buffer
	if err := h.gen.Generate(r.Context(), records, &buf); err != nil {
		return templates.DetailView{}, err
	}
	v := templates.DetailView{
		Run:      run,
		Records:  records,
		Summary:  h.gen.Summarize(records),
		Preview:  buf.String(),
		Filename: h.gen.Filename(run.EstablishmentID, run.WageMonth),
	}
	for _, is := range ecr.Validate(records) {
		v.Issues = append(v.Issues, is.String())
	}
	return v, nil
}

// fail maps err to a status code and writes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrUnknownRegime),
		errors.Is(err, domain.ErrNegativeAmount):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", "err", err, "request_id", RequestID(r.Context()))
	}
	http.Error(w, err.Error(), status)
}

// render writes a templ component to the response.
func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), 500)
	}
}

func pathID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(key), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid id", errBadRequest)
	}
	return id, nil
}

func blank(r *http.Request, names ...string) bool {
	for _, n := range names {
		if strings.TrimSpace(r.FormValue(n)) != "" {
			return false
		}
	}
	return true
}
