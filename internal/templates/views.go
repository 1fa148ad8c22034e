package templates

import (
	"github.com/a-h/templ"

	"github.com/csg33k/statutory-payroll/internal/domain"
)

// IndexView feeds the run list page.
type IndexView struct {
	Runs                   []domain.PayrollRun
	DefaultEstablishmentID string
}

// DetailView is one run with its derived ECR batch.
type DetailView struct {
	Run      *domain.PayrollRun
	Records  []domain.ECRRecord
	Summary  domain.ECRSummary
	Issues   []string
	Preview  string // ECR file body
	Filename string
}

// EmployeeEditView is one member line loaded into the edit form.
type EmployeeEditView struct {
	Employee *domain.EmployeePayroll
}

// TDSView is the calculator form plus, after a POST, its result or error.
type TDSView struct {
	Form   map[string]string
	Result *domain.TDSBreakdown
	Error  string
}

func Index(v IndexView) templ.Component { return component(indexTmpl, "layout", v) }

func Detail(v DetailView) templ.Component { return component(detailTmpl, "layout", v) }

// EmployeeList is the htmx fragment swapped in after employees change.
func EmployeeList(v DetailView) templ.Component { return component(runBodyFrag, "run-body", v) }

// EmployeeEdit is the inline edit form swapped into the run body.
func EmployeeEdit(v EmployeeEditView) templ.Component {
	return component(employeeEditFrag, "employee-edit", v)
}

func TDSForm(v TDSView) templ.Component { return component(tdsTmpl, "layout", v) }

// TDSResult is the slab-by-slab breakdown fragment.
func TDSResult(v TDSView) templ.Component { return component(tdsResultFrag, "tds-result", v) }

// ── Fragments ─────────────────────────────────────────────────────────────────

const runBodySrc = `{{define "run-body"}}
<div class="card">
  <div class="section-header">Members ({{len .Records}})</div>
  {{if not .Run.Employees}}
  <div class="mono" style="color:var(--muted);text-align:center;">No employees yet.</div>
  {{else}}
  <table>
    <tr><th>#</th><th>UAN</th><th>Name</th><th class="num">Gross</th><th class="num">EPF Wages</th><th class="num">EPS Wages</th><th class="num">EE Share</th><th class="num">ER EPS</th><th class="num">ER EPF</th><th class="num">NCP</th><th></th></tr>
    {{range $i, $e := .Run.Employees}}{{$r := index $.Records $i}}
    <tr>
      <td>{{seq $i}}</td>
      <td class="mono">{{$r.UAN}}</td>
      <td>{{$e.Name}}</td>
      <td class="num">{{rupees $r.GrossWages}}</td>
      <td class="num">{{rupees $r.EPFWages}}</td>
      <td class="num">{{rupees $r.EPSWages}}</td>
      <td class="num">{{rupees $r.EmployeeContribution}}</td>
      <td class="num">{{rupees $r.EPSContribution}}</td>
      <td class="num">{{rupees $r.EPFEPSDiff}}</td>
      <td class="num">{{$r.NCPDays}}</td>
      <td><button class="btn btn-primary" style="padding:2px 8px;font-size:0.65rem;"
        hx-get="/employees/{{itoa $e.ID}}/edit" hx-target="#run-body">✎</button>
        <button class="btn btn-danger" style="padding:2px 8px;font-size:0.65rem;"
        hx-delete="/employees/{{itoa $e.ID}}?run={{itoa $.Run.ID}}" hx-target="#run-body" hx-confirm="Remove this member?">✕</button></td>
    </tr>
    {{end}}
  </table>
  {{end}}
</div>

{{if .Issues}}
<div class="card" style="border-left-color:var(--accent);">
  <div class="section-header">Validation ({{len .Issues}})</div>
  {{range .Issues}}<div class="issue">{{.}}</div>{{end}}
</div>
{{end}}

<div class="grid2">
<div class="card">
  <div class="section-header">Challan Summary</div>
  <table>
    <tr><td>Total gross wages</td><td class="num">{{rupees .Summary.TotalGrossWages}}</td></tr>
    <tr><td>Total EPF wages</td><td class="num">{{rupees .Summary.TotalEPFWages}}</td></tr>
    <tr><td>Employee share</td><td class="num">{{rupees .Summary.TotalEmployeeContribution}}</td></tr>
    <tr><td>Employer EPF share</td><td class="num">{{rupees .Summary.TotalEmployerEPF}}</td></tr>
    <tr><td>Employer EPS share</td><td class="num">{{rupees .Summary.TotalEmployerEPS}}</td></tr>
    <tr><td><strong>Total contribution</strong></td><td class="num"><strong>{{rupees .Summary.TotalContribution}}</strong></td></tr>
    <tr><td>Admin charges</td><td class="num">{{rupees .Summary.AdminCharges}}</td></tr>
    <tr><td>EDLI charges</td><td class="num">{{rupees .Summary.EDLICharges}}</td></tr>
    <tr><td><strong>Total remittance</strong></td><td class="num"><strong>{{rupees .Summary.TotalRemittance}}</strong></td></tr>
  </table>
</div>
<div class="card">
  <div class="section-header">ECR Preview · {{.Filename}}</div>
  <pre class="ecr">{{.Preview}}</pre>
</div>
</div>
{{end}}`

const employeeEditSrc = `{{define "employee-edit"}}{{with .Employee}}
<div class="card">
  <div class="section-header">Edit Member · {{.UAN}}</div>
  <form hx-put="/employees/{{itoa .ID}}" hx-target="#run-body">
    <div class="grid2" style="grid-template-columns:repeat(4,1fr);">
      <div><label class="field-label">UAN *</label><input type="text" name="uan" value="{{.UAN}}" required maxlength="12" class="mono"></div>
      <div style="grid-column:span 3;"><label class="field-label">Name *</label><input type="text" name="name" value="{{.Name}}" required maxlength="100"></div>
      <div><label class="field-label">Basic</label><input type="text" name="basic" value="{{.Basic.String}}" inputmode="decimal"></div>
      <div><label class="field-label">Gross</label><input type="text" name="gross" value="{{.Gross.String}}" inputmode="decimal"></div>
      <div><label class="field-label">PF Wage (blank = basic)</label><input type="text" name="pf_wage" value="{{if .PFWage.Valid}}{{.PFWage.Decimal.String}}{{end}}" inputmode="decimal"></div>
      <div><label class="field-label">NCP Days</label><input type="number" name="ncp_days" value="{{.NCPDays}}" min="0" max="31"></div>
      <div><label class="field-label">Employee PF</label><input type="text" name="employee_pf" value="{{.EmployeePF.String}}" placeholder="auto" inputmode="decimal"></div>
      <div><label class="field-label">Employer EPS</label><input type="text" name="employer_eps" value="{{.EmployerEPS.String}}" placeholder="auto" inputmode="decimal"></div>
      <div><label class="field-label">Employer EPF</label><input type="text" name="employer_epf" value="{{.EmployerEPF.String}}" placeholder="auto" inputmode="decimal"></div>
      <div><label class="field-label">Refund of Advance</label><input type="text" name="refund" value="{{.Refund.String}}" inputmode="decimal"></div>
    </div>
    <div style="margin-top:12px;text-align:right;">
      <a class="btn" href="/runs/{{itoa .RunID}}">Cancel</a>
      <button type="submit" class="btn btn-primary">Save Member</button>
    </div>
  </form>
</div>
{{end}}{{end}}`

const tdsResultSrc = `{{define "tds-result"}}
<div id="tds-result">
{{if .Error}}<div class="card issue" style="border-left-color:var(--accent);">{{.Error}}</div>{{end}}
{{with .Result}}
<div class="card">
  <div class="section-header">Breakdown · {{.Regime}} regime</div>
  <table>
    <tr><td>Annual income</td><td class="num">{{rupees .AnnualIncome}}</td></tr>
    <tr><td>Deductions</td><td class="num">{{rupees .StandardDeduction}}</td></tr>
    <tr><td>Taxable income</td><td class="num">{{rupees .TaxableIncome}}</td></tr>
  </table>
  <div class="section-header" style="margin-top:16px;">Slabs</div>
  <table>
    <tr><th>Range</th><th class="num">Rate</th><th class="num">Income</th><th class="num">Tax</th></tr>
    {{range .Slabs}}
    <tr>
      <td class="mono">{{rupees .Lower}} – {{if .Open}}above{{else}}{{rupees .Upper}}{{end}}</td>
      <td class="num">{{pct .Rate}}</td>
      <td class="num">{{exact .Income}}</td>
      <td class="num">{{exact .Tax}}</td>
    </tr>
    {{end}}
  </table>
  <table style="margin-top:16px;">
    {{if .Rebate.IsPositive}}<tr><td>Rebate u/s 87A</td><td class="num">−{{rupees .Rebate}}</td></tr>{{end}}
    <tr><td>Tax on income</td><td class="num">{{rupees .GrossTax}}</td></tr>
    <tr><td>Health &amp; education cess (4%)</td><td class="num">{{rupees .Cess}}</td></tr>
    <tr><td><strong>Total tax</strong></td><td class="num"><strong>{{rupees .TotalTax}}</strong></td></tr>
    <tr><td><strong>Monthly TDS</strong></td><td class="num"><strong>{{rupees .MonthlyTDS}}</strong></td></tr>
  </table>
</div>
{{end}}
</div>
{{end}}`

var (
	runBodyFrag      = fragment("run-body-frag", runBodySrc)
	employeeEditFrag = fragment("employee-edit-frag", employeeEditSrc)
	tdsResultFrag    = fragment("tds-result-frag", tdsResultSrc)
)

// ── Pages ─────────────────────────────────────────────────────────────────────

var indexTmpl = page(`{{define "content"}}
<div class="grid2" style="grid-template-columns:360px 1fr;gap:28px;align-items:start;">
<div class="card">
  <div class="section-header">New Wage Month</div>
  <form hx-post="/runs" hx-target="body">
    <label class="field-label">Establishment Code *</label>
    <input type="text" name="establishment_id" value="{{.DefaultEstablishmentID}}" required maxlength="15" class="mono">
    <label class="field-label" style="margin-top:10px;">Establishment Name</label>
    <input type="text" name="establishment_name" maxlength="100">
    <label class="field-label" style="margin-top:10px;">Wage Month *</label>
    <input type="month" name="wage_month" required>
    <label class="field-label" style="margin-top:10px;">Notes</label>
    <textarea name="notes" rows="2"></textarea>
    <div style="margin-top:16px;text-align:right;"><button type="submit" class="btn btn-primary">Create Run →</button></div>
  </form>
</div>
<div>
  <div class="section-header">Wage Months</div>
  {{if not .Runs}}
  <div class="mono" style="color:var(--muted);text-align:center;padding:16px;">No runs yet.</div>
  {{end}}
  {{range .Runs}}
  <div class="card" style="display:flex;justify-content:space-between;align-items:center;">
    <div>
      <div class="mono" style="font-weight:600;">{{.EstablishmentID}} · {{month .WageMonth}}</div>
      <div style="font-size:0.75rem;color:var(--muted);">{{.EstablishmentName}}{{if .Notes}} · <em>{{.Notes}}</em>{{end}}</div>
    </div>
    <a class="btn btn-primary" style="padding:6px 14px;font-size:0.7rem;" href="/runs/{{itoa .ID}}">Open →</a>
  </div>
  {{end}}
</div>
</div>
{{end}}`)

var detailTmpl = page(`{{define "title"}}{{.Run.EstablishmentID}} · {{month .Run.WageMonth}}{{end}}
{{define "content"}}
<div style="display:flex;justify-content:space-between;align-items:flex-start;margin-bottom:20px;">
  <div>
    <h2 class="mono" style="margin:0;">{{.Run.EstablishmentID}} · {{month .Run.WageMonth}}</h2>
    <div style="font-size:0.85rem;color:var(--muted);">{{.Run.EstablishmentName}}{{if .Run.GeneratedAt}} · last generated {{.Run.GeneratedAt.Format "02 Jan 2006 15:04"}}{{end}}</div>
  </div>
  <div>
    <a class="btn btn-success" href="/runs/{{itoa .Run.ID}}/ecr">⬇ ECR File</a>
    <a class="btn btn-primary" href="/runs/{{itoa .Run.ID}}/pdf">⬇ Challan PDF</a>
    <button class="btn btn-danger" hx-delete="/runs/{{itoa .Run.ID}}" hx-confirm="Delete this wage month?">Delete</button>
  </div>
</div>

<details class="card">
  <summary class="section-header" style="cursor:pointer;">Edit Wage Month</summary>
  <form hx-put="/runs/{{itoa .Run.ID}}">
    <div class="grid2" style="grid-template-columns:repeat(4,1fr);">
      <div><label class="field-label">Establishment Code *</label><input type="text" name="establishment_id" value="{{.Run.EstablishmentID}}" required maxlength="15" class="mono"></div>
      <div><label class="field-label">Establishment Name</label><input type="text" name="establishment_name" value="{{.Run.EstablishmentName}}" maxlength="100"></div>
      <div><label class="field-label">Wage Month *</label><input type="month" name="wage_month" value="{{.Run.WageMonth.Format "2006-01"}}" required></div>
      <div><label class="field-label">Notes</label><input type="text" name="notes" value="{{.Run.Notes}}"></div>
    </div>
    <div style="margin-top:12px;text-align:right;"><button type="submit" class="btn btn-primary">Save</button></div>
  </form>
</details>

<div class="card">
  <div class="section-header">Add Member</div>
  <form hx-post="/runs/{{itoa .Run.ID}}/employees" hx-target="#run-body" hx-on::after-request="this.reset()">
    <div class="grid2" style="grid-template-columns:repeat(4,1fr);">
      <div><label class="field-label">UAN *</label><input type="text" name="uan" required maxlength="12" class="mono"></div>
      <div style="grid-column:span 3;"><label class="field-label">Name *</label><input type="text" name="name" required maxlength="100"></div>
      <div><label class="field-label">Basic</label><input type="text" name="basic" inputmode="decimal"></div>
      <div><label class="field-label">Gross</label><input type="text" name="gross" inputmode="decimal"></div>
      <div><label class="field-label">PF Wage (blank = basic)</label><input type="text" name="pf_wage" inputmode="decimal"></div>
      <div><label class="field-label">NCP Days</label><input type="number" name="ncp_days" min="0" max="31"></div>
      <div><label class="field-label">Employee PF</label><input type="text" name="employee_pf" placeholder="auto" inputmode="decimal"></div>
      <div><label class="field-label">Employer EPS</label><input type="text" name="employer_eps" placeholder="auto" inputmode="decimal"></div>
      <div><label class="field-label">Employer EPF</label><input type="text" name="employer_epf" placeholder="auto" inputmode="decimal"></div>
      <div><label class="field-label">Refund of Advance</label><input type="text" name="refund" inputmode="decimal"></div>
    </div>
    <div style="margin-top:12px;text-align:right;"><button type="submit" class="btn btn-primary">Add Member +</button></div>
  </form>
</div>

<div id="run-body">{{template "run-body" .}}</div>
{{end}}`)

var tdsTmpl = page(`{{define "title"}}TDS Calculator{{end}}
{{define "content"}}
<div class="grid2" style="grid-template-columns:360px 1fr;gap:28px;align-items:start;">
<div class="card">
  <div class="section-header">Annual Figures</div>
  <form hx-post="/tds" hx-target="#tds-result" hx-swap="outerHTML">
    <label class="field-label">Regime</label>
    <select name="regime">
      {{if eq (index .Form "regime") "old"}}
      <option value="new">New (115BAC)</option>
      <option value="old" selected>Old</option>
      {{else}}
      <option value="new" selected>New (115BAC)</option>
      <option value="old">Old</option>
      {{end}}
    </select>
    <label class="field-label" style="margin-top:10px;">Annual Gross *</label>
    <input type="text" name="annual_gross" value="{{index .Form "annual_gross"}}" required inputmode="decimal">
    <div class="section-header" style="margin-top:16px;">Old regime only</div>
    <label class="field-label">Section 80C</label>
    <input type="text" name="deductions_80c" value="{{index .Form "deductions_80c"}}" inputmode="decimal">
    <label class="field-label" style="margin-top:10px;">Section 80D</label>
    <input type="text" name="deductions_80d" value="{{index .Form "deductions_80d"}}" inputmode="decimal">
    <label class="field-label" style="margin-top:10px;">HRA Exemption</label>
    <input type="text" name="hra_exemption" value="{{index .Form "hra_exemption"}}" inputmode="decimal">
    <label class="field-label" style="margin-top:10px;">Other Deductions</label>
    <input type="text" name="other_deductions" value="{{index .Form "other_deductions"}}" inputmode="decimal">
    <div style="margin-top:16px;text-align:right;"><button type="submit" class="btn btn-primary">Calculate →</button></div>
  </form>
</div>
<div>{{template "tds-result" .}}</div>
</div>
{{end}}`)
