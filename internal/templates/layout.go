// Package templates holds the HTML views. Each view is exposed as a
// templ.Component so handlers render pages and htmx fragments the same way.
package templates

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"
)

var layout = template.Must(template.New("layout").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{block "title" .}}Statutory Payroll{{end}}</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<link href="https://fonts.googleapis.com/css2?family=IBM+Plex+Mono:wght@400;500;600&family=IBM+Plex+Sans:wght@300;400;500;600&display=swap" rel="stylesheet">
<style>
  :root{--ink:#0d1117;--paper:#f5f0e8;--ledger:#e8e0cc;--accent:#c0392b;--accent2:#2c6e49;--muted:#6b5e4e;--rule:#b8a898;}
  *{box-sizing:border-box;}
  body{background:var(--paper);color:var(--ink);font-family:'IBM Plex Sans',sans-serif;min-height:100vh;margin:0;}
  .mono{font-family:'IBM Plex Mono',monospace;}
  .card{background:rgba(255,255,255,0.7);border:1px solid var(--ledger);border-left:4px solid var(--ink);padding:20px;margin-bottom:12px;}
  .field-label{font-family:'IBM Plex Mono',monospace;font-size:0.6rem;font-weight:600;letter-spacing:0.1em;text-transform:uppercase;color:var(--muted);display:block;margin-bottom:2px;}
  input,select,textarea{background:white;border:1px solid var(--rule);border-bottom:2px solid var(--ink);padding:6px 8px;font-family:'IBM Plex Mono',monospace;font-size:0.85rem;width:100%;outline:none;}
  input:focus,select:focus{border-bottom-color:var(--accent);}
  .btn{font-family:'IBM Plex Mono',monospace;font-weight:600;font-size:0.8rem;letter-spacing:0.08em;padding:8px 18px;border:2px solid var(--ink);cursor:pointer;text-transform:uppercase;text-decoration:none;display:inline-block;}
  .btn-primary{background:var(--ink);color:white;}
  .btn-primary:hover{background:var(--accent);border-color:var(--accent);}
  .btn-danger{background:white;color:var(--accent);border-color:var(--accent);}
  .btn-success{background:var(--accent2);color:white;border-color:var(--accent2);}
  .section-header{font-family:'IBM Plex Mono',monospace;font-size:0.7rem;font-weight:600;letter-spacing:0.18em;text-transform:uppercase;color:var(--muted);border-bottom:1px solid var(--rule);padding-bottom:4px;margin-bottom:16px;}
  table{width:100%;border-collapse:collapse;font-size:0.8rem;}
  th{font-family:'IBM Plex Mono',monospace;font-size:0.65rem;letter-spacing:0.08em;text-transform:uppercase;text-align:left;background:var(--ink);color:white;padding:6px;}
  td{border-bottom:1px solid var(--ledger);padding:6px;}
  td.num,th.num{text-align:right;font-family:'IBM Plex Mono',monospace;}
  pre.ecr{background:white;border:1px solid var(--rule);padding:12px;overflow-x:auto;font-size:0.75rem;}
  .issue{color:var(--accent);font-family:'IBM Plex Mono',monospace;font-size:0.75rem;}
  .grid2{display:grid;grid-template-columns:1fr 1fr;gap:12px;}
</style>
</head>
<body>
<div style="max-width:1200px;margin:0 auto;padding:32px 24px;">
<div style="display:flex;justify-content:space-between;align-items:flex-start;margin-bottom:28px;">
  <div>
    <div class="mono" style="font-size:0.65rem;letter-spacing:0.2em;color:var(--muted);">EPFO ECR · INCOME TAX TDS</div>
    <h1 class="mono" style="font-size:1.5rem;margin:4px 0 0;"><a href="/" style="color:inherit;text-decoration:none;">Statutory Payroll</a></h1>
  </div>
  <div class="mono" style="font-size:0.75rem;"><a href="/">RUNS</a> · <a href="/tds">TDS CALCULATOR</a></div>
</div>
{{template "content" .}}
</div>
</body>
</html>`))

// page clones the layout, adds the shared fragments and parses body as its
// "content" block.
func page(body string) *template.Template {
	t := template.Must(layout.Clone())
	for _, src := range []string{runBodySrc, tdsResultSrc, body} {
		template.Must(t.Parse(src))
	}
	return t
}

// fragment parses a standalone htmx partial.
func fragment(name, body string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(body))
}

// component adapts an html/template execution to templ.Component.
func component(t *template.Template, name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return t.ExecuteTemplate(w, name, data)
	})
}
