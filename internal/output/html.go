package output

import (
	"fmt"
	"html/template"
	"io"

	"github.com/Masterminds/sprig/v3"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>NetScan Report - {{ .ScanInfo.Target }}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 12px; text-align: left; }
.finding { border-left: 6px solid #777; padding: 0.5em 1em; margin: 1em 0; background: #fafafa; }
.severity { color: #fff; padding: 2px 8px; border-radius: 3px; font-weight: bold; }
code { background: #eee; padding: 1px 4px; }
</style>
</head>
<body>
<h1>NetScan Security Assessment Report</h1>

<h2>Executive Summary</h2>
<table>
<tr><th>Target</th><td>{{ .ScanInfo.Target }}</td></tr>
<tr><th>Scan ID</th><td>{{ .ScanInfo.ScanID | default "n/a" }}</td></tr>
<tr><th>Profile</th><td>{{ .ScanInfo.Profile }}</td></tr>
<tr><th>Scan Date</th><td>{{ .ScanInfo.ScanDate | date "2006-01-02 15:04:05" }}</td></tr>
<tr><th>Duration</th><td>{{ elapsed .ScanInfo.Duration }}</td></tr>
<tr><th>Outcome</th><td>{{ .ScanInfo.Outcome }}</td></tr>
<tr><th>Pages Crawled</th><td>{{ .ScanInfo.PagesCrawled }}</td></tr>
<tr><th>Endpoints Tested</th><td>{{ .ScanInfo.EndpointsTested }}</td></tr>
<tr><th>Total Findings</th><td>{{ .ScanInfo.TotalFindings }}</td></tr>
</table>

<h3>Severity Breakdown</h3>
<table>
<tr><th>Severity</th><th>Count</th></tr>
{{- range .Breakdown }}
<tr><td><span class="severity" style="background: {{ severityColor .Severity | safeCSS }}">{{ .Severity }}</span></td><td>{{ .Count }}</td></tr>
{{- end }}
</table>

<h2>Detailed Findings</h2>
{{- if not .Findings }}
<p>No vulnerabilities detected.</p>
{{- else }}
{{- range $i, $f := .Findings }}
<div class="finding" style="border-left-color: {{ severityColor $f.Severity | safeCSS }}">
<h3>{{ add1 $i }}. {{ $f.Type }} <span class="severity" style="background: {{ severityColor $f.Severity | safeCSS }}">{{ $f.Severity }}</span></h3>
<ul>
<li><strong>URL:</strong> {{ $f.URL }}</li>
<li><strong>Parameter:</strong> {{ $f.Parameter | default "N/A" }}</li>
<li><strong>Method:</strong> {{ $f.Method }}</li>
<li><strong>CVSS Score:</strong> {{ printf "%.1f" $f.CVSSScore }}</li>
<li><strong>CWE:</strong> {{ $f.CWE }}</li>
{{- if $f.Payload }}
<li><strong>Payload:</strong> <code>{{ $f.Payload }}</code></li>
{{- end }}
</ul>
<p><strong>Evidence:</strong> {{ $f.Evidence }}</p>
{{- $r := remediation $f.Class }}
<p>{{ $r.Summary }}</p>
<strong>Remediation Steps:</strong>
<ol>
{{- range $r.Steps }}
<li>{{ . }}</li>
{{- end }}
</ol>
{{- if $r.References }}
<strong>References:</strong>
<ul>
{{- range $r.References }}
<li>{{ . }}</li>
{{- end }}
</ul>
{{- end }}
</div>
{{- end }}
{{- end }}
<p><small>Generated by NetScan (payload set {{ .ScanInfo.PayloadVersion }})</small></p>
</body>
</html>
`

// HTMLWriter renders a report as a standalone HTML page. Finding text is
// escaped by html/template.
type HTMLWriter struct {
	tmpl *template.Template
}

// NewHTMLWriter parses the built-in template.
func NewHTMLWriter() (*HTMLWriter, error) {
	funcMap := sprig.HtmlFuncMap()
	for name, fn := range reportFuncs() {
		funcMap[name] = fn
	}
	funcMap["safeCSS"] = func(s string) template.CSS { return template.CSS(s) }

	tmpl, err := template.New("html").Funcs(funcMap).Parse(htmlTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}
	return &HTMLWriter{tmpl: tmpl}, nil
}

// Format implements Writer.
func (h *HTMLWriter) Format() string { return FormatHTML }

// Write implements Writer.
func (h *HTMLWriter) Write(w io.Writer, r *Report) error {
	if err := h.tmpl.Execute(w, r); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
