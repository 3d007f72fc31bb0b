package output

import (
	"fmt"
	"io"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/PentesterFlow/NetScan/internal/finding"
)

const markdownTemplate = `# NetScan Security Assessment Report

## Executive Summary

- **Target:** {{ .ScanInfo.Target }}
- **Scan ID:** {{ .ScanInfo.ScanID | default "n/a" }}
- **Profile:** {{ .ScanInfo.Profile }}
- **Scan Date:** {{ .ScanInfo.ScanDate | date "2006-01-02 15:04:05" }}
- **Duration:** {{ elapsed .ScanInfo.Duration }}
- **Outcome:** {{ .ScanInfo.Outcome }}
- **Tests:** {{ .ScanInfo.Tests | join ", " }}
- **Pages Crawled:** {{ .ScanInfo.PagesCrawled }}
- **Endpoints Tested:** {{ .ScanInfo.EndpointsTested }}
- **Total Findings:** {{ .ScanInfo.TotalFindings }}

### Severity Breakdown

| Severity | Count |
|----------|-------|
{{- range .Breakdown }}
| {{ .Severity }} | {{ .Count }} |
{{- end }}

## Detailed Findings
{{ if not .Findings }}
No vulnerabilities detected.
{{ else }}{{ range $i, $f := .Findings }}
### {{ add1 $i }}. {{ $f.Type }} [{{ $f.Severity }}]

- **URL:** {{ $f.URL }}
- **Parameter:** {{ $f.Parameter | default "N/A" }}
- **Method:** {{ $f.Method }}
- **CVSS Score:** {{ printf "%.1f" $f.CVSSScore }}
- **CWE:** {{ $f.CWE }}
{{- if $f.Payload }}
- **Payload:** ` + "`{{ $f.Payload }}`" + `
{{- end }}

**Evidence:** {{ $f.Evidence }}

#### Remediation
{{ $r := remediation $f.Class }}
{{ $r.Summary }}

**Steps:**
{{ range $n, $step := $r.Steps }}
{{ add1 $n }}. {{ $step }}
{{- end }}
{{ if $r.References }}
**References:**
{{ range $r.References }}
- {{ . }}
{{- end }}
{{ end }}
---
{{ end }}{{ end }}
_Generated by NetScan (payload set {{ .ScanInfo.PayloadVersion }})_
`

// MarkdownWriter renders a report as Markdown.
type MarkdownWriter struct {
	tmpl *template.Template
}

// NewMarkdownWriter parses the built-in template.
func NewMarkdownWriter() (*MarkdownWriter, error) {
	funcMap := sprig.TxtFuncMap()
	for name, fn := range reportFuncs() {
		funcMap[name] = fn
	}

	tmpl, err := template.New("markdown").Funcs(funcMap).Parse(markdownTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse markdown template: %w", err)
	}
	return &MarkdownWriter{tmpl: tmpl}, nil
}

// Format implements Writer.
func (m *MarkdownWriter) Format() string { return FormatMarkdown }

// Write implements Writer.
func (m *MarkdownWriter) Write(w io.Writer, r *Report) error {
	if err := m.tmpl.Execute(w, r); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	return nil
}

// reportFuncs are the template helpers shared by the text and HTML
// writers.
func reportFuncs() map[string]interface{} {
	return map[string]interface{}{
		"remediation": finding.RemediationFor,
		"severityColor": func(s finding.Severity) string {
			switch s {
			case finding.Critical:
				return "#8b0000"
			case finding.High:
				return "#d9534f"
			case finding.Medium:
				return "#f0ad4e"
			case finding.Low:
				return "#5cb85c"
			}
			return "#777777"
		},
		"elapsed": func(d time.Duration) string {
			return d.Round(time.Second).String()
		},
	}
}
