// Package finding defines the vulnerability finding model and the class
// catalog that fixes each class's severity, score, CWE and remediation.
package finding

import (
	"sort"
	"time"
)

// Class identifies a vulnerability class.
type Class string

// Finding classes.
const (
	SQLiTime      Class = "sqli_time"
	SQLiError     Class = "sqli_error"
	SQLiBoolean   Class = "sqli_boolean"
	SQLiUnion     Class = "sqli_union"
	XSS           Class = "xss"
	CMD           Class = "cmd"
	PathTraversal Class = "path_traversal"
	XXE           Class = "xxe"
	SSRF          Class = "ssrf"
	CSRF          Class = "csrf"
)

// ClassInfo is the fixed metadata of a class.
type ClassInfo struct {
	Class       Class
	Type        string // Display name
	Family      string // Remediation family
	Severity    Severity
	Score       float64
	CWE         string
	Remediation Remediation
}

var catalog = map[Class]ClassInfo{
	SQLiTime:      {SQLiTime, "SQL Injection (Time-based)", familySQLi, High, 8.6, "CWE-89", remediations[familySQLi]},
	SQLiError:     {SQLiError, "SQL Injection (Error-based)", familySQLi, Critical, 9.1, "CWE-89", remediations[familySQLi]},
	SQLiBoolean:   {SQLiBoolean, "SQL Injection (Boolean-based Blind)", familySQLi, High, 8.2, "CWE-89", remediations[familySQLi]},
	SQLiUnion:     {SQLiUnion, "SQL Injection (Union-based)", familySQLi, Critical, 9.1, "CWE-89", remediations[familySQLi]},
	XSS:           {XSS, "Cross-Site Scripting (XSS)", familyXSS, High, 7.5, "CWE-79", remediations[familyXSS]},
	CMD:           {CMD, "OS Command Injection", familyCMD, Critical, 9.8, "CWE-78", remediations[familyCMD]},
	PathTraversal: {PathTraversal, "Path Traversal", familyTraversal, Medium, 7.5, "CWE-22", remediations[familyTraversal]},
	XXE:           {XXE, "XML External Entity (XXE)", familyXXE, High, 8.1, "CWE-611", remediations[familyXXE]},
	SSRF:          {SSRF, "Server-Side Request Forgery (SSRF)", familySSRF, High, 7.8, "CWE-918", remediations[familySSRF]},
	CSRF:          {CSRF, "Cross-Site Request Forgery (CSRF)", familyCSRF, Medium, 6.5, "CWE-352", remediations[familyCSRF]},
}

// Info returns the metadata of class c.
func Info(c Class) (ClassInfo, bool) {
	info, ok := catalog[c]
	return info, ok
}

// Classes returns every known class in a stable order.
func Classes() []Class {
	out := make([]Class, 0, len(catalog))
	for c := range catalog {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Finding is one detected vulnerability.
type Finding struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Class       Class     `json:"class"`
	Severity    Severity  `json:"severity"`
	URL         string    `json:"url"`
	Parameter   string    `json:"parameter,omitempty"`
	Method      string    `json:"method"`
	Payload     string    `json:"payload"`
	Evidence    string    `json:"evidence"`
	CVSSScore   float64   `json:"cvss_score"`
	CWE         string    `json:"cwe"`
	Remediation string    `json:"remediation"`
	Timestamp   time.Time `json:"timestamp"`
}

// New builds a finding for class c. Severity, score, CWE and remediation
// come from the catalog.
func New(c Class, url, parameter, method, payload, evidence string) Finding {
	info, ok := catalog[c]
	if !ok {
		info = ClassInfo{Class: c, Type: string(c), Severity: Medium, Score: 6.5, Remediation: defaultRemediation}
	}
	return Finding{
		Type:        info.Type,
		Class:       c,
		Severity:    info.Severity,
		URL:         url,
		Parameter:   parameter,
		Method:      method,
		Payload:     payload,
		Evidence:    evidence,
		CVSSScore:   info.Score,
		CWE:         info.CWE,
		Remediation: info.Remediation.Summary,
		Timestamp:   time.Now(),
	}
}

// Counts tallies findings by severity. Every level is present.
func Counts(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int, 4)
	for _, s := range Severities() {
		counts[s] = 0
	}
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

// Top returns up to n findings ordered by score, then severity, keeping
// discovery order among equals.
func Top(findings []Finding, n int) []Finding {
	sorted := append([]Finding(nil), findings...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CVSSScore != sorted[j].CVSSScore {
			return sorted[i].CVSSScore > sorted[j].CVSSScore
		}
		return sorted[i].Severity.Rank() > sorted[j].Severity.Rank()
	})
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
