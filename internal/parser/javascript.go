package parser

import (
	"regexp"
	"sort"
	"strings"
)

// APICall is an API request spotted in script source.
type APICall struct {
	Path   string
	Method string
}

// JSParser performs static analysis on JavaScript code.
type JSParser struct {
	patterns []apiPattern
}

// apiPattern matches one request idiom. urlGroup and methodGroup index the
// submatches; method is used when the call names no verb.
type apiPattern struct {
	regex       *regexp.Regexp
	urlGroup    int
	methodGroup int
	method      string
}

// NewJSParser creates a new JavaScript parser.
func NewJSParser() *JSParser {
	return &JSParser{patterns: []apiPattern{
		{regexp.MustCompile(`fetch\s*\(\s*["'` + "`" + `]([^"'` + "`" + `]*/api/[^"'` + "`" + `]*)["'` + "`" + `]\s*,\s*\{[^}]*method\s*:\s*["'](\w+)["']`), 1, 2, ""},
		{regexp.MustCompile(`fetch\s*\(\s*["'` + "`" + `]([^"'` + "`" + `]*/api/[^"'` + "`" + `]*)["'` + "`" + `]`), 1, 0, "POST"},
		{regexp.MustCompile(`axios\.(get|post|put|delete|patch)\s*\(\s*["'` + "`" + `]([^"'` + "`" + `]*/api/[^"'` + "`" + `]*)["'` + "`" + `]`), 2, 1, ""},
		{regexp.MustCompile(`\$\.ajax\s*\(\s*\{[^}]*url\s*:\s*["']([^"']*/api/[^"']*)["'][^}]*(?:type|method)\s*:\s*["'](\w+)["']`), 1, 2, ""},
		{regexp.MustCompile(`\$\.ajax\s*\(\s*\{[^}]*(?:type|method)\s*:\s*["'](\w+)["'][^}]*url\s*:\s*["']([^"']*/api/[^"']*)["']`), 2, 1, ""},
		{regexp.MustCompile(`\$\.ajax\s*\(\s*\{[^}]*url\s*:\s*["']([^"']*/api/[^"']*)["']`), 1, 0, "POST"},
		{regexp.MustCompile(`\$\.(get|post)\s*\(\s*["']([^"']*/api/[^"']*)["']`), 2, 1, ""},
		{regexp.MustCompile(`\.open\s*\(\s*["'](\w+)["']\s*,\s*["']([^"']*/api/[^"']*)["']`), 2, 1, ""},
	}}
}

// ExtractAPICalls returns the /api/ calls in js, one per path, in source
// order. Patterns that name a verb are tried first, so they win over the
// POST default when both match the same call.
func (p *JSParser) ExtractAPICalls(js string) []APICall {
	type hit struct {
		call APICall
		pos  int
	}
	byPath := make(map[string]hit)

	for _, pat := range p.patterns {
		for _, idx := range pat.regex.FindAllStringSubmatchIndex(js, -1) {
			path := js[idx[2*pat.urlGroup]:idx[2*pat.urlGroup+1]]
			method := pat.method
			if pat.methodGroup > 0 {
				method = js[idx[2*pat.methodGroup]:idx[2*pat.methodGroup+1]]
			}
			method = strings.ToUpper(method)
			if method == "" {
				method = "POST"
			}

			if _, ok := byPath[path]; ok {
				continue
			}
			byPath[path] = hit{call: APICall{Path: path, Method: method}, pos: idx[0]}
		}
	}

	hits := make([]hit, 0, len(byPath))
	for _, h := range byPath {
		hits = append(hits, h)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].pos != hits[j].pos {
			return hits[i].pos < hits[j].pos
		}
		return hits[i].call.Path < hits[j].call.Path
	})

	calls := make([]APICall, len(hits))
	for i, h := range hits {
		calls[i] = h.call
	}
	return calls
}
