package crawler

import (
	"net/http"
	"strings"

	"github.com/PentesterFlow/NetScan/internal/parser"
	"github.com/PentesterFlow/NetScan/internal/scope"
)

// CommonParams are injected into pages that expose no parameters.
var CommonParams = []string{"id", "q", "search", "file", "url", "cmd", "page", "name"}

// DefaultCommonParamLimit is how many CommonParams are injected.
const DefaultCommonParamLimit = 6

// EndpointConfig tunes endpoint derivation.
type EndpointConfig struct {
	CommonParamLimit   int  `json:"common_param_limit" yaml:"common_param_limit"`
	SkipWellKnownPaths bool `json:"skip_well_known_paths" yaml:"skip_well_known_paths"`
}

func (c EndpointConfig) commonParams() []string {
	n := c.CommonParamLimit
	if n <= 0 {
		n = DefaultCommonParamLimit
	}
	if n > len(CommonParams) {
		n = len(CommonParams)
	}
	return append([]string(nil), CommonParams[:n]...)
}

// DeriveEndpoints turns crawled pages into testable endpoints, in page
// order, followed by the well-known paths of the start URL's origin.
// Duplicates by kind, method, URL and parameters are dropped, and so are
// forms whose action leaves the origin of the start URL (or of the page
// when the start URL is unusable).
func DeriveEndpoints(start string, pages []*Page, cfg EndpointConfig) []Endpoint {
	checker, _ := scope.NewChecker(start)

	var out []Endpoint
	seen := make(map[string]struct{})
	add := func(e Endpoint) {
		k := e.key()
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, e)
	}

	for _, p := range pages {
		method := strings.ToUpper(p.Method)
		if method == "" {
			method = http.MethodGet
		}

		if len(p.Parameters) > 0 {
			add(Endpoint{URL: p.URL, Method: method, Parameters: unique(p.Parameters), Kind: KindURLParam})
		}

		origin := checker
		if origin == nil {
			origin, _ = scope.NewChecker(p.URL)
		}

		hasFieldForm := false
		for _, f := range p.Forms {
			if origin == nil || !origin.SameOrigin(f.Action) {
				continue
			}
			names := unique(f.FieldNames())
			if len(names) > 0 {
				hasFieldForm = true
				add(Endpoint{URL: f.Action, Method: formMethod(f), Parameters: names, Kind: KindForm})
				continue
			}
			// Script API calls and empty forms carry no field names.
			add(Endpoint{URL: f.Action, Method: formMethod(f), Parameters: cfg.commonParams(), Kind: KindInjectedParam})
		}

		if len(p.Parameters) == 0 && !hasFieldForm {
			add(Endpoint{URL: p.URL, Method: http.MethodGet, Parameters: cfg.commonParams(), Kind: KindInjectedParam})
		}

		add(Endpoint{URL: p.URL, Method: http.MethodGet, Kind: KindPathTest})
	}

	if cfg.SkipWellKnownPaths {
		return out
	}
	if checker != nil {
		for _, path := range scope.WellKnownPaths {
			add(Endpoint{URL: checker.Resolve(path), Method: http.MethodGet, Kind: KindCommonEndpoint})
		}
	}

	return out
}

func formMethod(f parser.Form) string {
	if f.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(f.Method)
}

// unique drops empty and repeated names, keeping first-seen order.
func unique(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
