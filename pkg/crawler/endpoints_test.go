package crawler

import (
	"net/http"
	"reflect"
	"strings"
	"testing"

	"github.com/PentesterFlow/NetScan/internal/parser"
)

func endpointsOfKind(eps []Endpoint, kind EndpointKind) []Endpoint {
	var out []Endpoint
	for _, e := range eps {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// DeriveEndpoints Tests
// =============================================================================

func TestDeriveEndpoints_NoPages(t *testing.T) {
	eps := DeriveEndpoints("https://example.com/app/index.php", nil, EndpointConfig{})

	if len(eps) != 8 {
		t.Fatalf("endpoints = %d, want 8 well-known paths", len(eps))
	}
	if eps[0].URL != "https://example.com/admin" || eps[0].Kind != KindCommonEndpoint {
		t.Errorf("first endpoint = %+v", eps[0])
	}
	if eps[7].URL != "https://example.com/backup" {
		t.Errorf("last endpoint = %s", eps[7].URL)
	}
	for _, e := range eps {
		if e.Method != http.MethodGet || len(e.Parameters) != 0 {
			t.Errorf("common endpoint %+v should be a bare GET", e)
		}
	}
}

func TestDeriveEndpoints_SkipWellKnownPaths(t *testing.T) {
	eps := DeriveEndpoints("https://example.com", nil, EndpointConfig{SkipWellKnownPaths: true})
	if len(eps) != 0 {
		t.Errorf("endpoints = %v, want none", eps)
	}
}

func TestDeriveEndpoints_InvalidStart(t *testing.T) {
	pages := []*Page{{URL: "https://example.com/a"}}
	eps := DeriveEndpoints("", pages, EndpointConfig{})

	if len(endpointsOfKind(eps, KindCommonEndpoint)) != 0 {
		t.Error("no well-known paths without a usable start URL")
	}
	if len(eps) != 2 {
		t.Errorf("endpoints = %d, want injected_param and path_test", len(eps))
	}
}

func TestDeriveEndpoints_URLParams(t *testing.T) {
	pages := []*Page{{
		URL:        "https://example.com/search?q=x&page=2",
		Method:     http.MethodGet,
		Parameters: []string{"q", "page"},
	}}
	eps := DeriveEndpoints("https://example.com", pages, EndpointConfig{})

	want := []Endpoint{
		{URL: "https://example.com/search?q=x&page=2", Method: http.MethodGet, Parameters: []string{"q", "page"}, Kind: KindURLParam},
		{URL: "https://example.com/search?q=x&page=2", Method: http.MethodGet, Kind: KindPathTest},
	}
	if !reflect.DeepEqual(eps[:2], want) {
		t.Errorf("endpoints = %+v, want %+v", eps[:2], want)
	}
	if len(endpointsOfKind(eps, KindInjectedParam)) != 0 {
		t.Error("a page with query parameters gets no injected parameters")
	}
}

func TestDeriveEndpoints_InjectedParams(t *testing.T) {
	pages := []*Page{{URL: "https://example.com/about"}}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"default", 0, []string{"id", "q", "search", "file", "url", "cmd"}},
		{"two", 2, []string{"id", "q"}},
		{"above catalog", 100, CommonParams},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eps := DeriveEndpoints("https://example.com", pages, EndpointConfig{CommonParamLimit: tt.limit})
			injected := endpointsOfKind(eps, KindInjectedParam)
			if len(injected) != 1 {
				t.Fatalf("injected endpoints = %d, want 1", len(injected))
			}
			if injected[0].Method != http.MethodGet || injected[0].URL != "https://example.com/about" {
				t.Errorf("injected = %+v", injected[0])
			}
			if !reflect.DeepEqual(injected[0].Parameters, tt.want) {
				t.Errorf("parameters = %v, want %v", injected[0].Parameters, tt.want)
			}
		})
	}
}

func TestDeriveEndpoints_Forms(t *testing.T) {
	pages := []*Page{{
		URL: "https://example.com/login",
		Forms: []Form{
			{
				Action: "https://example.com/session",
				Method: "post",
				Source: parser.SourceHTML,
				Fields: []Field{{Name: "user"}, {Name: "pass"}, {Name: "user"}, {Name: ""}},
			},
			{
				Action: "https://example.com/api/items",
				Method: http.MethodPut,
				Source: parser.SourceScript,
			},
		},
	}}
	eps := DeriveEndpoints("https://example.com", pages, EndpointConfig{})

	forms := endpointsOfKind(eps, KindForm)
	if len(forms) != 1 {
		t.Fatalf("form endpoints = %d, want 1", len(forms))
	}
	if forms[0].Method != http.MethodPost || !reflect.DeepEqual(forms[0].Parameters, []string{"user", "pass"}) {
		t.Errorf("form endpoint = %+v", forms[0])
	}

	injected := endpointsOfKind(eps, KindInjectedParam)
	if len(injected) != 1 {
		t.Fatalf("injected endpoints = %d, want only the script API call", len(injected))
	}
	if injected[0].URL != "https://example.com/api/items" || injected[0].Method != http.MethodPut {
		t.Errorf("script endpoint = %+v", injected[0])
	}
}

func TestDeriveEndpoints_OffOriginFormsDropped(t *testing.T) {
	pages := []*Page{{
		URL: "https://example.com/checkout",
		Forms: []Form{
			{
				Action: "https://payments.example.net/pay",
				Method: http.MethodPost,
				Source: parser.SourceHTML,
				Fields: []Field{{Name: "amount"}},
			},
			{
				Action: "https://api.example.net/track",
				Method: http.MethodPost,
				Source: parser.SourceScript,
			},
			{
				Action: "https://EXAMPLE.com/cart",
				Method: http.MethodPost,
				Source: parser.SourceHTML,
				Fields: []Field{{Name: "qty"}},
			},
		},
	}}

	for _, start := range []string{"https://example.com", ""} {
		eps := DeriveEndpoints(start, pages, EndpointConfig{SkipWellKnownPaths: true})

		for _, e := range eps {
			if strings.Contains(e.URL, "example.net") {
				t.Errorf("start %q: off-origin endpoint %+v", start, e)
			}
		}
		forms := endpointsOfKind(eps, KindForm)
		if len(forms) != 1 || forms[0].URL != "https://EXAMPLE.com/cart" {
			t.Errorf("start %q: form endpoints = %+v, want only the same-origin cart form", start, forms)
		}
		if len(endpointsOfKind(eps, KindInjectedParam)) != 0 {
			t.Errorf("start %q: the field form should suppress the page-level injected endpoint", start)
		}
	}
}

func TestDeriveEndpoints_Deduplicates(t *testing.T) {
	page := &Page{URL: "https://example.com/x", Parameters: []string{"id"}}
	eps := DeriveEndpoints("https://example.com", []*Page{page, page}, EndpointConfig{})

	seen := make(map[string]bool)
	for _, e := range eps {
		if seen[e.key()] {
			t.Errorf("duplicate endpoint %+v", e)
		}
		seen[e.key()] = true
	}
	if len(eps) != 2+8 {
		t.Errorf("endpoints = %d, want 10", len(eps))
	}
}

func TestDeriveEndpoints_ParametersInvariant(t *testing.T) {
	pages := []*Page{
		{URL: "https://example.com/"},
		{URL: "https://example.com/p?a=1", Parameters: []string{"a"}},
		{URL: "https://example.com/f", Forms: []Form{{Action: "https://example.com/f", Method: "GET"}}},
	}
	for _, e := range DeriveEndpoints("https://example.com", pages, EndpointConfig{}) {
		if e.Kind == KindPathTest || e.Kind == KindCommonEndpoint {
			if len(e.Parameters) != 0 {
				t.Errorf("%s endpoint should not carry parameters: %+v", e.Kind, e)
			}
			continue
		}
		if len(e.Parameters) == 0 {
			t.Errorf("%s endpoint without parameters: %+v", e.Kind, e)
		}
	}
}

func TestDeriveEndpoints_ResultIsolated(t *testing.T) {
	pages := []*Page{{URL: "https://example.com/a"}, {URL: "https://example.com/b"}}
	eps := endpointsOfKind(DeriveEndpoints("https://example.com", pages, EndpointConfig{}), KindInjectedParam)

	eps[0].Parameters[0] = "mutated"
	if eps[1].Parameters[0] != "id" || CommonParams[0] != "id" {
		t.Error("endpoint parameter slices should not share storage")
	}
}
