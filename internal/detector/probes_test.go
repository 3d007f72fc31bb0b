package detector

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PentesterFlow/NetScan/internal/finding"
	"github.com/PentesterFlow/NetScan/internal/payloads"
)

// qHandler answers with fn applied to the q parameter of the query or
// form body.
func qHandler(fn func(q string) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Write([]byte(fn(r.Form.Get("q"))))
	})
}

// =============================================================================
// XSS Tests
// =============================================================================

func allXSSConfig() Config {
	cfg := testConfig()
	cfg.XSSSamples = len(payloads.XSS())
	return cfg
}

func TestXSS_RawReflectionFlagged(t *testing.T) {
	srv := httptest.NewServer(qHandler(func(q string) string {
		return "<html><body>Results for " + q + "</body></html>"
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/search?q=x", Parameter: "q"}
	found := NewXSS(newTestClient(t), allXSSConfig()).TestParam(context.Background(), target)

	require.Len(t, found, 1)
	assert.Equal(t, finding.XSS, found[0].Class)
	assert.Equal(t, "q", found[0].Parameter)
	assert.Contains(t, found[0].Evidence, "executable context")
}

func TestXSS_EncodedReflectionNotFlagged(t *testing.T) {
	srv := httptest.NewServer(qHandler(func(q string) string {
		return "<html><body>Results for " + html.EscapeString(q) + "</body></html>"
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/search?q=x", Parameter: "q"}
	found := NewXSS(newTestClient(t), allXSSConfig()).TestParam(context.Background(), target)

	assert.Empty(t, found)
}

func TestXSS_PostParameter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = r.ParseForm()
		fmt.Fprintf(w, "<p>Hello %s</p>", r.PostForm.Get("q"))
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/comment", Method: http.MethodPost, Parameter: "q"}
	found := NewXSS(newTestClient(t), allXSSConfig()).TestParam(context.Background(), target)

	require.Len(t, found, 1)
	assert.Equal(t, http.MethodPost, found[0].Method)
}

func TestXSS_SampleSize(t *testing.T) {
	d := NewXSS(newTestClient(t), testConfig())
	assert.Len(t, d.payloads(), 5)

	cfg := testConfig()
	cfg.Evasion = []payloads.Technique{payloads.URLEncode}
	d = NewXSS(newTestClient(t), cfg)
	assert.Len(t, d.payloads(), 10)
}

func TestExecutableContext(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		payload string
		want    bool
	}{
		{
			name:    "script element",
			body:    "<p>You searched <script>alert('XSS')</script></p>",
			payload: "<script>alert('XSS')</script>",
			want:    true,
		},
		{
			name:    "event handler",
			body:    "<div><img src=x onerror=alert('XSS')></div>",
			payload: "<img src=x onerror=alert('XSS')>",
			want:    true,
		},
		{
			name:    "javascript url",
			body:    "<iframe src=javascript:alert('XSS')></iframe>",
			payload: "<iframe src=javascript:alert('XSS')>",
			want:    true,
		},
		{
			name:    "attribute breakout",
			body:    `<input value="'"><script>alert('XSS')</script>">`,
			payload: `'"><script>alert('XSS')</script>`,
			want:    true,
		},
		{
			name:    "inside existing script string",
			body:    `<script>var q = "<script>alert('XSS')</script>";</script>`,
			payload: "<script>alert('XSS')</script>",
			want:    true,
		},
		{
			name:    "plain text",
			body:    "<p>javascript:alert('XSS')</p>",
			payload: "javascript:alert('XSS')",
			want:    false,
		},
		{
			name:    "entity encoded",
			body:    "<p>&lt;script&gt;alert('XSS')&lt;/script&gt;</p>",
			payload: "<script>alert('XSS')</script>",
			want:    false,
		},
		{
			name:    "unrelated handler",
			body:    `<body onload="init()"><p>&lt;svg onload=alert('XSS')&gt;</p></body>`,
			payload: "<svg onload=alert('XSS')>",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := executableContext(tt.body, tt.payload)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAttrHit(t *testing.T) {
	payload := "<svg onload=alert('XSS')>"
	lower := strings.ToLower(payload)

	where, ok := attrHit("svg", "onload", "alert('XSS')", payload, lower)
	assert.True(t, ok)
	assert.Equal(t, "svg onload handler", where)

	_, ok = attrHit("svg", "onload", "", payload, lower)
	assert.False(t, ok)

	_, ok = attrHit("a", "href", "/home", payload, lower)
	assert.False(t, ok)
}

// =============================================================================
// Command Injection Tests
// =============================================================================

func TestCmd_TimingDetected(t *testing.T) {
	srv := httptest.NewServer(qHandler(func(q string) string {
		if strings.Contains(q, "sleep") {
			time.Sleep(500 * time.Millisecond)
		}
		return "ok"
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/ping?q=localhost", Parameter: "q"}
	found := NewCmd(newTestClient(t), scaledTimingConfig()).TestParam(context.Background(), target)

	require.Len(t, found, 1)
	assert.Equal(t, finding.CMD, found[0].Class)
	assert.Equal(t, "; sleep 5", found[0].Payload)
	assert.Contains(t, found[0].Evidence, "vs baseline")
}

func TestCmd_NoDelay(t *testing.T) {
	srv := httptest.NewServer(qHandler(func(string) string { return "ok" }))
	defer srv.Close()

	target := Target{URL: srv.URL + "/ping?q=localhost", Parameter: "q"}
	assert.Empty(t, NewCmd(newTestClient(t), scaledTimingConfig()).TestParam(context.Background(), target))
}

// =============================================================================
// Path Traversal Tests
// =============================================================================

func TestPathTraversal_Disclosure(t *testing.T) {
	srv := httptest.NewServer(qHandler(func(q string) string {
		if strings.Contains(q, "../") {
			return "root:x:0:0:root:/root:/bin/bash\ndaemon:x:1:1::/usr/sbin:/usr/sbin/nologin"
		}
		return "file not found"
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/view?q=readme.txt", Parameter: "q"}
	found := NewPathTraversal(newTestClient(t), testConfig()).TestParam(context.Background(), target)

	require.Len(t, found, 1)
	assert.Equal(t, finding.PathTraversal, found[0].Class)
	assert.Equal(t, "../../../etc/passwd", found[0].Payload)
	assert.Contains(t, found[0].Evidence, "root:x:")
}

func TestPathTraversal_NoDisclosure(t *testing.T) {
	srv := httptest.NewServer(qHandler(func(string) string { return "file not found" }))
	defer srv.Close()

	target := Target{URL: srv.URL + "/view?q=readme.txt", Parameter: "q"}
	assert.Empty(t, NewPathTraversal(newTestClient(t), testConfig()).TestParam(context.Background(), target))
}

func TestFileDisclosure(t *testing.T) {
	marker, ok := fileDisclosure("[fonts]\r\nAdministrator settings")
	assert.True(t, ok)
	assert.Equal(t, "administrator", marker)

	_, ok = fileDisclosure("hello")
	assert.False(t, ok)
}

// =============================================================================
// SSRF Tests
// =============================================================================

func TestSSRF_InternalResponse(t *testing.T) {
	srv := httptest.NewServer(qHandler(func(q string) string {
		if strings.HasPrefix(q, "http://localhost") {
			return "<h1>Admin panel</h1>"
		}
		return "fetched"
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/fetch?q=http://example.com", Parameter: "q"}
	found := NewSSRF(newTestClient(t), testConfig()).TestParam(context.Background(), target)

	require.Len(t, found, 1)
	assert.Equal(t, finding.SSRF, found[0].Class)
	assert.Equal(t, "http://localhost/admin", found[0].Payload)
}

func TestSSRF_CustomSignal(t *testing.T) {
	srv := httptest.NewServer(qHandler(func(q string) string {
		if strings.Contains(q, "169.254.169.254") {
			return "ami-id instance-id"
		}
		return "fetched"
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.SSRFSignal = SubstringSignal{Substrings: []string{"ami-id"}}
	target := Target{URL: srv.URL + "/fetch?q=x", Parameter: "q"}

	// The metadata payload is fourth in the list and only three are sent.
	assert.Empty(t, NewSSRF(newTestClient(t), cfg).TestParam(context.Background(), target))
}

// =============================================================================
// XXE Tests
// =============================================================================

func TestXXE_WeakHeuristicIsNoisy(t *testing.T) {
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		io.Copy(io.Discard, r.Body)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	found := NewXXE(newTestClient(t), testConfig()).TestEndpoint(context.Background(), srv.URL+"/upload")

	require.Len(t, found, 1)
	f := found[0]
	assert.Equal(t, finding.XXE, f.Class)
	assert.Equal(t, http.MethodPost, f.Method)
	assert.Empty(t, f.Parameter)
	assert.Len(t, f.Payload, 50)
	assert.Equal(t, "application/xml", contentType)
}

func TestXXE_RejectedEcho(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("rejected: " + string(body)))
	}))
	defer srv.Close()

	found := NewXXE(newTestClient(t), testConfig()).TestEndpoint(context.Background(), srv.URL+"/upload")
	assert.Empty(t, found)
}

// =============================================================================
// CSRF Tests
// =============================================================================

func TestCSRF_MissingToken(t *testing.T) {
	markup := `<html><body>
		<form action="/account/update" method="post">
			<input type="text" name="email">
			<input type="submit" value="Save">
		</form>
	</body></html>`

	found := NewCSRF(testConfig()).TestPage(context.Background(), "http://example.com/account", markup)

	require.Len(t, found, 1)
	f := found[0]
	assert.Equal(t, finding.CSRF, f.Class)
	assert.Equal(t, finding.Medium, f.Severity)
	assert.Equal(t, "http://example.com/account", f.URL)
	assert.Equal(t, "http://example.com/account/update", f.Parameter)
	assert.Equal(t, http.MethodPost, f.Method)
	assert.Contains(t, f.Evidence, "lacks CSRF token")
}

func TestCSRF_TokenPresent(t *testing.T) {
	markup := `<form action="/account/update" method="post">
		<input type="hidden" name="csrf_token" value="abc">
		<input type="text" name="email">
	</form>`

	found := NewCSRF(testConfig()).TestPage(context.Background(), "http://example.com/account", markup)
	assert.Empty(t, found)
}

func TestCSRF_IgnoresSafeAndScriptForms(t *testing.T) {
	markup := `<form action="/search" method="get"><input name="q"></form>
		<script>fetch("/api/items", { method: "POST" })</script>`

	found := NewCSRF(testConfig()).TestPage(context.Background(), "http://example.com/", markup)
	assert.Empty(t, found)
}

func TestCSRF_VisibleTokenDoesNotCount(t *testing.T) {
	markup := `<form method="post"><input type="text" name="csrf_token"></form>`

	found := NewCSRF(testConfig()).TestPage(context.Background(), "http://example.com/form", markup)
	require.Len(t, found, 1)
	assert.Equal(t, "http://example.com/form", found[0].Parameter)
}
