package detector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PentesterFlow/NetScan/internal/finding"
)

// queryHandler answers with fn applied to the id query parameter.
func queryHandler(fn func(id string) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(fn(r.URL.Query().Get("id"))))
	})
}

func scaledTimingConfig() Config {
	cfg := testConfig()
	cfg.SQLTimeDelta = 300 * time.Millisecond
	cfg.SQLTimeFloor = 400 * time.Millisecond
	cfg.CmdTimeDelta = 300 * time.Millisecond
	return cfg
}

func TestSQLi_StrategyOrder(t *testing.T) {
	d := NewSQLi(newTestClient(t), testConfig())

	var names []string
	for _, s := range d.Strategies() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"time", "error", "boolean", "union"}, names)
}

func TestSQLi_ErrorBased(t *testing.T) {
	srv := httptest.NewServer(queryHandler(func(id string) string {
		if strings.Contains(id, "'") {
			return "You have an error in your SQL syntax near '" + id + "'"
		}
		return "ok"
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/item?id=1", Method: http.MethodGet, Parameter: "id"}
	found := NewSQLi(newTestClient(t), testConfig()).TestParam(context.Background(), target)

	require.Len(t, found, 1)
	f := found[0]
	assert.Equal(t, finding.SQLiError, f.Class)
	assert.Equal(t, finding.Critical, f.Severity)
	assert.Equal(t, "id", f.Parameter)
	assert.Equal(t, http.MethodGet, f.Method)
	assert.Contains(t, f.Evidence, "MySQL")
}

func TestSQLi_ErrorPresentInBaselineIgnored(t *testing.T) {
	srv := httptest.NewServer(queryHandler(func(id string) string {
		return "You have an error in your SQL syntax " + id
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/?id=1", Parameter: "id"}
	found := NewSQLi(newTestClient(t), testConfig()).TestParam(context.Background(), target)

	for _, f := range found {
		assert.NotEqual(t, finding.SQLiError, f.Class)
		assert.NotEqual(t, finding.SQLiUnion, f.Class)
	}
}

func TestSQLi_NewSignatureBesideBaselineBanner(t *testing.T) {
	srv := httptest.NewServer(queryHandler(func(id string) string {
		body := "<footer>Warning: mysql_connect() deprecated</footer>"
		if strings.Contains(id, "'") {
			body += "ORA-01756: quoted string not properly terminated"
		}
		return body
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/?id=1", Method: http.MethodGet, Parameter: "id"}
	found := NewSQLi(newTestClient(t), testConfig()).TestParam(context.Background(), target)

	require.Len(t, found, 1)
	assert.Equal(t, finding.SQLiError, found[0].Class)
	assert.Contains(t, found[0].Evidence, "Oracle")
	assert.Contains(t, found[0].Evidence, "ORA-01756")
}

func TestNewSQLError(t *testing.T) {
	banner := "Warning: mysql_connect() deprecated"

	engine, re := newSQLError(banner+" ORA-00933", banner)
	require.NotNil(t, re)
	assert.Equal(t, "Oracle", engine)

	_, re = newSQLError(banner, banner)
	assert.Nil(t, re)

	engine, _ = newSQLError("You have an error in your SQL syntax", "")
	assert.Equal(t, "MySQL", engine)
}

func TestSQLi_TimeBased(t *testing.T) {
	srv := httptest.NewServer(queryHandler(func(id string) string {
		if strings.Contains(strings.ToUpper(id), "SLEEP") {
			time.Sleep(500 * time.Millisecond)
		}
		return "ok"
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/?id=1", Parameter: "id"}
	found := NewSQLi(newTestClient(t), scaledTimingConfig()).TestParam(context.Background(), target)

	require.Len(t, found, 1)
	assert.Equal(t, finding.SQLiTime, found[0].Class)
	assert.Equal(t, "1' AND SLEEP(5)--", found[0].Payload)
	assert.Contains(t, found[0].Evidence, "baseline")
}

func TestSQLi_TimeBasedDefaultThresholds(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps for several seconds")
	}

	srv := httptest.NewServer(queryHandler(func(id string) string {
		if strings.Contains(strings.ToUpper(id), "SLEEP") {
			time.Sleep(5 * time.Second)
		}
		return "ok"
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/?id=1", Parameter: "id"}
	found := NewSQLi(newTestClient(t), testConfig()).TestParam(context.Background(), target)

	require.Len(t, found, 1)
	assert.Equal(t, finding.SQLiTime, found[0].Class)
}

func TestSQLi_ConstantLatencyNotFlagged(t *testing.T) {
	srv := httptest.NewServer(queryHandler(func(string) string {
		time.Sleep(200 * time.Millisecond)
		return "ok"
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/?id=1", Parameter: "id"}
	found := NewSQLi(newTestClient(t), scaledTimingConfig()).TestParam(context.Background(), target)

	assert.Empty(t, found)
}

func TestSQLi_BooleanBased(t *testing.T) {
	srv := httptest.NewServer(queryHandler(func(id string) string {
		if strings.Contains(id, "'1'='1") {
			return strings.Repeat("row ", 250)
		}
		return "none"
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/?id=1", Parameter: "id"}
	found := NewSQLi(newTestClient(t), testConfig()).TestParam(context.Background(), target)

	require.Len(t, found, 1)
	assert.Equal(t, finding.SQLiBoolean, found[0].Class)
	assert.Contains(t, found[0].Evidence, "1000 bytes")
}

func TestSQLi_UnionBased(t *testing.T) {
	srv := httptest.NewServer(queryHandler(func(id string) string {
		if strings.Contains(id, "UNION") {
			return "Warning: mysql_fetch_array() expects parameter 1 to be resource"
		}
		return "ok"
	}))
	defer srv.Close()

	target := Target{URL: srv.URL + "/?id=1", Parameter: "id"}
	found := NewSQLi(newTestClient(t), testConfig()).TestParam(context.Background(), target)

	require.Len(t, found, 1)
	assert.Equal(t, finding.SQLiUnion, found[0].Class)
	assert.Equal(t, finding.Critical, found[0].Severity)
}

func TestSQLi_CleanTarget(t *testing.T) {
	srv := httptest.NewServer(queryHandler(func(string) string { return "static page" }))
	defer srv.Close()

	target := Target{URL: srv.URL + "/?id=1", Parameter: "id"}
	assert.Empty(t, NewSQLi(newTestClient(t), testConfig()).TestParam(context.Background(), target))
}

func TestSQLi_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(queryHandler(func(string) string { return "ok" }))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	target := Target{URL: srv.URL + "/?id=1", Parameter: "id"}
	assert.Empty(t, NewSQLi(newTestClient(t), testConfig()).TestParam(ctx, target))
}

func TestNewSQLError_Engines(t *testing.T) {
	tests := []struct {
		body   string
		engine string
	}{
		{"You have an error in your SQL syntax", "MySQL"},
		{"pg_query(): Query failed", "PostgreSQL"},
		{"Unclosed quotation mark after the character string", "MSSQL"},
		{"ORA-01756: quoted string not properly terminated", "Oracle"},
		{"Unknown column 'x' in 'where clause'", "Generic"},
		{"all good", ""},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			engine, re := newSQLError(tt.body, "")
			assert.Equal(t, tt.engine, engine)
			assert.Equal(t, tt.engine != "", re != nil)
		})
	}
}
