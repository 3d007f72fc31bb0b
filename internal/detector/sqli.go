package detector

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/PentesterFlow/NetScan/internal/finding"
	"github.com/PentesterFlow/NetScan/internal/payloads"
)

// sqlSignature is the error fingerprint of one database engine.
type sqlSignature struct {
	engine   string
	patterns []*regexp.Regexp
}

var sqlErrorSignatures = []sqlSignature{
	{"MySQL", compileAll(
		`You have an error in your SQL syntax`,
		`mysql_fetch`,
		`Warning.*mysql`,
		`valid MySQL result`,
	)},
	{"PostgreSQL", compileAll(
		`PostgreSQL.*ERROR`,
		`Syntax error.*SQL`,
		`pg_query`,
		`pg_fetch`,
	)},
	{"MSSQL", compileAll(
		`Unclosed quotation mark`,
		`Syntax error in SQL`,
		`Microsoft OLE DB`,
		`ODBC.*Driver`,
	)},
	{"Oracle", compileAll(
		`ORA-[0-9]+`,
		`Oracle error`,
		`SQLError`,
	)},
	{"Generic", compileAll(
		`SQL syntax error`,
		`unexpected token`,
		`Unknown column`,
		`syntax error`,
	)},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// newSQLError returns the engine and pattern of the first signature that
// matches body but not baseline, so an error banner present on every page
// does not hide a new one.
func newSQLError(body, baseline string) (engine string, pattern *regexp.Regexp) {
	for _, sig := range sqlErrorSignatures {
		for _, re := range sig.patterns {
			if re.MatchString(body) && !re.MatchString(baseline) {
				return sig.engine, re
			}
		}
	}
	return "", nil
}

// Strategy is one SQL injection technique.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, t Target) []finding.Finding
}

// SQLi detects SQL injection. Strategies run in order and the first one
// that reports anything wins.
type SQLi struct {
	base
	cfg        Config
	strategies []Strategy
}

// NewSQLi creates a SQL injection detector.
func NewSQLi(req Requester, cfg Config) *SQLi {
	cfg = cfg.withDefaults()
	d := &SQLi{base: newBase(NameSQLi, req, cfg), cfg: cfg}
	d.strategies = []Strategy{
		{Name: "time", Run: d.timeBased},
		{Name: "error", Run: d.errorBased},
		{Name: "boolean", Run: d.booleanBased},
		{Name: "union", Run: d.unionBased},
	}
	return d
}

// Strategies returns the evaluation order.
func (d *SQLi) Strategies() []Strategy {
	return append([]Strategy(nil), d.strategies...)
}

// TestParam implements ParamDetector.
func (d *SQLi) TestParam(ctx context.Context, t Target) []finding.Finding {
	d.log.ProbeEvent(d.name, t.method(), t.URL, t.Parameter)
	return d.safely(t.URL, func() []finding.Finding {
		for _, s := range d.strategies {
			if ctx.Err() != nil {
				return nil
			}
			if found := s.Run(ctx, t); len(found) > 0 {
				return found
			}
		}
		return nil
	})
}

// timeBased compares payload latency to the mean of two baselines.
func (d *SQLi) timeBased(ctx context.Context, t Target) []finding.Finding {
	var total time.Duration
	samples := 0
	for i := 0; i < 2; i++ {
		dur, _, err := d.timed(ctx, t, inertValue)
		if err != nil {
			d.failed(t, inertValue, err)
			continue
		}
		total += dur
		samples++
	}
	if samples == 0 {
		return nil
	}
	baseline := total / time.Duration(samples)

	for _, payload := range payloads.First(payloads.SQL(payloads.SQLTime), 3) {
		if ctx.Err() != nil {
			return nil
		}
		dur, _, err := d.timed(ctx, t, payload)
		if err != nil {
			d.failed(t, payload, err)
			continue
		}

		delta := dur - baseline
		if delta > d.cfg.SQLTimeDelta && dur > d.cfg.SQLTimeFloor {
			evidence := fmt.Sprintf("Response delayed: payload %s, baseline %s, delta %s",
				seconds(dur), seconds(baseline), seconds(delta))
			return []finding.Finding{d.newFinding(finding.SQLiTime, t, payload, evidence)}
		}
	}
	return nil
}

// errorBased looks for database error messages that only the payload
// provokes.
func (d *SQLi) errorBased(ctx context.Context, t Target) []finding.Finding {
	return d.signatureGate(ctx, t, finding.SQLiError, payloads.First(payloads.SQL(payloads.SQLError), 3))
}

// unionBased runs the error gate with UNION payloads.
func (d *SQLi) unionBased(ctx context.Context, t Target) []finding.Finding {
	return d.signatureGate(ctx, t, finding.SQLiUnion, payloads.First(payloads.SQL(payloads.SQLUnion), 3))
}

// signatureGate flags the first payload whose response matches an error
// signature absent from the baseline and differs from it in length.
func (d *SQLi) signatureGate(ctx context.Context, t Target, class finding.Class, list []string) []finding.Finding {
	baseline, err := d.inject(ctx, t, inertValue)
	if err != nil {
		d.failed(t, inertValue, err)
		return nil
	}

	for _, payload := range list {
		if ctx.Err() != nil {
			return nil
		}
		resp, err := d.inject(ctx, t, payload)
		if err != nil {
			d.failed(t, payload, err)
			continue
		}

		engine, re := newSQLError(resp.Body, baseline.Body)
		if re == nil || len(resp.Body) == len(baseline.Body) {
			continue
		}

		evidence := fmt.Sprintf("%s error signature %q in response", engine, re.FindString(resp.Body))
		return []finding.Finding{d.newFinding(class, t, payload, evidence)}
	}
	return nil
}

// booleanBased compares the response sizes of a true and a false
// condition.
func (d *SQLi) booleanBased(ctx context.Context, t Target) []finding.Finding {
	trueResp, err := d.inject(ctx, t, payloads.SQLBooleanTrue)
	if err != nil {
		d.failed(t, payloads.SQLBooleanTrue, err)
		return nil
	}
	falseResp, err := d.inject(ctx, t, payloads.SQLBooleanFalse)
	if err != nil {
		d.failed(t, payloads.SQLBooleanFalse, err)
		return nil
	}

	trueLen, falseLen := len(trueResp.Body), len(falseResp.Body)
	if falseLen > 0 && float64(trueLen) > 1.1*float64(falseLen) {
		evidence := fmt.Sprintf("True condition returned %d bytes, false condition %d bytes", trueLen, falseLen)
		return []finding.Finding{d.newFinding(finding.SQLiBoolean, t, payloads.SQLBooleanTrue, evidence)}
	}
	return nil
}
