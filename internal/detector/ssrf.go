package detector

import (
	"context"

	"github.com/PentesterFlow/NetScan/internal/finding"
	"github.com/PentesterFlow/NetScan/internal/payloads"
)

// SSRF detects server-side request forgery.
type SSRF struct {
	base
	signal  Signal
	evasion []payloads.Technique
}

// NewSSRF creates an SSRF detector using cfg.SSRFSignal.
func NewSSRF(req Requester, cfg Config) *SSRF {
	cfg = cfg.withDefaults()
	return &SSRF{base: newBase(NameSSRF, req, cfg), signal: cfg.SSRFSignal, evasion: cfg.Evasion}
}

// TestParam implements ParamDetector.
func (d *SSRF) TestParam(ctx context.Context, t Target) []finding.Finding {
	d.log.ProbeEvent(d.name, t.method(), t.URL, t.Parameter)
	return d.safely(t.URL, func() []finding.Finding {
		list := payloads.Variants(payloads.First(payloads.SSRF(), 3), d.evasion)
		for _, payload := range list {
			if ctx.Err() != nil {
				return nil
			}
			resp, err := d.inject(ctx, t, payload)
			if err != nil {
				d.failed(t, payload, err)
				continue
			}

			if ok, evidence := d.signal.Match(resp); ok {
				return []finding.Finding{d.newFinding(finding.SSRF, t, payload, evidence)}
			}
		}
		return nil
	})
}
