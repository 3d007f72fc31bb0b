package detector

import (
	"context"
	"net/http"

	"github.com/PentesterFlow/NetScan/internal/finding"
	"github.com/PentesterFlow/NetScan/internal/payloads"
)

const xmlContentType = "application/xml"

// XXE posts external-entity documents to an endpoint.
type XXE struct {
	base
	signal Signal
}

// NewXXE creates an XXE detector using cfg.XXESignal.
func NewXXE(req Requester, cfg Config) *XXE {
	cfg = cfg.withDefaults()
	return &XXE{base: newBase(NameXXE, req, cfg), signal: cfg.XXESignal}
}

// TestEndpoint implements EndpointDetector.
func (d *XXE) TestEndpoint(ctx context.Context, rawURL string) []finding.Finding {
	d.log.ProbeEvent(d.name, http.MethodPost, rawURL, "")
	return d.safely(rawURL, func() []finding.Finding {
		for _, doc := range payloads.First(payloads.XXE(), 2) {
			if ctx.Err() != nil {
				return nil
			}
			d.metrics.RecordProbe(d.name)
			resp, err := d.req.PostBody(ctx, rawURL, xmlContentType, doc)
			if err != nil {
				d.failed(Target{URL: rawURL, Method: http.MethodPost}, doc, err)
				continue
			}

			if ok, evidence := d.signal.Match(resp); ok {
				return []finding.Finding{
					finding.New(finding.XXE, rawURL, "", http.MethodPost, truncate(doc, 50), evidence),
				}
			}
		}
		return nil
	})
}
