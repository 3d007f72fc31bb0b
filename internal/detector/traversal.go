package detector

import (
	"context"
	"fmt"
	"strings"

	"github.com/PentesterFlow/NetScan/internal/finding"
	"github.com/PentesterFlow/NetScan/internal/payloads"
)

// fileDisclosureMarkers are lowercase fragments of /etc/passwd and Windows
// system files.
var fileDisclosureMarkers = []string{"root:x:", "administrator", "daemon:"}

// PathTraversal detects file disclosure through path traversal.
type PathTraversal struct {
	base
	evasion []payloads.Technique
}

// NewPathTraversal creates a path traversal detector.
func NewPathTraversal(req Requester, cfg Config) *PathTraversal {
	cfg = cfg.withDefaults()
	return &PathTraversal{base: newBase(NamePathTraversal, req, cfg), evasion: cfg.Evasion}
}

// TestParam implements ParamDetector.
func (d *PathTraversal) TestParam(ctx context.Context, t Target) []finding.Finding {
	d.log.ProbeEvent(d.name, t.method(), t.URL, t.Parameter)
	return d.safely(t.URL, func() []finding.Finding {
		list := payloads.Variants(payloads.First(payloads.Traversal(), 5), d.evasion)
		for _, payload := range list {
			if ctx.Err() != nil {
				return nil
			}
			resp, err := d.inject(ctx, t, payload)
			if err != nil {
				d.failed(t, payload, err)
				continue
			}

			if marker, ok := fileDisclosure(resp.Body); ok {
				evidence := fmt.Sprintf("File/directory content disclosed (%q)", marker)
				return []finding.Finding{d.newFinding(finding.PathTraversal, t, payload, evidence)}
			}
		}
		return nil
	})
}

func fileDisclosure(body string) (string, bool) {
	lower := strings.ToLower(body)
	for _, m := range fileDisclosureMarkers {
		if strings.Contains(lower, m) {
			return m, true
		}
	}
	return "", false
}
