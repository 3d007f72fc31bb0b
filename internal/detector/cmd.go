package detector

import (
	"context"
	"fmt"
	"time"

	"github.com/PentesterFlow/NetScan/internal/finding"
	"github.com/PentesterFlow/NetScan/internal/payloads"
)

// Cmd detects OS command injection by timing sleep payloads.
type Cmd struct {
	base
	delta time.Duration
}

// NewCmd creates a command injection detector.
func NewCmd(req Requester, cfg Config) *Cmd {
	cfg = cfg.withDefaults()
	return &Cmd{base: newBase(NameCmd, req, cfg), delta: cfg.CmdTimeDelta}
}

// TestParam implements ParamDetector. Each payload is timed against a
// fresh baseline; the first one slower by more than the threshold wins.
func (d *Cmd) TestParam(ctx context.Context, t Target) []finding.Finding {
	d.log.ProbeEvent(d.name, t.method(), t.URL, t.Parameter)
	return d.safely(t.URL, func() []finding.Finding {
		for _, payload := range payloads.CommandTiming() {
			if ctx.Err() != nil {
				return nil
			}

			baseline, _, err := d.timed(ctx, t, inertValue)
			if err != nil {
				d.failed(t, inertValue, err)
				continue
			}
			took, _, err := d.timed(ctx, t, payload)
			if err != nil {
				d.failed(t, payload, err)
				continue
			}

			if took-baseline > d.delta {
				evidence := fmt.Sprintf("Response time increased significantly: %s vs baseline %s",
					seconds(took), seconds(baseline))
				return []finding.Finding{d.newFinding(finding.CMD, t, payload, evidence)}
			}
		}
		return nil
	})
}
