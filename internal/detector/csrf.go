package detector

import (
	"context"
	"fmt"

	"github.com/PentesterFlow/NetScan/internal/finding"
	"github.com/PentesterFlow/NetScan/internal/logger"
	"github.com/PentesterFlow/NetScan/internal/parser"
)

// CSRF flags state-changing forms without an anti-forgery token. It reads
// stored markup only.
type CSRF struct {
	log      *logger.Logger
	analyzer *parser.FormAnalyzer
}

// NewCSRF creates a CSRF detector.
func NewCSRF(cfg Config) *CSRF {
	return &CSRF{
		log:      logger.OrNop(cfg.Logger).WithComponent("detector").WithField("detector", NameCSRF),
		analyzer: parser.NewFormAnalyzer(),
	}
}

// Name implements PageDetector.
func (d *CSRF) Name() string { return NameCSRF }

// TestPage implements PageDetector. The finding parameter is the form
// action.
func (d *CSRF) TestPage(ctx context.Context, pageURL, markup string) (out []finding.Finding) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Debugf("csrf check aborted on %s: %v", pageURL, r)
			out = nil
		}
	}()

	p, err := parser.NewHTMLParser(pageURL)
	if err != nil {
		d.log.WithError(err).Debug("invalid page URL")
		return nil
	}
	result, err := p.Parse(markup)
	if err != nil {
		d.log.WithError(err).Debug("markup parse failed")
		return nil
	}

	for _, form := range result.Forms {
		if ctx.Err() != nil {
			return out
		}
		if form.Source != parser.SourceHTML {
			continue
		}

		analysis := d.analyzer.Analyze(form)
		if !analysis.StateChanging || analysis.HasCSRF {
			continue
		}

		evidence := fmt.Sprintf("Form lacks CSRF token protection (%s %s form)", form.Method, analysis.FormType)
		out = append(out, finding.New(finding.CSRF, pageURL, form.Action, form.Method, "", evidence))
	}
	return out
}
