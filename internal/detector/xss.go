package detector

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/PentesterFlow/NetScan/internal/finding"
	"github.com/PentesterFlow/NetScan/internal/payloads"
)

// XSS detects reflected cross-site scripting.
type XSS struct {
	base
	samples int
	evasion []payloads.Technique

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewXSS creates an XSS detector.
func NewXSS(req Requester, cfg Config) *XSS {
	cfg = cfg.withDefaults()
	return &XSS{
		base:    newBase(NameXSS, req, cfg),
		samples: cfg.XSSSamples,
		evasion: cfg.Evasion,
		rnd:     cfg.Rand,
	}
}

// TestParam implements ParamDetector.
func (d *XSS) TestParam(ctx context.Context, t Target) []finding.Finding {
	d.log.ProbeEvent(d.name, t.method(), t.URL, t.Parameter)
	return d.safely(t.URL, func() []finding.Finding {
		for _, payload := range d.payloads() {
			if ctx.Err() != nil {
				return nil
			}
			resp, err := d.inject(ctx, t, payload)
			if err != nil {
				d.failed(t, payload, err)
				continue
			}

			if !reflected(resp.Body, payload) {
				continue
			}
			if where, ok := executableContext(resp.Body, payload); ok {
				evidence := fmt.Sprintf("Payload reflected in executable context (%s)", where)
				return []finding.Finding{d.newFinding(finding.XSS, t, payload, evidence)}
			}
		}
		return nil
	})
}

func (d *XSS) payloads() []string {
	d.mu.Lock()
	list := payloads.SampleXSS(d.rnd, d.samples)
	d.mu.Unlock()
	return payloads.Variants(list, d.evasion)
}

// reflected reports whether payload or its URL-encoded form appears in body.
func reflected(body, payload string) bool {
	return strings.Contains(body, payload) || strings.Contains(body, payloads.Quote(payload))
}

// executableContext tokenizes body and reports where the payload lands in
// script-executable position: script text, an on* handler, or a
// javascript: URL attribute.
func executableContext(body, payload string) (string, bool) {
	lowerPayload := strings.ToLower(payload)
	z := html.NewTokenizer(strings.NewReader(body))
	inScript := false

	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false

		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			if tag == "script" {
				inScript = true
			}
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if where, ok := attrHit(tag, string(key), string(val), payload, lowerPayload); ok {
					return where, true
				}
			}

		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "script" {
				inScript = false
			}

		case html.TextToken:
			if inScript && scriptHit(string(z.Text()), payload) {
				return "script", true
			}
		}
	}
}

// scriptHit reports whether script text carries the payload. The text may
// hold the whole payload, the part of it before a closing </script> that
// ended the element early, or be the body of a <script> tag the payload
// itself injected.
func scriptHit(text, payload string) bool {
	if strings.Contains(text, payload) {
		return true
	}

	lowerPayload := strings.ToLower(payload)
	if i := strings.Index(lowerPayload, "</script"); i > 0 {
		if prefix := payload[:i]; strings.TrimSpace(prefix) != "" && strings.Contains(text, prefix) {
			return true
		}
	}

	trimmed := strings.TrimSpace(text)
	return trimmed != "" && strings.Contains(lowerPayload, ">"+strings.ToLower(trimmed)+"</script")
}

// attrHit checks one attribute for an event handler or javascript: URL
// carrying the payload.
func attrHit(tag, key, val, payload, lowerPayload string) (string, bool) {
	key = strings.ToLower(key)

	if strings.HasPrefix(key, "on") {
		if val == "" {
			return "", false
		}
		if strings.Contains(val, payload) ||
			(strings.Contains(payload, val) && strings.Contains(lowerPayload, key)) {
			return tag + " " + key + " handler", true
		}
		return "", false
	}

	switch key {
	case "href", "src", "action":
		lowerVal := strings.ToLower(strings.TrimSpace(val))
		if !strings.HasPrefix(lowerVal, "javascript:") {
			return "", false
		}
		if strings.Contains(val, payload) || strings.Contains(payload, strings.TrimSpace(val)) {
			return tag + " " + key + " javascript: URL", true
		}
	}
	return "", false
}
