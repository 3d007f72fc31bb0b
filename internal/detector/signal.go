package detector

import (
	"fmt"
	"net/http"
	"strings"

	nshttp "github.com/PentesterFlow/NetScan/internal/http"
)

// Signal decides whether a probe response indicates a vulnerability.
type Signal interface {
	Name() string
	Match(resp *nshttp.Response) (bool, string)
}

// SubstringSignal matches when the body contains any of Substrings,
// ignoring case.
type SubstringSignal struct {
	Substrings []string
}

// DefaultSSRFSignal flags responses that mention admin, private or
// internal resources.
func DefaultSSRFSignal() SubstringSignal {
	return SubstringSignal{Substrings: []string{"admin", "private", "internal"}}
}

// Name implements Signal.
func (s SubstringSignal) Name() string { return "substring" }

// Match implements Signal.
func (s SubstringSignal) Match(resp *nshttp.Response) (bool, string) {
	if resp == nil {
		return false, ""
	}
	body := strings.ToLower(resp.Body)
	for _, sub := range s.Substrings {
		if sub != "" && strings.Contains(body, strings.ToLower(sub)) {
			return true, fmt.Sprintf("Server appears to have processed URL (response mentions %q)", sub)
		}
	}
	return false, ""
}

// XXEAcceptedSignal flags an XML probe whose response is 200 or does not
// echo a DOCTYPE back. Most endpoints satisfy this, so it over-reports.
type XXEAcceptedSignal struct{}

// Name implements Signal.
func (XXEAcceptedSignal) Name() string { return "xxe_accepted" }

// Match implements Signal.
func (XXEAcceptedSignal) Match(resp *nshttp.Response) (bool, string) {
	if resp == nil {
		return false, ""
	}
	if resp.StatusCode == http.StatusOK || !strings.Contains(resp.Body, "DOCTYPE") {
		return true, fmt.Sprintf("XXE payload accepted (status %d)", resp.StatusCode)
	}
	return false, ""
}
