package scanner

import (
	"fmt"
	"strings"
	"time"

	scanerrors "github.com/PentesterFlow/NetScan/internal/errors"
	"github.com/PentesterFlow/NetScan/internal/detector"
)

// Profile names.
const (
	ProfileQuick      = "quick"
	ProfileBalanced   = "balanced"
	ProfileAggressive = "aggressive"
)

// Profile fixes crawl limits and the enabled tests of a scan.
type Profile struct {
	Name     string        `json:"name" yaml:"name"`
	MaxDepth int           `json:"max_depth" yaml:"max_depth"`
	MaxPages int           `json:"max_pages" yaml:"max_pages"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
	Tests    []string      `json:"tests" yaml:"tests"`
}

var profiles = []Profile{
	{
		Name:     ProfileQuick,
		MaxDepth: 2,
		MaxPages: 30,
		Timeout:  15 * time.Second,
		Tests:    []string{detector.NameSQLi, detector.NameXSS},
	},
	{
		Name:     ProfileBalanced,
		MaxDepth: 3,
		MaxPages: 100,
		Timeout:  30 * time.Second,
		Tests: []string{
			detector.NameSQLi, detector.NameXSS, detector.NameCSRF,
			detector.NameCmd, detector.NamePathTraversal,
		},
	},
	{
		Name:     ProfileAggressive,
		MaxDepth: 5,
		MaxPages: 500,
		Timeout:  60 * time.Second,
		Tests: []string{
			detector.NameSQLi, detector.NameXSS, detector.NameCSRF,
			detector.NameCmd, detector.NamePathTraversal,
			detector.NameXXE, detector.NameSSRF,
		},
	},
}

// Profiles returns the built-in profiles from lightest to heaviest.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	for i, p := range profiles {
		out[i] = p.clone()
	}
	return out
}

// LookupProfile returns the named profile. Names are case-insensitive.
func LookupProfile(name string) (Profile, error) {
	for _, p := range profiles {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p.clone(), nil
		}
	}
	return Profile{}, scanerrors.NewConfigError(
		fmt.Sprintf("unknown profile %q (want quick, balanced or aggressive)", name), nil)
}

// AllTests returns every test name in probe order.
func AllTests() []string {
	return []string{
		detector.NameSQLi, detector.NameXSS, detector.NameCmd,
		detector.NamePathTraversal, detector.NameSSRF, detector.NameXXE,
		detector.NameCSRF,
	}
}

// Enables reports whether the profile runs test.
func (p Profile) Enables(test string) bool {
	for _, t := range p.Tests {
		if t == test {
			return true
		}
	}
	return false
}

func (p Profile) clone() Profile {
	p.Tests = append([]string(nil), p.Tests...)
	return p
}

// selectTests intersects subset with the profile's tests, keeping the
// profile's order. An empty subset selects all of them. Unknown names are
// a configuration error.
func selectTests(p Profile, subset []string) ([]string, error) {
	if len(subset) == 0 {
		return append([]string(nil), p.Tests...), nil
	}

	known := make(map[string]struct{})
	for _, t := range AllTests() {
		known[t] = struct{}{}
	}

	wanted := make(map[string]struct{}, len(subset))
	for _, raw := range subset {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if _, ok := known[name]; !ok {
			return nil, scanerrors.NewConfigError(fmt.Sprintf("unknown test %q", raw), nil)
		}
		wanted[name] = struct{}{}
	}

	out := make([]string, 0, len(p.Tests))
	for _, t := range p.Tests {
		if _, ok := wanted[t]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}
