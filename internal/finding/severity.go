package finding

// Severity represents the severity level of a finding.
type Severity string

const (
	// Critical represents immediate compromise (command execution, SQL errors).
	Critical Severity = "CRITICAL"
	// High represents significant impact requiring a prompt fix.
	High Severity = "HIGH"
	// Medium represents moderate impact.
	Medium Severity = "MEDIUM"
	// Low represents limited impact.
	Low Severity = "LOW"
)

// Severities lists all levels from most to least severe.
func Severities() []Severity {
	return []Severity{Critical, High, Medium, Low}
}

// IsValid reports whether s is a recognized severity level.
func (s Severity) IsValid() bool {
	switch s {
	case Critical, High, Medium, Low:
		return true
	}
	return false
}

// Rank returns a numeric rank for sorting.
// Critical=4, High=3, Medium=2, Low=1, Unknown=0.
func (s Severity) Rank() int {
	switch s {
	case Critical:
		return 4
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// String returns the severity as a string.
func (s Severity) String() string {
	return string(s)
}

// SeverityForScore maps a CVSS v3.1 base score to its qualitative rating.
func SeverityForScore(score float64) Severity {
	switch {
	case score >= 9.0:
		return Critical
	case score >= 7.0:
		return High
	case score >= 4.0:
		return Medium
	default:
		return Low
	}
}
