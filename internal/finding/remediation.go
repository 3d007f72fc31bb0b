package finding

// Remediation describes how to fix a class of vulnerability.
type Remediation struct {
	Summary    string   `json:"summary"`
	Steps      []string `json:"steps"`
	References []string `json:"references"`
}

const (
	familySQLi      = "SQL Injection"
	familyXSS       = "Cross-Site Scripting"
	familyCSRF      = "CSRF"
	familyCMD       = "OS Command Injection"
	familyTraversal = "Path Traversal"
	familyXXE       = "XXE"
	familySSRF      = "SSRF"
)

// RemediationFor returns the remediation of class c.
func RemediationFor(c Class) Remediation {
	if info, ok := catalog[c]; ok {
		return info.Remediation
	}
	return defaultRemediation
}

var defaultRemediation = Remediation{
	Summary: "A security vulnerability has been detected.",
	Steps: []string{
		"Review security best practices",
		"Implement input validation",
		"Apply security patches",
	},
}

var remediations = map[string]Remediation{
	familySQLi: {
		Summary: "Attackers can execute arbitrary SQL commands, leading to unauthorized data access, modification, or deletion.",
		Steps: []string{
			"Use parameterized queries (prepared statements) for all database operations",
			"Implement input validation and whitelisting for all user inputs",
			"Use ORM frameworks that automatically handle parameterization",
			"Escape special SQL characters when input validation is not sufficient",
			"Apply principle of least privilege to database accounts",
			"Use Web Application Firewall (WAF) rules to detect SQL injection patterns",
		},
		References: []string{
			"OWASP SQL Injection: https://owasp.org/www-community/attacks/SQL_Injection",
			"OWASP Top 10 2021 - A03:2021 Injection",
		},
	},
	familyXSS: {
		Summary: "Attackers can inject malicious scripts that execute in users' browsers, stealing cookies, sessions, or performing actions on behalf of users.",
		Steps: []string{
			"Encode all user input based on context (HTML, JavaScript, URL, CSS)",
			"Use Content Security Policy (CSP) headers to restrict script execution",
			"Implement input validation and output encoding",
			"Use security-focused templating engines that auto-encode by default",
			"Sanitize HTML input using libraries like DOMPurify or bleach",
			"Regularly update and patch client-side dependencies",
		},
		References: []string{
			"OWASP XSS Prevention Cheat Sheet",
			"OWASP Top 10 2021 - A03:2021 Injection",
		},
	},
	familyCSRF: {
		Summary: "Attackers can trick authenticated users into performing unwanted actions on other websites.",
		Steps: []string{
			"Implement CSRF tokens for all state-changing requests",
			"Use SameSite cookie attribute (Strict or Lax)",
			"Verify Origin and Referer headers",
			"Use POST instead of GET for sensitive operations",
			"Implement double-submit cookie pattern as backup",
			"Use framework built-in CSRF protection mechanisms",
		},
		References: []string{
			"OWASP CSRF Prevention Cheat Sheet",
			"SameSite Cookie Explained: https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers/Set-Cookie/SameSite",
		},
	},
	familyCMD: {
		Summary: "Attackers can execute arbitrary system commands on the server, potentially compromising the entire system.",
		Steps: []string{
			"Avoid using shell execution functions (exec, system, passthru)",
			"Use library functions that don't invoke shells when available",
			"Implement strict input validation and whitelist allowed commands",
			"Use parameterized system calls",
			"Run application with minimal necessary privileges",
			"Disable unnecessary system functions in PHP/other languages",
		},
		References: []string{
			"OWASP Command Injection: https://owasp.org/www-community/attacks/Command_Injection",
			"CWE-78: OS Command Injection",
		},
	},
	familyTraversal: {
		Summary: "Attackers can access files outside the intended directory, potentially exposing sensitive system files.",
		Steps: []string{
			"Canonicalize file paths and check against allowed directory",
			"Use whitelisting for allowed file paths",
			"Avoid user input in file paths when possible",
			"Use secure file path handling libraries",
			"Implement proper file access controls and permissions",
			"Run application with minimal file system access",
		},
		References: []string{
			"OWASP Path Traversal: https://owasp.org/www-community/attacks/Path_Traversal",
			"CWE-22: Improper Limitation of a Pathname to a Restricted Directory",
		},
	},
	familyXXE: {
		Summary: "Attackers can make the XML parser resolve external entities, reading local files or reaching internal services.",
		Steps: []string{
			"Disable DTD processing and external entity resolution in every XML parser",
			"Prefer simpler data formats such as JSON where possible",
			"Upgrade XML libraries to versions with safe defaults",
			"Validate incoming XML against a strict schema",
			"Reject documents that declare a DOCTYPE",
		},
		References: []string{
			"OWASP XML External Entity Prevention Cheat Sheet",
			"CWE-611: Improper Restriction of XML External Entity Reference",
		},
	},
	familySSRF: {
		Summary: "Attackers can make the server issue requests to internal or cloud metadata endpoints on their behalf.",
		Steps: []string{
			"Validate and allow-list destination hosts and schemes",
			"Resolve hostnames and block loopback, link-local and private ranges",
			"Disable unused URL schemes such as file, gopher and dict",
			"Do not return raw upstream responses to the client",
			"Isolate outbound fetchers in a network segment without internal access",
		},
		References: []string{
			"OWASP SSRF Prevention Cheat Sheet",
			"CWE-918: Server-Side Request Forgery",
		},
	},
}
