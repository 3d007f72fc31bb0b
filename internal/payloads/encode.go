package payloads

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"html"
	"strings"
)

// Technique is a payload encoding.
type Technique string

// Encodings understood by Obfuscate.
const (
	URLEncode       Technique = "url"
	DoubleURLEncode Technique = "double_url"
	HTMLEncode      Technique = "html"
	Base64Encode    Technique = "base64"
	HexEncode       Technique = "hex"
)

// Techniques lists every supported encoding.
func Techniques() []Technique {
	return []Technique{URLEncode, DoubleURLEncode, HTMLEncode, Base64Encode, HexEncode}
}

// ParseTechnique validates an encoding name.
func ParseTechnique(name string) (Technique, error) {
	t := Technique(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Techniques() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown encoding %q", name)
}

// ParseTechniques validates a comma-separated list of encodings.
func ParseTechniques(list string) ([]Technique, error) {
	var out []Technique
	for _, part := range strings.Split(list, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseTechnique(part)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Obfuscate encodes payload. Unknown techniques return it unchanged.
func Obfuscate(payload string, t Technique) string {
	switch t {
	case URLEncode:
		return Quote(payload)
	case DoubleURLEncode:
		return Quote(Quote(payload))
	case HTMLEncode:
		return html.EscapeString(payload)
	case Base64Encode:
		return base64.StdEncoding.EncodeToString([]byte(payload))
	case HexEncode:
		return "0x" + hex.EncodeToString([]byte(payload))
	}
	return payload
}

// Variants returns payload followed by one encoded copy per technique,
// skipping encodings that leave it unchanged.
func Variants(list []string, techniques []Technique) []string {
	if len(techniques) == 0 {
		return list
	}
	out := make([]string, 0, len(list)*(len(techniques)+1))
	out = append(out, list...)
	for _, p := range list {
		for _, t := range techniques {
			if enc := Obfuscate(p, t); enc != p {
				out = append(out, enc)
			}
		}
	}
	return out
}

const upperhex = "0123456789ABCDEF"

// Quote percent-encodes everything except letters, digits, "_.-~" and "/".
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if shouldKeep(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func shouldKeep(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '_', '.', '-', '~', '/':
		return true
	}
	return false
}
