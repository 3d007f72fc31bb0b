// Package output renders scan reports.
package output

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Report formats, also used as file extensions.
const (
	FormatJSON     = "json"
	FormatMarkdown = "md"
	FormatHTML     = "html"
)

// Writer renders a report in one format.
type Writer interface {
	Format() string
	Write(w io.Writer, r *Report) error
}

// Formats lists the formats WriteReports produces by default.
func Formats() []string {
	return []string{FormatJSON, FormatMarkdown, FormatHTML}
}

// NewWriter returns the writer for format.
func NewWriter(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case FormatJSON:
		return NewJSONWriter(true), nil
	case FormatMarkdown, "markdown":
		return NewMarkdownWriter()
	case FormatHTML:
		return NewHTMLWriter()
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// BaseName returns NETSCAN_<host>_<timestamp> for target scanned at t.
// Dots and colons in the host become underscores.
func BaseName(target string, t time.Time) string {
	host := "target"
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		host = strings.NewReplacer(".", "_", ":", "_").Replace(u.Host)
	}
	return fmt.Sprintf("NETSCAN_%s_%s", host, t.Format("20060102_150405"))
}

// WriteReports renders r into dir in each format (all formats when none
// are given) and returns the written paths.
func WriteReports(dir string, r *Report, formats ...string) ([]string, error) {
	if len(formats) == 0 {
		formats = Formats()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}

	stamp := r.ScanInfo.ScanDate
	if stamp.IsZero() {
		stamp = time.Now()
	}
	base := BaseName(r.ScanInfo.Target, stamp)

	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		w, err := NewWriter(format)
		if err != nil {
			return paths, err
		}

		var buf bytes.Buffer
		if err := w.Write(&buf, r); err != nil {
			return paths, err
		}

		path := filepath.Join(dir, base+"."+w.Format())
		if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
			return paths, fmt.Errorf("write %s report: %w", w.Format(), err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
