package output

import (
	"encoding/json"
	"io"
)

// JSONWriter renders a report as JSON.
type JSONWriter struct {
	pretty bool
}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter(pretty bool) *JSONWriter {
	return &JSONWriter{pretty: pretty}
}

// Format implements Writer.
func (j *JSONWriter) Format() string { return FormatJSON }

// Write implements Writer.
func (j *JSONWriter) Write(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	if j.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(r)
}
