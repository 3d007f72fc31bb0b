package parser

// FormSource records where a form was discovered.
type FormSource string

const (
	// SourceHTML is a <form> element.
	SourceHTML FormSource = "html"
	// SourceScript is an API call found in an inline script.
	SourceScript FormSource = "script"
)

// Form represents a form or script-derived request target.
type Form struct {
	Action string     `json:"action"`
	Method string     `json:"method"`
	Name   string     `json:"name,omitempty"`
	ID     string     `json:"id,omitempty"`
	Fields []Field    `json:"fields"`
	Source FormSource `json:"source"`
}

// FieldNames returns the non-empty field names in document order.
func (f Form) FieldNames() []string {
	names := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		if field.Name != "" {
			names = append(names, field.Name)
		}
	}
	return names
}

// Field represents a named input.
type Field struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Value  string `json:"value,omitempty"`
	ID     string `json:"id,omitempty"`
	Hidden bool   `json:"hidden,omitempty"`
}

// ParseResult contains the result of parsing an HTML document.
type ParseResult struct {
	Links   []string
	Forms   []Form
	Inputs  []Field
	Scripts []string // inline script bodies
}
