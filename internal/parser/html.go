// Package parser extracts forms, inputs, links and script API calls from
// crawled markup.
package parser

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/PentesterFlow/NetScan/internal/scope"
)

// placeholderHints mark unnamed-looking inputs worth testing.
var placeholderHints = []string{"email", "username", "password", "search", "query", "name"}

var (
	onclickAbsRe  = regexp.MustCompile(`https?://[^\s'"<>()]+`)
	onclickPathRe = regexp.MustCompile(`['"](/[^'"\s]*)['"]`)
)

// HTMLParser parses HTML documents fetched from a single page URL.
type HTMLParser struct {
	baseURL *url.URL
	js      *JSParser
}

// NewHTMLParser creates a parser that resolves references against pageURL.
func NewHTMLParser(pageURL string) (*HTMLParser, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &HTMLParser{baseURL: u, js: NewJSParser()}, nil
}

// Parse parses an HTML document.
func (p *HTMLParser) Parse(html string) (*ParseResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links:   p.extractLinks(doc),
		Forms:   make([]Form, 0),
		Scripts: make([]string, 0),
	}

	doc.Find("form").Each(func(i int, s *goquery.Selection) {
		result.Forms = append(result.Forms, p.parseForm(s))
	})

	doc.Find("script").Each(func(i int, s *goquery.Selection) {
		if _, external := s.Attr("src"); external {
			return
		}
		if body := strings.TrimSpace(s.Text()); body != "" {
			result.Scripts = append(result.Scripts, body)
		}
	})
	result.Forms = append(result.Forms, p.scriptForms(result.Scripts)...)

	result.Inputs = p.extractInputs(doc)

	return result, nil
}

// parseForm parses a form element.
func (p *HTMLParser) parseForm(s *goquery.Selection) Form {
	form := Form{
		Fields: make([]Field, 0),
		Source: SourceHTML,
	}

	form.Action = p.resolveAction(s.AttrOr("action", ""))

	form.Method = strings.ToUpper(strings.TrimSpace(s.AttrOr("method", "")))
	if form.Method == "" {
		form.Method = "GET"
	}

	form.Name, _ = s.Attr("name")
	form.ID, _ = s.Attr("id")

	s.Find("input, textarea, select").Each(func(i int, input *goquery.Selection) {
		if field, ok := parseField(input); ok {
			form.Fields = append(form.Fields, field)
		}
	})

	return form
}

// parseField returns the field for a named input element.
func parseField(s *goquery.Selection) (Field, bool) {
	name := strings.TrimSpace(s.AttrOr("name", ""))
	if name == "" {
		return Field{}, false
	}

	field := Field{
		Name:  name,
		Type:  strings.ToLower(s.AttrOr("type", "text")),
		Value: s.AttrOr("value", ""),
		ID:    s.AttrOr("id", ""),
	}
	switch {
	case s.Is("textarea"):
		field.Type = "textarea"
		field.Value = strings.TrimSpace(s.Text())
	case s.Is("select"):
		field.Type = "select"
		field.Value = s.Find("option").First().AttrOr("value", "")
	case field.Type == "":
		field.Type = "text"
	}
	field.Hidden = field.Type == "hidden"

	return field, true
}

// extractInputs gathers named inputs, test-id elements and placeholder
// hints, deduplicated by name in document order.
func (p *HTMLParser) extractInputs(doc *goquery.Document) []Field {
	inputs := make([]Field, 0)
	seen := make(map[string]struct{})
	add := func(f Field) {
		if f.Name == "" {
			return
		}
		if _, ok := seen[f.Name]; ok {
			return
		}
		seen[f.Name] = struct{}{}
		inputs = append(inputs, f)
	}

	doc.Find("input, textarea, select").Each(func(i int, s *goquery.Selection) {
		if field, ok := parseField(s); ok {
			add(field)
		}
	})

	doc.Find("[data-testid], [data-test], [data-cy]").Each(func(i int, s *goquery.Selection) {
		testID := firstAttr(s, "data-testid", "data-test", "data-cy")
		name := firstAttr(s, "name", "id")
		if name == "" {
			name = testID
		}
		add(Field{
			Name: strings.TrimSpace(name),
			Type: strings.ToLower(s.AttrOr("type", "text")),
			ID:   s.AttrOr("id", ""),
		})
	})

	doc.Find("[placeholder]").Each(func(i int, s *goquery.Selection) {
		placeholder := strings.ToLower(s.AttrOr("placeholder", ""))
		hint := ""
		for _, h := range placeholderHints {
			if strings.Contains(placeholder, h) {
				hint = h
				break
			}
		}
		if hint == "" {
			return
		}

		name := firstAttr(s, "name", "id")
		if name == "" {
			name = hint
		}
		add(Field{
			Name: strings.TrimSpace(name),
			Type: strings.ToLower(s.AttrOr("type", "text")),
			ID:   s.AttrOr("id", ""),
		})
	})

	return inputs
}

// extractLinks collects same-origin links from anchors, onclick handlers
// and data-url style attributes.
func (p *HTMLParser) extractLinks(doc *goquery.Document) []string {
	links := make([]string, 0)
	seen := make(map[string]struct{})
	add := func(href string) {
		resolved := p.resolve(href)
		if resolved == "" {
			return
		}
		if _, ok := seen[resolved]; ok {
			return
		}
		seen[resolved] = struct{}{}
		links = append(links, resolved)
	}

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		add(s.AttrOr("href", ""))
	})

	doc.Find("[onclick]").Each(func(i int, s *goquery.Selection) {
		handler := s.AttrOr("onclick", "")
		for _, m := range onclickAbsRe.FindAllString(handler, -1) {
			add(m)
		}
		for _, m := range onclickPathRe.FindAllStringSubmatch(handler, -1) {
			add(m[1])
		}
	})

	doc.Find("[data-url], [data-href], [data-link]").Each(func(i int, s *goquery.Selection) {
		for _, attr := range []string{"data-url", "data-href", "data-link"} {
			if v, ok := s.Attr(attr); ok {
				add(v)
			}
		}
	})

	return links
}

// scriptForms turns API calls in inline scripts into field-less forms.
func (p *HTMLParser) scriptForms(scripts []string) []Form {
	forms := make([]Form, 0)
	seen := make(map[string]struct{})

	for _, body := range scripts {
		for _, call := range p.js.ExtractAPICalls(body) {
			action := p.resolve(call.Path)
			if action == "" {
				continue
			}
			key := call.Method + " " + action
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}

			forms = append(forms, Form{
				Action: action,
				Method: call.Method,
				Fields: make([]Field, 0),
				Source: SourceScript,
			})
		}
	}

	return forms
}

// resolve turns href into an absolute, fragment-free, same-origin URL.
// It returns "" for anything the crawler must not follow.
func (p *HTMLParser) resolve(href string) string {
	href = strings.TrimSpace(href)
	if scope.IsSkippableLink(href) {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if !strings.EqualFold(resolved.Host, p.baseURL.Host) {
		return ""
	}

	return resolved.String()
}

// resolveAction resolves a form action against the page URL. An empty
// action submits to the page itself.
func (p *HTMLParser) resolveAction(action string) string {
	action = strings.TrimSpace(action)
	if action == "" {
		return scope.StripFragment(p.baseURL.String())
	}

	ref, err := url.Parse(action)
	if err != nil {
		return scope.StripFragment(p.baseURL.String())
	}

	resolved := p.baseURL.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved.String()
}

func firstAttr(s *goquery.Selection, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(s.AttrOr(name, "")); v != "" {
			return v
		}
	}
	return ""
}
