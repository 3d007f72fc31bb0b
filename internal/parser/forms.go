package parser

import (
	"strings"
)

// CSRFTokenPatterns are substrings of hidden field names that indicate an
// anti-forgery token.
var CSRFTokenPatterns = []string{
	"csrf",
	"token",
	"nonce",
	"_token",
	"authenticity_token",
	"request_token",
	"state",
	"verification_token",
}

// stateChangingMethods are the form methods that need forgery protection.
var stateChangingMethods = map[string]struct{}{
	"POST":   {},
	"PUT":    {},
	"DELETE": {},
	"PATCH":  {},
}

// FormType represents the type of form.
type FormType string

const (
	FormTypeLogin    FormType = "login"
	FormTypeSignup   FormType = "signup"
	FormTypeSearch   FormType = "search"
	FormTypeContact  FormType = "contact"
	FormTypePayment  FormType = "payment"
	FormTypeUpload   FormType = "upload"
	FormTypeComment  FormType = "comment"
	FormTypeSettings FormType = "settings"
	FormTypeGeneric  FormType = "generic"
)

// FormAnalyzer classifies forms.
type FormAnalyzer struct{}

// NewFormAnalyzer creates a new form analyzer.
func NewFormAnalyzer() *FormAnalyzer {
	return &FormAnalyzer{}
}

// AnalyzeResult contains form analysis results.
type AnalyzeResult struct {
	Form          Form
	FormType      FormType
	StateChanging bool
	HasCSRF       bool
	CSRFField     string
}

// Analyze performs analysis of a form.
func (a *FormAnalyzer) Analyze(form Form) *AnalyzeResult {
	result := &AnalyzeResult{
		Form:          form,
		FormType:      a.detectFormType(form),
		StateChanging: IsStateChanging(form.Method),
	}
	result.HasCSRF, result.CSRFField = a.detectCSRF(form.Fields)
	return result
}

// IsStateChanging reports whether method is POST, PUT, DELETE or PATCH.
func IsStateChanging(method string) bool {
	_, ok := stateChangingMethods[strings.ToUpper(method)]
	return ok
}

// detectCSRF looks for a hidden field whose lowercased name contains a
// token pattern.
func (a *FormAnalyzer) detectCSRF(fields []Field) (bool, string) {
	for _, field := range fields {
		if !field.Hidden {
			continue
		}

		nameLower := strings.ToLower(field.Name)
		for _, pattern := range CSRFTokenPatterns {
			if strings.Contains(nameLower, pattern) {
				return true, field.Name
			}
		}
	}

	return false, ""
}

// detectFormType determines the type of form.
func (a *FormAnalyzer) detectFormType(form Form) FormType {
	inputNames := make([]string, 0, len(form.Fields))
	inputTypes := make(map[string]int)

	for _, field := range form.Fields {
		inputNames = append(inputNames, strings.ToLower(field.Name))
		inputTypes[field.Type]++
	}

	allNames := strings.Join(inputNames, " ")
	actionLower := strings.ToLower(form.Action)

	// Login form
	if hasPassword(inputTypes) && countInputs(inputTypes) <= 4 {
		for _, ind := range []string{"login", "signin", "sign-in", "log-in", "auth"} {
			if strings.Contains(allNames, ind) || strings.Contains(actionLower, ind) {
				return FormTypeLogin
			}
		}
		if strings.Contains(allNames, "password") &&
			(strings.Contains(allNames, "username") || strings.Contains(allNames, "email")) {
			return FormTypeLogin
		}
	}

	// Signup form
	if hasPassword(inputTypes) && countInputs(inputTypes) > 3 {
		for _, ind := range []string{"signup", "register", "sign-up", "create", "join"} {
			if strings.Contains(allNames, ind) || strings.Contains(actionLower, ind) {
				return FormTypeSignup
			}
		}
		if strings.Contains(allNames, "confirm") || strings.Contains(allNames, "password2") {
			return FormTypeSignup
		}
	}

	if inputTypes["search"] > 0 || strings.Contains(allNames, "search") || strings.Contains(allNames, "query") {
		return FormTypeSearch
	}

	if inputTypes["textarea"] > 0 || strings.Contains(allNames, "message") {
		for _, ind := range []string{"contact", "message", "inquiry", "feedback"} {
			if strings.Contains(allNames, ind) || strings.Contains(actionLower, ind) {
				return FormTypeContact
			}
		}
	}

	for _, ind := range []string{"payment", "checkout", "card", "credit", "billing"} {
		if strings.Contains(allNames, ind) || strings.Contains(actionLower, ind) {
			return FormTypePayment
		}
	}

	if inputTypes["file"] > 0 {
		return FormTypeUpload
	}

	if strings.Contains(allNames, "comment") || strings.Contains(actionLower, "comment") {
		return FormTypeComment
	}

	if strings.Contains(actionLower, "settings") || strings.Contains(actionLower, "profile") ||
		strings.Contains(actionLower, "preferences") {
		return FormTypeSettings
	}

	return FormTypeGeneric
}

func hasPassword(types map[string]int) bool {
	return types["password"] > 0
}

func countInputs(types map[string]int) int {
	total := 0
	for t, count := range types {
		if t != "hidden" && t != "submit" && t != "button" {
			total += count
		}
	}
	return total
}
