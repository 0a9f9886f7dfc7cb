package apperror

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Messages maps "field.tag" (or just "field") to the text returned for that failure.
type Messages map[string]string

func (m Messages) lookup(field, tag string) string {
	if msg, ok := m[field+"."+tag]; ok {
		return msg
	}
	if msg, ok := m[field]; ok {
		return msg
	}

	human := formatFieldName(field)
	if tag == "required" {
		return human + " is required"
	}
	return human + " is invalid"
}

// formatFieldName turns a json field name into a title: phoneNumber -> Phone Number.
func formatFieldName(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r == '_' {
			b.WriteRune(' ')
			continue
		}
		if i > 0 && unicode.IsUpper(r) {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}

	caser := cases.Title(language.English)
	return caser.String(b.String())
}

// MapValidationError converts validator.ValidationErrors into a *ValidationError.
// The first failing rule of each field wins. Other errors are returned unchanged.
func MapValidationError(err error, messages Messages) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	out := NewValidationError(nil)
	for _, e := range errs {
		out.Add(e.Field(), messages.lookup(e.Field(), e.Tag()))
	}
	return out
}
