// Package naming derives TypeScript identifiers from document names.
package naming

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// IsIdentifier reports whether s can be used bare as a TS identifier or
// property key.
func IsIdentifier(s string) bool { return identRe.MatchString(s) }

// words splits s on anything that is not a letter or digit.
func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Pascal converts s to PascalCase. Existing inner capitals are kept, so
// "petType" becomes "PetType" and "pet-store_api" becomes "PetStoreApi".
// A result starting with a digit gets a "_" prefix.
func Pascal(s string) string {
	return guardDigit(titleWords(s))
}

// Camel converts s to camelCase, with the same digit guard as Pascal.
func Camel(s string) string {
	p := titleWords(s)
	if p == "" {
		return ""
	}
	runes := []rune(p)
	lead := 1
	// Lower a leading acronym as a unit: "HTTPServer" -> "httpServer".
	for lead < len(runes) && unicode.IsUpper(runes[lead]) {
		if lead+1 < len(runes) && unicode.IsLower(runes[lead+1]) {
			break
		}
		lead++
	}
	return guardDigit(cases.Lower(language.Und).String(string(runes[:lead])) + string(runes[lead:]))
}

func titleWords(s string) string {
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words(s) {
		b.WriteString(title.String(w))
	}
	return b.String()
}

func guardDigit(s string) string {
	if s != "" && s[0] >= '0' && s[0] <= '9' {
		return "_" + s
	}
	return s
}
