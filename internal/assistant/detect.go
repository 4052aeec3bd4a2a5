package assistant

import (
	"strings"
	"unicode/utf8"
)

// MinDetectLength is the code length (in characters) that must be exceeded
// before detection is attempted.
const MinDetectLength = 20

// LanguageRule maps a set of tell-tale substrings to a language tag.
type LanguageRule struct {
	Language string
	Needles  []string
}

// Matches reports whether code contains any of the rule's needles.
func (r LanguageRule) Matches(code string) bool {
	for _, n := range r.Needles {
		if strings.Contains(code, n) {
			return true
		}
	}
	return false
}

// LanguageRules are evaluated in order and the first match wins. Rules are
// not mutually exclusive: Python-looking code that also contains `<div`
// is tagged PYTHON because that rule comes first.
var LanguageRules = []LanguageRule{
	{Language: "PYTHON", Needles: []string{"def ", "import os"}},
	{Language: "TYPESCRIPT", Needles: []string{"interface ", ": string"}},
	{Language: "REACT", Needles: []string{"<div", "className"}},
}

// DetectLanguage guesses the language of code. It is a best-effort hint,
// not an authority: ok is false when the code is too short or no rule
// matches.
func DetectLanguage(code string) (language string, ok bool) {
	if utf8.RuneCountInString(code) <= MinDetectLength {
		return "", false
	}
	for _, r := range LanguageRules {
		if r.Matches(code) {
			return r.Language, true
		}
	}
	return "", false
}
