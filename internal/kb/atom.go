package kb

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeAtom lowercases text and collapses every run of characters
// outside [a-z0-9] into a single underscore, trimming underscores at both ends.
func NormalizeAtom(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	pendingSep := false
	for _, r := range strings.ToLower(text) {
		if isAtomRune(r) && r != '_' {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// IsAtom reports whether s is a non-empty [a-z0-9_]+ token.
func IsAtom(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isAtomRune(r) {
			return false
		}
	}
	return true
}

func isAtomRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
}

// DisplayLabel renders a canonical name atom as "Title Case (ID)".
func DisplayLabel(canonicalName, id string) string {
	name := cases.Title(language.English).String(strings.ReplaceAll(canonicalName, "_", " "))
	return name + " (" + id + ")"
}
