// internal/form/text.go
package form

import (
	"strings"
	"unicode"
)

// normalize lower-cases s, splits camelCase identifiers and collapses every
// run of separators into a single space, so "phoneNumber-country_code"
// becomes "phone number country code".
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	var prev rune
	space := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '@':
			if unicode.IsUpper(r) && unicode.IsLower(prev) && !space {
				b.WriteByte(' ')
			}
			b.WriteRune(unicode.ToLower(r))
			space = false
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
		prev = r
	}
	return strings.TrimSpace(b.String())
}

// hasWord reports whether any of words appears as a whole token of text.
// text must already be normalized.
func hasWord(text string, words ...string) bool {
	for _, tok := range strings.Fields(text) {
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}

// hasPhrase reports whether any phrase appears on token boundaries.
func hasPhrase(text string, phrases ...string) bool {
	padded := " " + text + " "
	for _, p := range phrases {
		if strings.Contains(padded, " "+p+" ") {
			return true
		}
	}
	return false
}

// hasPrefixWord reports whether any token starts with one of prefixes.
func hasPrefixWord(text string, prefixes ...string) bool {
	for _, tok := range strings.Fields(text) {
		for _, p := range prefixes {
			if strings.HasPrefix(tok, p) {
				return true
			}
		}
	}
	return false
}
