// Package ident maps arbitrary strings to identifiers that are valid type
// names inside a module image.
package ident

import (
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholder replaces invalid runes and disambiguates keywords
const Placeholder = '_'

// startRunes are valid anywhere in an identifier
var startRunes = []*unicode.RangeTable{
	unicode.Lu, unicode.Ll, unicode.Lt, unicode.Lm, unicode.Lo,
}

// partRunes are valid only after the first position
var partRunes = []*unicode.RangeTable{
	unicode.Nl, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc, unicode.Cf,
}

// IsStart reports whether r may begin an identifier
func IsStart(r rune) bool {
	return r == Placeholder || unicode.IsOneOf(startRunes, r)
}

// IsPart reports whether r may appear after the first position
func IsPart(r rune) bool {
	return IsStart(r) || unicode.IsOneOf(partRunes, r)
}

// Sanitize returns an identifier derived from s. Invalid runes become the
// placeholder. A leading digit gets the placeholder prepended; any other
// leading rune that is only valid after the first position is replaced.
// The empty string becomes the placeholder and keywords get the placeholder
// appended. Sanitize is total and idempotent.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)

	first := true
	for i, w := 0, 0; i < len(s); i += w {
		r, width := utf8.DecodeRuneInString(s[i:])
		w = width
		if r == utf8.RuneError && width <= 1 {
			r = Placeholder
		}

		switch {
		case first && IsStart(r):
			b.WriteRune(r)
		case first && unicode.IsDigit(r):
			b.WriteRune(Placeholder)
			b.WriteRune(r)
		case !first && IsPart(r):
			b.WriteRune(r)
		default:
			b.WriteRune(Placeholder)
		}
		first = false
	}

	if b.Len() == 0 {
		return string(Placeholder)
	}

	out := b.String()
	if token.IsKeyword(out) {
		out += string(Placeholder)
	}
	return out
}

// IsValid reports whether s is already a valid identifier, i.e. whether
// Sanitize(s) == s
func IsValid(s string) bool {
	if s == "" || !utf8.ValidString(s) || token.IsKeyword(s) {
		return false
	}
	for i, r := range s {
		if i == 0 && !IsStart(r) {
			return false
		}
		if !IsPart(r) {
			return false
		}
	}
	return true
}
