// Package textnorm normalizes free text typed by people into spreadsheets:
// Unicode composition, control characters, whitespace and Vietnamese diacritics.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Clean returns s in NFC form with control characters removed, runs of
// whitespace collapsed to one space and the ends trimmed.
func Clean(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
			continue
		case unicode.IsControl(r) || r == '\u200b' || r == '\ufeff':
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// Fold returns a lowercase, diacritic-free form of s used for matching.
// "Giảng viên Hướng Dẫn" and "giang vien huong dan" fold to the same value.
func Fold(s string) string {
	s = Clean(s)
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.NewReplacer("đ", "d", "Đ", "d").Replace(folded)
	return strings.ToLower(folded)
}

// ContainsFold reports whether needle occurs in haystack after folding both.
func ContainsFold(haystack, needle string) bool {
	n := Fold(needle)
	if n == "" {
		return false
	}
	return strings.Contains(Fold(haystack), n)
}

// EqualFold compares two strings after folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// IsBlank reports whether s has no visible content.
func IsBlank(s string) bool {
	return Clean(s) == ""
}
