package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds case, accents and punctuation so "São Paulo",
// "sao-paulo" and "SAO PAULO." compare equal
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	space := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}

// SameName compares two names after normalisation
func SameName(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// ContainsName reports whether list holds name after normalisation
func ContainsName(list []string, name string) bool {
	n := NormalizeName(name)
	if n == "" {
		return false
	}
	for _, item := range list {
		if NormalizeName(item) == n {
			return true
		}
	}
	return false
}
