package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeLabel maps a label into the canonical key space: NFKC folded, lower case,
// punctuation removed, whitespace collapsed to single spaces. It is idempotent.
func NormalizeLabel(label string) string {
	folded := strings.ToLower(norm.NFKC.String(label))

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// tagLabel turns a canonical tag into label wording: COUPON_RATE -> "coupon rate".
func tagLabel(tag string) string {
	return NormalizeLabel(strings.ReplaceAll(tag, "_", " "))
}

// namespacedKey is the key a field gets when stored under its sheet.
func namespacedKey(sheet, key string) string {
	return NormalizeLabel(sheet) + "." + key
}
