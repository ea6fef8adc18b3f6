// Package catalog filters, sorts and paginates product collections.
package catalog

import (
	"strings"
	"unicode"
)

// NormalizeLabel returns the canonical form of a category or brand label:
// lower-cased, trimmed, with every internal whitespace run replaced by a
// single hyphen. Stored labels and filter input must both go through it.
func NormalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), "-")
}

// SameLabel reports whether two labels normalize to the same value.
func SameLabel(a, b string) bool {
	return NormalizeLabel(a) == NormalizeLabel(b)
}

// Slugify derives a URL-safe slug from a product name. It builds on
// NormalizeLabel and then keeps only letters, digits and single hyphens.
func Slugify(name string) string {
	normalized := NormalizeLabel(name)

	var b strings.Builder
	b.Grow(len(normalized))
	lastHyphen := true
	for _, r := range normalized {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
