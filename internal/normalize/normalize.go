// Package normalize canonicalises user-supplied text before it is stored or
// compared, so that visually identical names match exactly.
package normalize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Text trims surrounding whitespace and converts s to Unicode NFC.
// Case is preserved: names stay case-sensitive.
func Text(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// IsBlank reports whether s is empty once whitespace is removed.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
