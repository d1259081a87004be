// Package normalize canonicalizes tabular headers so every spelling of
// a column maps to one schema key before any field is read.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, drops nonspacing marks and recomposes.
// This covers every accented Latin letter and the cedilla, unlike a
// literal substitution table.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Key canonicalizes a raw header: trim, lowercase, strip diacritics,
// collapse whitespace runs to single spaces. Idempotent, so normalizing
// an already canonical key is a no-op.
//
//	Key("  Descrição ") == Key("DESCRICAO") == "descricao"
func Key(header string) string {
	s := strings.ToLower(strings.TrimSpace(header))
	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(s), " ")
}
