package ledger

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName returns the identity key used to aggregate items by name: Unicode
// compatibility-normalized, case folded, trimmed, with inner whitespace collapsed.
// "  GT3576  Turbo " and "gt3576 turbo" share a key.
func NormalizeName(name string) string {
	folded := cases.Fold().String(norm.NFKC.String(name))
	return strings.Join(strings.Fields(folded), " ")
}

// displayName trims and collapses whitespace but keeps the original casing.
func displayName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
