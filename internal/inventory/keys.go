package inventory

import (
	"strings"

	"golang.org/x/text/cases"
)

var keyFolder = cases.Fold()

// NormalizeKey derives the unique aggregate key from an item name: trimmed
// and Unicode case-folded, so "Paracetamol " and "paracetamol" share a row.
func NormalizeKey(name string) string {
	return keyFolder.String(strings.TrimSpace(name))
}
