package maintenance

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const maxFieldLen = 120

var strict = bluemonday.StrictPolicy()

// Sanitize strips markup from chat input before it reaches a workbook cell or
// the registry, collapses whitespace and bounds the length.
func Sanitize(s string) string {
	clean := html.UnescapeString(strict.Sanitize(s))
	clean = strings.Join(strings.Fields(clean), " ")
	if r := []rune(clean); len(r) > maxFieldLen {
		clean = string(r[:maxFieldLen])
	}
	return clean
}
