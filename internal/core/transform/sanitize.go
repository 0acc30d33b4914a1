package transform

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxCellRunes caps cell text so exported sheets stay readable
const maxCellRunes = 490

var tagRE = regexp.MustCompile(`<[^>]*>`)

// Sanitize strips markup tags, squeezes whitespace, normalizes to NFC and
// truncates to the cell limit. Empty and whitespace-only inputs yield ""
func Sanitize(s string) string {
	s = tagRE.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")
	s = norm.NFC.String(s)
	if r := []rune(s); len(r) > maxCellRunes {
		s = string(r[:maxCellRunes])
	}
	return s
}
