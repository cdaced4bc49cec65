package toolbar

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	tagPattern      = regexp.MustCompile(`<[^>]*>`)
	entityPattern   = regexp.MustCompile(`&[a-zA-Z0-9#]+;`)
	invalidPattern  = regexp.MustCompile(`[^a-z0-9 _-]`)
	separatorRun    = regexp.MustCompile(`[\s-]+`)
	stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// SanitizeTitle turns a display name into a slug usable in a node id:
// markup removed, accents folded, lowercased, whitespace collapsed to single
// dashes and anything outside [a-z0-9_-] dropped.
func SanitizeTitle(title string) string {
	s := tagPattern.ReplaceAllString(title, "")
	s = entityPattern.ReplaceAllString(s, "")

	if folded, _, err := transform.String(stripDiacritics, s); err == nil {
		s = folded
	}

	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ".", "-")
	s = invalidPattern.ReplaceAllString(s, "")
	s = separatorRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
