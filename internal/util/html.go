package util

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	brRe         = regexp.MustCompile(`(?i)<br\s*/?\s*>`)
	blockRe      = regexp.MustCompile(`(?i)</?(?:p|div|h[1-6]|blockquote|ul|ol|li|table|tr)(?:\s[^>]*)?\s*>`)
	spacesRe     = regexp.MustCompile(`[^\S\n]+`)
	blankLinesRe = regexp.MustCompile(`\n{2,}`)
)

// StripHTML flattens an HTML fragment to plain terminal text. Booking
// servers wrap their error messages in markup; toasts and logs want
// the words only.
func StripHTML(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = brRe.ReplaceAllString(s, "\n")
	s = blockRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = spacesRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}
