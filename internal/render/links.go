package render

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// urlPattern matches URL-like substrings in committed text. Escape bytes
// are excluded so a match can never swallow a style-run boundary.
var urlPattern = regexp.MustCompile(`(?:https?|ftp|file)://[^\s\x1b]+|www\.[^\s\x1b]+`)

// trailingPunct is stripped from a match so "see https://x.dev." links
// to https://x.dev, not to the sentence-ending dot.
const trailingPunct = ".,;:!?)]}'\""

// LinkifyLine rewrites URL-like substrings into OSC 8 hyperlinks. The
// surrounding text is preserved exactly, so running the pass over
// identical input always yields identical output.
func LinkifyLine(line string) string {
	if !strings.Contains(line, "://") && !strings.Contains(line, "www.") {
		return line
	}
	return urlPattern.ReplaceAllStringFunc(line, func(match string) string {
		trimmed := strings.TrimRight(match, trailingPunct)
		if trimmed == "" {
			return match
		}
		rest := match[len(trimmed):]

		uri := trimmed
		if strings.HasPrefix(uri, "www.") {
			uri = "http://" + uri
		}
		return ansi.SetHyperlink(uri) + trimmed + ansi.ResetHyperlink() + rest
	})
}
