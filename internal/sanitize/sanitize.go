// Package sanitize normalizes the user-supplied names of modules, versions
// and experiments. Names end up in SQLite rows, Redis keys, MongoDB documents
// and the markdown served to MCP clients, so only a narrow character set
// survives.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxNameLength is the maximum length of a sanitized name.
const MaxNameLength = 64

var (
	reRepeatedHyphens     = regexp.MustCompile(`-{2,}`)
	reRepeatedUnderscores = regexp.MustCompile(`_{2,}`)
)

// Name keeps letters, digits, '-', '_' and '.' from input. Whitespace becomes
// a hyphen, control characters and everything else are dropped. Repeated
// hyphens and underscores collapse, separators are trimmed from both ends and
// the result is cut to MaxNameLength. An empty result means nothing usable
// was left.
func Name(input string) string {
	if input == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range stripControlChars(input) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			b.WriteRune('-')
		}
	}
	s := b.String()

	s = reRepeatedHyphens.ReplaceAllString(s, "-")
	s = reRepeatedUnderscores.ReplaceAllString(s, "_")
	s = strings.Trim(s, "-_.")

	if len(s) > MaxNameLength {
		s = strings.TrimRight(s[:MaxNameLength], "-_.")
	}

	return s
}

// Changed reports whether Name would alter input.
func Changed(input string) bool {
	return Name(input) != input
}

// stripControlChars removes ASCII control characters (0x00-0x1F) and DEL,
// except for newline and tab.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r < 0x20 && r != '\n' && r != '\t') || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
