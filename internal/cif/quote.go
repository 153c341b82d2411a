package cif

import "strings"

// SpecialChars are the CIF2 bracket characters that force quoting because
// they open list and table values.
const SpecialChars = "[]{}"

var reservedPrefixes = []string{"data_", "loop_", "save_", "global_", "stop_"}

// NeedsQuoting reports whether a single-line value must be quoted in CIF2.
// The bare null ("." ) and unknown ("?") values never need quotes.
func NeedsQuoting(value string) bool {
	if value == "" {
		return true
	}
	if value == "." || value == "?" {
		return false
	}
	if strings.ContainsAny(value, " \t\n\r") {
		return true
	}
	if strings.ContainsAny(value, SpecialChars) {
		return true
	}
	if strings.ContainsAny(value, `'"`) {
		return true
	}
	switch value[0] {
	case '_', '#', '$', ';', '\'', '"':
		return true
	}
	lowered := strings.ToLower(value)
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	return false
}

// QuoteValue wraps a single-line value in the lightest quote style that can
// hold it. Values containing both quote characters fall back to CIF2 triple
// quotes, picking the delimiter that does not collide with the final rune.
func QuoteValue(value string) string {
	if !strings.Contains(value, "'") {
		return "'" + value + "'"
	}
	if !strings.Contains(value, `"`) {
		return `"` + value + `"`
	}
	if strings.HasSuffix(value, "'") {
		return `"""` + value + `"""`
	}
	return "'''" + value + "'''"
}

// FormatValue renders a value for a name/value line: empty becomes '',
// multiline values become semicolon blocks, everything else is quoted only
// when CIF2 requires it.
func FormatValue(value string) string {
	if value == "" {
		return "''"
	}
	if strings.Contains(value, "\n") {
		return FormatMultiline(value, false)
	}
	if NeedsQuoting(value) {
		return QuoteValue(value)
	}
	return value
}

// FormatMultiline renders a multi-line value. The semicolon block form works
// in both CIF versions; preferTriple selects CIF2 triple quotes when the
// value does not contain the delimiter itself.
func FormatMultiline(value string, preferTriple bool) string {
	if preferTriple {
		if !strings.Contains(value, "'''") {
			return "'''\n" + value + "\n'''"
		}
		if !strings.Contains(value, `"""`) {
			return "\"\"\"\n" + value + "\n\"\"\""
		}
	}
	return ";\n" + value + "\n;"
}

// IsTripleQuoted reports whether s opens with a CIF2 triple quote.
func IsTripleQuoted(s string) bool {
	return strings.HasPrefix(s, "'''") || strings.HasPrefix(s, `"""`)
}

// ParseTripleQuoted reads the triple-quoted string starting at start.
// It returns the contents with one leading and one trailing newline
// stripped, and the index just past the closing delimiter.
func ParseTripleQuoted(s string, start int) (string, int, bool) {
	if start+3 > len(s) {
		return "", start, false
	}
	delim := s[start : start+3]
	if delim != "'''" && delim != `"""` {
		return "", start, false
	}
	close := strings.Index(s[start+3:], delim)
	if close < 0 {
		return "", start, false
	}
	content := s[start+3 : start+3+close]
	content = strings.TrimPrefix(content, "\n")
	content = strings.TrimSuffix(content, "\n")
	return content, start + 3 + close + 3, true
}

// ContainsSpecialChars reports whether the value uses CIF2 list or table
// syntax characters.
func ContainsSpecialChars(value string) bool {
	return strings.ContainsAny(value, SpecialChars)
}
