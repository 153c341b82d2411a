package cif

import (
	"strings"
)

// ReplaceField rewrites occurrences of oldName with newName, matching whole
// tokens at the start of a line only. Semicolon text blocks and everything
// after the deprecated section marker are left untouched. max limits the
// number of replacements; max <= 0 means unlimited. Returns the new content
// and the number of lines changed.
func ReplaceField(content, oldName, newName string, max int) (string, int) {
	lines := strings.Split(content, "\n")
	replaced := 0

	inTextBlock := false
	inDeprecated := false

	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, ";") {
			inTextBlock = !inTextBlock
			continue
		}
		if inTextBlock {
			continue
		}
		if strings.HasPrefix(stripped, "#") {
			if strings.Contains(stripped, "DEPRECATED FIELDS") {
				inDeprecated = true
			}
			continue
		}
		if inDeprecated {
			continue
		}
		if max > 0 && replaced >= max {
			break
		}

		token, ok := FieldToken(line)
		if !ok || !strings.EqualFold(token, oldName) {
			continue
		}
		idx := strings.Index(line, token)
		lines[i] = line[:idx] + newName + line[idx+len(token):]
		replaced++
	}

	return strings.Join(lines, "\n"), replaced
}

// RemoveFieldLines deletes every line whose leading token matches name,
// together with any semicolon block or bare continuation line holding its
// value. Loop headers are removed as lines only; use RemoveLoopColumn when
// the data rows must shrink too. Returns content and removed line count.
func RemoveFieldLines(content, name string) (string, int) {
	lines := strings.Split(content, "\n")
	keep := make([]string, 0, len(lines))
	removed := 0

	inTextBlock := false
	i := 0
	for i < len(lines) {
		line := lines[i]
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, ";") {
			inTextBlock = !inTextBlock
			keep = append(keep, line)
			i++
			continue
		}
		if inTextBlock {
			keep = append(keep, line)
			i++
			continue
		}

		token, ok := FieldToken(line)
		if !ok || !strings.EqualFold(token, name) {
			keep = append(keep, line)
			i++
			continue
		}

		span := valueSpan(lines, i)
		i += 1 + span
		removed++
	}

	return strings.Join(keep, "\n"), removed
}

// valueSpan reports how many lines after index i belong to the value of the
// simple field on line i: a semicolon block, or one bare value line when the
// field line has no inline value.
func valueSpan(lines []string, i int) int {
	line := lines[i]
	token, ok := FieldToken(line)
	if !ok {
		return 0
	}
	rest := strings.TrimSpace(line[strings.Index(line, token)+len(token):])
	if rest != "" {
		return 0
	}
	if i+1 >= len(lines) {
		return 0
	}

	next := strings.TrimSpace(lines[i+1])
	if strings.HasPrefix(next, ";") {
		span := 1
		for j := i + 2; j < len(lines); j++ {
			span++
			if strings.HasPrefix(strings.TrimSpace(lines[j]), ";") {
				break
			}
		}
		return span
	}
	if next != "" && !strings.HasPrefix(next, "_") && !strings.HasPrefix(next, "#") && !IsConstruct(lines[i+1]) {
		return 1
	}
	return 0
}

// KeepFirstOccurrence removes every occurrence line of name except the
// first, outside text blocks. Values spanning extra lines are removed with
// their field line. Returns content and the number of occurrences dropped.
func KeepFirstOccurrence(content, name string) (string, int) {
	lines := strings.Split(content, "\n")
	keep := make([]string, 0, len(lines))
	removed := 0
	seen := false

	inTextBlock := false
	i := 0
	for i < len(lines) {
		line := lines[i]
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, ";") {
			inTextBlock = !inTextBlock
			keep = append(keep, line)
			i++
			continue
		}
		if inTextBlock {
			keep = append(keep, line)
			i++
			continue
		}

		token, ok := FieldToken(line)
		if !ok || !strings.EqualFold(token, name) {
			keep = append(keep, line)
			i++
			continue
		}
		if !seen {
			seen = true
			keep = append(keep, line)
			i++
			continue
		}

		span := valueSpan(lines, i)
		i += 1 + span
		removed++
	}

	return strings.Join(keep, "\n"), removed
}

// SplitRow tokenises a loop data row, honouring single and double quoted
// values so embedded whitespace survives as one token. Quote characters stay
// attached to their token.
func SplitRow(line string) []string {
	var out []string
	i := 0
	n := len(line)
	for i < n {
		for i < n && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= n {
			break
		}
		start := i
		if line[i] == '\'' || line[i] == '"' {
			quote := line[i]
			i++
			for i < n {
				if line[i] == quote && (i+1 >= n || line[i+1] == ' ' || line[i+1] == '\t') {
					i++
					break
				}
				i++
			}
		} else {
			for i < n && line[i] != ' ' && line[i] != '\t' {
				i++
			}
		}
		out = append(out, line[start:i])
	}
	return out
}

// LoopColumns finds the loop containing name and returns the header names in
// order plus the 0-based column index of name. ok is false when name is not
// a loop header in content.
func LoopColumns(content, name string) (headers []string, col int, ok bool) {
	lines := strings.Split(content, "\n")

	inTextBlock := false
	inHeader := false
	var current []string

	flush := func() ([]string, int, bool) {
		for idx, h := range current {
			if strings.EqualFold(h, name) {
				return current, idx, true
			}
		}
		return nil, 0, false
	}

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, ";") {
			inTextBlock = !inTextBlock
			continue
		}
		if inTextBlock || strings.HasPrefix(stripped, "#") {
			continue
		}
		if stripped == "loop_" {
			if inHeader {
				if h, c, found := flush(); found {
					return h, c, true
				}
			}
			inHeader = true
			current = nil
			continue
		}
		if inHeader {
			if strings.HasPrefix(stripped, "_") {
				if token, okTok := FieldToken(line); okTok {
					current = append(current, token)
				}
				continue
			}
			// Header ended; check before moving on.
			if h, c, found := flush(); found {
				return h, c, true
			}
			inHeader = false
			current = nil
		}
	}
	if inHeader {
		if h, c, found := flush(); found {
			return h, c, true
		}
	}
	return nil, 0, false
}

// InLoop reports whether name appears as a loop column header.
func InLoop(content, name string) bool {
	_, _, ok := LoopColumns(content, name)
	return ok
}

// AddField inserts a name/value line after the first data_ block header,
// skipping the version marker and leading comments. Values containing
// whitespace are quoted. Returns the updated content.
func AddField(content, name, value string) string {
	lines := strings.Split(content, "\n")
	formatted := name
	if value != "" {
		v := value
		if strings.ContainsAny(v, " \t") && !strings.HasPrefix(v, "'") && !strings.HasPrefix(v, "\"") {
			v = "'" + v + "'"
		}
		formatted = name + " " + v
	}

	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "data_") {
			out := make([]string, 0, len(lines)+1)
			out = append(out, lines[:i+1]...)
			out = append(out, formatted)
			out = append(out, lines[i+1:]...)
			return strings.Join(out, "\n")
		}
	}

	// No data block; append at the end.
	if strings.HasSuffix(content, "\n") {
		return content + formatted + "\n"
	}
	return content + "\n" + formatted
}
