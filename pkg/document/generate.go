package document

import (
	"strings"
)

// valueColumn is the 0-indexed column values are aligned to on single-line
// fields. Names too long for the column fall back to two spaces.
const valueColumn = 35

const lineLimit = 80

// Generate renders the document back to CIF text, preserving block order.
// Deprecated-section lines pass through verbatim.
func (d *Document) Generate() string {
	var lines []string

	for i, b := range d.blocks {
		switch b.kind {
		case blockHeader, blockComment, blockDeprecated:
			lines = append(lines, b.text)
		case blockEmpty:
			lines = append(lines, "")
		case blockField:
			lines = append(lines, formatField(b.field)...)
		case blockLoop:
			lines = append(lines, formatLoop(b.loop)...)
			// Keep a separating blank line after loop data.
			if i+1 >= len(d.blocks) || d.blocks[i+1].kind != blockEmpty {
				lines = append(lines, "")
			}
		}
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// ReformatLineLength re-decides single-vs-multiline rendering for every
// scalar field by the 80-column rule and regenerates the text. A trailing
// deprecated section is preserved byte for byte.
func ReformatLineLength(content string) (string, error) {
	if start := deprecatedSectionStart(content); start >= 0 {
		lines := strings.Split(content, "\n")
		active := lines[:start]
		for len(active) > 0 && strings.TrimSpace(active[len(active)-1]) == "" {
			active = active[:len(active)-1]
		}

		reformatted, err := reformatActive(strings.Join(active, "\n"))
		if err != nil {
			return "", err
		}
		return reformatted + "\n\n" + strings.Join(lines[start:], "\n"), nil
	}
	return reformatActive(content)
}

func reformatActive(content string) (string, error) {
	doc, err := Parse(content)
	if err != nil {
		return "", err
	}
	for _, field := range doc.fields {
		if field.InLoop || !field.HasValue {
			continue
		}
		field.Multiline = shouldUseMultiline(field.Name, field.Value)
	}
	return doc.Generate(), nil
}

// deprecatedSectionStart finds the border line opening a deprecated section,
// or -1.
func deprecatedSectionStart(content string) int {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "##########") &&
			i+1 < len(lines) && strings.Contains(lines[i+1], "DEPRECATED FIELDS") {
			return i
		}
	}
	return -1
}

func formatField(field *Field) []string {
	if field.InLoop || !field.HasValue {
		return []string{field.Name}
	}

	if field.Multiline || shouldUseMultiline(field.Name, field.Value) {
		lines := []string{field.Name, ";"}
		for _, bodyLine := range strings.Split(field.Value, "\n") {
			if len(bodyLine) <= lineLimit {
				lines = append(lines, bodyLine)
			} else {
				lines = append(lines, breakLongLine(bodyLine, lineLimit)...)
			}
		}
		return append(lines, ";")
	}

	formatted := field.Value
	if formatted == "" {
		formatted = "?"
	} else if needsQuotes(formatted) {
		formatted = "'" + formatted + "'"
	}

	line := field.Name + alignSpacing(field.Name) + formatted
	if len(line) <= lineLimit {
		return []string{line}
	}
	return []string{field.Name, ";", field.Value, ";"}
}

func alignSpacing(name string) string {
	if len(name) < valueColumn-1 {
		return strings.Repeat(" ", valueColumn-len(name))
	}
	return "  "
}

func formatLoop(loop *Loop) []string {
	lines := []string{"loop_"}
	lines = append(lines, loop.FieldNames...)

	for _, row := range loop.Rows {
		var formatted []string
		for _, value := range row {
			switch {
			case value == "":
				formatted = append(formatted, "?")
			case strings.Contains(value, "\n"):
				formatted = append(formatted, ";")
				formatted = append(formatted, strings.Split(value, "\n")...)
				formatted = append(formatted, ";")
			case needsQuotes(value):
				formatted = append(formatted, "'"+value+"'")
			default:
				formatted = append(formatted, value)
			}
		}
		lines = appendDataRow(lines, formatted)
	}
	return lines
}

// appendDataRow emits one logical row, wrapping at the line limit. Wrapped
// continuation lines get a leading space so they cannot be mistaken for
// field definitions. Semicolon blocks interrupt the wrapping and stand on
// their own lines.
func appendDataRow(lines []string, values []string) []string {
	var current []string
	currentLen := 0
	first := true

	flush := func() {
		if len(current) == 0 {
			return
		}
		if first {
			lines = append(lines, strings.Join(current, " "))
			first = false
		} else {
			lines = append(lines, " "+strings.Join(current, " "))
		}
		current = nil
		currentLen = 0
	}

	i := 0
	for i < len(values) {
		value := values[i]
		if value == ";" {
			flush()
			lines = append(lines, ";")
			i++
			for i < len(values) && values[i] != ";" {
				lines = append(lines, values[i])
				i++
			}
			if i < len(values) {
				lines = append(lines, ";")
				i++
			}
			continue
		}

		spaceNeeded := 0
		if len(current) > 0 {
			spaceNeeded = 1
		}
		prefix := 0
		if !first {
			prefix = 1
		}
		if currentLen+spaceNeeded+len(value)+prefix <= lineLimit {
			current = append(current, value)
			currentLen += spaceNeeded + len(value)
		} else {
			flush()
			current = []string{value}
			currentLen = len(value)
		}
		i++
	}
	flush()
	return lines
}

// needsQuotes reports whether a scalar value must be quoted: embedded
// whitespace or commas, or a leading character CIF gives meaning to.
func needsQuotes(value string) bool {
	if value == "" {
		return false
	}
	return strings.ContainsAny(value, " ,") ||
		strings.HasPrefix(value, ";") || strings.HasPrefix(value, "#") ||
		strings.HasPrefix(value, "'") || strings.HasPrefix(value, "\"")
}

// shouldUseMultiline decides the rendering of a scalar: embedded newlines
// always, otherwise whenever the rendered single line would overflow.
func shouldUseMultiline(name, value string) bool {
	if value == "" {
		return false
	}
	if strings.Contains(value, "\n") {
		return true
	}
	formatted := value
	if needsQuotes(value) {
		formatted = "'" + value + "'"
	}
	return len(name)+4+len(formatted) > lineLimit
}

// breakLongLine splits text at word boundaries so no piece exceeds limit.
func breakLongLine(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var lines []string
	var current []string
	currentLen := 0
	for _, word := range strings.Fields(text) {
		spaceNeeded := 0
		if len(current) > 0 {
			spaceNeeded = 1
		}
		if currentLen+spaceNeeded+len(word) <= limit {
			current = append(current, word)
			currentLen += spaceNeeded + len(word)
		} else {
			if len(current) > 0 {
				lines = append(lines, strings.Join(current, " "))
			}
			current = []string{word}
			currentLen = len(word)
		}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, " "))
	}
	return lines
}
