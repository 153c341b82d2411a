// Package document is an ordered, editable model of a CIF file. Parse keeps
// every line in place — headers, comments, blank lines, fields, loops, and a
// trailing deprecated section — so Generate can reproduce the file with only
// the edits the caller made. The GUI-style editing operations (value lookup
// and replacement, line-length reformatting, legacy compatibility fields)
// all work on this model rather than on raw text.
package document

import (
	"strings"
)

// Field is one data name with its value as parsed from the file. InLoop
// fields have no scalar value of their own; their data lives in the loop.
type Field struct {
	Name       string
	Value      string
	HasValue   bool
	Multiline  bool
	InLoop     bool
	LineNumber int
}

// Loop is a loop_ construct: its header names and data rows.
type Loop struct {
	FieldNames []string
	Rows       [][]string
	LineNumber int
}

type blockKind int

const (
	blockHeader blockKind = iota
	blockEmpty
	blockComment
	blockDeprecated
	blockField
	blockLoop
)

type block struct {
	kind  blockKind
	text  string
	field *Field
	loop  *Loop
}

// Document holds the parsed file. Field lookup is case-insensitive, as CIF
// data names are.
type Document struct {
	blocks []block
	fields map[string]*Field // keyed by lowercased name
	loops  []*Loop
}

const deprecatedTitle = "# DEPRECATED FIELDS - Retained for legacy software compatibility"

var deprecatedBorder = strings.Repeat("#", 79)

// Parse builds a Document from CIF text. Lines inside a trailing deprecated
// section are kept verbatim and never reparsed as fields.
func Parse(content string) (*Document, error) {
	doc := &Document{fields: make(map[string]*Field)}
	lines := strings.Split(content, "\n")

	inDeprecated := false
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])

		switch {
		case line == "":
			doc.blocks = append(doc.blocks, block{kind: blockEmpty})
			i++

		case strings.HasPrefix(line, "#"):
			doc.blocks = append(doc.blocks, block{kind: blockComment, text: line})
			if strings.Contains(line, "# DEPRECATED FIELDS") {
				inDeprecated = true
			} else if line == deprecatedBorder && inDeprecated {
				// The closing border: the section ends unless more field
				// lines follow.
				if i+1 >= len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[i+1]), "_") {
					inDeprecated = false
				}
			}
			i++

		case isHeaderLine(line):
			doc.blocks = append(doc.blocks, block{kind: blockHeader, text: line})
			i++

		case strings.HasPrefix(strings.ToLower(line), "loop_"):
			loop, consumed := parseLoop(lines, i)
			if loop != nil {
				doc.loops = append(doc.loops, loop)
				doc.blocks = append(doc.blocks, block{kind: blockLoop, loop: loop})
				for _, name := range loop.FieldNames {
					key := strings.ToLower(name)
					if _, exists := doc.fields[key]; !exists {
						doc.fields[key] = &Field{Name: name, InLoop: true, LineNumber: i + 1}
					}
				}
			}
			i += consumed

		case strings.HasPrefix(line, "_"):
			if inDeprecated {
				doc.blocks = append(doc.blocks, block{kind: blockDeprecated, text: line})
				i++
				continue
			}
			field, consumed := parseField(lines, i)
			if field != nil {
				doc.fields[strings.ToLower(field.Name)] = field
				doc.blocks = append(doc.blocks, block{kind: blockField, field: field})
			}
			i += consumed

		default:
			i++
		}
	}
	return doc, nil
}

func isHeaderLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.HasPrefix(lower, "data_") ||
		strings.HasPrefix(lower, "save_") ||
		strings.HasPrefix(lower, "global_") ||
		strings.HasPrefix(lower, "stop_")
}

// parseLoop consumes a loop_ construct: header names, then data rows read by
// column count. Semicolon blocks in the data are one value each.
func parseLoop(lines []string, start int) (*Loop, int) {
	i := start + 1

	var names []string
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") {
			i++
			continue
		}
		if strings.HasPrefix(line, "_") {
			names = append(names, line)
			i++
			continue
		}
		break
	}
	if len(names) == 0 {
		return nil, i - start
	}

	var rows [][]string
	var current []string
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "#") {
			i++
			continue
		}
		if line == "" {
			break
		}
		if strings.HasPrefix(line, "_") || strings.HasPrefix(strings.ToLower(line), "loop_") {
			break
		}

		values, consumed := parseLoopDataLine(lines, i)
		current = append(current, values...)
		i += consumed

		for len(current) >= len(names) {
			rows = append(rows, current[:len(names):len(names)])
			current = current[len(names):]
		}
	}
	if len(current) > 0 {
		for len(current) < len(names) {
			current = append(current, "")
		}
		rows = append(rows, current)
	}

	return &Loop{FieldNames: names, Rows: rows, LineNumber: start + 1}, i - start
}

// parseLoopDataLine reads one physical data line, or a whole semicolon block
// when the line is a lone semicolon.
func parseLoopDataLine(lines []string, start int) ([]string, int) {
	line := strings.TrimSpace(lines[start])
	if line == ";" {
		var body []string
		i := start + 1
		for i < len(lines) {
			if strings.TrimSpace(lines[i]) == ";" {
				i++
				break
			}
			body = append(body, strings.TrimRight(lines[i], " \t"))
			i++
		}
		return []string{strings.Join(body, "\n")}, i - start
	}
	return splitDataLine(line), 1
}

// splitDataLine tokenizes a data line, honoring single and double quotes.
func splitDataLine(line string) []string {
	var values []string
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}

		if line[i] == '\'' || line[i] == '"' {
			quote := line[i]
			i++
			var b strings.Builder
			for i < len(line) && line[i] != quote {
				b.WriteByte(line[i])
				i++
			}
			if i < len(line) {
				i++ // closing quote
			}
			values = append(values, b.String())
			continue
		}

		begin := i
		for i < len(line) && line[i] != ' ' && line[i] != '\t' {
			i++
		}
		values = append(values, line[begin:i])
	}
	return values
}

// parseField consumes one field definition: value on the same line, on the
// next line, or in a semicolon block (possibly with content after the
// opening semicolon).
func parseField(lines []string, start int) (*Field, int) {
	line := strings.TrimSpace(lines[start])

	name, rest := line, ""
	if idx := strings.IndexAny(line, " \t"); idx >= 0 {
		name, rest = line[:idx], line[idx+1:]
	}
	if !strings.HasPrefix(name, "_") || len(name) < 2 {
		return nil, 1
	}

	field := &Field{Name: name, LineNumber: start + 1}

	if strings.TrimSpace(rest) != "" {
		value := strings.TrimSpace(rest)
		switch {
		case value == ";":
			body, consumed := readTextBlock(lines, start+1)
			field.Value, field.HasValue, field.Multiline = body, true, true
			return field, consumed + 1
		case strings.HasPrefix(value, ";") && len(value) > 1:
			body, consumed := readTextBlockInline(lines, start)
			field.Value, field.HasValue, field.Multiline = body, true, true
			return field, consumed
		case isQuoted(value):
			field.Value, field.HasValue = value[1:len(value)-1], true
			return field, 1
		default:
			field.Value, field.HasValue = value, true
			field.Multiline = isMultilineValue(value)
			return field, 1
		}
	}

	// Value may be on the following line.
	if start+1 < len(lines) {
		next := strings.TrimSpace(lines[start+1])
		switch {
		case next == ";":
			body, consumed := readTextBlock(lines, start+2)
			field.Value, field.HasValue, field.Multiline = body, true, true
			return field, consumed + 2
		case strings.HasPrefix(next, ";") && len(next) > 1:
			body, consumed := readTextBlockInline(lines, start+1)
			field.Value, field.HasValue, field.Multiline = body, true, true
			return field, consumed + 1
		case next != "" && !strings.HasPrefix(next, "_"):
			if isQuoted(next) {
				next = next[1 : len(next)-1]
			}
			field.Value, field.HasValue = next, true
			return field, 2
		}
	}

	return field, 1
}

// readTextBlock collects lines until the closing semicolon, starting after
// the opening one. Returns the body and the line count including the
// closing semicolon.
func readTextBlock(lines []string, start int) (string, int) {
	var body []string
	i := start
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == ";" {
			return strings.Join(body, "\n"), i - start + 1
		}
		body = append(body, lines[i])
		i++
	}
	return strings.Join(body, "\n"), i - start
}

// readTextBlockInline handles ";content" where the body starts on the same
// line as the opening semicolon.
func readTextBlockInline(lines []string, start int) (string, int) {
	first := strings.TrimSpace(lines[start])
	first = strings.TrimSpace(strings.TrimPrefix(first, ";"))

	var body []string
	if first != "" {
		body = append(body, first)
	}
	i := start + 1
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == ";" {
			return strings.Join(body, "\n"), i - start + 1
		}
		body = append(body, lines[i])
		i++
	}
	return strings.Join(body, "\n"), i - start
}

func isQuoted(value string) bool {
	if len(value) < 2 {
		return false
	}
	return (value[0] == '\'' && value[len(value)-1] == '\'') ||
		(value[0] == '"' && value[len(value)-1] == '"')
}

func isMultilineValue(value string) bool {
	return strings.Contains(value, "\n") || len(value) > 80
}

// FieldValue returns the scalar value of a field. Loop members and fields
// without a value report false.
func (d *Document) FieldValue(name string) (string, bool) {
	field, ok := d.fields[strings.ToLower(name)]
	if !ok || field.InLoop || !field.HasValue {
		return "", false
	}
	return field.Value, true
}

// HasField reports whether name appears anywhere in the document, loops
// included.
func (d *Document) HasField(name string) bool {
	_, ok := d.fields[strings.ToLower(name)]
	return ok
}

// SetFieldValue updates a field's value, appending a new field block when
// the name is not present yet.
func (d *Document) SetFieldValue(name, value string) {
	key := strings.ToLower(name)
	if field, ok := d.fields[key]; ok {
		field.Value = value
		field.HasValue = true
		field.Multiline = isMultilineValue(value)
		return
	}

	field := &Field{Name: name, Value: value, HasValue: true, Multiline: isMultilineValue(value)}
	d.fields[key] = field
	d.blocks = append(d.blocks, block{kind: blockField, field: field})
}

// Fields returns every field in document order, loop members included.
func (d *Document) Fields() []Field {
	var out []Field
	seen := make(map[string]struct{})
	for _, b := range d.blocks {
		switch b.kind {
		case blockField:
			out = append(out, *b.field)
			seen[strings.ToLower(b.field.Name)] = struct{}{}
		case blockLoop:
			for _, name := range b.loop.FieldNames {
				key := strings.ToLower(name)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				if field, ok := d.fields[key]; ok {
					out = append(out, *field)
				}
			}
		}
	}
	return out
}

// Loops returns the document's loop constructs in order.
func (d *Document) Loops() []Loop {
	out := make([]Loop, 0, len(d.loops))
	for _, l := range d.loops {
		out = append(out, *l)
	}
	return out
}
