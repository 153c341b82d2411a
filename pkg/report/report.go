// Package report renders validation and conversion results for people:
// a plain-text summary for terminals and an HTML document for sharing.
// Renderers take a Report bundle so the CLI can compose whatever subset of
// results a run produced.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cifworks/go-cifmodel/pkg/model"
)

// Report bundles the results one render covers. Nil or empty sections are
// skipped by both renderers.
type Report struct {
	Title        string                  `json:"title"`
	Source       string                  `json:"source,omitempty"`
	Format       string                  `json:"format,omitempty"`
	GeneratedAt  time.Time               `json:"generatedAt"`
	Names        *model.ValidationReport `json:"names,omitempty"`
	RuleIssues   []model.ValidationIssue `json:"ruleIssues,omitempty"`
	Changes      []string                `json:"changes,omitempty"`
	Dictionaries []model.DictionaryInfo  `json:"dictionaries,omitempty"`
}

// Renderer turns a Report into one output document.
type Renderer interface {
	Render(ctx context.Context, rep Report) ([]byte, error)
}

// TextRenderer writes the plain summary the CLI prints.
type TextRenderer struct{}

var _ Renderer = (*TextRenderer)(nil)

// NewText returns the plain-text renderer.
func NewText() *TextRenderer {
	return &TextRenderer{}
}

func (r *TextRenderer) Render(ctx context.Context, rep Report) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var b strings.Builder
	title := rep.Title
	if title == "" {
		title = "CIF Validation Report"
	}
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n")
	if rep.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", rep.Source)
	}
	if rep.Format != "" {
		fmt.Fprintf(&b, "Format: %s\n", rep.Format)
	}

	if rep.Names != nil {
		n := rep.Names
		fmt.Fprintf(&b, "\nData names: %d total (%d valid, %d registered, %d allowed, %d unknown, %d deprecated)\n",
			n.TotalFields, len(n.ValidFields), len(n.RegisteredFields),
			len(n.AllowedFields), len(n.UnknownFields), len(n.DeprecatedFields))
		writeNameBucket(&b, "Unknown", n.UnknownFields)
		writeNameBucket(&b, "Deprecated", n.DeprecatedFields)
		writeNameBucket(&b, "Registered", n.RegisteredFields)
	}

	if len(rep.RuleIssues) > 0 {
		fmt.Fprintf(&b, "\nRule issues (%d):\n", len(rep.RuleIssues))
		for _, issue := range rep.RuleIssues {
			fmt.Fprintf(&b, "  [%s] %s\n", issue.Type.DisplayName(), issue.Description)
			if issue.SuggestedFix != "" {
				fmt.Fprintf(&b, "      fix: %s\n", issue.SuggestedFix)
			}
		}
	}

	if len(rep.Changes) > 0 {
		fmt.Fprintf(&b, "\nChanges applied (%d):\n", len(rep.Changes))
		for _, change := range rep.Changes {
			fmt.Fprintf(&b, "  - %s\n", change)
		}
	}

	if len(rep.Dictionaries) > 0 {
		fmt.Fprintf(&b, "\nDictionaries (%d):\n", len(rep.Dictionaries))
		for _, d := range rep.Dictionaries {
			status := ""
			if d.Active {
				status = ", active"
			}
			fmt.Fprintf(&b, "  - %s (%s, %d fields%s)\n", d.Name, d.Format, d.FieldCount, status)
		}
	}

	return []byte(b.String()), nil
}

func writeNameBucket(b *strings.Builder, label string, results []model.FieldValidationResult) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintf(b, "%s fields:\n", label)
	for _, res := range results {
		line := "  " + res.FieldName
		if res.LineNumber > 0 {
			line += fmt.Sprintf(" (line %d)", res.LineNumber)
		}
		if res.Description != "" {
			line += ": " + res.Description
		}
		if res.SuggestedDictionary != "" {
			line += " [dictionary: " + res.SuggestedDictionary + "]"
		}
		b.WriteString(line + "\n")
	}
}
