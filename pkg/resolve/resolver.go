// Package resolve walks the user through alias conflicts one group at a
// time: pick the spelling that survives, pick (or type) the value it keeps,
// confirm. The decisions come back as a resolution map ready for
// Manager.ApplyFieldConflictResolutions.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/cifworks/go-cifmodel/pkg/model"
)

const (
	optSkip    = "Skip this conflict"
	optSkipAll = "Skip all remaining conflicts"

	noValueLabel = "(present, no value found)"
)

// Resolver drives the interactive resolution flow through a PromptDriver.
type Resolver struct {
	driver PromptDriver
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithDriver swaps the prompt driver, used by tests and callers embedding
// the flow in another interface.
func WithDriver(d PromptDriver) Option {
	return func(r *Resolver) {
		r.driver = d
	}
}

// New returns a Resolver prompting on the terminal unless WithDriver says
// otherwise.
func New(opts ...Option) *Resolver {
	r := &Resolver{driver: newSurveyDriver()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run presents every conflict group and collects the decisions, keyed by
// canonical name. Skipped groups are absent from the map. An interrupt
// surfaces as ErrAborted; partial decisions are discarded.
func (r *Resolver) Run(ctx context.Context, content string, conflicts []model.AliasConflict) (map[string]model.Resolution, error) {
	resolutions := make(map[string]model.Resolution)
	lines := strings.Split(content, "\n")

	for i, conflict := range conflicts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := r.driver.Info(ctx, describeConflict(i+1, len(conflicts), conflict, lines)); err != nil {
			return nil, err
		}

		spellings := conflict.Spellings()
		options := append(append([]string{}, spellings...), optSkip, optSkipAll)
		choice, err := r.driver.Select(ctx, SelectConfig{
			Message:      "Field name to keep:",
			Options:      options,
			DefaultIndex: defaultSpelling(spellings, conflict.Canonical),
			Help:         "These are all spellings of the same field; one survives.",
		})
		if err != nil {
			return nil, err
		}
		switch {
		case choice < 0 || choice >= len(options):
			continue
		case options[choice] == optSkip:
			continue
		case options[choice] == optSkipAll:
			return resolutions, nil
		}
		chosen := options[choice]

		value, pickErr := r.pickValue(ctx, conflict)
		if pickErr != nil {
			return nil, pickErr
		}

		ok, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: confirmMessage(chosen, value),
			Default: true,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		resolutions[conflict.Canonical] = model.Resolution{Field: chosen, Value: value}
	}

	return resolutions, nil
}

// pickValue decides which value the surviving field keeps. Loop conflicts
// keep their data rows, so the sentinel goes through untouched. When the
// spellings carried different inline values the user picks one, with an
// escape hatch to type a fresh value.
func (r *Resolver) pickValue(ctx context.Context, conflict model.AliasConflict) (string, error) {
	if anyInLoop(conflict) {
		return model.LoopValueSentinel, nil
	}

	values := distinctValues(conflict)
	switch len(values) {
	case 0:
		return r.driver.Input(ctx, InputConfig{
			Message: "Value for " + conflict.Canonical + ":",
			Help:    "No inline value was found for any spelling.",
		})
	case 1:
		return values[0], nil
	}

	const optOther = "Enter a different value"
	options := append(append([]string{}, values...), optOther)
	choice, err := r.driver.Select(ctx, SelectConfig{
		Message: "Value to keep:",
		Options: options,
	})
	if err != nil {
		return "", err
	}
	if choice >= 0 && choice < len(values) {
		return values[choice], nil
	}
	return r.driver.Input(ctx, InputConfig{
		Message: "Value for " + conflict.Canonical + ":",
		Default: values[0],
	})
}

func describeConflict(n, total int, conflict model.AliasConflict, lines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nConflict %d of %d: %s\n", n, total, conflict.Canonical)
	for _, occ := range conflict.Occurrences {
		value := occ.Value
		if value == "" {
			// No inline value captured: show the raw line for context.
			if occ.LineNumber >= 1 && occ.LineNumber <= len(lines) {
				value = strings.TrimSpace(lines[occ.LineNumber-1])
			}
			if value == "" || value == occ.Name {
				value = noValueLabel
			}
		}
		fmt.Fprintf(&b, "  - %s (line %d): %s\n", occ.Name, occ.LineNumber, value)
	}
	return strings.TrimRight(b.String(), "\n")
}

func confirmMessage(field, value string) string {
	if value == model.LoopValueSentinel {
		return fmt.Sprintf("Keep %s (loop data preserved)?", field)
	}
	return fmt.Sprintf("Keep %s = %q?", field, value)
}

func defaultSpelling(spellings []string, canonical string) int {
	for i, s := range spellings {
		if strings.EqualFold(s, canonical) {
			return i
		}
	}
	return 0
}

func anyInLoop(conflict model.AliasConflict) bool {
	for _, occ := range conflict.Occurrences {
		if occ.InLoop {
			return true
		}
	}
	return false
}

// distinctValues returns the usable inline values in first-seen order,
// dropping empties and the loop sentinel.
func distinctValues(conflict model.AliasConflict) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, occ := range conflict.Occurrences {
		if occ.Value == "" || occ.Value == model.LoopValueSentinel {
			continue
		}
		if _, dup := seen[occ.Value]; dup {
			continue
		}
		seen[occ.Value] = struct{}{}
		out = append(out, occ.Value)
	}
	return out
}
