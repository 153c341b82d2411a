package report

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	"github.com/flosch/pongo2/v6"
	gotemplatepkg "github.com/goliatone/go-template"
	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"

	"github.com/cifworks/go-cifmodel/pkg/model"
)

//go:embed templates/*.html
var builtinTemplates embed.FS

const reportTemplate = "report.html"

// HTMLOption configures the HTML renderer before construction.
type HTMLOption func(*htmlConfig)

type htmlConfig struct {
	templates    fs.FS
	sanitizer    *bluemonday.Policy
	selector     theme.ThemeSelector
	themeName    string
	themeVariant string
}

// WithTemplatesFS swaps the embedded templates for caller-provided ones. The
// filesystem must contain report.html at its root.
func WithTemplatesFS(files fs.FS) HTMLOption {
	return func(cfg *htmlConfig) {
		cfg.templates = files
	}
}

// WithSanitizer overrides the policy applied to description text.
func WithSanitizer(policy *bluemonday.Policy) HTMLOption {
	return func(cfg *htmlConfig) {
		if policy != nil {
			cfg.sanitizer = policy
		}
	}
}

// WithTheme resolves styling tokens through a go-theme selector instead of
// the built-in defaults.
func WithTheme(selector theme.ThemeSelector, name, variant string) HTMLOption {
	return func(cfg *htmlConfig) {
		cfg.selector = selector
		cfg.themeName = name
		cfg.themeVariant = variant
	}
}

// WithEngineOptions accepts go-template engine options for callers sharing
// configuration with other go-template surfaces and is currently a no-op.
func WithEngineOptions(_ ...gotemplatepkg.Option) HTMLOption {
	return func(*htmlConfig) {}
}

// HTMLRenderer renders a Report as a standalone HTML document from embedded
// pongo2 templates.
type HTMLRenderer struct {
	set          *pongo2.TemplateSet
	sanitizer    *bluemonday.Policy
	selector     theme.ThemeSelector
	themeName    string
	themeVariant string
}

var _ Renderer = (*HTMLRenderer)(nil)

// NewHTML constructs the HTML renderer.
func NewHTML(opts ...HTMLOption) (*HTMLRenderer, error) {
	cfg := &htmlConfig{sanitizer: descSanitizer()}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	files := cfg.templates
	if files == nil {
		sub, err := fs.Sub(builtinTemplates, "templates")
		if err != nil {
			return nil, fmt.Errorf("report: embedded templates: %w", err)
		}
		files = sub
	}

	return &HTMLRenderer{
		set:          pongo2.NewSet("report", pongo2.NewFSLoader(files)),
		sanitizer:    cfg.sanitizer,
		selector:     cfg.selector,
		themeName:    cfg.themeName,
		themeVariant: cfg.themeVariant,
	}, nil
}

func (r *HTMLRenderer) Render(ctx context.Context, rep Report) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpl, err := r.set.FromFile(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("report: load template: %w", err)
	}

	cssVars, err := r.resolveCSSVars()
	if err != nil {
		return nil, err
	}

	data, err := toContext(r.sanitize(rep))
	if err != nil {
		return nil, err
	}

	title := rep.Title
	if title == "" {
		title = "CIF Validation Report"
	}
	out, err := tmpl.ExecuteBytes(pongo2.Context{
		"title":     title,
		"generated": rep.GeneratedAt.Format("2006-01-02 15:04:05"),
		"cssVars":   cssVars,
		"report":    data,
	})
	if err != nil {
		return nil, fmt.Errorf("report: execute template: %w", err)
	}
	return out, nil
}

// sanitize returns a copy of the report with description text cleaned.
// Dictionary files feed these strings, so they are treated as untrusted.
func (r *HTMLRenderer) sanitize(rep Report) Report {
	if rep.Names != nil {
		names := *rep.Names
		names.ValidFields = sanitizeResults(r.sanitizer, names.ValidFields)
		names.RegisteredFields = sanitizeResults(r.sanitizer, names.RegisteredFields)
		names.AllowedFields = sanitizeResults(r.sanitizer, names.AllowedFields)
		names.UnknownFields = sanitizeResults(r.sanitizer, names.UnknownFields)
		names.DeprecatedFields = sanitizeResults(r.sanitizer, names.DeprecatedFields)
		rep.Names = &names
	}

	if len(rep.RuleIssues) > 0 {
		issues := append([]model.ValidationIssue{}, rep.RuleIssues...)
		for i := range issues {
			issues[i].Description = sanitizeText(r.sanitizer, issues[i].Description)
			issues[i].SuggestedFix = sanitizeText(r.sanitizer, issues[i].SuggestedFix)
		}
		rep.RuleIssues = issues
	}

	if len(rep.Dictionaries) > 0 {
		dicts := append([]model.DictionaryInfo{}, rep.Dictionaries...)
		for i := range dicts {
			dicts[i].Description = sanitizeText(r.sanitizer, dicts[i].Description)
		}
		rep.Dictionaries = dicts
	}

	return rep
}

func sanitizeResults(policy *bluemonday.Policy, in []model.FieldValidationResult) []model.FieldValidationResult {
	if len(in) == 0 {
		return in
	}
	out := append([]model.FieldValidationResult{}, in...)
	for i := range out {
		out[i].Description = sanitizeText(policy, out[i].Description)
	}
	return out
}

// resolveCSSVars turns theme tokens into CSS custom properties. Without a
// selector the built-in light theme applies.
func (r *HTMLRenderer) resolveCSSVars() (map[string]string, error) {
	manifest := defaultManifest()
	variantTokens := map[string]string{}

	if r.selector != nil {
		selection, err := r.selector.Select(r.themeName, r.themeVariant)
		if err != nil {
			return nil, fmt.Errorf("report: select theme: %w", err)
		}
		if selection != nil && selection.Manifest != nil {
			manifest = selection.Manifest
			if variant, ok := manifest.Variants[selection.Variant]; ok {
				variantTokens = variant.Tokens
			}
		}
	}

	vars := make(map[string]string, len(manifest.Tokens))
	for name, value := range manifest.Tokens {
		vars["--"+name] = value
	}
	for name, value := range variantTokens {
		vars["--"+name] = value
	}
	return vars, nil
}

// defaultManifest is the light theme used when no selector is configured.
func defaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "default",
		Version: "1.0.0",
		Tokens: map[string]string{
			"bg":      "#ffffff",
			"fg":      "#1f2430",
			"accent":  "#0f4c81",
			"warn":    "#9a3b00",
			"ok":      "#1d6b3a",
			"surface": "#f4f6f8",
			"border":  "#d8dee4",
		},
	}
}

// toContext converts the report through JSON so templates see the same keys
// the API serializes.
func toContext(rep Report) (map[string]any, error) {
	raw, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("report: encode context: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("report: decode context: %w", err)
	}
	return out, nil
}
