package report

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	descPolicyOnce sync.Once
	descPolicy     *bluemonday.Policy
)

// descSanitizer strips markup from dictionary-sourced description text.
// Dictionary files are third-party input, so descriptions go through
// bluemonday before they reach a template.
func descSanitizer() *bluemonday.Policy {
	descPolicyOnce.Do(func() {
		descPolicy = bluemonday.StrictPolicy()
	})
	return descPolicy
}

func sanitizeText(policy *bluemonday.Policy, raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(policy.Sanitize(raw))
}
