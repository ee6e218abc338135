package category

import (
	"fmt"
	"strings"
)

// Validator checks category names against a fixed taxonomy.
type Validator struct {
	canonical map[string]string // normalized -> canonical name
}

// NewValidator builds a validator over names.
func NewValidator(names []string) *Validator {
	v := &Validator{canonical: make(map[string]string, len(names))}
	for _, n := range names {
		v.canonical[normalizeCategory(n)] = strings.TrimSpace(n)
	}
	return v
}

// Validate returns the canonical spelling of category, or an error when the
// category is not part of the taxonomy.
func (v *Validator) Validate(category string) (string, error) {
	norm := normalizeCategory(category)
	if name, ok := v.canonical[norm]; ok {
		return name, nil
	}
	return "", fmt.Errorf("invalid category: %q (normalized: %q)", category, norm)
}

// Canonicalize maps category onto the taxonomy, falling back to
// Uncategorized for unknown names.
func (v *Validator) Canonicalize(category string) string {
	if name, err := v.Validate(category); err == nil {
		return name
	}
	return Uncategorized
}

// normalizeCategory normalizes a category name for comparison.
func normalizeCategory(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
