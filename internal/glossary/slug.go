package glossary

import (
	"regexp"
	"strings"
)

const (
	MinSlugLength = 3
	MaxSlugLength = 48

	// MinDefinitionLength is counted in characters, not bytes
	MinDefinitionLength = 80
)

// SlugPattern is the shape every slug must have: lowercase alphanumeric runs
// joined by single hyphens
var SlugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// SlugMatchesPattern reports whether s has the slug shape, ignoring length
func SlugMatchesPattern(s string) bool {
	return SlugPattern.MatchString(s)
}

// ValidSlug reports whether s has the slug shape and a length within bounds
func ValidSlug(s string) bool {
	return len(s) >= MinSlugLength && len(s) <= MaxSlugLength && SlugMatchesPattern(s)
}

// IdentityKey projects a name onto lowercase ASCII letters and digits. Two
// names with the same key are considered the same term.
func IdentityKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
