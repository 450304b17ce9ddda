package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// fallbackSlug is used when a name has no slug-safe characters
const fallbackSlug = "product"

var (
	slugUnsafe     = regexp.MustCompile(`[^\w\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
)

// BaseSlug derives a slug from a product name: characters other than word
// characters, whitespace and hyphens are dropped and whitespace runs become "-".
func BaseSlug(name string) string {
	s := slugUnsafe.ReplaceAllString(name, "")
	s = slugWhitespace.ReplaceAllString(strings.TrimSpace(s), "-")
	if s == "" {
		return fallbackSlug
	}
	return s
}

// NextSlug picks the first free slug for base given the slugs already in use.
// Siblings are base itself and base-N, compared case-insensitively.
func NextSlug(base string, existing []string) string {
	sibling := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(base) + `(?:-(\d+))?$`)

	found, numbered, max := false, false, 0
	for _, s := range existing {
		m := sibling.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		found = true
		if m[1] == "" {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			numbered = true
			if n > max {
				max = n
			}
		}
	}

	switch {
	case numbered:
		return fmt.Sprintf("%s-%d", base, max+1)
	case found:
		return base + "-1"
	default:
		return base
	}
}
