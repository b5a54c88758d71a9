package service

import (
	"regexp"
	"strings"
)

var reNonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases s and collapses every run of non alphanumerics into a
// single dash.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = reNonSlug.ReplaceAllLiteralString(s, "-")
	return strings.Trim(s, "-")
}
