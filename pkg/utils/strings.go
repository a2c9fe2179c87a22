package utils

import (
	"regexp"
	"strings"
)

var (
	slugInvalid = regexp.MustCompile("[^a-z0-9 -]+")
	slugDashes  = regexp.MustCompile("-+")
)

// GenerateSlug converts a string into a URL-friendly slug.
// e.g. "Deprisa Express!" -> "deprisa-express"
func GenerateSlug(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = slugInvalid.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
